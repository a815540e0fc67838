package models

import "time"

// Movie is a title in the catalog. DurationMinutes drives conflict windows,
// so edits to it are guarded while active bookings reference the movie.
type Movie struct {
	ID              string     `db:"id" json:"id"`
	Title           string     `db:"title" json:"title"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	Genre           string     `db:"genre" json:"genre"`
	Rating          string     `db:"rating" json:"rating"`
	Description     string     `db:"description" json:"description"`
	ReleaseDate     *time.Time `db:"release_date" json:"release_date,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// MovieFilter describes query params for listing movies.
type MovieFilter struct {
	Title    string
	Genre    string
	Rating   string
	Page     int
	PageSize int
}
