package models

import (
	"fmt"
	"time"
)

// ScheduleStatus enumerates booking lifecycle states.
type ScheduleStatus string

const (
	ScheduleStatusActive    ScheduleStatus = "active"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
	ScheduleStatusCompleted ScheduleStatus = "completed"
)

// Valid reports whether the status is one of the known values.
func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleStatusActive, ScheduleStatusCancelled, ScheduleStatusCompleted:
		return true
	}
	return false
}

// Schedule assigns one movie to one room at one start instant.
// ForecastID is nil for manually created bookings and set for generated
// ones, which are cascade-deleted with their forecast.
type Schedule struct {
	ID           string         `db:"id" json:"id"`
	MovieID      string         `db:"movie_id" json:"movie_id"`
	CinemaID     string         `db:"cinema_id" json:"cinema_id"`
	ForecastID   *string        `db:"forecast_id" json:"forecast_id,omitempty"`
	TimeSlot     time.Time      `db:"time_slot" json:"time_slot"`
	UnitPrice    float64        `db:"unit_price" json:"unit_price"`
	ServiceFee   float64        `db:"service_fee" json:"service_fee"`
	MaxSales     int            `db:"max_sales" json:"max_sales"`
	CurrentSales int            `db:"current_sales" json:"current_sales"`
	Status       ScheduleStatus `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleView is the denormalized booking returned by the API: the booking
// row joined with movie and room identity.
type ScheduleView struct {
	Schedule
	MovieTitle      string `db:"movie_title" json:"movie_title"`
	DurationMinutes int    `db:"duration_minutes" json:"duration_minutes"`
	RoomNumber      int    `db:"room_number" json:"room_number"`
}

// ScheduleFilter describes query params for listing bookings. Date bounds
// are mandatory unless AllowUnbounded is set: the table grows without bound
// under forecast generation.
type ScheduleFilter struct {
	DateFrom       *time.Time
	DateTo         *time.Time
	CinemaID       string
	MovieID        string
	ForecastID     string
	Status         ScheduleStatus
	Page           int
	PageSize       int
	AllowUnbounded bool
}

// BookingConflict describes an existing booking that overlaps a candidate
// occupied window.
type BookingConflict struct {
	ScheduleID string    `json:"schedule_id"`
	MovieTitle string    `json:"movie_title"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Label      string    `json:"label"`
}

// BookingConflictError carries the full conflict list for 409 payloads.
type BookingConflictError struct {
	Message   string            `json:"message"`
	Conflicts []BookingConflict `json:"conflicts"`
}

// Error implements the error interface.
func (e *BookingConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// ConflictLabel renders the human-readable description used in API errors.
func ConflictLabel(movieTitle string, start, end time.Time) string {
	return fmt.Sprintf("%s (%s - %s)", movieTitle, start.Format("15:04"), end.Format("15:04"))
}

// SlotWindow is one available interval returned by day enumeration.
type SlotWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
