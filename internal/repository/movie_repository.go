package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cineops/showtime-api/internal/models"
)

const movieColumns = "id, title, duration_minutes, genre, rating, description, release_date, created_at, updated_at"

// MovieRepository provides persistence for the movie catalog.
type MovieRepository struct {
	db *sqlx.DB
}

// NewMovieRepository creates a new movie repository.
func NewMovieRepository(db *sqlx.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// List returns movies with optional filtering and pagination.
func (r *MovieRepository) List(ctx context.Context, filter models.MovieFilter) ([]models.Movie, int, error) {
	base := "FROM movies WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Genre != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(genre) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Genre)
	}
	if filter.Rating != "" {
		conditions = append(conditions, fmt.Sprintf("rating = $%d", len(args)+1))
		args = append(args, filter.Rating)
	}
	if filter.Title != "" {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Title+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY title ASC LIMIT %d OFFSET %d", movieColumns, base, size, offset)
	var movies []models.Movie
	if err := r.db.SelectContext(ctx, &movies, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	return movies, total, nil
}

// ListAll returns the full catalog ordered by title, used by the forecast
// generator which needs every candidate movie in memory.
func (r *MovieRepository) ListAll(ctx context.Context) ([]models.Movie, error) {
	query := fmt.Sprintf("SELECT %s FROM movies ORDER BY title ASC", movieColumns)
	var movies []models.Movie
	if err := r.db.SelectContext(ctx, &movies, query); err != nil {
		return nil, fmt.Errorf("list all movies: %w", err)
	}
	return movies, nil
}

// FindByID loads a movie by id.
func (r *MovieRepository) FindByID(ctx context.Context, id string) (*models.Movie, error) {
	query := fmt.Sprintf("SELECT %s FROM movies WHERE id = $1", movieColumns)
	var movie models.Movie
	if err := r.db.GetContext(ctx, &movie, query, id); err != nil {
		return nil, err
	}
	return &movie, nil
}

// FindByTitle looks a movie up by case-insensitive title match.
func (r *MovieRepository) FindByTitle(ctx context.Context, title string) (*models.Movie, error) {
	query := fmt.Sprintf("SELECT %s FROM movies WHERE LOWER(title) = LOWER($1)", movieColumns)
	var movie models.Movie
	if err := r.db.GetContext(ctx, &movie, query, title); err != nil {
		return nil, err
	}
	return &movie, nil
}

// CountActiveSchedules reports how many active bookings reference the movie.
func (r *MovieRepository) CountActiveSchedules(ctx context.Context, movieID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM schedules WHERE movie_id = $1 AND status = 'active'`, movieID); err != nil {
		return 0, fmt.Errorf("count active schedules for movie: %w", err)
	}
	return count, nil
}

// Create stores a new movie record.
func (r *MovieRepository) Create(ctx context.Context, movie *models.Movie) error {
	if movie.ID == "" {
		movie.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if movie.CreatedAt.IsZero() {
		movie.CreatedAt = now
	}
	movie.UpdatedAt = now

	const query = `INSERT INTO movies (id, title, duration_minutes, genre, rating, description, release_date, created_at, updated_at) VALUES (:id, :title, :duration_minutes, :genre, :rating, :description, :release_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, movie); err != nil {
		return fmt.Errorf("create movie: %w", err)
	}
	return nil
}

// Update modifies a movie record.
func (r *MovieRepository) Update(ctx context.Context, movie *models.Movie) error {
	movie.UpdatedAt = time.Now().UTC()
	const query = `UPDATE movies SET title = :title, duration_minutes = :duration_minutes, genre = :genre, rating = :rating, description = :description, release_date = :release_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, movie); err != nil {
		return fmt.Errorf("update movie: %w", err)
	}
	return nil
}

// Delete removes a movie by id.
func (r *MovieRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	return nil
}
