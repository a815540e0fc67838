package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cineops/showtime-api/internal/models"
)

const cinemaViewColumns = `c.id, c.room_number, c.cinema_type_id, c.total_seats, c.location, c.features, c.is_active, c.created_at, c.updated_at, t.name AS type_name, t.price_multiplier`

// CinemaRepository provides persistence for rooms and their type catalog.
type CinemaRepository struct {
	db *sqlx.DB
}

// NewCinemaRepository creates a new cinema repository.
func NewCinemaRepository(db *sqlx.DB) *CinemaRepository {
	return &CinemaRepository{db: db}
}

// List returns all rooms joined with their pricing tier.
func (r *CinemaRepository) List(ctx context.Context) ([]models.CinemaView, error) {
	query := fmt.Sprintf(`SELECT %s FROM cinemas c JOIN cinema_types t ON t.id = c.cinema_type_id ORDER BY c.room_number ASC`, cinemaViewColumns)
	var cinemas []models.CinemaView
	if err := r.db.SelectContext(ctx, &cinemas, query); err != nil {
		return nil, fmt.Errorf("list cinemas: %w", err)
	}
	return cinemas, nil
}

// ListActive returns only bookable rooms, used by the forecast generator.
func (r *CinemaRepository) ListActive(ctx context.Context) ([]models.CinemaView, error) {
	query := fmt.Sprintf(`SELECT %s FROM cinemas c JOIN cinema_types t ON t.id = c.cinema_type_id WHERE c.is_active ORDER BY c.room_number ASC`, cinemaViewColumns)
	var cinemas []models.CinemaView
	if err := r.db.SelectContext(ctx, &cinemas, query); err != nil {
		return nil, fmt.Errorf("list active cinemas: %w", err)
	}
	return cinemas, nil
}

// FindByID loads a room with its tier by id.
func (r *CinemaRepository) FindByID(ctx context.Context, id string) (*models.CinemaView, error) {
	query := fmt.Sprintf(`SELECT %s FROM cinemas c JOIN cinema_types t ON t.id = c.cinema_type_id WHERE c.id = $1`, cinemaViewColumns)
	var cinema models.CinemaView
	if err := r.db.GetContext(ctx, &cinema, query, id); err != nil {
		return nil, err
	}
	return &cinema, nil
}

// FindByRoomNumber resolves the human-facing room number to a room.
func (r *CinemaRepository) FindByRoomNumber(ctx context.Context, roomNumber int) (*models.CinemaView, error) {
	query := fmt.Sprintf(`SELECT %s FROM cinemas c JOIN cinema_types t ON t.id = c.cinema_type_id WHERE c.room_number = $1`, cinemaViewColumns)
	var cinema models.CinemaView
	if err := r.db.GetContext(ctx, &cinema, query, roomNumber); err != nil {
		return nil, err
	}
	return &cinema, nil
}

// ListTypes returns the fixed tier catalog.
func (r *CinemaRepository) ListTypes(ctx context.Context) ([]models.CinemaType, error) {
	var types []models.CinemaType
	if err := r.db.SelectContext(ctx, &types, `SELECT id, name, price_multiplier FROM cinema_types ORDER BY price_multiplier ASC`); err != nil {
		return nil, fmt.Errorf("list cinema types: %w", err)
	}
	return types, nil
}

// FindTypeByID loads one pricing tier.
func (r *CinemaRepository) FindTypeByID(ctx context.Context, id string) (*models.CinemaType, error) {
	var cinemaType models.CinemaType
	if err := r.db.GetContext(ctx, &cinemaType, `SELECT id, name, price_multiplier FROM cinema_types WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &cinemaType, nil
}

// Create stores a new room record.
func (r *CinemaRepository) Create(ctx context.Context, cinema *models.Cinema) error {
	if cinema.ID == "" {
		cinema.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cinema.CreatedAt.IsZero() {
		cinema.CreatedAt = now
	}
	cinema.UpdatedAt = now

	const query = `INSERT INTO cinemas (id, room_number, cinema_type_id, total_seats, location, features, is_active, created_at, updated_at) VALUES (:id, :room_number, :cinema_type_id, :total_seats, :location, :features, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cinema); err != nil {
		return fmt.Errorf("create cinema: %w", err)
	}
	return nil
}

// Update modifies a room record.
func (r *CinemaRepository) Update(ctx context.Context, cinema *models.Cinema) error {
	cinema.UpdatedAt = time.Now().UTC()
	const query = `UPDATE cinemas SET room_number = :room_number, cinema_type_id = :cinema_type_id, total_seats = :total_seats, location = :location, features = :features, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, cinema); err != nil {
		return fmt.Errorf("update cinema: %w", err)
	}
	return nil
}

// Delete removes a room by id.
func (r *CinemaRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cinemas WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete cinema: %w", err)
	}
	return nil
}
