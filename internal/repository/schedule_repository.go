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

const scheduleViewColumns = `s.id, s.movie_id, s.cinema_id, s.forecast_id, s.time_slot, s.unit_price, s.service_fee, s.max_sales, s.current_sales, s.status, s.created_at, s.updated_at, m.title AS movie_title, m.duration_minutes, c.room_number`

const scheduleViewJoins = `FROM schedules s JOIN movies m ON m.id = s.movie_id JOIN cinemas c ON c.id = s.cinema_id`

// ScheduleRepository provides persistence for bookings.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns denormalized bookings with filtering and pagination.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleView, int, error) {
	base := scheduleViewJoins + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("s.time_slot >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("s.time_slot < $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.CinemaID != "" {
		conditions = append(conditions, fmt.Sprintf("s.cinema_id = $%d", len(args)+1))
		args = append(args, filter.CinemaID)
	}
	if filter.MovieID != "" {
		conditions = append(conditions, fmt.Sprintf("s.movie_id = $%d", len(args)+1))
		args = append(args, filter.MovieID)
	}
	if filter.ForecastID != "" {
		conditions = append(conditions, fmt.Sprintf("s.forecast_id = $%d", len(args)+1))
		args = append(args, filter.ForecastID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY s.time_slot ASC LIMIT %d OFFSET %d", scheduleViewColumns, base, size, offset)
	var schedules []models.ScheduleView
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// FindByID loads one denormalized booking.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleView, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.id = $1", scheduleViewColumns, scheduleViewJoins)
	var schedule models.ScheduleView
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListActiveInWindow returns active bookings in a room whose occupied
// window (start .. start + duration + cleanup) intersects [from, to).
// The predicate runs in SQL so a conflict check never scans the table.
func (r *ScheduleRepository) ListActiveInWindow(ctx context.Context, cinemaID string, from, to time.Time, cleanupMinutes int) ([]models.ScheduleView, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE s.cinema_id = $1 AND s.status = 'active' AND s.time_slot < $3 AND s.time_slot + ((m.duration_minutes + $4) * interval '1 minute') > $2 ORDER BY s.time_slot ASC`, scheduleViewColumns, scheduleViewJoins)
	var schedules []models.ScheduleView
	if err := r.db.SelectContext(ctx, &schedules, query, cinemaID, from, to, cleanupMinutes); err != nil {
		return nil, fmt.Errorf("list schedules in window: %w", err)
	}
	return schedules, nil
}

// Create stores a new booking.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	return r.insertSchedule(ctx, r.db, schedule)
}

// CreateWithTx stores a new booking inside an existing transaction so the
// caller can hold the conflict check and insert in one atomic unit.
func (r *ScheduleRepository) CreateWithTx(ctx context.Context, tx *sqlx.Tx, schedule *models.Schedule) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	return r.insertSchedule(ctx, tx, schedule)
}

// BulkCreateWithTx inserts many bookings using an existing transaction.
func (r *ScheduleRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, schedules []models.Schedule) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	for i := range schedules {
		if err := r.insertSchedule(ctx, tx, &schedules[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *ScheduleRepository) insertSchedule(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusActive
	}

	const query = `INSERT INTO schedules (id, movie_id, cinema_id, forecast_id, time_slot, unit_price, service_fee, max_sales, current_sales, status, created_at, updated_at) VALUES (:id, :movie_id, :cinema_id, :forecast_id, :time_slot, :unit_price, :service_fee, :max_sales, :current_sales, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, schedule); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// Update modifies a booking record.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET time_slot = :time_slot, unit_price = :unit_price, service_fee = :service_fee, max_sales = :max_sales, current_sales = :current_sales, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// UpdateStatus flips only the lifecycle status of a booking.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE schedules SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	return nil
}

// ListByForecast returns every booking generated for a forecast.
func (r *ScheduleRepository) ListByForecast(ctx context.Context, forecastID string) ([]models.ScheduleView, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.forecast_id = $1 ORDER BY s.time_slot ASC", scheduleViewColumns, scheduleViewJoins)
	var schedules []models.ScheduleView
	if err := r.db.SelectContext(ctx, &schedules, query, forecastID); err != nil {
		return nil, fmt.Errorf("list schedules by forecast: %w", err)
	}
	return schedules, nil
}

// DeleteByForecast removes all bookings tied to a forecast. Used on
// forecast deletion, regeneration, and generation rollback.
func (r *ScheduleRepository) DeleteByForecast(ctx context.Context, exec sqlx.ExtContext, forecastID string) error {
	if exec == nil {
		exec = r.db
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM schedules WHERE forecast_id = $1`, forecastID); err != nil {
		return fmt.Errorf("delete schedules by forecast: %w", err)
	}
	return nil
}
