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

const forecastColumns = "id, name, description, date_range_start, date_range_end, status, optimization_parameters, total_schedules_generated, created_by, created_at, updated_at"

// ForecastRepository provides persistence for forecasts.
type ForecastRepository struct {
	db *sqlx.DB
}

// NewForecastRepository creates a new forecast repository.
func NewForecastRepository(db *sqlx.DB) *ForecastRepository {
	return &ForecastRepository{db: db}
}

// List returns forecasts with optional status filtering and pagination.
func (r *ForecastRepository) List(ctx context.Context, filter models.ForecastFilter) ([]models.Forecast, int, error) {
	base := "FROM forecasts WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
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
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", forecastColumns, base, size, offset)
	var forecasts []models.Forecast
	if err := r.db.SelectContext(ctx, &forecasts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list forecasts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count forecasts: %w", err)
	}

	return forecasts, total, nil
}

// FindByID loads a forecast by id.
func (r *ForecastRepository) FindByID(ctx context.Context, id string) (*models.Forecast, error) {
	query := fmt.Sprintf("SELECT %s FROM forecasts WHERE id = $1", forecastColumns)
	var forecast models.Forecast
	if err := r.db.GetContext(ctx, &forecast, query, id); err != nil {
		return nil, err
	}
	return &forecast, nil
}

// Create stores a new forecast record.
func (r *ForecastRepository) Create(ctx context.Context, forecast *models.Forecast) error {
	if forecast.ID == "" {
		forecast.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if forecast.CreatedAt.IsZero() {
		forecast.CreatedAt = now
	}
	forecast.UpdatedAt = now
	if forecast.Status == "" {
		forecast.Status = models.ForecastStatusGenerating
	}

	const query = `INSERT INTO forecasts (id, name, description, date_range_start, date_range_end, status, optimization_parameters, total_schedules_generated, created_by, created_at, updated_at) VALUES (:id, :name, :description, :date_range_start, :date_range_end, :status, :optimization_parameters, :total_schedules_generated, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, forecast); err != nil {
		return fmt.Errorf("create forecast: %w", err)
	}
	return nil
}

// UpdateStatus transitions the forecast lifecycle and records the number of
// schedules the run produced.
func (r *ForecastRepository) UpdateStatus(ctx context.Context, id string, status models.ForecastStatus, totalSchedules int) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE forecasts SET status = $2, total_schedules_generated = $3, updated_at = $4 WHERE id = $1`, id, status, totalSchedules, time.Now().UTC()); err != nil {
		return fmt.Errorf("update forecast status: %w", err)
	}
	return nil
}

// Delete removes a forecast and everything generated under it in one
// transaction: prediction data first, then schedules, then the forecast row.
func (r *ForecastRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete forecast: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM prediction_data WHERE forecast_id = $1`, id); err != nil {
		return fmt.Errorf("delete forecast predictions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM schedules WHERE forecast_id = $1`, id); err != nil {
		return fmt.Errorf("delete forecast schedules: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM forecasts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete forecast: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete forecast: %w", err)
	}
	return nil
}
