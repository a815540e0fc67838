package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cineops/showtime-api/internal/models"
)

// PredictionRepository provides persistence for forecast prediction records.
type PredictionRepository struct {
	db *sqlx.DB
}

// NewPredictionRepository creates a new prediction repository.
func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Create stores the single prediction record for a forecast.
func (r *PredictionRepository) Create(ctx context.Context, prediction *models.PredictionData) error {
	if prediction.ID == "" {
		prediction.ID = uuid.NewString()
	}
	if prediction.CreatedAt.IsZero() {
		prediction.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO prediction_data (id, forecast_id, metrics, confidence_score, error_margin, created_at) VALUES (:id, :forecast_id, :metrics, :confidence_score, :error_margin, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, prediction); err != nil {
		return fmt.Errorf("create prediction data: %w", err)
	}
	return nil
}

// FindByForecast loads the prediction record for a forecast.
func (r *PredictionRepository) FindByForecast(ctx context.Context, forecastID string) (*models.PredictionData, error) {
	const query = `SELECT id, forecast_id, metrics, confidence_score, error_margin, created_at FROM prediction_data WHERE forecast_id = $1`
	var prediction models.PredictionData
	if err := r.db.GetContext(ctx, &prediction, query, forecastID); err != nil {
		return nil, err
	}
	return &prediction, nil
}

// DeleteByForecast removes the prediction record ahead of regeneration.
func (r *PredictionRepository) DeleteByForecast(ctx context.Context, forecastID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM prediction_data WHERE forecast_id = $1`, forecastID); err != nil {
		return fmt.Errorf("delete prediction data: %w", err)
	}
	return nil
}
