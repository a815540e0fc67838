package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ForecastStatus enumerates generation lifecycle states.
type ForecastStatus string

const (
	ForecastStatusGenerating ForecastStatus = "generating"
	ForecastStatusCompleted  ForecastStatus = "completed"
	ForecastStatusFailed     ForecastStatus = "failed"
)

// Forecast is a batch-generation job synthesizing a slate of bookings over
// a date range under tunable optimization parameters.
type Forecast struct {
	ID                      string         `db:"id" json:"id"`
	Name                    string         `db:"name" json:"name"`
	Description             string         `db:"description" json:"description"`
	DateRangeStart          time.Time      `db:"date_range_start" json:"date_range_start"`
	DateRangeEnd            time.Time      `db:"date_range_end" json:"date_range_end"`
	Status                  ForecastStatus `db:"status" json:"status"`
	OptimizationParameters  types.JSONText `db:"optimization_parameters" json:"optimization_parameters"`
	TotalSchedulesGenerated int            `db:"total_schedules_generated" json:"total_schedules_generated"`
	CreatedBy               string         `db:"created_by" json:"created_by"`
	CreatedAt               time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time      `db:"updated_at" json:"updated_at"`
}

// OptimizationParameters is the caller-supplied tuning blob. Key names are
// part of the external contract and must not change.
type OptimizationParameters struct {
	RevenueGoal      float64            `json:"revenue_goal"`
	OccupancyGoal    float64            `json:"occupancy_goal"`
	MoviePreferences map[string]float64 `json:"movie_preferences,omitempty"`
}

// ForecastFilter describes query params for listing forecasts.
type ForecastFilter struct {
	Status   ForecastStatus
	Page     int
	PageSize int
}
