package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// PredictionData is the single aggregate-metrics record summarizing a
// forecast's generated slate. The figures are heuristic placeholders for a
// future predictive model; consumers must treat them as advisory.
type PredictionData struct {
	ID              string         `db:"id" json:"id"`
	ForecastID      string         `db:"forecast_id" json:"forecast_id"`
	Metrics         types.JSONText `db:"metrics" json:"metrics"`
	ConfidenceScore float64        `db:"confidence_score" json:"confidence_score"`
	ErrorMargin     float64        `db:"error_margin" json:"error_margin"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

// PredictionMetrics is the structured metrics blob. The `schedule` and
// `forecast` sub-object key names are part of the external contract.
type PredictionMetrics struct {
	Schedule ScheduleShapeMetrics `json:"schedule"`
	Forecast ForecastLevelMetrics `json:"forecast"`
}

// ScheduleShapeMetrics describes the generated slate itself.
type ScheduleShapeMetrics struct {
	TotalShows          int     `json:"total_shows"`
	RoomsUsed           int     `json:"rooms_used"`
	DaysCovered         int     `json:"days_covered"`
	MoviesScheduled     int     `json:"movies_scheduled"`
	EstimatedNewMovies  int     `json:"estimated_new_movies"`
	EfficiencyPercent   float64 `json:"efficiency_percent"`
	CleanupMinutesTotal int     `json:"cleanup_minutes_total"`
	UsableMinutesTotal  int     `json:"usable_minutes_total"`
}

// ForecastLevelMetrics aggregates projected occupancy and revenue.
type ForecastLevelMetrics struct {
	SeatsSold        int     `json:"seats_sold"`
	SeatsAvailable   int     `json:"seats_available"`
	OccupancyPercent float64 `json:"occupancy_percent"`
	ProjectedRevenue float64 `json:"projected_revenue"`
}
