package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/cineops/showtime-api/internal/models"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
)

// maxSlotsPerRoomDay approximates the half-hour slots a room can host in one
// operating day, used as the efficiency denominator.
const maxSlotsPerRoomDay = 28

type predictionRepository interface {
	Create(ctx context.Context, prediction *models.PredictionData) error
	FindByForecast(ctx context.Context, forecastID string) (*models.PredictionData, error)
	DeleteByForecast(ctx context.Context, forecastID string) error
}

type predictionCinemaReader interface {
	ListActive(ctx context.Context) ([]models.CinemaView, error)
}

// PredictionService derives one aggregate-metrics record per forecast from
// its generated slate. Seat availability joins the real room capacities
// rather than estimating them back from max_sales.
type PredictionService struct {
	predictions predictionRepository
	cinemas     predictionCinemaReader
	rng         *rand.Rand
	logger      *zap.Logger
}

// NewPredictionService wires the synthesizer. A nil rng gets a time-seeded
// source; tests inject a fixed seed.
func NewPredictionService(predictions predictionRepository, cinemas predictionCinemaReader, rng *rand.Rand, logger *zap.Logger) *PredictionService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionService{predictions: predictions, cinemas: cinemas, rng: rng, logger: logger}
}

// Synthesize computes and persists the metrics record for a generated slate.
func (s *PredictionService) Synthesize(ctx context.Context, forecast *models.Forecast, schedules []models.ScheduleView) (*models.PredictionData, error) {
	capacities, err := s.roomCapacities(ctx)
	if err != nil {
		return nil, err
	}

	metrics := s.buildMetrics(forecast, schedules, capacities)
	blob, err := json.Marshal(metrics)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode prediction metrics")
	}

	prediction := &models.PredictionData{
		ForecastID:      forecast.ID,
		Metrics:         blob,
		ConfidenceScore: s.confidenceScore(len(schedules)),
		ErrorMargin:     s.errorMargin(len(schedules)),
	}
	if err := s.predictions.Create(ctx, prediction); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist prediction")
	}
	return prediction, nil
}

// GetByForecast loads the prediction record for a forecast.
func (s *PredictionService) GetByForecast(ctx context.Context, forecastID string) (*models.PredictionData, error) {
	prediction, err := s.predictions.FindByForecast(ctx, forecastID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "prediction not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prediction")
	}
	return prediction, nil
}

// DeleteByForecast removes the prediction record before regeneration.
func (s *PredictionService) DeleteByForecast(ctx context.Context, forecastID string) error {
	if err := s.predictions.DeleteByForecast(ctx, forecastID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete prediction")
	}
	return nil
}

func (s *PredictionService) buildMetrics(forecast *models.Forecast, schedules []models.ScheduleView, capacities map[string]int) models.PredictionMetrics {
	rooms := make(map[string]bool)
	movies := make(map[string]bool)
	var minDay, maxDay time.Time
	usableMinutes := 0
	seatsSold := 0
	seatsAvailable := 0
	revenue := 0.0

	for _, schedule := range schedules {
		rooms[schedule.CinemaID] = true
		movies[schedule.MovieID] = true
		day := schedule.TimeSlot.UTC().Truncate(24 * time.Hour)
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		if maxDay.IsZero() || day.After(maxDay) {
			maxDay = day
		}
		usableMinutes += schedule.DurationMinutes
		seatsSold += schedule.MaxSales
		revenue += (schedule.UnitPrice + schedule.ServiceFee) * float64(schedule.MaxSales)
		if capacity, ok := capacities[schedule.CinemaID]; ok {
			seatsAvailable += capacity
		} else {
			seatsAvailable += schedule.MaxSales
		}
	}

	// The slate spans every calendar day between its first and last show,
	// including days that produced no schedules.
	dayCount := 0
	if !minDay.IsZero() {
		dayCount = int(maxDay.Sub(minDay).Hours()/24) + 1
	}

	efficiency := 0.0
	if len(rooms) > 0 && dayCount > 0 {
		efficiency = float64(len(schedules)) / float64(len(rooms)*dayCount*maxSlotsPerRoomDay) * 100
		if efficiency > 100 {
			efficiency = 100
		}
	}
	occupancy := 0.0
	if seatsAvailable > 0 {
		occupancy = float64(seatsSold) / float64(seatsAvailable) * 100
	}

	// 20-30% of distinct movies, a stand-in until release dates feed a real
	// new-title signal.
	estimatedNew := int(math.Round(float64(len(movies)) * (0.20 + s.rng.Float64()*0.10)))

	return models.PredictionMetrics{
		Schedule: models.ScheduleShapeMetrics{
			TotalShows:          len(schedules),
			RoomsUsed:           len(rooms),
			DaysCovered:         dayCount,
			MoviesScheduled:     len(movies),
			EstimatedNewMovies:  estimatedNew,
			EfficiencyPercent:   math.Round(efficiency*100) / 100,
			CleanupMinutesTotal: len(schedules) * CleanupMinutes,
			UsableMinutesTotal:  usableMinutes,
		},
		Forecast: models.ForecastLevelMetrics{
			SeatsSold:        seatsSold,
			SeatsAvailable:   seatsAvailable,
			OccupancyPercent: math.Round(occupancy*100) / 100,
			ProjectedRevenue: math.Round(revenue*100) / 100,
		},
	}
}

// confidenceScore grows with slate size up to a cap and always lands in
// [0.70, 0.85].
func (s *PredictionService) confidenceScore(showCount int) float64 {
	bonus := math.Min(float64(showCount)/1000, 0.10)
	jitter := (s.rng.Float64() - 0.5) * 0.10
	return clampFloat(0.75+bonus+jitter, 0.70, 0.85)
}

// errorMargin shrinks with slate size down to a floor and always lands in
// [0.10, 0.20].
func (s *PredictionService) errorMargin(showCount int) float64 {
	quality := math.Max(0.05, 0.20-float64(showCount)/10000)
	jitter := (s.rng.Float64() - 0.5) * 0.04
	return clampFloat(0.15+quality+jitter, 0.10, 0.20)
}

func (s *PredictionService) roomCapacities(ctx context.Context) (map[string]int, error) {
	rooms, err := s.cinemas.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room capacities")
	}
	capacities := make(map[string]int, len(rooms))
	for _, room := range rooms {
		capacities[room.ID] = room.TotalSeats
	}
	return capacities, nil
}
