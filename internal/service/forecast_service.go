package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/cineops/showtime-api/internal/models"
	"github.com/cineops/showtime-api/pkg/config"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
)

// Base ticket prices by time-of-day bucket, before tier and weekend
// multipliers.
const (
	morningBasePrice   = 8.50
	afternoonBasePrice = 10.00
	eveningBasePrice   = 12.50
	weekendUplift      = 1.1
	serviceFeeRate     = 0.15
)

type forecastRepository interface {
	List(ctx context.Context, filter models.ForecastFilter) ([]models.Forecast, int, error)
	FindByID(ctx context.Context, id string) (*models.Forecast, error)
	Create(ctx context.Context, forecast *models.Forecast) error
	UpdateStatus(ctx context.Context, id string, status models.ForecastStatus, totalSchedules int) error
	Delete(ctx context.Context, id string) error
}

type forecastScheduleStore interface {
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, schedules []models.Schedule) error
	ListActiveInWindow(ctx context.Context, cinemaID string, from, to time.Time, cleanupMinutes int) ([]models.ScheduleView, error)
	ListByForecast(ctx context.Context, forecastID string) ([]models.ScheduleView, error)
	DeleteByForecast(ctx context.Context, exec sqlx.ExtContext, forecastID string) error
}

type forecastMovieReader interface {
	ListAll(ctx context.Context) ([]models.Movie, error)
}

type forecastCinemaReader interface {
	ListActive(ctx context.Context) ([]models.CinemaView, error)
}

type predictionSynthesizer interface {
	Synthesize(ctx context.Context, forecast *models.Forecast, schedules []models.ScheduleView) (*models.PredictionData, error)
	DeleteByForecast(ctx context.Context, forecastID string) error
}

type forecastTxProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// CreateForecastRequest describes payload for creating a forecast.
type CreateForecastRequest struct {
	Name           string                         `json:"name" validate:"required"`
	Description    string                         `json:"description"`
	DateRangeStart time.Time                      `json:"date_range_start" validate:"required"`
	DateRangeEnd   time.Time                      `json:"date_range_end" validate:"required"`
	Parameters     *models.OptimizationParameters `json:"optimization_parameters,omitempty"`
	CreatedBy      string                         `json:"created_by"`
}

// ForecastService runs slate generation: it fills every active room's
// operating day with conflict-free showings across the requested range, then
// hands the slate to the prediction synthesizer.
type ForecastService struct {
	forecasts   forecastRepository
	schedules   forecastScheduleStore
	movies      forecastMovieReader
	cinemas     forecastCinemaReader
	predictions predictionSynthesizer
	strategy    SelectionStrategy
	tx          forecastTxProvider
	notifier    Notifier
	metrics     *Metrics
	cfg         config.ForecastConfig
	rng         *rand.Rand
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewForecastService wires the generator. A nil rng gets a time-seeded
// source; a nil strategy gets the weighted default sharing that source.
func NewForecastService(
	forecasts forecastRepository,
	schedules forecastScheduleStore,
	movies forecastMovieReader,
	cinemas forecastCinemaReader,
	predictions predictionSynthesizer,
	strategy SelectionStrategy,
	tx forecastTxProvider,
	notifier Notifier,
	metrics *Metrics,
	cfg config.ForecastConfig,
	rng *rand.Rand,
	validate *validator.Validate,
	logger *zap.Logger,
) *ForecastService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if strategy == nil {
		strategy = NewWeightedSelectionStrategy(rng)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 90
	}
	if cfg.SlotIntervalMins <= 0 {
		cfg.SlotIntervalMins = DefaultSlotInterval
	}
	return &ForecastService{
		forecasts:   forecasts,
		schedules:   schedules,
		movies:      movies,
		cinemas:     cinemas,
		predictions: predictions,
		strategy:    strategy,
		tx:          tx,
		notifier:    notifier,
		metrics:     metrics,
		cfg:         cfg,
		rng:         rng,
		validator:   validate,
		logger:      logger,
	}
}

// Create registers a forecast in generating state, synthesizes its slate and
// prediction, and marks it completed. Any failure along the way deletes the
// rows generated so far and leaves the forecast failed with zero orphans.
func (s *ForecastService) Create(ctx context.Context, req CreateForecastRequest) (*models.Forecast, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid forecast payload")
	}
	if req.DateRangeEnd.Before(req.DateRangeStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date_range_end must not precede date_range_start")
	}
	if req.DateRangeEnd.Sub(req.DateRangeStart) > time.Duration(s.cfg.MaxRangeDays)*24*time.Hour {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date range exceeds %d days", s.cfg.MaxRangeDays))
	}

	params := s.clampParameters(req.Parameters)
	blob, err := json.Marshal(params)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode optimization parameters")
	}

	forecast := &models.Forecast{
		Name:                   req.Name,
		Description:            req.Description,
		DateRangeStart:         req.DateRangeStart.UTC(),
		DateRangeEnd:           req.DateRangeEnd.UTC(),
		Status:                 models.ForecastStatusGenerating,
		OptimizationParameters: blob,
		CreatedBy:              req.CreatedBy,
	}
	if err := s.forecasts.Create(ctx, forecast); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create forecast")
	}

	if err := s.run(ctx, forecast, params); err != nil {
		return nil, err
	}

	s.emit("forecast", "create", forecast.ID, map[string]interface{}{
		"status":           string(models.ForecastStatusCompleted),
		"total_schedules":  forecast.TotalSchedulesGenerated,
		"date_range_start": forecast.DateRangeStart.Format(time.RFC3339),
		"date_range_end":   forecast.DateRangeEnd.Format(time.RFC3339),
	})
	return forecast, nil
}

// Regenerate wipes a terminal forecast's slate and prediction and re-runs
// the pipeline with the stored parameters. A forecast still generating is
// refused.
func (s *ForecastService) Regenerate(ctx context.Context, id string) (*models.Forecast, error) {
	forecast, err := s.forecasts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "forecast not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load forecast")
	}
	if forecast.Status == models.ForecastStatusGenerating {
		return nil, appErrors.Clone(appErrors.ErrConflict, "forecast is already generating")
	}

	var params models.OptimizationParameters
	if len(forecast.OptimizationParameters) > 0 {
		if err := json.Unmarshal(forecast.OptimizationParameters, &params); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode optimization parameters")
		}
	}
	effective := s.clampParameters(&params)

	if err := s.forecasts.UpdateStatus(ctx, id, models.ForecastStatusGenerating, 0); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark forecast generating")
	}
	forecast.Status = models.ForecastStatusGenerating
	forecast.TotalSchedulesGenerated = 0

	if err := s.deleteSlate(ctx, id); err != nil {
		s.markFailed(ctx, id)
		return nil, err
	}

	if err := s.run(ctx, forecast, effective); err != nil {
		return nil, err
	}

	s.emit("forecast", "update", forecast.ID, map[string]interface{}{
		"status":          string(models.ForecastStatusCompleted),
		"total_schedules": forecast.TotalSchedulesGenerated,
	})
	return forecast, nil
}

// Get loads one forecast.
func (s *ForecastService) Get(ctx context.Context, id string) (*models.Forecast, error) {
	forecast, err := s.forecasts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "forecast not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load forecast")
	}
	return forecast, nil
}

// List returns forecasts with pagination metadata.
func (s *ForecastService) List(ctx context.Context, filter models.ForecastFilter) ([]models.Forecast, *models.Pagination, error) {
	if filter.Status != "" {
		switch filter.Status {
		case models.ForecastStatusGenerating, models.ForecastStatusCompleted, models.ForecastStatusFailed:
		default:
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q", filter.Status))
		}
	}
	forecasts, total, err := s.forecasts.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list forecasts")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return forecasts, models.NewPagination(page, size, total), nil
}

// Schedules lists the bookings a forecast generated.
func (s *ForecastService) Schedules(ctx context.Context, id string) ([]models.ScheduleView, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	schedules, err := s.schedules.ListByForecast(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list forecast schedules")
	}
	return schedules, nil
}

// Delete removes a forecast and cascades to its schedules and prediction.
func (s *ForecastService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.forecasts.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete forecast")
	}
	s.emit("forecast", "delete", id, nil)
	return nil
}

// run executes the generation pipeline against a forecast already in
// generating state, committing one transaction per day so a long range never
// holds a single encompassing transaction.
func (s *ForecastService) run(ctx context.Context, forecast *models.Forecast, params models.OptimizationParameters) error {
	started := time.Now()

	total, err := s.generate(ctx, forecast, params)
	if err != nil {
		s.rollbackSlate(ctx, forecast.ID)
		s.metrics.ObserveForecastRun(string(models.ForecastStatusFailed), time.Since(started), 0)
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "forecast generation failed")
	}

	slate, err := s.schedules.ListByForecast(ctx, forecast.ID)
	if err == nil {
		_, err = s.predictions.Synthesize(ctx, forecast, slate)
	}
	if err != nil {
		s.rollbackSlate(ctx, forecast.ID)
		s.metrics.ObserveForecastRun(string(models.ForecastStatusFailed), time.Since(started), 0)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "prediction synthesis failed")
	}

	if err := s.forecasts.UpdateStatus(ctx, forecast.ID, models.ForecastStatusCompleted, total); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete forecast")
	}
	forecast.Status = models.ForecastStatusCompleted
	forecast.TotalSchedulesGenerated = total

	s.metrics.ObserveForecastRun(string(models.ForecastStatusCompleted), time.Since(started), total)
	s.logger.Info("forecast generated",
		zap.String("forecast_id", forecast.ID),
		zap.Int("schedules", total),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// generate fills every active room's day with showings across the inclusive
// date range. Returns the number of schedules committed.
func (s *ForecastService) generate(ctx context.Context, forecast *models.Forecast, params models.OptimizationParameters) (int, error) {
	movies, err := s.movies.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load movie catalog: %w", err)
	}
	if len(movies) == 0 {
		return 0, appErrors.Clone(appErrors.ErrPreconditionFailed, "no movies in catalog")
	}
	rooms, err := s.cinemas.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("load active rooms: %w", err)
	}
	if len(rooms) == 0 {
		return 0, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active rooms")
	}

	start := forecast.DateRangeStart.UTC()
	end := forecast.DateRangeEnd.UTC()
	total := 0

	for day := truncateToDay(start); !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		var slate []models.Schedule
		for _, room := range rooms {
			generated, err := s.fillRoomDay(ctx, forecast.ID, room, day, movies, params)
			if err != nil {
				return total, err
			}
			slate = append(slate, generated...)
		}
		if len(slate) == 0 {
			continue
		}
		applyRevenueGoal(slate, params.RevenueGoal)

		tx, err := s.tx.BeginTxx(ctx, nil)
		if err != nil {
			return total, fmt.Errorf("begin slate transaction: %w", err)
		}
		if err := s.schedules.BulkCreateWithTx(ctx, tx, slate); err != nil {
			_ = tx.Rollback()
			return total, fmt.Errorf("persist day slate: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return total, fmt.Errorf("commit day slate: %w", err)
		}
		total += len(slate)
	}
	return total, nil
}

// fillRoomDay walks the day's candidate starts and places showings back to
// back, skipping over windows already occupied by manually created bookings.
func (s *ForecastService) fillRoomDay(ctx context.Context, forecastID string, room models.CinemaView, day time.Time, movies []models.Movie, params models.OptimizationParameters) ([]models.Schedule, error) {
	open := day.Add(OpenHour * time.Hour)
	close := day.Add(CloseHour * time.Hour)

	existing, err := s.schedules.ListActiveInWindow(ctx, room.ID, open, close, CleanupMinutes)
	if err != nil {
		return nil, fmt.Errorf("load room %d bookings: %w", room.RoomNumber, err)
	}

	var generated []models.Schedule
	interval := time.Duration(s.cfg.SlotIntervalMins) * time.Minute
	cursor := open

	for slot := open; slot.Before(close); slot = slot.Add(interval) {
		if slot.Before(cursor) {
			continue
		}
		movie := s.strategy.SelectMovie(slot, movies, params.MoviePreferences)
		if movie == nil {
			break
		}
		candStart, candEnd := OccupiedWindow(slot, movie.DurationMinutes)
		if candEnd.After(close) {
			continue
		}
		if overlapsAny(candStart, candEnd, existing) {
			continue
		}

		unitPrice := s.priceSlot(slot, room.PriceMultiplier)
		generated = append(generated, models.Schedule{
			MovieID:    movie.ID,
			CinemaID:   room.ID,
			ForecastID: &forecastID,
			TimeSlot:   slot,
			UnitPrice:  unitPrice,
			ServiceFee: roundCents(unitPrice * serviceFeeRate),
			MaxSales:   s.targetSales(slot, room.TotalSeats, params.OccupancyGoal),
			Status:     models.ScheduleStatusActive,
		})
		cursor = candEnd
	}
	return generated, nil
}

// priceSlot applies the time-of-day base price, the room tier multiplier and
// the weekend uplift.
func (s *ForecastService) priceSlot(slot time.Time, tierMultiplier float64) float64 {
	var base float64
	switch hour := slot.Hour(); {
	case hour < 12:
		base = morningBasePrice
	case hour < 18:
		base = afternoonBasePrice
	default:
		base = eveningBasePrice
	}
	price := base * tierMultiplier
	if isWeekend(slot) {
		price *= weekendUplift
	}
	return roundCents(price)
}

// targetSales draws an occupancy rate from the prime-time and weekend bucket,
// averages it with the jittered caller goal, and converts to seats.
func (s *ForecastService) targetSales(slot time.Time, capacity int, occupancyGoal float64) int {
	prime := isPrimeTime(slot)
	weekend := isWeekend(slot)

	var lo, hi float64
	switch {
	case prime && weekend:
		lo, hi = 0.60, 0.85
	case prime || weekend:
		lo, hi = 0.45, 0.70
	default:
		lo, hi = 0.20, 0.50
	}
	base := lo + s.rng.Float64()*(hi-lo)
	goal := occupancyGoal * (0.8 + s.rng.Float64()*0.4)
	rate := clampFloat((base+goal)/2, 0.10, 0.90)
	return int(math.Floor(float64(capacity) * rate))
}

// applyRevenueGoal is the final pricing pass: scale every unit price by the
// caller's multiplier and recompute the fee from the adjusted price.
func applyRevenueGoal(slate []models.Schedule, revenueGoal float64) {
	if revenueGoal == 1.0 {
		return
	}
	for i := range slate {
		slate[i].UnitPrice = roundCents(slate[i].UnitPrice * revenueGoal)
		slate[i].ServiceFee = roundCents(slate[i].UnitPrice * serviceFeeRate)
	}
}

// clampParameters applies the documented leniency: out-of-range knobs fall
// back to defaults instead of rejecting the request.
func (s *ForecastService) clampParameters(params *models.OptimizationParameters) models.OptimizationParameters {
	effective := models.OptimizationParameters{RevenueGoal: 1.0, OccupancyGoal: 0.7}
	if params == nil {
		return effective
	}

	if params.RevenueGoal >= 0.5 && params.RevenueGoal <= 2.0 {
		effective.RevenueGoal = params.RevenueGoal
	} else if params.RevenueGoal != 0 {
		s.logger.Debug("revenue_goal out of range, defaulting", zap.Float64("value", params.RevenueGoal))
	}
	if params.OccupancyGoal >= 0.3 && params.OccupancyGoal <= 0.9 {
		effective.OccupancyGoal = params.OccupancyGoal
	} else if params.OccupancyGoal != 0 {
		s.logger.Debug("occupancy_goal out of range, defaulting", zap.Float64("value", params.OccupancyGoal))
	}
	if len(params.MoviePreferences) > 0 {
		prefs := make(map[string]float64, len(params.MoviePreferences))
		for movieID, weight := range params.MoviePreferences {
			if weight < 0.1 || weight > 2.0 {
				s.logger.Debug("movie preference out of range, dropped",
					zap.String("movie_id", movieID), zap.Float64("weight", weight))
				continue
			}
			prefs[movieID] = weight
		}
		if len(prefs) > 0 {
			effective.MoviePreferences = prefs
		}
	}
	return effective
}

// rollbackSlate deletes whatever the failed run committed and leaves the
// forecast failed. Zero orphan schedules survive a failed generation.
func (s *ForecastService) rollbackSlate(ctx context.Context, forecastID string) {
	if err := s.deleteSlate(ctx, forecastID); err != nil {
		s.logger.Error("failed to roll back forecast slate", zap.String("forecast_id", forecastID), zap.Error(err))
	}
	s.markFailed(ctx, forecastID)
}

func (s *ForecastService) deleteSlate(ctx context.Context, forecastID string) error {
	if err := s.predictions.DeleteByForecast(ctx, forecastID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete prediction")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin cleanup transaction")
	}
	if err := s.schedules.DeleteByForecast(ctx, tx, forecastID); err != nil {
		_ = tx.Rollback()
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete forecast schedules")
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit cleanup")
	}
	return nil
}

func (s *ForecastService) markFailed(ctx context.Context, forecastID string) {
	if err := s.forecasts.UpdateStatus(ctx, forecastID, models.ForecastStatusFailed, 0); err != nil {
		s.logger.Error("failed to mark forecast failed", zap.String("forecast_id", forecastID), zap.Error(err))
	}
}

func (s *ForecastService) emit(entityType, operation, entityID string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(entityType, operation, entityID, data)
}

func overlapsAny(start, end time.Time, bookings []models.ScheduleView) bool {
	for _, booking := range bookings {
		bStart, bEnd := OccupiedWindow(booking.TimeSlot, booking.DurationMinutes)
		if overlaps(start, end, bStart, bEnd) {
			return true
		}
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
