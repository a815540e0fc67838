package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/cineops/showtime-api/internal/models"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
	"github.com/cineops/showtime-api/pkg/lock"
)

type bookingScheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleView, int, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleView, error)
	CreateWithTx(ctx context.Context, tx *sqlx.Tx, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus) error
}

type bookingMovieReader interface {
	FindByID(ctx context.Context, id string) (*models.Movie, error)
}

type bookingCinemaReader interface {
	FindByID(ctx context.Context, id string) (*models.CinemaView, error)
	FindByRoomNumber(ctx context.Context, roomNumber int) (*models.CinemaView, error)
}

type bookingConflictChecker interface {
	HasConflict(ctx context.Context, cinemaID string, start time.Time, durationMinutes int, excludeID string) (bool, error)
	DetailedConflicts(ctx context.Context, cinemaID string, start time.Time, durationMinutes int, excludeID string) ([]models.BookingConflict, error)
}

type bookingTxProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// BookingLimits bounds list queries so forecast-driven growth cannot turn a
// listing into a table scan.
type BookingLimits struct {
	MaxListRangeDays int
	MaxPageSize      int
}

// CreateBookingRequest describes payload for creating a booking.
type CreateBookingRequest struct {
	MovieID    string    `json:"movie_id" validate:"required"`
	CinemaID   string    `json:"cinema_id" validate:"required"`
	TimeSlot   time.Time `json:"time_slot" validate:"required"`
	UnitPrice  float64   `json:"unit_price" validate:"gte=0"`
	ServiceFee float64   `json:"service_fee" validate:"gte=0"`
	MaxSales   *int      `json:"max_sales,omitempty"`
}

// UpdateBookingRequest updates a subset of booking fields. Nil fields stay
// untouched.
type UpdateBookingRequest struct {
	TimeSlot   *time.Time `json:"time_slot,omitempty"`
	UnitPrice  *float64   `json:"unit_price,omitempty"`
	ServiceFee *float64   `json:"service_fee,omitempty"`
	MaxSales   *int       `json:"max_sales,omitempty"`
	Status     *string    `json:"status,omitempty"`
}

// CheckConflictsRequest asks which bookings overlap a candidate start.
// Either CinemaID or RoomNumber identifies the room.
type CheckConflictsRequest struct {
	MovieID    string    `json:"movie_id" validate:"required"`
	CinemaID   string    `json:"cinema_id,omitempty"`
	RoomNumber *int      `json:"room_number,omitempty"`
	TimeSlot   time.Time `json:"time_slot" validate:"required"`
	ExcludeID  string    `json:"exclude_id,omitempty"`
}

// BookingResult pairs the denormalized booking with a human message for the
// conversational callers.
type BookingResult struct {
	Booking *models.ScheduleView `json:"booking"`
	Message string               `json:"message"`
}

// BookingService is the schedule manager: CRUD over bookings with the
// conflict-free and capacity invariants enforced on every mutation.
type BookingService struct {
	schedules bookingScheduleRepository
	movies    bookingMovieReader
	cinemas   bookingCinemaReader
	conflicts bookingConflictChecker
	locker    lock.RoomLocker
	tx        bookingTxProvider
	notifier  Notifier
	metrics   *Metrics
	limits    BookingLimits
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookingService wires the schedule manager.
func NewBookingService(
	schedules bookingScheduleRepository,
	movies bookingMovieReader,
	cinemas bookingCinemaReader,
	conflicts bookingConflictChecker,
	locker lock.RoomLocker,
	tx bookingTxProvider,
	notifier Notifier,
	metrics *Metrics,
	limits BookingLimits,
	validate *validator.Validate,
	logger *zap.Logger,
) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NewLocalRoomLocker()
	}
	if limits.MaxListRangeDays <= 0 {
		limits.MaxListRangeDays = 180
	}
	if limits.MaxPageSize <= 0 {
		limits.MaxPageSize = 1000
	}
	return &BookingService{
		schedules: schedules,
		movies:    movies,
		cinemas:   cinemas,
		conflicts: conflicts,
		locker:    locker,
		tx:        tx,
		notifier:  notifier,
		metrics:   metrics,
		limits:    limits,
		validator: validate,
		logger:    logger,
	}
}

// Create books a movie into a room. The conflict check and insert run under
// the room lock inside one transaction so concurrent attempts on the same
// room cannot both pass the check.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*BookingResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	movie, err := s.movies.FindByID(ctx, req.MovieID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "movie not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load movie")
	}
	if movie.DurationMinutes <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "movie duration must be positive")
	}

	cinema, err := s.cinemas.FindByID(ctx, req.CinemaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cinema not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cinema")
	}

	maxSales := cinema.TotalSeats
	if req.MaxSales != nil {
		maxSales = *req.MaxSales
	}
	if maxSales < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "max_sales must not be negative")
	}
	if maxSales > cinema.TotalSeats {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("max_sales (%d) exceeds room capacity (%d)", maxSales, cinema.TotalSeats))
	}

	release, err := s.locker.Acquire(ctx, cinema.ID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	defer release()

	if err := s.ensureNoConflict(ctx, cinema.ID, req.TimeSlot, movie.DurationMinutes, ""); err != nil {
		return nil, err
	}

	schedule := models.Schedule{
		MovieID:    req.MovieID,
		CinemaID:   cinema.ID,
		TimeSlot:   req.TimeSlot.UTC(),
		UnitPrice:  req.UnitPrice,
		ServiceFee: req.ServiceFee,
		MaxSales:   maxSales,
		Status:     models.ScheduleStatusActive,
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	if err = s.schedules.CreateWithTx(ctx, tx, &schedule); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit booking")
	}

	s.emit("schedule", "create", schedule.ID, map[string]interface{}{
		"movie_id":  schedule.MovieID,
		"cinema_id": schedule.CinemaID,
		"time_slot": schedule.TimeSlot.Format(time.RFC3339),
	})

	view := &models.ScheduleView{
		Schedule:        schedule,
		MovieTitle:      movie.Title,
		DurationMinutes: movie.DurationMinutes,
		RoomNumber:      cinema.RoomNumber,
	}
	message := fmt.Sprintf("Booked %s in room %d at %s", movie.Title, cinema.RoomNumber, schedule.TimeSlot.Format("2006-01-02 15:04"))
	return &BookingResult{Booking: view, Message: message}, nil
}

// Update applies a partial change to a booking. A time change re-runs the
// conflict check excluding the booking's own id.
func (s *BookingService) Update(ctx context.Context, id string, req UpdateBookingRequest) (*models.ScheduleView, error) {
	existing, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	updated := existing.Schedule

	if req.Status != nil {
		status := models.ScheduleStatus(*req.Status)
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q", *req.Status))
		}
		updated.Status = status
	}
	if req.UnitPrice != nil {
		if *req.UnitPrice < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unit_price must not be negative")
		}
		updated.UnitPrice = *req.UnitPrice
	}
	if req.ServiceFee != nil {
		if *req.ServiceFee < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "service_fee must not be negative")
		}
		updated.ServiceFee = *req.ServiceFee
	}
	if req.MaxSales != nil {
		cinema, err := s.cinemas.FindByID(ctx, existing.CinemaID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cinema")
		}
		if *req.MaxSales > cinema.TotalSeats {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("max_sales (%d) exceeds room capacity (%d)", *req.MaxSales, cinema.TotalSeats))
		}
		if *req.MaxSales < existing.CurrentSales {
			return nil, appErrors.Clone(appErrors.ErrValidation, "max_sales must not fall below current sales")
		}
		updated.MaxSales = *req.MaxSales
	}

	if req.TimeSlot != nil && !req.TimeSlot.Equal(existing.TimeSlot) {
		release, err := s.locker.Acquire(ctx, existing.CinemaID)
		if err != nil {
			return nil, appErrors.FromError(err)
		}
		defer release()

		if err := s.ensureNoConflict(ctx, existing.CinemaID, *req.TimeSlot, existing.DurationMinutes, existing.ID); err != nil {
			return nil, err
		}
		updated.TimeSlot = req.TimeSlot.UTC()
	}

	if err := s.schedules.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking")
	}

	s.emit("schedule", "update", updated.ID, map[string]interface{}{
		"time_slot": updated.TimeSlot.Format(time.RFC3339),
		"status":    string(updated.Status),
	})

	view := *existing
	view.Schedule = updated
	return &view, nil
}

// Cancel soft-deletes a booking: conflict checks ignore it afterwards but
// the row and its sales history survive.
func (s *BookingService) Cancel(ctx context.Context, id string) error {
	existing, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	if existing.Status == models.ScheduleStatusCancelled {
		return nil
	}

	if err := s.schedules.UpdateStatus(ctx, id, models.ScheduleStatusCancelled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel booking")
	}

	s.emit("schedule", "update", id, map[string]interface{}{"status": string(models.ScheduleStatusCancelled)})
	return nil
}

// List returns bookings with pagination metadata. Date bounds are required
// unless the caller explicitly opts out, and the range is capped.
func (s *BookingService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleView, *models.Pagination, error) {
	if !filter.AllowUnbounded {
		if filter.DateFrom == nil || filter.DateTo == nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "date_from and date_to are required; unbounded booking queries are refused")
		}
	}
	if filter.DateFrom != nil && filter.DateTo != nil {
		if filter.DateTo.Before(*filter.DateFrom) {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "date_to must not precede date_from")
		}
		if filter.DateTo.Sub(*filter.DateFrom) > time.Duration(s.limits.MaxListRangeDays)*24*time.Hour {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date range exceeds %d days", s.limits.MaxListRangeDays))
		}
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q", filter.Status))
	}
	if filter.PageSize > s.limits.MaxPageSize {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("page size exceeds %d", s.limits.MaxPageSize))
	}

	schedules, total, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return schedules, models.NewPagination(page, size, total), nil
}

// Get loads one denormalized booking.
func (s *BookingService) Get(ctx context.Context, id string) (*models.ScheduleView, error) {
	booking, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}

// CheckConflicts is the public-facing wrapper used by the API and
// conversational layers: it resolves room number to room id when needed,
// looks up the movie's duration, and returns the detailed list (empty when
// the slot is free).
func (s *BookingService) CheckConflicts(ctx context.Context, req CheckConflictsRequest) ([]models.BookingConflict, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}

	cinemaID := req.CinemaID
	if cinemaID == "" {
		if req.RoomNumber == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cinema_id or room_number is required")
		}
		cinema, err := s.cinemas.FindByRoomNumber(ctx, *req.RoomNumber)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("room %d not found", *req.RoomNumber))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve room")
		}
		cinemaID = cinema.ID
	}

	movie, err := s.movies.FindByID(ctx, req.MovieID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "movie not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load movie")
	}

	conflicts, err := s.conflicts.DetailedConflicts(ctx, cinemaID, req.TimeSlot, movie.DurationMinutes, req.ExcludeID)
	if err != nil {
		return nil, err
	}
	return conflicts, nil
}

func (s *BookingService) ensureNoConflict(ctx context.Context, cinemaID string, start time.Time, durationMinutes int, excludeID string) error {
	conflicting, err := s.conflicts.HasConflict(ctx, cinemaID, start, durationMinutes, excludeID)
	if err != nil {
		return err
	}
	if !conflicting {
		return nil
	}
	s.metrics.ObserveBookingConflict()

	details, err := s.conflicts.DetailedConflicts(ctx, cinemaID, start, durationMinutes, excludeID)
	if err != nil {
		return err
	}
	labels := make([]string, 0, len(details))
	for _, c := range details {
		labels = append(labels, c.Label)
	}
	domainErr := &models.BookingConflictError{
		Message:   fmt.Sprintf("time slot overlaps existing bookings: %v", labels),
		Conflicts: details,
	}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, domainErr.Message)
}

func (s *BookingService) emit(entityType, operation, entityID string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(entityType, operation, entityID, data)
}
