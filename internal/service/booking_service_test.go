package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cineops/showtime-api/internal/models"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
)

type bookingScheduleRepoStub struct {
	items         []models.ScheduleView
	statusUpdates []string
}

func (s *bookingScheduleRepoStub) List(_ context.Context, _ models.ScheduleFilter) ([]models.ScheduleView, int, error) {
	return s.items, len(s.items), nil
}

func (s *bookingScheduleRepoStub) FindByID(_ context.Context, id string) (*models.ScheduleView, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *bookingScheduleRepoStub) CreateWithTx(_ context.Context, _ *sqlx.Tx, schedule *models.Schedule) error {
	schedule.ID = fmt.Sprintf("booking-%d", len(s.items)+1)
	s.items = append(s.items, models.ScheduleView{Schedule: *schedule})
	return nil
}

func (s *bookingScheduleRepoStub) Update(_ context.Context, schedule *models.Schedule) error {
	for i := range s.items {
		if s.items[i].ID == schedule.ID {
			s.items[i].Schedule = *schedule
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *bookingScheduleRepoStub) UpdateStatus(_ context.Context, id string, status models.ScheduleStatus) error {
	s.statusUpdates = append(s.statusUpdates, id)
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

type movieReaderStub struct {
	movies map[string]models.Movie
}

func (s movieReaderStub) FindByID(_ context.Context, id string) (*models.Movie, error) {
	if movie, ok := s.movies[id]; ok {
		return &movie, nil
	}
	return nil, sql.ErrNoRows
}

type cinemaReaderStub struct {
	cinemas map[string]models.CinemaView
}

func (s cinemaReaderStub) FindByID(_ context.Context, id string) (*models.CinemaView, error) {
	if cinema, ok := s.cinemas[id]; ok {
		return &cinema, nil
	}
	return nil, sql.ErrNoRows
}

func (s cinemaReaderStub) FindByRoomNumber(_ context.Context, roomNumber int) (*models.CinemaView, error) {
	for _, cinema := range s.cinemas {
		if cinema.RoomNumber == roomNumber {
			return &cinema, nil
		}
	}
	return nil, sql.ErrNoRows
}

type conflictCheckerStub struct {
	conflict      bool
	details       []models.BookingConflict
	lastExcludeID string
}

func (s *conflictCheckerStub) HasConflict(_ context.Context, _ string, _ time.Time, _ int, excludeID string) (bool, error) {
	s.lastExcludeID = excludeID
	return s.conflict, nil
}

func (s *conflictCheckerStub) DetailedConflicts(_ context.Context, _ string, _ time.Time, _ int, excludeID string) ([]models.BookingConflict, error) {
	s.lastExcludeID = excludeID
	return s.details, nil
}

type notifierStub struct {
	events []string
}

func (n *notifierStub) Notify(entityType, operation, entityID string, _ map[string]interface{}) {
	n.events = append(n.events, fmt.Sprintf("%s/%s/%s", entityType, operation, entityID))
}

type bookingTxMock struct {
	db *sqlx.DB
}

func newBookingTxMock(t *testing.T) (*bookingTxMock, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &bookingTxMock{db: sqlxdb}, mock
}

func (m *bookingTxMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return m.db.BeginTxx(ctx, opts)
}

type bookingFixture struct {
	service   *BookingService
	schedules *bookingScheduleRepoStub
	conflicts *conflictCheckerStub
	notifier  *notifierStub
	mock      sqlmock.Sqlmock
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	schedules := &bookingScheduleRepoStub{}
	conflicts := &conflictCheckerStub{}
	notifier := &notifierStub{}
	tx, mock := newBookingTxMock(t)

	movies := movieReaderStub{movies: map[string]models.Movie{
		"movie-1": {ID: "movie-1", Title: "Skyfall Run", DurationMinutes: 100, Genre: "action"},
	}}
	cinemas := cinemaReaderStub{cinemas: map[string]models.CinemaView{
		"room-1": {
			Cinema:   models.Cinema{ID: "room-1", RoomNumber: 3, TotalSeats: 120, IsActive: true},
			TypeName: models.CinemaTypeStandard, PriceMultiplier: 1.0,
		},
	}}

	svc := NewBookingService(schedules, movies, cinemas, conflicts, nil, tx, notifier, nil, BookingLimits{}, nil, zap.NewNop())
	return &bookingFixture{service: svc, schedules: schedules, conflicts: conflicts, notifier: notifier, mock: mock}
}

func TestBookingCreateSuccess(t *testing.T) {
	f := newBookingFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.service.Create(context.Background(), CreateBookingRequest{
		MovieID:   "movie-1",
		CinemaID:  "room-1",
		TimeSlot:  mustTime(t, "2026-09-01T18:00:00Z"),
		UnitPrice: 12.50,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Booking)

	assert.Equal(t, "Skyfall Run", result.Booking.MovieTitle)
	assert.Equal(t, 3, result.Booking.RoomNumber)
	assert.Equal(t, 120, result.Booking.MaxSales, "max_sales defaults to room capacity")
	assert.Equal(t, 0, result.Booking.CurrentSales)
	assert.Equal(t, models.ScheduleStatusActive, result.Booking.Status)
	assert.Contains(t, result.Message, "Skyfall Run")
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, "schedule/create/booking-1", f.notifier.events[0])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBookingCreateConflictCarriesDetails(t *testing.T) {
	f := newBookingFixture(t)
	f.conflicts.conflict = true
	f.conflicts.details = []models.BookingConflict{{ScheduleID: "b1", MovieTitle: "Existing", Label: "Existing (18:00 - 20:10)"}}

	_, err := f.service.Create(context.Background(), CreateBookingRequest{
		MovieID:  "movie-1",
		CinemaID: "room-1",
		TimeSlot: mustTime(t, "2026-09-01T18:30:00Z"),
	})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	var conflictErr *models.BookingConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Len(t, conflictErr.Conflicts, 1)
	assert.Empty(t, f.notifier.events)
}

func TestBookingCreateRejectsOverCapacity(t *testing.T) {
	f := newBookingFixture(t)
	over := 121

	_, err := f.service.Create(context.Background(), CreateBookingRequest{
		MovieID:  "movie-1",
		CinemaID: "room-1",
		TimeSlot: mustTime(t, "2026-09-01T18:00:00Z"),
		MaxSales: &over,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingCreateAcceptsExactCapacity(t *testing.T) {
	f := newBookingFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	exact := 120

	result, err := f.service.Create(context.Background(), CreateBookingRequest{
		MovieID:  "movie-1",
		CinemaID: "room-1",
		TimeSlot: mustTime(t, "2026-09-01T18:00:00Z"),
		MaxSales: &exact,
	})
	require.NoError(t, err)
	assert.Equal(t, 120, result.Booking.MaxSales)
}

func TestBookingCreateUnknownMovie(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.service.Create(context.Background(), CreateBookingRequest{
		MovieID:  "missing",
		CinemaID: "room-1",
		TimeSlot: mustTime(t, "2026-09-01T18:00:00Z"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBookingUpdateTimeChangeExcludesSelf(t *testing.T) {
	f := newBookingFixture(t)
	f.schedules.items = []models.ScheduleView{{
		Schedule: models.Schedule{
			ID:       "booking-1",
			MovieID:  "movie-1",
			CinemaID: "room-1",
			TimeSlot: mustTime(t, "2026-09-01T18:00:00Z"),
			Status:   models.ScheduleStatusActive,
			MaxSales: 100,
		},
		MovieTitle:      "Skyfall Run",
		DurationMinutes: 100,
	}}

	newStart := mustTime(t, "2026-09-01T21:00:00Z")
	updated, err := f.service.Update(context.Background(), "booking-1", UpdateBookingRequest{TimeSlot: &newStart})
	require.NoError(t, err)
	assert.Equal(t, "booking-1", f.conflicts.lastExcludeID)
	assert.Equal(t, newStart, updated.TimeSlot)
}

func TestBookingUpdatePriceOnlySkipsConflictCheck(t *testing.T) {
	f := newBookingFixture(t)
	f.conflicts.conflict = true // would fail any conflict check
	f.schedules.items = []models.ScheduleView{{
		Schedule: models.Schedule{
			ID:       "booking-1",
			CinemaID: "room-1",
			TimeSlot: mustTime(t, "2026-09-01T18:00:00Z"),
			Status:   models.ScheduleStatusActive,
		},
		DurationMinutes: 100,
	}}

	price := 15.0
	updated, err := f.service.Update(context.Background(), "booking-1", UpdateBookingRequest{UnitPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, 15.0, updated.UnitPrice)
}

func TestBookingUpdateRejectsInvalidStatus(t *testing.T) {
	f := newBookingFixture(t)
	f.schedules.items = []models.ScheduleView{{
		Schedule: models.Schedule{ID: "booking-1", CinemaID: "room-1", Status: models.ScheduleStatusActive},
	}}

	bogus := "paused"
	_, err := f.service.Update(context.Background(), "booking-1", UpdateBookingRequest{Status: &bogus})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingUpdateRejectsMaxSalesBelowCurrent(t *testing.T) {
	f := newBookingFixture(t)
	f.schedules.items = []models.ScheduleView{{
		Schedule: models.Schedule{
			ID: "booking-1", CinemaID: "room-1", Status: models.ScheduleStatusActive,
			MaxSales: 100, CurrentSales: 40,
		},
	}}

	lower := 30
	_, err := f.service.Update(context.Background(), "booking-1", UpdateBookingRequest{MaxSales: &lower})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingCancelIsIdempotent(t *testing.T) {
	f := newBookingFixture(t)
	f.schedules.items = []models.ScheduleView{{
		Schedule: models.Schedule{ID: "booking-1", CinemaID: "room-1", Status: models.ScheduleStatusActive},
	}}

	require.NoError(t, f.service.Cancel(context.Background(), "booking-1"))
	assert.Equal(t, models.ScheduleStatusCancelled, f.schedules.items[0].Status)
	require.Len(t, f.schedules.statusUpdates, 1)

	// A second cancel is a no-op, not an error.
	require.NoError(t, f.service.Cancel(context.Background(), "booking-1"))
	assert.Len(t, f.schedules.statusUpdates, 1)
}

func TestBookingListRequiresDateBounds(t *testing.T) {
	f := newBookingFixture(t)

	_, _, err := f.service.List(context.Background(), models.ScheduleFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	from := mustTime(t, "2026-09-01T00:00:00Z")
	to := mustTime(t, "2026-09-07T00:00:00Z")
	_, pagination, err := f.service.List(context.Background(), models.ScheduleFilter{DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	require.NotNil(t, pagination)
}

func TestBookingListCapsDateRange(t *testing.T) {
	f := newBookingFixture(t)
	from := mustTime(t, "2026-01-01T00:00:00Z")
	to := from.AddDate(0, 0, 181)

	_, _, err := f.service.List(context.Background(), models.ScheduleFilter{DateFrom: &from, DateTo: &to})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingListCapsPageSize(t *testing.T) {
	f := newBookingFixture(t)
	from := mustTime(t, "2026-09-01T00:00:00Z")
	to := mustTime(t, "2026-09-07T00:00:00Z")

	_, _, err := f.service.List(context.Background(), models.ScheduleFilter{DateFrom: &from, DateTo: &to, PageSize: 1001})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingCheckConflictsResolvesRoomNumber(t *testing.T) {
	f := newBookingFixture(t)
	f.conflicts.details = []models.BookingConflict{{ScheduleID: "b1"}}
	room := 3

	conflicts, err := f.service.CheckConflicts(context.Background(), CheckConflictsRequest{
		MovieID:    "movie-1",
		RoomNumber: &room,
		TimeSlot:   mustTime(t, "2026-09-01T18:00:00Z"),
	})
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)
}

func TestBookingCheckConflictsUnknownRoom(t *testing.T) {
	f := newBookingFixture(t)
	room := 99

	_, err := f.service.CheckConflicts(context.Background(), CheckConflictsRequest{
		MovieID:    "movie-1",
		RoomNumber: &room,
		TimeSlot:   mustTime(t, "2026-09-01T18:00:00Z"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
