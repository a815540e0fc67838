package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cineops/showtime-api/internal/models"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
)

// Command is the closed set of operations an external conversational layer
// can invoke. Each variant carries its own typed arguments; the dispatcher
// pattern-matches instead of routing through a string-keyed handler map, so
// an unsupported operation cannot reach the services at all.
type Command interface {
	commandName() string
}

// CreateBookingCommand books one showing.
type CreateBookingCommand struct {
	CreateBookingRequest
}

// UpdateBookingCommand changes an existing booking.
type UpdateBookingCommand struct {
	BookingID string `json:"booking_id" validate:"required"`
	UpdateBookingRequest
}

// CancelBookingCommand soft-deletes a booking.
type CancelBookingCommand struct {
	BookingID string `json:"booking_id" validate:"required"`
}

// ListBookingsCommand queries bookings in a date range.
type ListBookingsCommand struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	CinemaID string     `json:"cinema_id,omitempty"`
	MovieID  string     `json:"movie_id,omitempty"`
	Status   string     `json:"status,omitempty"`
	Page     int        `json:"page,omitempty"`
	PageSize int        `json:"page_size,omitempty"`
}

// CheckConflictsCommand asks which bookings overlap a candidate start.
type CheckConflictsCommand struct {
	CheckConflictsRequest
}

// AvailableSlotsCommand enumerates the free windows of a room on a day.
type AvailableSlotsCommand struct {
	CinemaID        string    `json:"cinema_id,omitempty"`
	RoomNumber      *int      `json:"room_number,omitempty"`
	Date            time.Time `json:"date" validate:"required"`
	MovieID         string    `json:"movie_id" validate:"required"`
	IntervalMinutes int       `json:"interval_minutes,omitempty"`
}

// CreateForecastCommand launches slate generation.
type CreateForecastCommand struct {
	CreateForecastRequest
}

// RegenerateForecastCommand re-runs a terminal forecast.
type RegenerateForecastCommand struct {
	ForecastID string `json:"forecast_id" validate:"required"`
}

func (CreateBookingCommand) commandName() string      { return "create_booking" }
func (UpdateBookingCommand) commandName() string      { return "update_booking" }
func (CancelBookingCommand) commandName() string      { return "cancel_booking" }
func (ListBookingsCommand) commandName() string       { return "list_bookings" }
func (CheckConflictsCommand) commandName() string     { return "check_conflicts" }
func (AvailableSlotsCommand) commandName() string     { return "available_slots" }
func (CreateForecastCommand) commandName() string     { return "create_forecast" }
func (RegenerateForecastCommand) commandName() string { return "regenerate_forecast" }

type dispatcherCinemaResolver interface {
	FindByRoomNumber(ctx context.Context, roomNumber int) (*models.CinemaView, error)
}

type dispatcherMovieReader interface {
	FindByID(ctx context.Context, id string) (*models.Movie, error)
}

type dispatcherSlotEnumerator interface {
	AvailableSlots(ctx context.Context, cinemaID string, date time.Time, durationMinutes, intervalMinutes int) ([]models.SlotWindow, error)
}

// Dispatcher executes commands against the scheduling services. It is the
// single entry point for the conversational boundary.
type Dispatcher struct {
	bookings  *BookingService
	forecasts *ForecastService
	slots     dispatcherSlotEnumerator
	cinemas   dispatcherCinemaResolver
	movies    dispatcherMovieReader
}

// NewDispatcher wires the command boundary.
func NewDispatcher(bookings *BookingService, forecasts *ForecastService, slots dispatcherSlotEnumerator, cinemas dispatcherCinemaResolver, movies dispatcherMovieReader) *Dispatcher {
	return &Dispatcher{bookings: bookings, forecasts: forecasts, slots: slots, cinemas: cinemas, movies: movies}
}

// Dispatch runs one command and returns its result payload.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (interface{}, error) {
	switch c := cmd.(type) {
	case CreateBookingCommand:
		return d.bookings.Create(ctx, c.CreateBookingRequest)
	case UpdateBookingCommand:
		if c.BookingID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "booking_id is required")
		}
		return d.bookings.Update(ctx, c.BookingID, c.UpdateBookingRequest)
	case CancelBookingCommand:
		if c.BookingID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "booking_id is required")
		}
		return nil, d.bookings.Cancel(ctx, c.BookingID)
	case ListBookingsCommand:
		bookings, pagination, err := d.bookings.List(ctx, models.ScheduleFilter{
			DateFrom: c.DateFrom,
			DateTo:   c.DateTo,
			CinemaID: c.CinemaID,
			MovieID:  c.MovieID,
			Status:   models.ScheduleStatus(c.Status),
			Page:     c.Page,
			PageSize: c.PageSize,
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"bookings": bookings, "pagination": pagination}, nil
	case CheckConflictsCommand:
		return d.bookings.CheckConflicts(ctx, c.CheckConflictsRequest)
	case AvailableSlotsCommand:
		return d.availableSlots(ctx, c)
	case CreateForecastCommand:
		return d.forecasts.Create(ctx, c.CreateForecastRequest)
	case RegenerateForecastCommand:
		if c.ForecastID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "forecast_id is required")
		}
		return d.forecasts.Regenerate(ctx, c.ForecastID)
	case nil:
		return nil, appErrors.Clone(appErrors.ErrValidation, "no command provided")
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported command %q", cmd.commandName()))
	}
}

func (d *Dispatcher) availableSlots(ctx context.Context, c AvailableSlotsCommand) (interface{}, error) {
	cinemaID := c.CinemaID
	if cinemaID == "" {
		if c.RoomNumber == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cinema_id or room_number is required")
		}
		cinema, err := d.cinemas.FindByRoomNumber(ctx, *c.RoomNumber)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("room %d not found", *c.RoomNumber))
		}
		cinemaID = cinema.ID
	}
	if c.MovieID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "movie_id is required")
	}
	movie, err := d.movies.FindByID(ctx, c.MovieID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "movie not found")
	}
	return d.slots.AvailableSlots(ctx, cinemaID, c.Date, movie.DurationMinutes, c.IntervalMinutes)
}

// ParseCommand maps an operation name and a raw argument document to a typed
// command. Unknown names and malformed arguments return a structured
// validation error rather than panicking across the boundary.
func ParseCommand(name string, args json.RawMessage) (Command, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	decode := func(v interface{}) error {
		if err := json.Unmarshal(args, v); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("malformed arguments for %q", name))
		}
		return nil
	}

	switch name {
	case "create_booking":
		var c CreateBookingCommand
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case "update_booking":
		var c UpdateBookingCommand
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case "cancel_booking":
		var c CancelBookingCommand
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case "list_bookings":
		var c ListBookingsCommand
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case "check_conflicts":
		var c CheckConflictsCommand
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case "available_slots":
		var c AvailableSlotsCommand
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case "create_forecast":
		var c CreateForecastCommand
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case "regenerate_forecast":
		var c RegenerateForecastCommand
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown command %q", name))
	}
}
