package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cineops/showtime-api/internal/middleware"
	"github.com/cineops/showtime-api/internal/models"
	"github.com/cineops/showtime-api/internal/service"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
	"github.com/cineops/showtime-api/pkg/response"
)

// BookingHandler manages booking endpoints, slot enumeration and the CSV
// export.
type BookingHandler struct {
	bookings  *service.BookingService
	conflicts *service.ConflictService
	movies    *service.MovieService
	reports   *service.ReportService
}

// NewBookingHandler constructs handler.
func NewBookingHandler(bookings *service.BookingService, conflicts *service.ConflictService, movies *service.MovieService, reports *service.ReportService) *BookingHandler {
	return &BookingHandler{bookings: bookings, conflicts: conflicts, movies: movies, reports: reports}
}

// List godoc
// @Summary List bookings
// @Tags Bookings
// @Produce json
// @Param date_from query string true "Range start (RFC3339 or YYYY-MM-DD)"
// @Param date_to query string true "Range end"
// @Param cinema_id query string false "Filter by room"
// @Param movie_id query string false "Filter by movie"
// @Param forecast_id query string false "Filter by forecast"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *BookingHandler) List(c *gin.Context) {
	filter, err := h.listFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	bookings, pagination, err := h.bookings.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Create godoc
// @Summary Create booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body service.CreateBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.bookings.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Update booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body service.UpdateBookingRequest true "Booking payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *BookingHandler) Update(c *gin.Context) {
	var req service.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	booking, err := h.bookings.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Cancel godoc
// @Summary Cancel booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *BookingHandler) Cancel(c *gin.Context) {
	if err := h.bookings.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CheckConflicts godoc
// @Summary Check a candidate booking for conflicts
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body service.CheckConflictsRequest true "Candidate booking"
// @Success 200 {object} response.Envelope
// @Router /schedules/conflicts [post]
func (h *BookingHandler) CheckConflicts(c *gin.Context) {
	var req service.CheckConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	conflicts, err := h.bookings.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"has_conflict": len(conflicts) > 0, "conflicts": conflicts}, nil)
}

// AvailableSlots godoc
// @Summary List free slots of a room on a day
// @Tags Bookings
// @Produce json
// @Param id path string true "Cinema ID"
// @Param date query string true "Day (YYYY-MM-DD)"
// @Param movie_id query string true "Movie whose runtime sizes the slots"
// @Param interval query int false "Candidate step in minutes"
// @Success 200 {object} response.Envelope
// @Router /cinemas/{id}/available-slots [get]
func (h *BookingHandler) AvailableSlots(c *gin.Context) {
	date, err := parseTimeParam(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	movieID := c.Query("movie_id")
	if movieID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "movie_id is required"))
		return
	}
	movie, err := h.movies.Get(c.Request.Context(), movieID)
	if err != nil {
		response.Error(c, err)
		return
	}

	slots, err := h.conflicts.AvailableSlots(c.Request.Context(), c.Param("id"), date, movie.DurationMinutes, intQuery(c, "interval", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "slot_count", len(slots))
	response.JSON(c, http.StatusOK, slots, nil, middleware.ExtractMeta(c))
}

// ExportCSV godoc
// @Summary Export bookings as CSV
// @Tags Bookings
// @Produce text/csv
// @Param date_from query string true "Range start"
// @Param date_to query string true "Range end"
// @Success 200 {string} string
// @Router /schedules/export [get]
func (h *BookingHandler) ExportCSV(c *gin.Context) {
	filter, err := h.listFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter.PageSize = 1000

	payload, filename, err := h.reports.BookingsCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

func (h *BookingHandler) listFilter(c *gin.Context) (models.ScheduleFilter, error) {
	dateFrom, err := optionalTimeParam(c, "date_from")
	if err != nil {
		return models.ScheduleFilter{}, err
	}
	dateTo, err := optionalTimeParam(c, "date_to")
	if err != nil {
		return models.ScheduleFilter{}, err
	}
	return models.ScheduleFilter{
		DateFrom:   dateFrom,
		DateTo:     dateTo,
		CinemaID:   c.Query("cinema_id"),
		MovieID:    c.Query("movie_id"),
		ForecastID: c.Query("forecast_id"),
		Status:     models.ScheduleStatus(c.Query("status")),
		Page:       intQuery(c, "page", 1),
		PageSize:   intQuery(c, "limit", 20),
	}, nil
}
