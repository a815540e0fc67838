package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cineops/showtime-api/internal/models"
	"github.com/cineops/showtime-api/internal/service"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
	"github.com/cineops/showtime-api/pkg/response"
)

// ForecastHandler manages forecast endpoints and the PDF report.
type ForecastHandler struct {
	forecasts   *service.ForecastService
	predictions *service.PredictionService
	reports     *service.ReportService
}

// NewForecastHandler constructs handler.
func NewForecastHandler(forecasts *service.ForecastService, predictions *service.PredictionService, reports *service.ReportService) *ForecastHandler {
	return &ForecastHandler{forecasts: forecasts, predictions: predictions, reports: reports}
}

// List godoc
// @Summary List forecasts
// @Tags Forecasts
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /forecasts [get]
func (h *ForecastHandler) List(c *gin.Context) {
	filter := models.ForecastFilter{
		Status:   models.ForecastStatus(c.Query("status")),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "limit", 20),
	}
	forecasts, pagination, err := h.forecasts.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forecasts, pagination)
}

// Get godoc
// @Summary Get a forecast
// @Tags Forecasts
// @Produce json
// @Param id path string true "Forecast ID"
// @Success 200 {object} response.Envelope
// @Router /forecasts/{id} [get]
func (h *ForecastHandler) Get(c *gin.Context) {
	forecast, err := h.forecasts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forecast, nil)
}

// Create godoc
// @Summary Create forecast and generate its slate
// @Tags Forecasts
// @Accept json
// @Produce json
// @Param payload body service.CreateForecastRequest true "Forecast payload"
// @Success 201 {object} response.Envelope
// @Router /forecasts [post]
func (h *ForecastHandler) Create(c *gin.Context) {
	var req service.CreateForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	forecast, err := h.forecasts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, forecast)
}

// Regenerate godoc
// @Summary Re-run a terminal forecast
// @Tags Forecasts
// @Produce json
// @Param id path string true "Forecast ID"
// @Success 200 {object} response.Envelope
// @Router /forecasts/{id}/regenerate [post]
func (h *ForecastHandler) Regenerate(c *gin.Context) {
	forecast, err := h.forecasts.Regenerate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forecast, nil)
}

// Delete godoc
// @Summary Delete forecast and its generated slate
// @Tags Forecasts
// @Produce json
// @Param id path string true "Forecast ID"
// @Success 204
// @Router /forecasts/{id} [delete]
func (h *ForecastHandler) Delete(c *gin.Context) {
	if err := h.forecasts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Schedules godoc
// @Summary List the bookings a forecast generated
// @Tags Forecasts
// @Produce json
// @Param id path string true "Forecast ID"
// @Success 200 {object} response.Envelope
// @Router /forecasts/{id}/schedules [get]
func (h *ForecastHandler) Schedules(c *gin.Context) {
	schedules, err := h.forecasts.Schedules(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// Prediction godoc
// @Summary Get a forecast's prediction metrics
// @Tags Forecasts
// @Produce json
// @Param id path string true "Forecast ID"
// @Success 200 {object} response.Envelope
// @Router /forecasts/{id}/prediction [get]
func (h *ForecastHandler) Prediction(c *gin.Context) {
	prediction, err := h.predictions.GetByForecast(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prediction, nil)
}

// Report godoc
// @Summary Download a forecast report PDF
// @Tags Forecasts
// @Produce application/pdf
// @Param id path string true "Forecast ID"
// @Success 200 {string} string
// @Router /forecasts/{id}/report [get]
func (h *ForecastHandler) Report(c *gin.Context) {
	payload, filename, err := h.reports.ForecastReportPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}
