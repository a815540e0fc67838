package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cineops/showtime-api/internal/service"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
	"github.com/cineops/showtime-api/pkg/response"
)

// CinemaHandler manages room endpoints.
type CinemaHandler struct {
	service *service.CinemaService
}

// NewCinemaHandler constructs handler.
func NewCinemaHandler(svc *service.CinemaService) *CinemaHandler {
	return &CinemaHandler{service: svc}
}

// List godoc
// @Summary List rooms
// @Tags Cinemas
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cinemas [get]
func (h *CinemaHandler) List(c *gin.Context) {
	cinemas, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cinemas, nil)
}

// Get godoc
// @Summary Get a room
// @Tags Cinemas
// @Produce json
// @Param id path string true "Cinema ID"
// @Success 200 {object} response.Envelope
// @Router /cinemas/{id} [get]
func (h *CinemaHandler) Get(c *gin.Context) {
	cinema, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cinema, nil)
}

// Create godoc
// @Summary Create room
// @Tags Cinemas
// @Accept json
// @Produce json
// @Param payload body service.CreateCinemaRequest true "Cinema payload"
// @Success 201 {object} response.Envelope
// @Router /cinemas [post]
func (h *CinemaHandler) Create(c *gin.Context) {
	var req service.CreateCinemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cinema, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cinema)
}

// Update godoc
// @Summary Update room
// @Tags Cinemas
// @Accept json
// @Produce json
// @Param id path string true "Cinema ID"
// @Param payload body service.UpdateCinemaRequest true "Cinema payload"
// @Success 200 {object} response.Envelope
// @Router /cinemas/{id} [put]
func (h *CinemaHandler) Update(c *gin.Context) {
	var req service.UpdateCinemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cinema, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cinema, nil)
}

// Delete godoc
// @Summary Delete room
// @Tags Cinemas
// @Produce json
// @Param id path string true "Cinema ID"
// @Success 204
// @Router /cinemas/{id} [delete]
func (h *CinemaHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTypes godoc
// @Summary List pricing tiers
// @Tags Cinemas
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cinema-types [get]
func (h *CinemaHandler) ListTypes(c *gin.Context) {
	cinemaTypes, err := h.service.ListTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cinemaTypes, nil)
}
