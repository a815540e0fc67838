package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cineops/showtime-api/internal/models"
	"github.com/cineops/showtime-api/internal/service"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
	"github.com/cineops/showtime-api/pkg/response"
)

// MovieHandler manages movie catalog endpoints.
type MovieHandler struct {
	service *service.MovieService
}

// NewMovieHandler constructs handler.
func NewMovieHandler(svc *service.MovieService) *MovieHandler {
	return &MovieHandler{service: svc}
}

// List godoc
// @Summary List movies
// @Tags Movies
// @Produce json
// @Param title query string false "Filter by title substring"
// @Param genre query string false "Filter by genre"
// @Param rating query string false "Filter by rating"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /movies [get]
func (h *MovieHandler) List(c *gin.Context) {
	filter := models.MovieFilter{
		Title:    c.Query("title"),
		Genre:    c.Query("genre"),
		Rating:   c.Query("rating"),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "limit", 20),
	}
	movies, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, movies, pagination)
}

// Get godoc
// @Summary Get a movie
// @Tags Movies
// @Produce json
// @Param id path string true "Movie ID"
// @Success 200 {object} response.Envelope
// @Router /movies/{id} [get]
func (h *MovieHandler) Get(c *gin.Context) {
	movie, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, movie, nil)
}

// Create godoc
// @Summary Create movie
// @Tags Movies
// @Accept json
// @Produce json
// @Param payload body service.CreateMovieRequest true "Movie payload"
// @Success 201 {object} response.Envelope
// @Router /movies [post]
func (h *MovieHandler) Create(c *gin.Context) {
	var req service.CreateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	movie, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, movie)
}

// Update godoc
// @Summary Update movie
// @Tags Movies
// @Accept json
// @Produce json
// @Param id path string true "Movie ID"
// @Param payload body service.UpdateMovieRequest true "Movie payload"
// @Success 200 {object} response.Envelope
// @Router /movies/{id} [put]
func (h *MovieHandler) Update(c *gin.Context) {
	var req service.UpdateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	movie, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, movie, nil)
}

// Delete godoc
// @Summary Delete movie
// @Tags Movies
// @Produce json
// @Param id path string true "Movie ID"
// @Success 204
// @Router /movies/{id} [delete]
func (h *MovieHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
