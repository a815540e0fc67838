package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cineops/showtime-api/internal/models"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
)

type movieRepository interface {
	List(ctx context.Context, filter models.MovieFilter) ([]models.Movie, int, error)
	FindByID(ctx context.Context, id string) (*models.Movie, error)
	FindByTitle(ctx context.Context, title string) (*models.Movie, error)
	CountActiveSchedules(ctx context.Context, movieID string) (int, error)
	Create(ctx context.Context, movie *models.Movie) error
	Update(ctx context.Context, movie *models.Movie) error
	Delete(ctx context.Context, id string) error
}

// CreateMovieRequest describes payload for adding a title to the catalog.
type CreateMovieRequest struct {
	Title           string     `json:"title" validate:"required"`
	DurationMinutes int        `json:"duration_minutes" validate:"required,gt=0"`
	Genre           string     `json:"genre"`
	Rating          string     `json:"rating"`
	Description     string     `json:"description"`
	ReleaseDate     *time.Time `json:"release_date,omitempty"`
}

// UpdateMovieRequest updates a subset of movie fields.
type UpdateMovieRequest struct {
	Title           *string    `json:"title,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Genre           *string    `json:"genre,omitempty"`
	Rating          *string    `json:"rating,omitempty"`
	Description     *string    `json:"description,omitempty"`
	ReleaseDate     *time.Time `json:"release_date,omitempty"`
}

// MovieService manages the title catalog. Duration edits are refused while
// active bookings reference the movie, since conflict windows derive from
// duration.
type MovieService struct {
	movies    movieRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMovieService wires the catalog service.
func NewMovieService(movies movieRepository, validate *validator.Validate, logger *zap.Logger) *MovieService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MovieService{movies: movies, validator: validate, logger: logger}
}

// Create adds a title. Titles are unique case-insensitively.
func (s *MovieService) Create(ctx context.Context, req CreateMovieRequest) (*models.Movie, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid movie payload")
	}

	title := strings.TrimSpace(req.Title)
	existing, err := s.movies.FindByTitle(ctx, title)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check title uniqueness")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a movie titled %q already exists", existing.Title))
	}

	movie := &models.Movie{
		Title:           title,
		DurationMinutes: req.DurationMinutes,
		Genre:           req.Genre,
		Rating:          req.Rating,
		Description:     req.Description,
		ReleaseDate:     req.ReleaseDate,
	}
	if err := s.movies.Create(ctx, movie); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create movie")
	}
	return movie, nil
}

// Update applies a partial change to a movie.
func (s *MovieService) Update(ctx context.Context, id string, req UpdateMovieRequest) (*models.Movie, error) {
	movie, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "title must not be empty")
		}
		if !strings.EqualFold(title, movie.Title) {
			existing, err := s.movies.FindByTitle(ctx, title)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check title uniqueness")
			}
			if existing != nil && existing.ID != id {
				return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a movie titled %q already exists", existing.Title))
			}
		}
		movie.Title = title
	}
	if req.DurationMinutes != nil && *req.DurationMinutes != movie.DurationMinutes {
		if *req.DurationMinutes <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duration_minutes must be positive")
		}
		active, err := s.movies.CountActiveSchedules(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count active bookings")
		}
		if active > 0 {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("cannot change duration while %d active bookings reference this movie", active))
		}
		movie.DurationMinutes = *req.DurationMinutes
	}
	if req.Genre != nil {
		movie.Genre = *req.Genre
	}
	if req.Rating != nil {
		movie.Rating = *req.Rating
	}
	if req.Description != nil {
		movie.Description = *req.Description
	}
	if req.ReleaseDate != nil {
		movie.ReleaseDate = req.ReleaseDate
	}

	if err := s.movies.Update(ctx, movie); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update movie")
	}
	return movie, nil
}

// Delete removes a title unless active bookings still reference it.
func (s *MovieService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	active, err := s.movies.CountActiveSchedules(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count active bookings")
	}
	if active > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("cannot delete movie with %d active bookings", active))
	}
	if err := s.movies.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete movie")
	}
	return nil
}

// Get loads one movie.
func (s *MovieService) Get(ctx context.Context, id string) (*models.Movie, error) {
	movie, err := s.movies.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "movie not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load movie")
	}
	return movie, nil
}

// List returns movies with pagination metadata.
func (s *MovieService) List(ctx context.Context, filter models.MovieFilter) ([]models.Movie, *models.Pagination, error) {
	movies, total, err := s.movies.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list movies")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return movies, models.NewPagination(page, size, total), nil
}
