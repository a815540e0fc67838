package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/cineops/showtime-api/internal/models"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
)

type cinemaRepository interface {
	List(ctx context.Context) ([]models.CinemaView, error)
	FindByID(ctx context.Context, id string) (*models.CinemaView, error)
	FindByRoomNumber(ctx context.Context, roomNumber int) (*models.CinemaView, error)
	ListTypes(ctx context.Context) ([]models.CinemaType, error)
	FindTypeByID(ctx context.Context, id string) (*models.CinemaType, error)
	Create(ctx context.Context, cinema *models.Cinema) error
	Update(ctx context.Context, cinema *models.Cinema) error
	Delete(ctx context.Context, id string) error
}

// CreateCinemaRequest describes payload for registering a room.
type CreateCinemaRequest struct {
	RoomNumber   int            `json:"room_number" validate:"required,gt=0"`
	CinemaTypeID string         `json:"cinema_type_id" validate:"required"`
	TotalSeats   int            `json:"total_seats" validate:"required,gt=0"`
	Location     string         `json:"location"`
	Features     types.JSONText `json:"features,omitempty"`
}

// UpdateCinemaRequest updates a subset of room fields.
type UpdateCinemaRequest struct {
	RoomNumber   *int            `json:"room_number,omitempty"`
	CinemaTypeID *string         `json:"cinema_type_id,omitempty"`
	TotalSeats   *int            `json:"total_seats,omitempty"`
	Location     *string         `json:"location,omitempty"`
	Features     *types.JSONText `json:"features,omitempty"`
	IsActive     *bool           `json:"is_active,omitempty"`
}

// CinemaService manages rooms and exposes the fixed pricing tier catalog.
type CinemaService struct {
	cinemas   cinemaRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCinemaService wires the room service.
func NewCinemaService(cinemas cinemaRepository, validate *validator.Validate, logger *zap.Logger) *CinemaService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CinemaService{cinemas: cinemas, validator: validate, logger: logger}
}

// Create registers a room. Room numbers are the human-facing identifier and
// must be unique.
func (s *CinemaService) Create(ctx context.Context, req CreateCinemaRequest) (*models.CinemaView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cinema payload")
	}

	if _, err := s.cinemas.FindByRoomNumber(ctx, req.RoomNumber); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("room %d already exists", req.RoomNumber))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room number uniqueness")
	}

	cinemaType, err := s.cinemas.FindTypeByID(ctx, req.CinemaTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cinema type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cinema type")
	}

	cinema := models.Cinema{
		RoomNumber:   req.RoomNumber,
		CinemaTypeID: req.CinemaTypeID,
		TotalSeats:   req.TotalSeats,
		Location:     req.Location,
		Features:     req.Features,
		IsActive:     true,
	}
	if err := s.cinemas.Create(ctx, &cinema); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create cinema")
	}

	return &models.CinemaView{
		Cinema:          cinema,
		TypeName:        cinemaType.Name,
		PriceMultiplier: cinemaType.PriceMultiplier,
	}, nil
}

// Update applies a partial change to a room.
func (s *CinemaService) Update(ctx context.Context, id string, req UpdateCinemaRequest) (*models.CinemaView, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := existing.Cinema

	if req.RoomNumber != nil && *req.RoomNumber != existing.RoomNumber {
		if *req.RoomNumber <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "room_number must be positive")
		}
		if other, err := s.cinemas.FindByRoomNumber(ctx, *req.RoomNumber); err == nil && other.ID != id {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("room %d already exists", *req.RoomNumber))
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room number uniqueness")
		}
		updated.RoomNumber = *req.RoomNumber
	}
	typeName := existing.TypeName
	typeMultiplier := existing.PriceMultiplier
	if req.CinemaTypeID != nil && *req.CinemaTypeID != existing.CinemaTypeID {
		cinemaType, err := s.cinemas.FindTypeByID(ctx, *req.CinemaTypeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "cinema type not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cinema type")
		}
		updated.CinemaTypeID = cinemaType.ID
		typeName = cinemaType.Name
		typeMultiplier = cinemaType.PriceMultiplier
	}
	if req.TotalSeats != nil {
		if *req.TotalSeats <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "total_seats must be positive")
		}
		updated.TotalSeats = *req.TotalSeats
	}
	if req.Location != nil {
		updated.Location = *req.Location
	}
	if req.Features != nil {
		updated.Features = *req.Features
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}

	if err := s.cinemas.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update cinema")
	}
	return &models.CinemaView{Cinema: updated, TypeName: typeName, PriceMultiplier: typeMultiplier}, nil
}

// Delete removes a room.
func (s *CinemaService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.cinemas.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete cinema")
	}
	return nil
}

// Get loads one room joined with its tier.
func (s *CinemaService) Get(ctx context.Context, id string) (*models.CinemaView, error) {
	cinema, err := s.cinemas.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cinema not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cinema")
	}
	return cinema, nil
}

// List returns all rooms ordered by room number.
func (s *CinemaService) List(ctx context.Context) ([]models.CinemaView, error) {
	cinemas, err := s.cinemas.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cinemas")
	}
	return cinemas, nil
}

// ListTypes returns the pricing tier catalog.
func (s *CinemaService) ListTypes(ctx context.Context) ([]models.CinemaType, error) {
	cinemaTypes, err := s.cinemas.ListTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cinema types")
	}
	return cinemaTypes, nil
}
