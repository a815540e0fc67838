package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cineops/showtime-api/internal/models"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
)

type cinemaRepoStub struct {
	cinemas map[string]*models.CinemaView
	types   map[string]models.CinemaType
	seq     int
}

func newCinemaRepoStub() *cinemaRepoStub {
	return &cinemaRepoStub{
		cinemas: map[string]*models.CinemaView{},
		types: map[string]models.CinemaType{
			"type-standard": {ID: "type-standard", Name: models.CinemaTypeStandard, PriceMultiplier: 1.0},
			"type-imax":     {ID: "type-imax", Name: models.CinemaTypeIMAX, PriceMultiplier: 1.5},
		},
	}
}

func (s *cinemaRepoStub) List(_ context.Context) ([]models.CinemaView, error) {
	out := make([]models.CinemaView, 0, len(s.cinemas))
	for _, c := range s.cinemas {
		out = append(out, *c)
	}
	return out, nil
}

func (s *cinemaRepoStub) FindByID(_ context.Context, id string) (*models.CinemaView, error) {
	if c, ok := s.cinemas[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *cinemaRepoStub) FindByRoomNumber(_ context.Context, roomNumber int) (*models.CinemaView, error) {
	for _, c := range s.cinemas {
		if c.RoomNumber == roomNumber {
			copied := *c
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *cinemaRepoStub) ListTypes(_ context.Context) ([]models.CinemaType, error) {
	out := make([]models.CinemaType, 0, len(s.types))
	for _, ct := range s.types {
		out = append(out, ct)
	}
	return out, nil
}

func (s *cinemaRepoStub) FindTypeByID(_ context.Context, id string) (*models.CinemaType, error) {
	if ct, ok := s.types[id]; ok {
		copied := ct
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *cinemaRepoStub) Create(_ context.Context, cinema *models.Cinema) error {
	s.seq++
	cinema.ID = fmt.Sprintf("cinema-%d", s.seq)
	ct := s.types[cinema.CinemaTypeID]
	s.cinemas[cinema.ID] = &models.CinemaView{Cinema: *cinema, TypeName: ct.Name, PriceMultiplier: ct.PriceMultiplier}
	return nil
}

func (s *cinemaRepoStub) Update(_ context.Context, cinema *models.Cinema) error {
	existing, ok := s.cinemas[cinema.ID]
	if !ok {
		return sql.ErrNoRows
	}
	ct := s.types[cinema.CinemaTypeID]
	existing.Cinema = *cinema
	existing.TypeName = ct.Name
	existing.PriceMultiplier = ct.PriceMultiplier
	return nil
}

func (s *cinemaRepoStub) Delete(_ context.Context, id string) error {
	delete(s.cinemas, id)
	return nil
}

func TestCinemaCreateJoinsTier(t *testing.T) {
	svc := NewCinemaService(newCinemaRepoStub(), nil, nil)

	cinema, err := svc.Create(context.Background(), CreateCinemaRequest{
		RoomNumber:   5,
		CinemaTypeID: "type-imax",
		TotalSeats:   250,
		Location:     "east wing",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CinemaTypeIMAX, cinema.TypeName)
	assert.Equal(t, 1.5, cinema.PriceMultiplier)
	assert.True(t, cinema.IsActive, "new rooms start active")
}

func TestCinemaCreateDuplicateRoomNumber(t *testing.T) {
	svc := NewCinemaService(newCinemaRepoStub(), nil, nil)

	_, err := svc.Create(context.Background(), CreateCinemaRequest{RoomNumber: 1, CinemaTypeID: "type-standard", TotalSeats: 100})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateCinemaRequest{RoomNumber: 1, CinemaTypeID: "type-imax", TotalSeats: 200})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCinemaCreateUnknownType(t *testing.T) {
	svc := NewCinemaService(newCinemaRepoStub(), nil, nil)

	_, err := svc.Create(context.Background(), CreateCinemaRequest{RoomNumber: 2, CinemaTypeID: "type-drive-in", TotalSeats: 100})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCinemaUpdateTypeChangesMultiplier(t *testing.T) {
	repo := newCinemaRepoStub()
	svc := NewCinemaService(repo, nil, nil)

	cinema, err := svc.Create(context.Background(), CreateCinemaRequest{RoomNumber: 3, CinemaTypeID: "type-standard", TotalSeats: 100})
	require.NoError(t, err)

	imax := "type-imax"
	updated, err := svc.Update(context.Background(), cinema.ID, UpdateCinemaRequest{CinemaTypeID: &imax})
	require.NoError(t, err)
	assert.Equal(t, models.CinemaTypeIMAX, updated.TypeName)
	assert.Equal(t, 1.5, updated.PriceMultiplier)
}

func TestCinemaUpdateRejectsNonPositiveSeats(t *testing.T) {
	repo := newCinemaRepoStub()
	svc := NewCinemaService(repo, nil, nil)

	cinema, err := svc.Create(context.Background(), CreateCinemaRequest{RoomNumber: 4, CinemaTypeID: "type-standard", TotalSeats: 100})
	require.NoError(t, err)

	zero := 0
	_, err = svc.Update(context.Background(), cinema.ID, UpdateCinemaRequest{TotalSeats: &zero})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCinemaUpdateKeepingOwnRoomNumber(t *testing.T) {
	repo := newCinemaRepoStub()
	svc := NewCinemaService(repo, nil, nil)

	cinema, err := svc.Create(context.Background(), CreateCinemaRequest{RoomNumber: 6, CinemaTypeID: "type-standard", TotalSeats: 100})
	require.NoError(t, err)

	same := 6
	inactive := false
	updated, err := svc.Update(context.Background(), cinema.ID, UpdateCinemaRequest{RoomNumber: &same, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.RoomNumber)
	assert.False(t, updated.IsActive)
}

func TestCinemaListTypes(t *testing.T) {
	svc := NewCinemaService(newCinemaRepoStub(), nil, nil)

	tiers, err := svc.ListTypes(context.Background())
	require.NoError(t, err)
	assert.Len(t, tiers, 2)
}
