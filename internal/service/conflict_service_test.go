package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cineops/showtime-api/internal/models"
)

type scheduleReaderStub struct {
	bookings []models.ScheduleView
}

func (s scheduleReaderStub) ListActiveInWindow(_ context.Context, cinemaID string, from, to time.Time, cleanupMinutes int) ([]models.ScheduleView, error) {
	var out []models.ScheduleView
	for _, b := range s.bookings {
		if b.CinemaID != cinemaID || b.Status != models.ScheduleStatusActive {
			continue
		}
		bStart, bEnd := OccupiedWindow(b.TimeSlot, b.DurationMinutes)
		if bStart.Before(to) && from.Before(bEnd) {
			out = append(out, b)
		}
	}
	return out, nil
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func existingBooking(t *testing.T, id, cinemaID, start string, duration int) models.ScheduleView {
	t.Helper()
	return models.ScheduleView{
		Schedule: models.Schedule{
			ID:       id,
			CinemaID: cinemaID,
			TimeSlot: mustTime(t, start),
			Status:   models.ScheduleStatusActive,
		},
		MovieTitle:      "Existing Feature",
		DurationMinutes: duration,
	}
}

func TestHasConflictBoundaryNonConflict(t *testing.T) {
	// 100min movie at 18:00 occupies until 19:30 including cleanup. A
	// booking at exactly 19:30 must be allowed.
	svc := NewConflictService(scheduleReaderStub{bookings: []models.ScheduleView{
		existingBooking(t, "b1", "room-1", "2026-09-01T18:00:00Z", 100),
	}}, zap.NewNop())

	conflict, err := svc.HasConflict(context.Background(), "room-1", mustTime(t, "2026-09-01T19:30:00Z"), 60, "")
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestHasConflictBoundaryConflict(t *testing.T) {
	svc := NewConflictService(scheduleReaderStub{bookings: []models.ScheduleView{
		existingBooking(t, "b1", "room-1", "2026-09-01T18:00:00Z", 100),
	}}, zap.NewNop())

	conflict, err := svc.HasConflict(context.Background(), "room-1", mustTime(t, "2026-09-01T19:29:00Z"), 60, "")
	require.NoError(t, err)
	assert.True(t, conflict)
}

func TestHasConflictContainment(t *testing.T) {
	svc := NewConflictService(scheduleReaderStub{bookings: []models.ScheduleView{
		existingBooking(t, "b1", "room-1", "2026-09-01T14:00:00Z", 180),
	}}, zap.NewNop())

	// Fully inside the existing occupied window.
	conflict, err := svc.HasConflict(context.Background(), "room-1", mustTime(t, "2026-09-01T15:00:00Z"), 30, "")
	require.NoError(t, err)
	assert.True(t, conflict)

	// Fully containing it.
	conflict, err = svc.HasConflict(context.Background(), "room-1", mustTime(t, "2026-09-01T13:00:00Z"), 300, "")
	require.NoError(t, err)
	assert.True(t, conflict)
}

func TestHasConflictExcludesSelf(t *testing.T) {
	svc := NewConflictService(scheduleReaderStub{bookings: []models.ScheduleView{
		existingBooking(t, "b1", "room-1", "2026-09-01T18:00:00Z", 100),
	}}, zap.NewNop())

	conflict, err := svc.HasConflict(context.Background(), "room-1", mustTime(t, "2026-09-01T18:00:00Z"), 100, "b1")
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestHasConflictOtherRoomIgnored(t *testing.T) {
	svc := NewConflictService(scheduleReaderStub{bookings: []models.ScheduleView{
		existingBooking(t, "b1", "room-2", "2026-09-01T18:00:00Z", 100),
	}}, zap.NewNop())

	conflict, err := svc.HasConflict(context.Background(), "room-1", mustTime(t, "2026-09-01T18:00:00Z"), 100, "")
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestDetailedConflictsNamesOffenders(t *testing.T) {
	svc := NewConflictService(scheduleReaderStub{bookings: []models.ScheduleView{
		existingBooking(t, "b1", "room-1", "2026-09-01T18:00:00Z", 100),
		existingBooking(t, "b2", "room-1", "2026-09-01T20:00:00Z", 90),
	}}, zap.NewNop())

	conflicts, err := svc.DetailedConflicts(context.Background(), "room-1", mustTime(t, "2026-09-01T19:00:00Z"), 120, "")
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
	assert.Equal(t, "b1", conflicts[0].ScheduleID)
	assert.Contains(t, conflicts[0].Label, "Existing Feature")
}

func TestAvailableSlotsEmptyDay(t *testing.T) {
	svc := NewConflictService(scheduleReaderStub{}, zap.NewNop())

	slots, err := svc.AvailableSlots(context.Background(), "room-1", mustTime(t, "2026-09-01T00:00:00Z"), 90, 30)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	// First slot opens the day; every slot's occupied window fits before
	// close and output is ordered ascending.
	day := mustTime(t, "2026-09-01T00:00:00Z")
	assert.Equal(t, day.Add(OpenHour*time.Hour), slots[0].Start)
	closeAt := day.Add(CloseHour * time.Hour)
	for i, slot := range slots {
		assert.False(t, slot.End.After(closeAt), "slot %d runs past close", i)
		if i > 0 {
			assert.True(t, slot.Start.After(slots[i-1].Start))
		}
	}
	// 90min + 30min cleanup = 120min window; latest start is 21:00.
	last := slots[len(slots)-1]
	assert.Equal(t, day.Add(21*time.Hour), last.Start)
}

func TestAvailableSlotsSkipsBookedWindows(t *testing.T) {
	svc := NewConflictService(scheduleReaderStub{bookings: []models.ScheduleView{
		existingBooking(t, "b1", "room-1", "2026-09-01T12:00:00Z", 90),
	}}, zap.NewNop())

	slots, err := svc.AvailableSlots(context.Background(), "room-1", mustTime(t, "2026-09-01T00:00:00Z"), 60, 30)
	require.NoError(t, err)

	// Booked window is 12:00-14:00. Candidates whose 90min window touches
	// it must be absent; 14:00 itself must be present.
	bStart, bEnd := OccupiedWindow(mustTime(t, "2026-09-01T12:00:00Z"), 90)
	var sawAdjacent bool
	for _, slot := range slots {
		assert.False(t, overlaps(slot.Start, slot.End, bStart, bEnd), "slot %v overlaps booked window", slot.Start)
		if slot.Start.Equal(bEnd) {
			sawAdjacent = true
		}
	}
	assert.True(t, sawAdjacent, "slot starting exactly at booked window end should be free")
}

func TestBatchConflictsFailsClosedOnMalformed(t *testing.T) {
	svc := NewConflictService(scheduleReaderStub{bookings: []models.ScheduleView{
		existingBooking(t, "b1", "room-1", "2026-09-01T18:00:00Z", 100),
	}}, zap.NewNop())

	// The existing booking occupies 18:00-20:10 (100min plus cleanup).
	result, err := svc.BatchConflicts(context.Background(), "room-1", []string{
		"2026-09-01T18:30:00Z",
		"2026-09-01T20:10:00Z",
		"not-a-time",
	}, 60, nil)
	require.NoError(t, err)
	assert.True(t, result["2026-09-01T18:30:00Z"])
	assert.False(t, result["2026-09-01T20:10:00Z"])
	assert.True(t, result["not-a-time"])
}

func TestBatchConflictsHonoursExcludeIDs(t *testing.T) {
	svc := NewConflictService(scheduleReaderStub{bookings: []models.ScheduleView{
		existingBooking(t, "b1", "room-1", "2026-09-01T18:00:00Z", 100),
	}}, zap.NewNop())

	result, err := svc.BatchConflicts(context.Background(), "room-1", []string{"2026-09-01T18:00:00Z"}, 100, []string{"b1"})
	require.NoError(t, err)
	assert.False(t, result["2026-09-01T18:00:00Z"])
}

func TestOccupiedWindowIncludesCleanup(t *testing.T) {
	start := mustTime(t, "2026-09-01T18:00:00Z")
	s, e := OccupiedWindow(start, 100)
	assert.Equal(t, start, s)
	assert.Equal(t, start.Add(130*time.Minute), e)
}
