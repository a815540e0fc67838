package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cineops/showtime-api/internal/models"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
)

// Operating constants for every room. The cleanup buffer is part of each
// booking's occupied window and therefore of every overlap comparison.
const (
	CleanupMinutes      = 30
	OpenHour            = 9
	CloseHour           = 23
	DefaultSlotInterval = 30
)

type conflictScheduleReader interface {
	ListActiveInWindow(ctx context.Context, cinemaID string, from, to time.Time, cleanupMinutes int) ([]models.ScheduleView, error)
}

// ConflictService decides whether a candidate occupied window collides with
// existing active bookings in a room, and enumerates the free slots of a day.
type ConflictService struct {
	schedules conflictScheduleReader
	logger    *zap.Logger
}

// NewConflictService wires the conflict engine.
func NewConflictService(schedules conflictScheduleReader, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{schedules: schedules, logger: logger}
}

// OccupiedWindow returns the half-open interval a showing occupies,
// including the turnover buffer after the credits roll.
func OccupiedWindow(start time.Time, durationMinutes int) (time.Time, time.Time) {
	return start, start.Add(time.Duration(durationMinutes+CleanupMinutes) * time.Minute)
}

// overlaps is the half-open interval test: touching endpoints do not clash.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// HasConflict reports whether the candidate window collides with any active
// booking in the room, optionally ignoring one booking id (self-updates).
// It answers yes/no only; DetailedConflicts names the offenders.
func (s *ConflictService) HasConflict(ctx context.Context, cinemaID string, start time.Time, durationMinutes int, excludeID string) (bool, error) {
	candStart, candEnd := OccupiedWindow(start, durationMinutes)
	existing, err := s.schedules.ListActiveInWindow(ctx, cinemaID, candStart, candEnd, CleanupMinutes)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check booking conflicts")
	}
	for _, booking := range existing {
		if booking.ID == excludeID {
			continue
		}
		bStart, bEnd := OccupiedWindow(booking.TimeSlot, booking.DurationMinutes)
		if overlaps(candStart, candEnd, bStart, bEnd) {
			return true, nil
		}
	}
	return false, nil
}

// DetailedConflicts returns identity for every booking the candidate window
// collides with, for human-readable 409 payloads. Callers should invoke it
// only after HasConflict confirms a clash.
func (s *ConflictService) DetailedConflicts(ctx context.Context, cinemaID string, start time.Time, durationMinutes int, excludeID string) ([]models.BookingConflict, error) {
	candStart, candEnd := OccupiedWindow(start, durationMinutes)
	existing, err := s.schedules.ListActiveInWindow(ctx, cinemaID, candStart, candEnd, CleanupMinutes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking conflicts")
	}

	conflicts := make([]models.BookingConflict, 0, len(existing))
	for _, booking := range existing {
		if booking.ID == excludeID {
			continue
		}
		bStart, bEnd := OccupiedWindow(booking.TimeSlot, booking.DurationMinutes)
		if !overlaps(candStart, candEnd, bStart, bEnd) {
			continue
		}
		conflicts = append(conflicts, models.BookingConflict{
			ScheduleID: booking.ID,
			MovieTitle: booking.MovieTitle,
			StartTime:  bStart,
			EndTime:    bEnd,
			Label:      models.ConflictLabel(booking.MovieTitle, bStart, bEnd),
		})
	}
	return conflicts, nil
}

// AvailableSlots enumerates the non-overlapping start windows of one room on
// one day. It fetches the day's bookings once and checks each candidate
// against the in-memory set, so the cost is O(candidates × bookings) with a
// single query regardless of how many candidates the day has.
func (s *ConflictService) AvailableSlots(ctx context.Context, cinemaID string, date time.Time, durationMinutes, intervalMinutes int) ([]models.SlotWindow, error) {
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultSlotInterval
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	open := day.Add(OpenHour * time.Hour)
	close := day.Add(CloseHour * time.Hour)

	booked, err := s.schedules.ListActiveInWindow(ctx, cinemaID, open, close, CleanupMinutes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day bookings")
	}

	type window struct{ start, end time.Time }
	occupied := make([]window, 0, len(booked))
	for _, booking := range booked {
		bStart, bEnd := OccupiedWindow(booking.TimeSlot, booking.DurationMinutes)
		occupied = append(occupied, window{bStart, bEnd})
	}

	var slots []models.SlotWindow
	for candidate := open; !candidate.After(close); candidate = candidate.Add(time.Duration(intervalMinutes) * time.Minute) {
		_, candEnd := OccupiedWindow(candidate, durationMinutes)
		if candEnd.After(close) {
			// The venue closes at CloseHour; a showing must wrap up by then.
			break
		}
		free := true
		for _, w := range occupied {
			if overlaps(candidate, candEnd, w.start, w.end) {
				free = false
				break
			}
		}
		if free {
			slots = append(slots, models.SlotWindow{Start: candidate, End: candEnd})
		}
	}
	return slots, nil
}

// BatchConflicts checks many candidate starts against one room in a single
// pass. Starts are RFC3339; a malformed value maps to true (fail closed).
func (s *ConflictService) BatchConflicts(ctx context.Context, cinemaID string, starts []string, durationMinutes int, excludeIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(starts))
	if len(starts) == 0 {
		return result, nil
	}

	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	parsed := make(map[string]time.Time, len(starts))
	var earliest, latest time.Time
	for _, raw := range starts {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			result[raw] = true
			continue
		}
		parsed[raw] = start
		if earliest.IsZero() || start.Before(earliest) {
			earliest = start
		}
		if latest.IsZero() || start.After(latest) {
			latest = start
		}
	}
	if len(parsed) == 0 {
		return result, nil
	}

	_, windowEnd := OccupiedWindow(latest, durationMinutes)
	existing, err := s.schedules.ListActiveInWindow(ctx, cinemaID, earliest, windowEnd, CleanupMinutes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to batch check conflicts")
	}

	for raw, start := range parsed {
		candStart, candEnd := OccupiedWindow(start, durationMinutes)
		conflicting := false
		for _, booking := range existing {
			if _, skip := excluded[booking.ID]; skip {
				continue
			}
			bStart, bEnd := OccupiedWindow(booking.TimeSlot, booking.DurationMinutes)
			if overlaps(candStart, candEnd, bStart, bEnd) {
				conflicting = true
				break
			}
		}
		result[raw] = conflicting
	}
	return result, nil
}
