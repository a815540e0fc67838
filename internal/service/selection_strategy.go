package service

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/cineops/showtime-api/internal/models"
)

// Prime time biases both movie selection and occupancy targets.
const (
	PrimeTimeStartHour = 18
	PrimeTimeEndHour   = 22
)

var primeTimeGenres = map[string]bool{
	"action":    true,
	"adventure": true,
	"thriller":  true,
	"drama":     true,
}

func isPrimeTime(slot time.Time) bool {
	h := slot.Hour()
	return h >= PrimeTimeStartHour && h < PrimeTimeEndHour
}

func isWeekend(slot time.Time) bool {
	switch slot.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		return true
	}
	return false
}

// SelectionStrategy picks one movie for a candidate slot. It exists so the
// weighted heuristic can later be swapped for a trained model without
// touching the generator loop.
type SelectionStrategy interface {
	SelectMovie(slotStart time.Time, movies []models.Movie, preferences map[string]float64) *models.Movie
}

// WeightedSelectionStrategy scores every movie, keeps the top third, and
// picks uniformly among those. Always taking the single highest weight would
// make every prime-time slot identical; pure random ignores preferences.
// Randomly sampling the top keeps both properties.
type WeightedSelectionStrategy struct {
	rng *rand.Rand
}

// NewWeightedSelectionStrategy builds the default strategy. A nil rng gets a
// time-seeded source; tests inject a fixed seed.
func NewWeightedSelectionStrategy(rng *rand.Rand) *WeightedSelectionStrategy {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &WeightedSelectionStrategy{rng: rng}
}

// SelectMovie implements SelectionStrategy.
func (s *WeightedSelectionStrategy) SelectMovie(slotStart time.Time, movies []models.Movie, preferences map[string]float64) *models.Movie {
	if len(movies) == 0 {
		return nil
	}

	type scored struct {
		movie  models.Movie
		weight float64
	}
	candidates := make([]scored, 0, len(movies))
	prime := isPrimeTime(slotStart)
	for _, movie := range movies {
		weight := 1.0
		if pref, ok := preferences[movie.ID]; ok {
			weight *= pref
		}
		if prime && primeTimeGenres[strings.ToLower(movie.Genre)] {
			weight *= 1.5
		}
		weight *= 0.8 + s.rng.Float64()*0.4
		candidates = append(candidates, scored{movie: movie, weight: weight})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].weight > candidates[j].weight
	})

	top := len(candidates) / 3
	if top < 3 {
		top = 3
	}
	if top > len(candidates) {
		top = len(candidates)
	}
	picked := candidates[s.rng.Intn(top)].movie
	return &picked
}
