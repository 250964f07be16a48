package picker

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/conorfennell/randpick/internal/domain"
)

var (
	// ErrEmpty is returned when there is nothing to pick from.
	ErrEmpty = errors.New("picker: pool is empty")
	// ErrExhausted is returned in no-repeat mode once every item is drawn.
	ErrExhausted = errors.New("picker: every item has been drawn, reset to start over")
)

// Picker draws items using its own random source. It is safe for concurrent use.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Picker seeded from the current time.
func New() *Picker {
	seed := uint64(time.Now().UnixNano())
	return NewWithSource(rand.NewPCG(seed, seed>>32|1))
}

// NewWithSource returns a Picker backed by src. Tests use a fixed PCG seed.
func NewWithSource(src rand.Source) *Picker {
	return &Picker{rng: rand.New(src)}
}

// Candidates returns the items eligible for a draw.
// With noRepeat every drawn item is excluded.
func Candidates(pool []domain.Item, noRepeat bool) []domain.Item {
	if !noRepeat {
		return pool
	}
	out := make([]domain.Item, 0, len(pool))
	for _, it := range pool {
		if !it.IsDrawn {
			out = append(out, it)
		}
	}
	return out
}

// Pick returns a uniformly random element of pool, or of its undrawn subset
// when noRepeat is set.
func (p *Picker) Pick(pool []domain.Item, noRepeat bool) (domain.Item, error) {
	if len(pool) == 0 {
		return domain.Item{}, ErrEmpty
	}
	candidates := Candidates(pool, noRepeat)
	if len(candidates) == 0 {
		return domain.Item{}, ErrExhausted
	}
	p.mu.Lock()
	i := p.rng.IntN(len(candidates))
	p.mu.Unlock()
	return candidates[i], nil
}
