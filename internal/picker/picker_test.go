package picker

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/conorfennell/randpick/internal/domain"
)

func pool(texts ...string) []domain.Item {
	items := make([]domain.Item, len(texts))
	for i, s := range texts {
		items[i] = domain.Item{ID: int64(i + 1), TableID: 1, Text: s}
	}
	return items
}

func markDrawn(it *domain.Item) {
	now := time.Now()
	it.IsDrawn = true
	it.DrawnAt = &now
}

func TestPick(t *testing.T) {
	p := NewWithSource(rand.NewPCG(1, 2))

	t.Run("Empty pool", func(t *testing.T) {
		for _, noRepeat := range []bool{true, false} {
			if _, err := p.Pick(nil, noRepeat); !errors.Is(err, ErrEmpty) {
				t.Errorf("Expected ErrEmpty with noRepeat=%v, but got %v", noRepeat, err)
			}
		}
	})

	t.Run("All drawn with no-repeat", func(t *testing.T) {
		items := pool("a", "b")
		markDrawn(&items[0])
		markDrawn(&items[1])
		if _, err := p.Pick(items, true); !errors.Is(err, ErrExhausted) {
			t.Errorf("Expected ErrExhausted, but got %v", err)
		}
	})

	t.Run("All drawn with replacement", func(t *testing.T) {
		items := pool("a")
		markDrawn(&items[0])
		got, err := p.Pick(items, false)
		if err != nil {
			t.Fatalf("Pick() returned an unexpected error: %v", err)
		}
		if got.Text != "a" {
			t.Errorf("Expected 'a', but got '%s'", got.Text)
		}
	})

	t.Run("No-repeat only returns undrawn items", func(t *testing.T) {
		items := pool("a", "b", "c")
		markDrawn(&items[0])
		markDrawn(&items[2])
		for i := 0; i < 50; i++ {
			got, err := p.Pick(items, true)
			if err != nil {
				t.Fatalf("Pick() returned an unexpected error: %v", err)
			}
			if got.Text != "b" {
				t.Fatalf("Expected only 'b' to be drawn, but got '%s'", got.Text)
			}
		}
	})
}

func TestPickIsRoughlyUniform(t *testing.T) {
	p := NewWithSource(rand.NewPCG(42, 7))
	items := pool("a", "b", "c", "d")
	const draws = 20000
	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		got, err := p.Pick(items, false)
		if err != nil {
			t.Fatalf("Pick() returned an unexpected error: %v", err)
		}
		counts[got.Text]++
	}

	expected := float64(draws) / float64(len(items))
	for _, it := range items {
		if math.Abs(float64(counts[it.Text])-expected) > expected*0.1 {
			t.Errorf("Expected about %.0f draws of '%s', but got %d", expected, it.Text, counts[it.Text])
		}
	}
}

func TestCandidates(t *testing.T) {
	items := pool("a", "b")
	markDrawn(&items[1])

	if got := Candidates(items, false); len(got) != 2 {
		t.Errorf("Expected 2 candidates with replacement, but got %d", len(got))
	}
	got := Candidates(items, true)
	if len(got) != 1 || got[0].Text != "a" {
		t.Errorf("Expected only 'a' without replacement, but got %v", got)
	}
}
