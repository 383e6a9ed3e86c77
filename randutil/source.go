// Package randutil provides an injectable randomness source.
package randutil

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the randomness used for model sampling and booking details.
type Source interface {
	// Intn returns a value in [0, n). n must be positive.
	Intn(n int) int
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Shuffle pseudo-randomizes the order of n elements.
	Shuffle(n int, swap func(i, j int))
}

// LockedSource is a Source safe for concurrent use.
type LockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a source seeded with seed.
func New(seed int64) *LockedSource {
	return &LockedSource{rnd: rand.New(rand.NewSource(seed))}
}

// NewTimeSeeded returns a source seeded from the clock.
func NewTimeSeeded() *LockedSource {
	return New(time.Now().UnixNano())
}

func (s *LockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

func (s *LockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

func (s *LockedSource) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd.Shuffle(n, swap)
}

// Between returns a value in [min, max].
func Between(src Source, min, max int) int {
	if max <= min {
		return min
	}
	return min + src.Intn(max-min+1)
}

// Pick returns a random element of items. items must not be empty.
func Pick[T any](src Source, items []T) T {
	return items[src.Intn(len(items))]
}

// Sample returns up to n distinct elements of items in shuffled order.
// items is not modified.
func Sample[T any](src Source, items []T, n int) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	src.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n < 0 {
		n = 0
	}
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
