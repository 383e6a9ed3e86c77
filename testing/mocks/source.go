package mocks

import "sync"

// SequenceSource is a randutil.Source that replays fixed values.
// Intn returns the next queued int modulo n; Float64 the next queued float.
// Shuffle leaves the order unchanged. Queues wrap around.
type SequenceSource struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
	ii, fi int
}

// NewSequenceSource creates a source replaying ints.
func NewSequenceSource(ints ...int) *SequenceSource {
	return &SequenceSource{ints: ints}
}

// WithFloats sets the Float64 sequence.
func (s *SequenceSource) WithFloats(floats ...float64) *SequenceSource {
	s.floats = floats
	return s
}

func (s *SequenceSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) == 0 || n <= 0 {
		return 0
	}
	v := s.ints[s.ii%len(s.ints)]
	s.ii++
	return v % n
}

func (s *SequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[s.fi%len(s.floats)]
	s.fi++
	return v
}

func (s *SequenceSource) Shuffle(int, func(i, j int)) {}
