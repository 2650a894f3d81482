package grid

import (
	"math/rand/v2"
	"sync"
)

// Source supplies uniform draws in [0, 1).
//
// *rand.Rand from math/rand/v2 satisfies Source.
type Source interface {
	Float64() float64
}

// NewSource returns a PCG-backed source seeded with seed.
// Two grids built with the same seed and the same seeding produce identical runs.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sequence replays a fixed list of draws, wrapping around when exhausted.
//
// Example:
//
//	seq := NewSequence(0.1, 0.9)
//	seq.Float64() // 0.1
//	seq.Float64() // 0.9
//	seq.Float64() // 0.1
//
// Thread-safety: Sequence is safe for concurrent use via internal mutex.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	drawn  int
}

// NewSequence creates a sequence over values. An empty sequence always returns 0.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: append([]float64(nil), values...)}
}

// Constant returns a sequence that always yields v.
func Constant(v float64) *Sequence {
	return NewSequence(v)
}

// Float64 returns the next value in the sequence.
func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v float64
	if len(s.values) > 0 {
		v = s.values[s.drawn%len(s.values)]
	}
	s.drawn++
	return v
}

// Drawn returns how many values have been consumed.
func (s *Sequence) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawn
}
