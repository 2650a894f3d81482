package testutil

import (
	"sync"

	"github.com/werous/covid-transmission-sim/internal/grid"
)

// RecordingSource wraps a grid.Source and keeps every value it hands out.
//
// Thread-safety: safe for concurrent use via internal mutex.
type RecordingSource struct {
	mu    sync.Mutex
	src   grid.Source
	draws []float64
}

// NewRecordingSource records draws from src.
func NewRecordingSource(src grid.Source) *RecordingSource {
	return &RecordingSource{src: src}
}

// Float64 draws from the wrapped source and records the value.
func (r *RecordingSource) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.src.Float64()
	r.draws = append(r.draws, v)
	return v
}

// Draws returns a copy of every value drawn so far.
func (r *RecordingSource) Draws() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.draws...)
}

// Reset forgets recorded draws. The wrapped source is not rewound.
func (r *RecordingSource) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draws = nil
}
