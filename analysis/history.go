package analysis

import (
	"sync"

	"github.com/trafficlab/signalsim/ctrl"
)

// History is a bounded ring of the most recent cycle results, kept for the
// dashboard. It is a Sink.
type History struct {
	mu sync.Mutex

	capacity int
	results  []ctrl.CycleResult
}

// NewHistory creates a history retaining up to capacity results.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		panic("history capacity must be positive")
	}

	return &History{capacity: capacity}
}

// CycleCompleted appends a result, evicting the oldest beyond capacity.
func (h *History) CycleCompleted(r ctrl.CycleResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.results = append(h.results, r)
	if len(h.results) > h.capacity {
		h.results = h.results[1:]
	}
}

// Recent returns the retained results, oldest first.
func (h *History) Recent() []ctrl.CycleResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]ctrl.CycleResult, len(h.results))
	copy(out, h.results)

	return out
}

// Latest returns the most recent result.
func (h *History) Latest() (ctrl.CycleResult, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.results) == 0 {
		return ctrl.CycleResult{}, false
	}

	return h.results[len(h.results)-1], true
}

// Len returns the number of retained results.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.results)
}
