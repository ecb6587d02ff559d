// Package analysis derives diagnostics from completed control cycles.
package analysis

import (
	"sync"

	"github.com/trafficlab/signalsim/ctrl"
)

// EfficiencyEntry is one per-cycle efficiency measurement.
type EfficiencyEntry struct {
	Cycle          int
	ElapsedSeconds float64
	Value          float64
}

// An EfficiencyLogger records efficiency entries, typically into the run
// recorder.
type EfficiencyLogger interface {
	AddEfficiencyEntry(e EfficiencyEntry)
}

// EfficiencyTracker computes the demand/green efficiency diagnostic for
// every completed cycle and keeps a bounded rolling window of measurements.
// It is a Sink and never feeds back into allocation.
type EfficiencyTracker struct {
	mu sync.Mutex

	window int
	values []float64
	sum    float64

	logger EfficiencyLogger
}

// EfficiencyTrackerBuilder builds EfficiencyTrackers.
type EfficiencyTrackerBuilder struct {
	window int
	logger EfficiencyLogger
}

// MakeEfficiencyTrackerBuilder creates a builder with a 60-cycle rolling
// window and no logger.
func MakeEfficiencyTrackerBuilder() EfficiencyTrackerBuilder {
	return EfficiencyTrackerBuilder{window: 60}
}

// WithWindowSize sets the size of the rolling window.
func (b EfficiencyTrackerBuilder) WithWindowSize(
	n int,
) EfficiencyTrackerBuilder {
	b.window = n
	return b
}

// WithLogger forwards every measurement to a logger.
func (b EfficiencyTrackerBuilder) WithLogger(
	l EfficiencyLogger,
) EfficiencyTrackerBuilder {
	b.logger = l
	return b
}

// Build builds the tracker.
func (b EfficiencyTrackerBuilder) Build() *EfficiencyTracker {
	if b.window <= 0 {
		panic("efficiency window must be positive")
	}

	return &EfficiencyTracker{
		window: b.window,
		logger: b.logger,
	}
}

// CycleCompleted measures the efficiency of one cycle.
func (t *EfficiencyTracker) CycleCompleted(r ctrl.CycleResult) {
	v := ctrl.Efficiency(r.Readings, r.Allocation, r.CycleSeconds)

	t.mu.Lock()

	t.values = append(t.values, v)
	t.sum += v

	if len(t.values) > t.window {
		t.sum -= t.values[0]
		t.values = t.values[1:]
	}

	t.mu.Unlock()

	if t.logger != nil {
		t.logger.AddEfficiencyEntry(EfficiencyEntry{
			Cycle:          r.Cycle,
			ElapsedSeconds: r.ElapsedSeconds,
			Value:          v,
		})
	}
}

// Average returns the mean efficiency over the rolling window, or zero when
// no cycle completed yet.
func (t *EfficiencyTracker) Average() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.values) == 0 {
		return 0
	}

	return t.sum / float64(len(t.values))
}

// Latest returns the most recent measurement.
func (t *EfficiencyTracker) Latest() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.values) == 0 {
		return 0, false
	}

	return t.values[len(t.values)-1], true
}
