package analysis

import "github.com/trafficlab/signalsim/ctrl"

// MultiSink fans every cycle result out to several sinks, in order.
type MultiSink struct {
	sinks []ctrl.Sink
}

// NewMultiSink creates a fan-out over the given sinks.
func NewMultiSink(sinks ...ctrl.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Add appends another sink to the fan-out.
func (m *MultiSink) Add(s ctrl.Sink) {
	m.sinks = append(m.sinks, s)
}

// CycleCompleted forwards the result to every sink.
func (m *MultiSink) CycleCompleted(r ctrl.CycleResult) {
	for _, s := range m.sinks {
		s.CycleCompleted(r)
	}
}
