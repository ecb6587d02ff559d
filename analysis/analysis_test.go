package analysis

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/trafficlab/signalsim/ctrl"
)

func resultWithEfficiency(cycle int, green int) ctrl.CycleResult {
	// Demand 20% on every lane against a 100 second cycle; the green share
	// controls the efficiency value.
	return ctrl.CycleResult{
		Cycle: cycle,
		Readings: map[ctrl.Lane]float64{
			ctrl.North: 20, ctrl.South: 20, ctrl.East: 20, ctrl.West: 20,
		},
		Allocation: map[ctrl.Lane]int{
			ctrl.North: green, ctrl.South: green,
			ctrl.East: green, ctrl.West: green,
		},
		CycleSeconds: 100,
	}
}

type capturingLogger struct {
	entries []EfficiencyEntry
}

func (l *capturingLogger) AddEfficiencyEntry(e EfficiencyEntry) {
	l.entries = append(l.entries, e)
}

var _ = Describe("EfficiencyTracker", func() {
	It("should report zero before any cycle completes", func() {
		t := MakeEfficiencyTrackerBuilder().Build()

		Expect(t.Average()).To(Equal(0.0))

		_, ok := t.Latest()
		Expect(ok).To(BeFalse())
	})

	It("should track the latest measurement", func() {
		t := MakeEfficiencyTrackerBuilder().Build()

		t.CycleCompleted(resultWithEfficiency(0, 20))

		v, ok := t.Latest()
		Expect(ok).To(BeTrue())
		Expect(v).To(BeNumerically("~", 100, 1e-9))
	})

	It("should average over the rolling window only", func() {
		t := MakeEfficiencyTrackerBuilder().WithWindowSize(2).Build()

		t.CycleCompleted(resultWithEfficiency(0, 20)) // 100
		t.CycleCompleted(resultWithEfficiency(1, 10)) // 50
		t.CycleCompleted(resultWithEfficiency(2, 10)) // 50, evicts the 100

		Expect(t.Average()).To(BeNumerically("~", 50, 1e-9))
	})

	It("should forward every measurement to the logger", func() {
		logger := &capturingLogger{}
		t := MakeEfficiencyTrackerBuilder().WithLogger(logger).Build()

		t.CycleCompleted(resultWithEfficiency(0, 20))
		t.CycleCompleted(resultWithEfficiency(1, 10))

		Expect(logger.entries).To(HaveLen(2))
		Expect(logger.entries[0].Cycle).To(Equal(0))
		Expect(logger.entries[1].Value).To(BeNumerically("~", 50, 1e-9))
	})
})

var _ = Describe("History", func() {
	It("should retain results oldest first", func() {
		h := NewHistory(10)

		h.CycleCompleted(resultWithEfficiency(0, 20))
		h.CycleCompleted(resultWithEfficiency(1, 20))

		recent := h.Recent()
		Expect(recent).To(HaveLen(2))
		Expect(recent[0].Cycle).To(Equal(0))
		Expect(recent[1].Cycle).To(Equal(1))
	})

	It("should evict the oldest result beyond capacity", func() {
		h := NewHistory(2)

		for i := 0; i < 5; i++ {
			h.CycleCompleted(resultWithEfficiency(i, 20))
		}

		recent := h.Recent()
		Expect(recent).To(HaveLen(2))
		Expect(recent[0].Cycle).To(Equal(3))
		Expect(recent[1].Cycle).To(Equal(4))

		latest, ok := h.Latest()
		Expect(ok).To(BeTrue())
		Expect(latest.Cycle).To(Equal(4))
	})
})

var _ = Describe("MultiSink", func() {
	It("should forward results to every sink in order", func() {
		h1 := NewHistory(5)
		h2 := NewHistory(5)

		m := NewMultiSink(h1)
		m.Add(h2)

		m.CycleCompleted(resultWithEfficiency(0, 20))

		Expect(h1.Len()).To(Equal(1))
		Expect(h2.Len()).To(Equal(1))
	})
})
