package recording

import (
	"time"

	"github.com/trafficlab/signalsim/analysis"
	"github.com/trafficlab/signalsim/ctrl"
)

// Table names of one recorded run.
const (
	TableRuns       = "runs"
	TableCycles     = "cycles"
	TableEfficiency = "efficiency"
)

// CycleRecord is the flat row stored for one completed cycle.
type CycleRecord struct {
	Cycle          int
	ElapsedSeconds float64
	NorthDemand    float64
	SouthDemand    float64
	EastDemand     float64
	WestDemand     float64
	NorthGreen     int
	SouthGreen     int
	EastGreen      int
	WestGreen      int
	ActiveLane     string
}

// NewCycleRecord flattens a cycle result into its stored form.
func NewCycleRecord(r ctrl.CycleResult) CycleRecord {
	active := ""
	for _, l := range ctrl.Lanes() {
		if r.Signals[l] == ctrl.SignalActive {
			active = l.String()
			break
		}
	}

	return CycleRecord{
		Cycle:          r.Cycle,
		ElapsedSeconds: r.ElapsedSeconds,
		NorthDemand:    r.Readings[ctrl.North],
		SouthDemand:    r.Readings[ctrl.South],
		EastDemand:     r.Readings[ctrl.East],
		WestDemand:     r.Readings[ctrl.West],
		NorthGreen:     r.Allocation[ctrl.North],
		SouthGreen:     r.Allocation[ctrl.South],
		EastGreen:      r.Allocation[ctrl.East],
		WestGreen:      r.Allocation[ctrl.West],
		ActiveLane:     active,
	}
}

// RunRecord stores the metadata of one run.
type RunRecord struct {
	RunID       string
	StartedAt   string
	Seed        int64
	CycleLength int
	MinGreen    int
	MaxGreen    int
	YellowTime  int
	AllRedTime  int
}

// EfficiencyRecord stores one efficiency measurement.
type EfficiencyRecord struct {
	Cycle          int
	ElapsedSeconds float64
	Value          float64
}

// A RunStore records one simulation run into a Recorder. It consumes cycle
// results as a Sink and efficiency measurements as an EfficiencyLogger.
type RunStore struct {
	rec   Recorder
	runID string
}

// NewRunStore creates the run tables on the recorder.
func NewRunStore(rec Recorder, runID string) *RunStore {
	rec.CreateTable(TableRuns, RunRecord{})
	rec.CreateTable(TableCycles, CycleRecord{})
	rec.CreateTable(TableEfficiency, EfficiencyRecord{})

	return &RunStore{
		rec:   rec,
		runID: runID,
	}
}

// RecordRunStart stores the run metadata row.
func (s *RunStore) RecordRunStart(
	startedAt time.Time,
	cfg ctrl.Config,
	seed int64,
) {
	s.rec.Insert(TableRuns, RunRecord{
		RunID:       s.runID,
		StartedAt:   startedAt.UTC().Format(time.RFC3339),
		Seed:        seed,
		CycleLength: cfg.CycleLength,
		MinGreen:    cfg.MinGreen,
		MaxGreen:    cfg.MaxGreen,
		YellowTime:  cfg.YellowTime,
		AllRedTime:  cfg.AllRedTime,
	})
}

// CycleCompleted stores one completed cycle.
func (s *RunStore) CycleCompleted(r ctrl.CycleResult) {
	s.rec.Insert(TableCycles, NewCycleRecord(r))
}

// AddEfficiencyEntry stores one efficiency measurement.
func (s *RunStore) AddEfficiencyEntry(e analysis.EfficiencyEntry) {
	s.rec.Insert(TableEfficiency, EfficiencyRecord{
		Cycle:          e.Cycle,
		ElapsedSeconds: e.ElapsedSeconds,
		Value:          e.Value,
	})
}

// Flush writes all buffered rows.
func (s *RunStore) Flush() {
	s.rec.Flush()
}
