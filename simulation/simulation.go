package simulation

import (
	"github.com/trafficlab/signalsim/analysis"
	"github.com/trafficlab/signalsim/ctrl"
	"github.com/trafficlab/signalsim/monitoring"
	"github.com/trafficlab/signalsim/recording"
)

// A Simulation bundles a scheduler with its recording and monitoring
// services for one run.
type Simulation struct {
	id       string
	scenario Scenario

	scheduler *ctrl.Scheduler
	recorder  recording.Recorder
	runStore  *recording.RunStore
	history   *analysis.History
	tracker   *analysis.EfficiencyTracker
	metrics   *monitoring.Metrics
	monitor   *monitoring.Monitor
}

// ID returns the generated identifier of the run.
func (s *Simulation) ID() string {
	return s.id
}

// Scenario returns the scenario the simulation was built from.
func (s *Simulation) Scenario() Scenario {
	return s.scenario
}

// Scheduler returns the playback scheduler of the simulation.
func (s *Simulation) Scheduler() *ctrl.Scheduler {
	return s.scheduler
}

// History returns the in-memory cycle history.
func (s *Simulation) History() *analysis.History {
	return s.history
}

// EfficiencyTracker returns the efficiency diagnostic.
func (s *Simulation) EfficiencyTracker() *analysis.EfficiencyTracker {
	return s.tracker
}

// Monitor returns the monitoring server, or nil when monitoring is
// disabled.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Start begins the run, bounded by the scenario duration.
func (s *Simulation) Start() error {
	return s.scheduler.Start(s.scenario.DurationSeconds)
}

// Terminate stops playback and closes the recording database.
func (s *Simulation) Terminate() {
	if s.scheduler.State() == ctrl.StateRunning ||
		s.scheduler.State() == ctrl.StatePaused {
		if err := s.scheduler.Stop(); err != nil {
			panic(err)
		}
	}

	if err := s.recorder.Close(); err != nil {
		panic(err)
	}
}
