package simulation

import (
	"time"

	"github.com/rs/xid"

	"github.com/trafficlab/signalsim/analysis"
	"github.com/trafficlab/signalsim/ctrl"
	"github.com/trafficlab/signalsim/monitoring"
	"github.com/trafficlab/signalsim/recording"
)

const historySize = 256

// Builder can be used to build a simulation.
type Builder struct {
	scenario  Scenario
	clock     ctrl.Clock
	monitorOn bool
	csvOn     bool
	jsonOn    bool
}

// MakeBuilder creates a new builder with the default scenario, a wall
// clock, and monitoring enabled.
func MakeBuilder() Builder {
	return Builder{
		scenario:  DefaultScenario(),
		clock:     ctrl.WallClock{},
		monitorOn: true,
	}
}

// WithScenario sets the scenario to run.
func (b Builder) WithScenario(sc Scenario) Builder {
	b.scenario = sc
	return b
}

// WithClock sets the time source of the simulation.
func (b Builder) WithClock(c ctrl.Clock) Builder {
	b.clock = c
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithCSVExport also streams cycle records into a CSV file next to the
// database.
func (b Builder) WithCSVExport() Builder {
	b.csvOn = true
	return b
}

// WithJSONExport also streams cycle records into a JSON file next to the
// database.
func (b Builder) WithJSONExport() Builder {
	b.jsonOn = true
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.scenario.Monitor.Port != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	if b.scenario.Monitor.Disabled {
		b.monitorOn = false
	}

	cfg := b.scenario.Config()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	overrides, err := parseOverrides(b.scenario.Overrides)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		id:       xid.New().String(),
		scenario: b.scenario,
	}

	outputPath := b.scenario.Output
	if outputPath == "" {
		outputPath = "signalsim_run_" + s.id
	}

	s.recorder = recording.NewSQLiteRecorder(outputPath)
	s.runStore = recording.NewRunStore(s.recorder, s.id)
	s.history = analysis.NewHistory(historySize)
	s.tracker = analysis.MakeEfficiencyTrackerBuilder().
		WithLogger(s.runStore).
		Build()
	s.metrics = monitoring.NewMetrics()

	sink := analysis.NewMultiSink(
		s.runStore, s.history, s.tracker, s.metrics)

	if b.csvOn {
		csv := recording.NewCycleCSVWriter(outputPath)
		csv.Init()
		sink.Add(csv)
	}

	if b.jsonOn {
		sink.Add(recording.NewCycleJSONWriter(outputPath))
	}

	seed := b.scenario.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	scheduler, err := ctrl.MakeSchedulerBuilder().
		WithClock(b.clock).
		WithSink(sink).
		WithConfig(cfg).
		WithSmoothing(b.scenario.Smoothing).
		WithSeed(seed).
		Build()
	if err != nil {
		return nil, err
	}
	s.scheduler = scheduler

	if b.scenario.Speed != 0 && b.scenario.Speed != 1 {
		if err := scheduler.SetSpeed(b.scenario.Speed); err != nil {
			return nil, err
		}
	}

	for lane, percent := range overrides {
		if err := scheduler.SetOverride(lane, percent); err != nil {
			return nil, err
		}
	}

	s.runStore.RecordRunStart(b.clock.Now(), cfg, seed)

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.scenario.Monitor.Port > 0 {
			s.monitor.WithPortNumber(b.scenario.Monitor.Port)
		}
		s.monitor.RegisterScheduler(s.scheduler)
		s.monitor.RegisterHistory(s.history)
		s.monitor.RegisterEfficiencyTracker(s.tracker)
		s.monitor.RegisterMetrics(s.metrics)
		s.monitor.StartServer()
	}

	return s, nil
}

func parseOverrides(byName map[string]float64) (map[ctrl.Lane]float64, error) {
	overrides := make(map[ctrl.Lane]float64, len(byName))

	for name, percent := range byName {
		lane, err := ctrl.ParseLane(name)
		if err != nil {
			return nil, err
		}

		overrides[lane] = percent
	}

	return overrides, nil
}
