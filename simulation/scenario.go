// Package simulation assembles a full controller simulation: the scheduler,
// its sinks, the run recorder, and the monitoring server.
package simulation

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/trafficlab/signalsim/ctrl"
)

// A Scenario describes one simulation run. It is usually loaded from a YAML
// file, with selected values overridable from the process environment.
type Scenario struct {
	Signal struct {
		CycleLength int `yaml:"cycle_length"`
		MinGreen    int `yaml:"min_green"`
		MaxGreen    int `yaml:"max_green"`
		YellowTime  int `yaml:"yellow_time"`
		AllRedTime  int `yaml:"all_red_time"`
	} `yaml:"signal"`

	// Smoothing is the exponential smoothing coefficient of every demand
	// source.
	Smoothing float64 `yaml:"smoothing"`

	// Seed makes the demand generators deterministic. Zero picks a seed
	// from the wall clock.
	Seed int64 `yaml:"seed"`

	// DurationSeconds bounds the run in simulated time, 0 for unbounded.
	DurationSeconds float64 `yaml:"duration_seconds"`

	// Speed is the initial playback speed multiplier.
	Speed float64 `yaml:"speed"`

	// Overrides pins lanes to fixed demand percentages, keyed by lane name.
	Overrides map[string]float64 `yaml:"overrides"`

	// Output names the recording files, without extension. Empty picks a
	// generated name.
	Output string `yaml:"output"`

	Monitor struct {
		Disabled bool `yaml:"disabled"`
		Port     int  `yaml:"port"`
	} `yaml:"monitor"`
}

// DefaultScenario returns a scenario with the default signal configuration,
// a smoothing coefficient of 0.3, and real-time playback.
func DefaultScenario() Scenario {
	sc := Scenario{
		Smoothing: 0.3,
		Speed:     1,
	}

	cfg := ctrl.DefaultConfig()
	sc.Signal.CycleLength = cfg.CycleLength
	sc.Signal.MinGreen = cfg.MinGreen
	sc.Signal.MaxGreen = cfg.MaxGreen
	sc.Signal.YellowTime = cfg.YellowTime
	sc.Signal.AllRedTime = cfg.AllRedTime

	return sc
}

// Config converts the scenario's signal section to a controller
// configuration.
func (sc Scenario) Config() ctrl.Config {
	return ctrl.Config{
		CycleLength: sc.Signal.CycleLength,
		MinGreen:    sc.Signal.MinGreen,
		MaxGreen:    sc.Signal.MaxGreen,
		YellowTime:  sc.Signal.YellowTime,
		AllRedTime:  sc.Signal.AllRedTime,
	}
}

// LoadScenario reads a scenario YAML file and applies the environment
// overrides on top of it.
func LoadScenario(path string) (Scenario, error) {
	sc := DefaultScenario()

	file, err := os.Open(path)
	if err != nil {
		return sc, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&sc); err != nil {
		return sc, err
	}

	if err := sc.ApplyEnv(); err != nil {
		return sc, err
	}

	return sc, nil
}

// ApplyEnv overrides scenario values from the process environment. A .env
// file in the working directory is loaded first if present.
//
//	SIGNALSIM_OUTPUT        recording file name
//	SIGNALSIM_SEED          demand generator seed
//	SIGNALSIM_SPEED         playback speed multiplier
//	SIGNALSIM_MONITOR_PORT  monitoring server port
func (sc *Scenario) ApplyEnv() error {
	// Missing .env files are fine.
	_ = godotenv.Load()

	if v := os.Getenv("SIGNALSIM_OUTPUT"); v != "" {
		sc.Output = v
	}

	if v := os.Getenv("SIGNALSIM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SIGNALSIM_SEED: %w", err)
		}

		sc.Seed = seed
	}

	if v := os.Getenv("SIGNALSIM_SPEED"); v != "" {
		speed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SIGNALSIM_SPEED: %w", err)
		}

		sc.Speed = speed
	}

	if v := os.Getenv("SIGNALSIM_MONITOR_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SIGNALSIM_MONITOR_PORT: %w", err)
		}

		sc.Monitor.Port = port
	}

	return nil
}
