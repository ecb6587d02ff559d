package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/trafficlab/signalsim/ctrl"
	"github.com/trafficlab/signalsim/simulation"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true

		sc, err := runScenario(cmd)
		if err != nil {
			return err
		}

		fast, _ := cmd.Flags().GetBool("fast")
		if fast {
			return runHeadless(cmd, sc)
		}

		return runRealTime(cmd, sc)
	},
}

func init() {
	runCmd.Flags().StringP("scenario", "s", "",
		"scenario YAML file")
	runCmd.Flags().Float64P("duration", "d", 0,
		"simulated seconds to run, 0 for unbounded")
	runCmd.Flags().Float64("speed", 0,
		"playback speed multiplier")
	runCmd.Flags().Int64("seed", 0,
		"demand generator seed, 0 for a wall-clock seed")
	runCmd.Flags().StringP("output", "o", "",
		"recording file name, without extension")
	runCmd.Flags().Int("cycle-length", 0,
		"cycle length in seconds")
	runCmd.Flags().Int("min-green", 0,
		"minimum green time per lane in seconds")
	runCmd.Flags().Int("max-green", 0,
		"maximum green time per lane in seconds")
	runCmd.Flags().Int("yellow", 0,
		"yellow time per lane in seconds")
	runCmd.Flags().Int("all-red", 0,
		"all-red clearance per lane in seconds")
	runCmd.Flags().Bool("no-monitor", false,
		"disable the monitoring server")
	runCmd.Flags().Bool("open", false,
		"open the dashboard in the default browser")
	runCmd.Flags().Bool("csv", false,
		"also stream cycle records into a CSV file")
	runCmd.Flags().Bool("json", false,
		"also stream cycle records into a JSON file")
	runCmd.Flags().Bool("fast", false,
		"run a bounded scenario as fast as possible, without monitoring")

	rootCmd.AddCommand(runCmd)
}

// runScenario assembles the scenario from the defaults, the scenario file,
// the environment, and the command-line flags, in increasing precedence.
func runScenario(cmd *cobra.Command) (simulation.Scenario, error) {
	sc := simulation.DefaultScenario()

	scenarioPath, _ := cmd.Flags().GetString("scenario")
	if scenarioPath != "" {
		loaded, err := simulation.LoadScenario(scenarioPath)
		if err != nil {
			return sc, err
		}

		sc = loaded
	} else if err := sc.ApplyEnv(); err != nil {
		return sc, err
	}

	if cmd.Flags().Changed("duration") {
		sc.DurationSeconds, _ = cmd.Flags().GetFloat64("duration")
	}

	if cmd.Flags().Changed("speed") {
		sc.Speed, _ = cmd.Flags().GetFloat64("speed")
	}

	if cmd.Flags().Changed("seed") {
		sc.Seed, _ = cmd.Flags().GetInt64("seed")
	}

	if cmd.Flags().Changed("output") {
		sc.Output, _ = cmd.Flags().GetString("output")
	}

	if cmd.Flags().Changed("cycle-length") {
		sc.Signal.CycleLength, _ = cmd.Flags().GetInt("cycle-length")
	}

	if cmd.Flags().Changed("min-green") {
		sc.Signal.MinGreen, _ = cmd.Flags().GetInt("min-green")
	}

	if cmd.Flags().Changed("max-green") {
		sc.Signal.MaxGreen, _ = cmd.Flags().GetInt("max-green")
	}

	if cmd.Flags().Changed("yellow") {
		sc.Signal.YellowTime, _ = cmd.Flags().GetInt("yellow")
	}

	if cmd.Flags().Changed("all-red") {
		sc.Signal.AllRedTime, _ = cmd.Flags().GetInt("all-red")
	}

	if noMonitor, _ := cmd.Flags().GetBool("no-monitor"); noMonitor {
		sc.Monitor.Disabled = true
		sc.Monitor.Port = 0
	}

	return sc, nil
}

func runBuilder(cmd *cobra.Command, sc simulation.Scenario) simulation.Builder {
	b := simulation.MakeBuilder().WithScenario(sc)

	if sc.Monitor.Disabled {
		b = b.WithoutMonitoring()
	}

	if csv, _ := cmd.Flags().GetBool("csv"); csv {
		b = b.WithCSVExport()
	}

	if json, _ := cmd.Flags().GetBool("json"); json {
		b = b.WithJSONExport()
	}

	return b
}

func runRealTime(cmd *cobra.Command, sc simulation.Scenario) error {
	sim, err := runBuilder(cmd, sc).Build()
	if err != nil {
		return err
	}

	if err := sim.Start(); err != nil {
		return err
	}

	if open, _ := cmd.Flags().GetBool("open"); open {
		if sim.Monitor() == nil {
			return fmt.Errorf("cannot open the dashboard: " +
				"monitoring is disabled")
		}

		sim.Monitor().OpenDashboard()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sigs:
			sim.Terminate()
			return nil
		case <-ticker.C:
			if sim.Scheduler().State() == ctrl.StateStopped {
				sim.Terminate()
				return nil
			}
		}
	}
}

// runHeadless drives a bounded scenario on a virtual clock, so the run
// completes without real delays.
func runHeadless(cmd *cobra.Command, sc simulation.Scenario) error {
	if sc.DurationSeconds <= 0 {
		return fmt.Errorf("--fast requires a bounded duration")
	}

	sc.Monitor.Disabled = true
	sc.Monitor.Port = 0

	clock := ctrl.NewVirtualClock(time.Now())

	sim, err := runBuilder(cmd, sc).
		WithClock(clock).
		WithoutMonitoring().
		Build()
	if err != nil {
		return err
	}

	if err := sim.Start(); err != nil {
		return err
	}

	speed := sc.Speed
	if speed <= 0 {
		speed = 1
	}

	// One extra interval lets the duration check fire.
	wallSeconds := sc.DurationSeconds/speed + 1
	clock.Advance(time.Duration(wallSeconds * float64(time.Second)))

	sim.Terminate()

	fmt.Fprintf(os.Stderr, "Completed %d cycles\n",
		sim.Scheduler().CycleCount())

	return nil
}
