// Package cmd provides the command-line interface of the traffic signal
// simulator.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "signalsim",
	Short: "Simulate an adaptive traffic signal controller.",
	Long: `Signalsim simulates a four-lane adaptive traffic signal ` +
		`controller. It samples lane demand, allocates green time ` +
		`proportionally within a fixed cycle, and records every cycle ` +
		`for later inspection.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
