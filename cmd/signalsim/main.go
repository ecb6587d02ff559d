package main

import (
	"github.com/tebeka/atexit"

	"github.com/trafficlab/signalsim/cmd/signalsim/cmd"
)

func main() {
	cmd.Execute()

	// Flush the recording files registered by the run.
	atexit.Exit(0)
}
