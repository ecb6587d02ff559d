package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trafficlab/signalsim/recording"
)

var exportCmd = &cobra.Command{
	Use:   "export [database]",
	Short: "Export the cycles of a recorded run to CSV or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		csvOut, _ := cmd.Flags().GetString("csv")
		jsonOut, _ := cmd.Flags().GetString("json")

		if csvOut == "" && jsonOut == "" {
			return fmt.Errorf("nothing to export: set --csv or --json")
		}

		records, err := readCycles(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if csvOut != "" {
			exportCSV(csvOut, records)
		}

		if jsonOut != "" {
			exportJSON(jsonOut, records)
		}

		fmt.Fprintf(os.Stderr, "Exported %d cycles\n", len(records))

		return nil
	},
}

func init() {
	exportCmd.Flags().String("csv", "",
		"CSV output file name, without extension")
	exportCmd.Flags().String("json", "",
		"JSON output file name, without extension")

	rootCmd.AddCommand(exportCmd)
}

func readCycles(
	ctx context.Context,
	dbFilename string,
) ([]recording.CycleRecord, error) {
	if _, err := os.Stat(dbFilename); err != nil {
		return nil, err
	}

	reader := recording.NewSQLiteReader(dbFilename)
	defer reader.Close()

	reader.MapTable(recording.TableCycles, recording.CycleRecord{})

	rows, _, err := reader.Query(ctx, recording.TableCycles,
		recording.QueryParams{OrderBy: "Cycle"})
	if err != nil {
		return nil, err
	}

	records := make([]recording.CycleRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.(recording.CycleRecord))
	}

	return records, nil
}

func exportCSV(path string, records []recording.CycleRecord) {
	w := recording.NewCycleCSVWriter(strings.TrimSuffix(path, ".csv"))
	w.Init()

	for _, rec := range records {
		w.Write(rec)
	}

	w.Flush()
}

func exportJSON(path string, records []recording.CycleRecord) {
	w := recording.NewCycleJSONWriter(strings.TrimSuffix(path, ".json"))

	for _, rec := range records {
		w.Write(rec)
	}

	w.Close()
}
