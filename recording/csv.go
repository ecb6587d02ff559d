package recording

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/trafficlab/signalsim/ctrl"
)

const csvHeader = "Cycle, Elapsed, NorthDemand, SouthDemand, EastDemand, " +
	"WestDemand, NorthGreen, SouthGreen, EastGreen, WestGreen, ActiveLane\n"

// CycleCSVWriter streams cycle records into a CSV file. It is a Sink.
type CycleCSVWriter struct {
	path string
	file *os.File

	records    []CycleRecord
	bufferSize int
}

// NewCycleCSVWriter creates a CSV writer for cycle records. An empty path
// picks a generated name.
func NewCycleCSVWriter(path string) *CycleCSVWriter {
	return &CycleCSVWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the CSV file and writes the header. The file must not
// already exist.
func (w *CycleCSVWriter) Init() {
	if w.path == "" {
		w.path = "signalsim_cycles_" + xid.New().String()
	}

	filename := w.path + ".csv"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	w.file = file

	fmt.Fprint(file, csvHeader)

	atexit.Register(func() {
		w.Flush()

		err := w.file.Close()
		if err != nil {
			panic(err)
		}
	})
}

// CycleCompleted buffers one completed cycle.
func (w *CycleCSVWriter) CycleCompleted(r ctrl.CycleResult) {
	w.Write(NewCycleRecord(r))
}

// Write buffers one cycle record.
func (w *CycleCSVWriter) Write(rec CycleRecord) {
	w.records = append(w.records, rec)
	if len(w.records) >= w.bufferSize {
		w.Flush()
	}
}

// Flush writes the buffered records to the file.
func (w *CycleCSVWriter) Flush() {
	for _, rec := range w.records {
		fmt.Fprintf(w.file,
			"%d, %.3f, %.2f, %.2f, %.2f, %.2f, %d, %d, %d, %d, %s\n",
			rec.Cycle,
			rec.ElapsedSeconds,
			rec.NorthDemand,
			rec.SouthDemand,
			rec.EastDemand,
			rec.WestDemand,
			rec.NorthGreen,
			rec.SouthGreen,
			rec.EastGreen,
			rec.WestGreen,
			rec.ActiveLane,
		)
	}

	w.records = nil
}
