package recording

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/trafficlab/signalsim/ctrl"
)

// CycleJSONWriter streams cycle records into a JSON array. It is a Sink.
type CycleJSONWriter struct {
	w         io.Writer
	closer    io.Closer
	firstDone bool
}

// NewCycleJSONWriter creates a JSON writer for cycle records at
// path + ".json". An empty path picks a generated name. The array is
// terminated at exit or on Close.
func NewCycleJSONWriter(path string) *CycleJSONWriter {
	if path == "" {
		path = "signalsim_cycles_" + xid.New().String()
	}

	f, err := os.Create(path + ".json")
	if err != nil {
		panic(err)
	}

	_, err = f.Write([]byte("[\n"))
	if err != nil {
		panic(err)
	}

	w := &CycleJSONWriter{
		w:      f,
		closer: f,
	}

	atexit.Register(func() { w.Close() })

	return w
}

// CycleCompleted writes one completed cycle.
func (w *CycleJSONWriter) CycleCompleted(r ctrl.CycleResult) {
	w.Write(NewCycleRecord(r))
}

// Write appends one record to the JSON array.
func (w *CycleJSONWriter) Write(rec CycleRecord) {
	if w.firstDone {
		_, err := w.w.Write([]byte(",\n"))
		if err != nil {
			panic(err)
		}
	}
	w.firstDone = true

	b, err := json.Marshal(rec)
	if err != nil {
		panic(err)
	}

	_, err = w.w.Write(b)
	if err != nil {
		panic(err)
	}
}

// Close terminates the JSON array and closes the file. It is safe to call
// more than once.
func (w *CycleJSONWriter) Close() {
	if w.closer == nil {
		return
	}

	_, err := w.w.Write([]byte("\n]\n"))
	if err != nil {
		panic(err)
	}

	err = w.closer.Close()
	if err != nil {
		panic(err)
	}

	w.closer = nil
}
