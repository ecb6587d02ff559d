// Package monitoring serves the state of a running simulation over HTTP.
// The server is read-only; control stays with the owning process.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/trafficlab/signalsim/analysis"
	"github.com/trafficlab/signalsim/ctrl"
)

// Monitor is a web server that reports the state of a simulation.
type Monitor struct {
	scheduler  *ctrl.Scheduler
	history    *analysis.History
	efficiency *analysis.EfficiencyTracker
	metrics    *Metrics

	portNumber int
	url        string
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitoring server. Ports below
// 1000 are rejected and a random port is used instead.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber > 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is not allowed for the monitoring server. "+
				"Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterScheduler registers the scheduler to be monitored.
func (m *Monitor) RegisterScheduler(s *ctrl.Scheduler) {
	m.scheduler = s
}

// RegisterHistory registers the cycle history served by the dashboard.
func (m *Monitor) RegisterHistory(h *analysis.History) {
	m.history = h
}

// RegisterEfficiencyTracker registers the efficiency diagnostic.
func (m *Monitor) RegisterEfficiencyTracker(t *analysis.EfficiencyTracker) {
	m.efficiency = t
}

// RegisterMetrics registers the metrics exposed at /metrics.
func (m *Monitor) RegisterMetrics(metrics *Metrics) {
	m.metrics = metrics
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	r := m.router()

	actualPort := ":0"
	if m.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	port := listener.Addr().(*net.TCPAddr).Port
	m.url = fmt.Sprintf("http://localhost:%d", port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	go func() {
		err = http.Serve(listener, r)
		dieOnErr(err)
	}()
}

// URL returns the address of the running server.
func (m *Monitor) URL() string {
	return m.url
}

// OpenDashboard opens the dashboard in the default browser.
func (m *Monitor) OpenDashboard() {
	err := browser.OpenURL(m.url)
	dieOnErr(err)
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/status", m.status)
	r.HandleFunc("/api/config", m.config)
	r.HandleFunc("/api/lanes", m.listLanes)
	r.HandleFunc("/api/lane/{name}", m.laneDetail)
	r.HandleFunc("/api/history", m.listHistory)
	r.HandleFunc("/api/efficiency", m.reportEfficiency)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	if m.metrics != nil {
		r.Handle("/metrics", m.metrics.Handler())
	}

	return r
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.scheduler.Status())
}

type configRsp struct {
	CycleLength   int `json:"cycle_length"`
	MinGreen      int `json:"min_green"`
	MaxGreen      int `json:"max_green"`
	YellowTime    int `json:"yellow_time"`
	AllRedTime    int `json:"all_red_time"`
	AvailableTime int `json:"available_time"`
}

func (m *Monitor) config(w http.ResponseWriter, _ *http.Request) {
	cfg := m.scheduler.Config()

	writeJSON(w, configRsp{
		CycleLength:   cfg.CycleLength,
		MinGreen:      cfg.MinGreen,
		MaxGreen:      cfg.MaxGreen,
		YellowTime:    cfg.YellowTime,
		AllRedTime:    cfg.AllRedTime,
		AvailableTime: cfg.AvailableTime(),
	})
}

func (m *Monitor) listLanes(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, ctrl.NumLanes())
	for _, l := range ctrl.Lanes() {
		names = append(names, l.String())
	}

	writeJSON(w, names)
}

func (m *Monitor) laneDetail(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	lane, err := ctrl.ParseLane(name)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		_, werr := w.Write([]byte("Lane not found"))
		dieOnErr(werr)

		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.scheduler.Source(lane))
	serializer.SetMaxDepth(1)

	err = serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) listHistory(w http.ResponseWriter, r *http.Request) {
	recent := m.history.Recent()

	limitStr := r.URL.Query().Get("limit")
	if limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Invalid limit: %s", limitStr)

			return
		}

		if limit < len(recent) {
			recent = recent[len(recent)-limit:]
		}
	}

	writeJSON(w, historyPayload(recent))
}

// historyEntry is the wire form of one cycle result, keyed by lane name.
type historyEntry struct {
	Cycle          int                `json:"cycle"`
	Readings       map[string]float64 `json:"readings"`
	Allocation     map[string]int     `json:"allocation"`
	Signals        map[string]string  `json:"signal_state"`
	ElapsedSeconds float64            `json:"elapsed_seconds"`
	TotalSeconds   float64            `json:"total_duration_seconds"`
}

func historyPayload(results []ctrl.CycleResult) []historyEntry {
	entries := make([]historyEntry, 0, len(results))

	for _, r := range results {
		e := historyEntry{
			Cycle:          r.Cycle,
			Readings:       make(map[string]float64),
			Allocation:     make(map[string]int),
			Signals:        make(map[string]string),
			ElapsedSeconds: r.ElapsedSeconds,
			TotalSeconds:   r.DurationSeconds,
		}

		for _, l := range ctrl.Lanes() {
			e.Readings[l.String()] = r.Readings[l]
			e.Allocation[l.String()] = r.Allocation[l]
			e.Signals[l.String()] = string(r.Signals[l])
		}

		entries = append(entries, e)
	}

	return entries
}

type efficiencyRsp struct {
	Latest   float64 `json:"latest"`
	Average  float64 `json:"average"`
	Measured bool    `json:"measured"`
}

func (m *Monitor) reportEfficiency(w http.ResponseWriter, _ *http.Request) {
	latest, ok := m.efficiency.Latest()

	writeJSON(w, efficiencyRsp{
		Latest:   latest,
		Average:  m.efficiency.Average(),
		Measured: ok,
	})
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
