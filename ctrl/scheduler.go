package ctrl

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"
)

// PlaybackState is the state of the playback state machine.
type PlaybackState int

const (
	StateIdle PlaybackState = iota
	StateRunning
	StatePaused
	StateStopped
)

var playbackStateNames = [...]string{"Idle", "Running", "Paused", "Stopped"}

func (s PlaybackState) String() string {
	if s < StateIdle || s > StateStopped {
		return fmt.Sprintf("PlaybackState(%d)", int(s))
	}

	return playbackStateNames[s]
}

// DefaultBaseInterval is the wall-clock period of one cycle at speed 1.
const DefaultBaseInterval = time.Second

// Status is a point-in-time snapshot of the playback state.
type Status struct {
	State            PlaybackState `json:"state"`
	Cycle            int           `json:"cycle"`
	ElapsedSeconds   float64       `json:"elapsed_seconds"`
	DurationSeconds  float64       `json:"duration_seconds"`
	Speed            float64       `json:"speed"`
	RemainingSeconds float64       `json:"remaining_seconds"`
}

// A Scheduler owns the playback state machine and the periodic timer that
// drives one control cycle per tick. Each tick samples every demand source,
// computes an allocation, and hands the result to the sink.
//
// All operations are serialized on one mutex, so ticks never overlap and no
// state mutates while the scheduler is paused.
type Scheduler struct {
	mu sync.Mutex

	clock  Clock
	sink   Sink
	logger *log.Logger

	cfg     Config
	sources map[Lane]*DemandSource

	baseInterval time.Duration
	speed        float64

	state    PlaybackState
	duration float64 // simulated seconds, 0 = unbounded
	elapsed  float64 // simulated seconds folded at the last boundary
	cycle    int

	baseTime     time.Time // wall instant the run started, anchors simulated time
	segmentStart time.Time // wall instant the current running segment started

	// epoch invalidates in-flight timer callbacks on reschedule and
	// cancellation. A stale tick compares its captured epoch and returns.
	epoch int
	timer Timer
}

// SchedulerBuilder builds Schedulers.
type SchedulerBuilder struct {
	clock        Clock
	sink         Sink
	logger       *log.Logger
	cfg          Config
	alpha        float64
	seed         int64
	seedSet      bool
	baseInterval time.Duration
}

// MakeSchedulerBuilder creates a builder with the default configuration, a
// wall clock, a smoothing coefficient of 0.3, and a one second base
// interval.
func MakeSchedulerBuilder() SchedulerBuilder {
	return SchedulerBuilder{
		clock:        WallClock{},
		cfg:          DefaultConfig(),
		alpha:        0.3,
		baseInterval: DefaultBaseInterval,
	}
}

// WithClock sets the time source of the scheduler.
func (b SchedulerBuilder) WithClock(c Clock) SchedulerBuilder {
	b.clock = c
	return b
}

// WithSink sets the consumer of cycle results.
func (b SchedulerBuilder) WithSink(s Sink) SchedulerBuilder {
	b.sink = s
	return b
}

// WithLogger sets the logger for tick failures.
func (b SchedulerBuilder) WithLogger(l *log.Logger) SchedulerBuilder {
	b.logger = l
	return b
}

// WithConfig sets the initial controller configuration.
func (b SchedulerBuilder) WithConfig(cfg Config) SchedulerBuilder {
	b.cfg = cfg
	return b
}

// WithSmoothing sets the exponential smoothing coefficient of every demand
// source.
func (b SchedulerBuilder) WithSmoothing(alpha float64) SchedulerBuilder {
	b.alpha = alpha
	return b
}

// WithSeed makes the demand generators deterministic.
func (b SchedulerBuilder) WithSeed(seed int64) SchedulerBuilder {
	b.seed = seed
	b.seedSet = true
	return b
}

// WithBaseInterval sets the wall-clock period of one cycle at speed 1.
func (b SchedulerBuilder) WithBaseInterval(d time.Duration) SchedulerBuilder {
	b.baseInterval = d
	return b
}

// Build creates the scheduler and one demand source per lane.
func (b SchedulerBuilder) Build() (*Scheduler, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	if b.baseInterval <= 0 {
		return nil, NewInvalidConfigurationError(
			"base interval must be positive")
	}

	seed := b.seed
	if !b.seedSet {
		seed = time.Now().UnixNano()
	}

	sources := make(map[Lane]*DemandSource, NumLanes())
	for _, l := range Lanes() {
		rng := rand.New(rand.NewSource(seed + int64(l)))

		src, err := NewDemandSource(l, b.alpha, rng)
		if err != nil {
			return nil, err
		}

		sources[l] = src
	}

	sink := b.sink
	if sink == nil {
		sink = nopSink{}
	}

	logger := b.logger
	if logger == nil {
		logger = log.Default()
	}

	return &Scheduler{
		clock:        b.clock,
		sink:         sink,
		logger:       logger,
		cfg:          b.cfg,
		sources:      sources,
		baseInterval: b.baseInterval,
		speed:        1,
		state:        StateIdle,
	}, nil
}

type nopSink struct{}

func (nopSink) CycleCompleted(CycleResult) {}

// Start begins a fresh run bounded by durationSeconds of simulated time
// (0 = unbounded). When the scheduler is paused, Start is equivalent to
// Resume and keeps the counters; when it is already running, Start is a
// no-op.
func (s *Scheduler) Start(durationSeconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StatePaused:
		s.resumeLocked()
		return nil
	case StateRunning:
		return nil
	}

	if durationSeconds < 0 {
		return NewInvalidInputError(fmt.Sprintf(
			"duration %f must not be negative", durationSeconds))
	}

	now := s.clock.Now()

	s.duration = durationSeconds
	s.elapsed = 0
	s.cycle = 0
	s.baseTime = now
	s.segmentStart = now
	s.state = StateRunning

	s.scheduleLocked()

	return nil
}

// Pause freezes elapsed-time accounting. No cycle runs until Resume or
// Start is called.
func (s *Scheduler) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return NewInvalidInputError(
			"cannot pause while " + s.state.String())
	}

	s.elapsed = s.runningElapsedLocked(s.clock.Now())
	s.cancelLocked()
	s.state = StatePaused

	return nil
}

// Resume continues a paused run. Wall-clock time spent paused is not
// credited to elapsed simulated time.
func (s *Scheduler) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePaused {
		return NewInvalidInputError(
			"cannot resume while " + s.state.String())
	}

	s.resumeLocked()

	return nil
}

func (s *Scheduler) resumeLocked() {
	s.segmentStart = s.clock.Now()
	s.state = StateRunning
	s.scheduleLocked()
}

// Stop cancels the periodic tick permanently. A new Start begins a fresh
// run.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning && s.state != StatePaused {
		return NewInvalidInputError(
			"cannot stop while " + s.state.String())
	}

	if s.state == StateRunning {
		s.elapsed = s.runningElapsedLocked(s.clock.Now())
	}

	s.cancelLocked()
	s.state = StateStopped

	return nil
}

// Reset returns the scheduler to Idle from any state, zeroes the counters,
// and resets every demand source.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()

	s.state = StateIdle
	s.elapsed = 0
	s.cycle = 0
	s.duration = 0

	for _, src := range s.sources {
		src.Reset()
	}
}

// Step executes exactly one cycle synchronously. It is only valid while
// paused and leaves the paused state and the elapsed time untouched.
func (s *Scheduler) Step() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePaused {
		return NewInvalidInputError(
			"cannot step while " + s.state.String())
	}

	s.runCycleLocked()

	return nil
}

// SetSpeed changes the playback speed multiplier. While running, the
// periodic timer is rescheduled at the new interval without losing
// in-flight elapsed time.
func (s *Scheduler) SetSpeed(multiplier float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if multiplier <= 0 {
		return NewInvalidInputError(fmt.Sprintf(
			"speed multiplier %f must be positive", multiplier))
	}

	if s.state == StateRunning {
		now := s.clock.Now()
		s.elapsed = s.runningElapsedLocked(now)
		s.segmentStart = now
	}

	s.speed = multiplier

	if s.state == StateRunning {
		s.cancelLocked()
		s.scheduleLocked()
	}

	return nil
}

// UpdateConfig applies a partial configuration update. The update is
// validated as a whole before it is committed; on failure the prior
// configuration stays in effect.
func (s *Scheduler) UpdateConfig(patch ConfigPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := patch.applyTo(s.cfg)
	if err := next.Validate(); err != nil {
		return err
	}

	s.cfg = next

	return nil
}

// SetOverride pins the demand of one lane to the given percentage, clamped
// to [0, 100].
func (s *Scheduler) SetOverride(lane Lane, percent float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.sources[lane]
	if !ok {
		return NewInvalidInputError(fmt.Sprintf(
			"lane %d is not a recognized lane", int(lane)))
	}

	src.SetOverride(percent)

	return nil
}

// ClearOverride resumes generative sampling for one lane.
func (s *Scheduler) ClearOverride(lane Lane) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.sources[lane]
	if !ok {
		return NewInvalidInputError(fmt.Sprintf(
			"lane %d is not a recognized lane", int(lane)))
	}

	src.ClearOverride()

	return nil
}

// RemainingTime returns the simulated seconds left in a bounded run. It is
// zero when the run is unbounded or the scheduler is not running.
func (s *Scheduler) RemainingTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.duration == 0 || s.state != StateRunning {
		return 0
	}

	rem := s.duration - s.runningElapsedLocked(s.clock.Now())
	if rem < 0 {
		return 0
	}

	return rem
}

// State returns the current playback state.
func (s *Scheduler) State() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// CycleCount returns the number of completed cycles of the current run.
func (s *Scheduler) CycleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cycle
}

// ElapsedSeconds returns the elapsed simulated time of the current run.
func (s *Scheduler) ElapsedSeconds() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		return s.runningElapsedLocked(s.clock.Now())
	}

	return s.elapsed
}

// Speed returns the current speed multiplier.
func (s *Scheduler) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.speed
}

// Config returns the active controller configuration.
func (s *Scheduler) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cfg
}

// Source returns the demand source of one lane, for introspection.
func (s *Scheduler) Source(lane Lane) *DemandSource {
	return s.sources[lane]
}

// Status returns a snapshot of the playback state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := s.elapsed
	if s.state == StateRunning {
		elapsed = s.runningElapsedLocked(s.clock.Now())
	}

	remaining := 0.0
	if s.duration > 0 && s.state == StateRunning {
		remaining = s.duration - elapsed
		if remaining < 0 {
			remaining = 0
		}
	}

	return Status{
		State:            s.state,
		Cycle:            s.cycle,
		ElapsedSeconds:   elapsed,
		DurationSeconds:  s.duration,
		Speed:            s.speed,
		RemainingSeconds: remaining,
	}
}

// runningElapsedLocked recomputes the elapsed simulated time while running:
// the folded seconds plus the wall time of the current segment scaled by
// the speed multiplier.
func (s *Scheduler) runningElapsedLocked(now time.Time) float64 {
	return s.elapsed + now.Sub(s.segmentStart).Seconds()*s.speed
}

func (s *Scheduler) interval() time.Duration {
	return time.Duration(float64(s.baseInterval) / s.speed)
}

// scheduleLocked installs the timer for the next tick under a fresh epoch.
func (s *Scheduler) scheduleLocked() {
	s.epoch++
	epoch := s.epoch

	s.timer = s.clock.AfterFunc(s.interval(), func() {
		s.tick(epoch)
	})
}

// cancelLocked invalidates any in-flight tick. A callback that already
// fired finds a newer epoch and returns without touching state.
func (s *Scheduler) cancelLocked() {
	s.epoch++

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) tick(epoch int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch || s.state != StateRunning {
		return
	}

	now := s.clock.Now()
	s.elapsed = s.runningElapsedLocked(now)
	s.segmentStart = now

	if s.duration > 0 && s.elapsed >= s.duration {
		s.cancelLocked()
		s.state = StateStopped

		return
	}

	s.runCycleLocked()
	s.scheduleLocked()
}

// runCycleLocked executes one control cycle: sample every demand source at
// the current simulated instant, allocate the cycle, and emit the result.
func (s *Scheduler) runCycleLocked() {
	at := s.baseTime.Add(time.Duration(s.elapsed * float64(time.Second)))

	readings := make(map[Lane]float64, NumLanes())
	for _, l := range Lanes() {
		readings[l] = s.sources[l].Sample(at)
	}

	alloc, err := Allocate(readings, s.cfg)
	if err != nil {
		// A failed cycle is skipped; the timer keeps running.
		s.logger.Printf("signalsim: cycle %d aborted: %v", s.cycle, err)
		return
	}

	s.sink.CycleCompleted(CycleResult{
		Cycle:           s.cycle,
		Readings:        readings,
		Allocation:      alloc,
		Signals:         signalSnapshot(alloc),
		CycleSeconds:    s.cfg.CycleLength,
		ElapsedSeconds:  s.elapsed,
		DurationSeconds: s.duration,
	})

	s.cycle++
}
