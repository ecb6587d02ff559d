package ctrl

// SignalState marks whether a lane holds the green phase of a cycle.
type SignalState string

const (
	SignalActive   SignalState = "active"
	SignalInactive SignalState = "inactive"
)

// CycleResult packages everything a completed cycle produced. CycleSeconds
// carries the cycle length the allocation was computed against, so that
// consumers can derive diagnostics without reaching back into the
// controller.
type CycleResult struct {
	Cycle           int
	Readings        map[Lane]float64
	Allocation      map[Lane]int
	Signals         map[Lane]SignalState
	CycleSeconds    int
	ElapsedSeconds  float64
	DurationSeconds float64
}

// A Sink consumes one CycleResult per completed cycle. The scheduler calls
// it synchronously from the tick; it must not call back into the scheduler.
type Sink interface {
	CycleCompleted(r CycleResult)
}

// signalSnapshot marks the lane with the largest allocation active and all
// others inactive. Ties go to the earlier lane in enumeration order.
func signalSnapshot(alloc map[Lane]int) map[Lane]SignalState {
	lanes := Lanes()

	best := lanes[0]
	for _, l := range lanes[1:] {
		if alloc[l] > alloc[best] {
			best = l
		}
	}

	signals := make(map[Lane]SignalState, len(lanes))
	for _, l := range lanes {
		signals[l] = SignalInactive
	}
	signals[best] = SignalActive

	return signals
}
