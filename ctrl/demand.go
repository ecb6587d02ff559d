package ctrl

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// defaultReading is the demand a source reports before its first sample and
// after a reset.
const defaultReading = 50.0

// Normal distribution parameters of the raw demand draw.
const (
	demandMean   = 50.0
	demandStdDev = 15.0
)

// A DemandSource produces one smoothed, time-biased demand reading in
// [0, 100] per sample. It emulates a loop detector on a single lane. A
// manual override can pin the demand to a fixed value.
type DemandSource struct {
	lane  Lane
	alpha float64
	rng   *rand.Rand

	override    float64
	hasOverride bool

	smoothed    float64
	initialized bool
	last        float64
}

// NewDemandSource creates a demand source for a lane. alpha is the
// exponential smoothing coefficient in [0, 1]. A nil rng falls back to a
// time-seeded generator.
func NewDemandSource(
	lane Lane,
	alpha float64,
	rng *rand.Rand,
) (*DemandSource, error) {
	if !lane.IsValid() {
		return nil, NewInvalidConfigurationError(
			fmt.Sprintf("lane %d is not a recognized lane", int(lane)))
	}

	if alpha < 0 || alpha > 1 {
		return nil, NewInvalidConfigurationError(fmt.Sprintf(
			"smoothing coefficient %f is outside [0, 1]", alpha))
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &DemandSource{
		lane:  lane,
		alpha: alpha,
		rng:   rng,
		last:  defaultReading,
	}, nil
}

// Lane returns the lane the source reports for.
func (d *DemandSource) Lane() Lane {
	return d.lane
}

// Sample produces the demand reading for the given instant. The instant is
// injected rather than read from the system clock so that the time-of-day
// bias is reproducible.
func (d *DemandSource) Sample(at time.Time) float64 {
	target := d.generate(at)
	if d.hasOverride {
		target = d.override
	}

	if !d.initialized {
		d.smoothed = target
		d.initialized = true
	} else {
		d.smoothed += d.alpha * (target - d.smoothed)
	}

	d.smoothed = clamp(d.smoothed, 0, 100)
	d.last = d.smoothed

	return d.smoothed
}

// generate draws a normally distributed demand value with the Box-Muller
// transform, biases it by the time-of-day peak factor, and clamps it to
// [0, 100].
func (d *DemandSource) generate(at time.Time) float64 {
	u1 := 1 - d.rng.Float64() // (0, 1], keeps the log finite
	u2 := d.rng.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

	raw := (demandMean + demandStdDev*z) * peakFactor(at)

	return clamp(raw, 0, 100)
}

// peakFactor returns the multiplicative demand bias for the hour of day:
// 1.5x during the morning and evening peaks, 0.3x at night, 1.0 otherwise.
func peakFactor(at time.Time) float64 {
	h := at.Hour()

	switch {
	case (h >= 7 && h < 9) || (h >= 17 && h < 19):
		return 1.5
	case h >= 22 || h < 6:
		return 0.3
	default:
		return 1.0
	}
}

// SetOverride pins the demand to the given percentage, clamped to [0, 100].
// The smoothing accumulator is reset to the override so that it takes
// effect on the next sample without a multi-cycle ramp.
func (d *DemandSource) SetOverride(percent float64) {
	v := clamp(percent, 0, 100)

	d.override = v
	d.hasOverride = true
	d.smoothed = v
	d.initialized = true
	d.last = v
}

// ClearOverride resumes generative sampling from the next call.
func (d *DemandSource) ClearOverride() {
	d.hasOverride = false
}

// Override returns the active override value, if any.
func (d *DemandSource) Override() (float64, bool) {
	return d.override, d.hasOverride
}

// LastReading returns the most recently produced reading, or the default
// reading if the source has not been sampled since construction or reset.
func (d *DemandSource) LastReading() float64 {
	return d.last
}

// Reset clears the override, restores the default reading, and discards the
// smoothing state so that the next sample reinitializes it.
func (d *DemandSource) Reset() {
	d.hasOverride = false
	d.initialized = false
	d.smoothed = 0
	d.last = defaultReading
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
