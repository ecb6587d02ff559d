package ctrl

import (
	"fmt"
	"log"
	"math"
	"sort"
)

// Allocate splits the available green time of one cycle across the lanes in
// proportion to the demand readings, subject to the per-lane minimum and
// maximum green bounds.
//
// When the total demand is exactly zero, every lane gets MinGreen and the
// sum is allowed to deviate from the available time. Otherwise the sum of
// the allocation equals the available time whenever the bounds leave enough
// slack; the bounds take priority over exact sum equality.
func Allocate(readings map[Lane]float64, cfg Config) (map[Lane]int, error) {
	// The configuration is validated when it is committed. A violation here
	// is a programming error, not a caller failure.
	if err := cfg.Validate(); err != nil {
		log.Panicf("allocating against an invalid configuration: %v", err)
	}

	if err := validateReadings(readings); err != nil {
		return nil, err
	}

	total := 0.0
	for _, l := range Lanes() {
		total += readings[l]
	}

	alloc := make(map[Lane]int, NumLanes())

	if total == 0 {
		for _, l := range Lanes() {
			alloc[l] = cfg.MinGreen
		}

		return alloc, nil
	}

	available := cfg.AvailableTime()

	for _, l := range Lanes() {
		raw := readings[l] / total * float64(available)
		// Flooring biases toward under-allocation; the redistribution walk
		// hands the remainder to the busiest lanes.
		alloc[l] = clampInt(int(math.Floor(raw)), cfg.MinGreen, cfg.MaxGreen)
	}

	redistribute(alloc, readings, cfg, available)

	return alloc, nil
}

// redistribute walks the lanes in descending demand order, moving one
// second at a time until the allocation sums to the available time or no
// lane can absorb more without leaving its bounds.
func redistribute(
	alloc map[Lane]int,
	readings map[Lane]float64,
	cfg Config,
	available int,
) {
	sum := 0
	for _, v := range alloc {
		sum += v
	}

	diff := available - sum
	order := lanesByDemand(readings)

	for diff != 0 {
		moved := false

		for _, l := range order {
			if diff == 0 {
				break
			}

			if diff > 0 && alloc[l]+1 <= cfg.MaxGreen {
				alloc[l]++
				diff--
				moved = true
			} else if diff < 0 && alloc[l]-1 >= cfg.MinGreen {
				alloc[l]--
				diff++
				moved = true
			}
		}

		// Every lane is pinned at a bound. Leave the residual unresolved.
		if !moved {
			return
		}
	}
}

// lanesByDemand orders the lanes by descending demand. Equal demands keep
// the lane enumeration order.
func lanesByDemand(readings map[Lane]float64) []Lane {
	order := Lanes()

	sort.SliceStable(order, func(i, j int) bool {
		return readings[order[i]] > readings[order[j]]
	})

	return order
}

// validateReadings checks that the reading set covers exactly the
// configured lanes and that every value is a real number.
func validateReadings(readings map[Lane]float64) error {
	if len(readings) != NumLanes() {
		return NewInvalidInputError(fmt.Sprintf(
			"reading set has %d entries, want %d",
			len(readings), NumLanes()))
	}

	for _, l := range Lanes() {
		v, ok := readings[l]
		if !ok {
			return NewInvalidInputError(
				"reading set is missing lane " + l.String())
		}

		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewInvalidInputError(fmt.Sprintf(
				"reading for lane %s is not a number", l))
		}
	}

	return nil
}

// Efficiency reports how well an allocation matches the demand that
// produced it, averaged over lanes and scaled to [0, 100]. For each lane it
// compares the normalized demand density against the normalized green
// share and takes the ratio of the smaller to the larger. It is a pure
// diagnostic and is never fed back into allocation.
func Efficiency(
	readings map[Lane]float64,
	alloc map[Lane]int,
	cycleLength int,
) float64 {
	sum := 0.0

	for _, l := range Lanes() {
		density := clamp(readings[l]/100, 0, 1)
		green := clamp(float64(alloc[l])/float64(cycleLength), 0, 1)

		lo := math.Min(density, green)
		hi := math.Max(density, green)

		if hi == 0 {
			sum += 1
			continue
		}

		sum += lo / hi
	}

	return sum / float64(NumLanes()) * 100
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
