package ctrl

import "strings"

// Lane identifies one of the approaches contending for green time at the
// intersection.
type Lane int

// The four approaches. The enumeration order is fixed and used for
// deterministic output ordering and tie breaking.
const (
	North Lane = iota
	South
	East
	West
)

var laneNames = [...]string{"North", "South", "East", "West"}

// Lanes returns all lanes in their fixed enumeration order.
func Lanes() []Lane {
	return []Lane{North, South, East, West}
}

// NumLanes returns the number of lanes at the intersection.
func NumLanes() int {
	return len(laneNames)
}

// IsValid returns true if the lane is one of the recognized approaches.
func (l Lane) IsValid() bool {
	return l >= North && l <= West
}

func (l Lane) String() string {
	if !l.IsValid() {
		return "InvalidLane"
	}

	return laneNames[l]
}

// ParseLane converts a lane name, case-insensitively, into a Lane.
func ParseLane(name string) (Lane, error) {
	for i, n := range laneNames {
		if strings.EqualFold(name, n) {
			return Lane(i), nil
		}
	}

	return Lane(-1), NewInvalidInputError("unrecognized lane " + name)
}
