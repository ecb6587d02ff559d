package ctrl

import "fmt"

// Config holds the signal timing parameters of the controller. All values
// are in seconds.
type Config struct {
	CycleLength int
	MinGreen    int
	MaxGreen    int
	YellowTime  int
	AllRedTime  int
}

// DefaultConfig returns the timing parameters the controller starts with.
func DefaultConfig() Config {
	return Config{
		CycleLength: 90,
		MinGreen:    10,
		MaxGreen:    60,
		YellowTime:  3,
		AllRedTime:  2,
	}
}

// Validate checks the configuration invariant. Every parameter must be
// positive, MinGreen must be below MaxGreen, and one cycle must be long
// enough to give every lane its fixed overhead plus the minimum green.
func (c Config) Validate() error {
	if c.CycleLength <= 0 || c.MinGreen <= 0 || c.MaxGreen <= 0 ||
		c.YellowTime <= 0 || c.AllRedTime <= 0 {
		return NewInvalidConfigurationError(
			"all timing parameters must be positive")
	}

	if c.MinGreen >= c.MaxGreen {
		return NewInvalidConfigurationError(fmt.Sprintf(
			"min green %d must be below max green %d",
			c.MinGreen, c.MaxGreen))
	}

	overhead := NumLanes() * (c.YellowTime + c.AllRedTime)
	if overhead+NumLanes()*c.MinGreen > c.CycleLength {
		return NewInvalidConfigurationError(fmt.Sprintf(
			"cycle length %d cannot cover %d seconds of overhead "+
				"plus %d seconds of minimum green",
			c.CycleLength, overhead, NumLanes()*c.MinGreen))
	}

	return nil
}

// AvailableTime returns the pool of green time distributed in one cycle,
// which is the cycle length minus the fixed per-lane overhead.
func (c Config) AvailableTime() int {
	return c.CycleLength - NumLanes()*(c.YellowTime+c.AllRedTime)
}

// ConfigPatch describes a partial configuration update. Nil fields keep
// their current value.
type ConfigPatch struct {
	CycleLength *int
	MinGreen    *int
	MaxGreen    *int
	YellowTime  *int
	AllRedTime  *int
}

// applyTo returns a copy of the configuration with the patch applied. The
// copy is not validated.
func (p ConfigPatch) applyTo(c Config) Config {
	if p.CycleLength != nil {
		c.CycleLength = *p.CycleLength
	}

	if p.MinGreen != nil {
		c.MinGreen = *p.MinGreen
	}

	if p.MaxGreen != nil {
		c.MaxGreen = *p.MaxGreen
	}

	if p.YellowTime != nil {
		c.YellowTime = *p.YellowTime
	}

	if p.AllRedTime != nil {
		c.AllRedTime = *p.AllRedTime
	}

	return c
}
