package ctrl

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AllocationEngine", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = Config{
			CycleLength: 60,
			MinGreen:    10,
			MaxGreen:    60,
			YellowTime:  3,
			AllRedTime:  2,
		}
	})

	It("should split the available time proportionally to demand", func() {
		cfg.CycleLength = 100
		cfg.MinGreen = 5

		alloc, err := Allocate(map[Lane]float64{
			North: 40, South: 20, East: 30, West: 10,
		}, cfg)

		Expect(err).To(BeNil())
		Expect(alloc).To(Equal(map[Lane]int{
			North: 32, South: 16, East: 24, West: 8,
		}))
	})

	It("should keep every lane within the green bounds", func() {
		alloc, err := Allocate(map[Lane]float64{
			North: 80, South: 20, East: 60, West: 40,
		}, cfg)

		Expect(err).To(BeNil())

		sum := 0
		for _, l := range Lanes() {
			Expect(alloc[l]).To(BeNumerically(">=", cfg.MinGreen))
			Expect(alloc[l]).To(BeNumerically("<=", cfg.MaxGreen))
			sum += alloc[l]
		}

		Expect(sum).To(Equal(cfg.AvailableTime()))
	})

	It("should fall back to the minimum green on zero total demand", func() {
		alloc, err := Allocate(map[Lane]float64{
			North: 0, South: 0, East: 0, West: 0,
		}, cfg)

		Expect(err).To(BeNil())
		Expect(alloc).To(Equal(map[Lane]int{
			North: 10, South: 10, East: 10, West: 10,
		}))
	})

	It("should hand the rounding remainder to lanes in enumeration order "+
		"when demands tie", func() {
		cfg.CycleLength = 62

		// availableTime is 42, raw shares are 10.5 each.
		alloc, err := Allocate(map[Lane]float64{
			North: 25, South: 25, East: 25, West: 25,
		}, cfg)

		Expect(err).To(BeNil())
		Expect(alloc).To(Equal(map[Lane]int{
			North: 11, South: 11, East: 10, West: 10,
		}))
	})

	It("should terminate with an unresolved residual when every lane is "+
		"pinned at a bound", func() {
		cfg.CycleLength = 100
		cfg.MinGreen = 5
		cfg.MaxGreen = 10

		// availableTime is 80, but the ceilings only admit 40.
		alloc, err := Allocate(map[Lane]float64{
			North: 70, South: 10, East: 10, West: 10,
		}, cfg)

		Expect(err).To(BeNil())

		for _, l := range Lanes() {
			Expect(alloc[l]).To(BeNumerically("<=", cfg.MaxGreen))
		}
		Expect(alloc[North]).To(Equal(cfg.MaxGreen))
	})

	It("should reject a reading set that misses a lane", func() {
		_, err := Allocate(map[Lane]float64{
			North: 10, South: 10, East: 10,
		}, cfg)

		Expect(err).To(HaveOccurred())

		code, ok := CodeOf(err)
		Expect(ok).To(BeTrue())
		Expect(code).To(Equal(ErrCodeInvalidInput))
	})

	It("should reject a reading set with an unknown lane", func() {
		_, err := Allocate(map[Lane]float64{
			North: 10, South: 10, East: 10, Lane(9): 10,
		}, cfg)

		Expect(err).To(HaveOccurred())

		code, _ := CodeOf(err)
		Expect(code).To(Equal(ErrCodeInvalidInput))
	})

	It("should reject a reading that is not a number", func() {
		nan := 0.0
		nan = nan / nan

		_, err := Allocate(map[Lane]float64{
			North: nan, South: 10, East: 10, West: 10,
		}, cfg)

		Expect(err).To(HaveOccurred())

		code, _ := CodeOf(err)
		Expect(code).To(Equal(ErrCodeInvalidInput))
	})

	It("should panic when run against an invalid configuration", func() {
		cfg.MinGreen = 70

		Expect(func() {
			_, _ = Allocate(map[Lane]float64{
				North: 10, South: 10, East: 10, West: 10,
			}, cfg)
		}).To(Panic())
	})
})

var _ = Describe("Efficiency", func() {
	It("should report 100 for a perfect demand/green match", func() {
		readings := map[Lane]float64{
			North: 20, South: 20, East: 20, West: 20,
		}
		alloc := map[Lane]int{
			North: 20, South: 20, East: 20, West: 20,
		}

		Expect(Efficiency(readings, alloc, 100)).
			To(BeNumerically("~", 100, 1e-9))
	})

	It("should report the min/max ratio averaged over lanes", func() {
		readings := map[Lane]float64{
			North: 25, South: 25, East: 25, West: 25,
		}
		alloc := map[Lane]int{
			North: 20, South: 20, East: 20, West: 20,
		}

		// density 0.25 vs green share 0.20 on every lane.
		Expect(Efficiency(readings, alloc, 100)).
			To(BeNumerically("~", 80, 1e-9))
	})

	It("should count a lane with no demand and no green as a match", func() {
		readings := map[Lane]float64{
			North: 0, South: 0, East: 0, West: 0,
		}
		alloc := map[Lane]int{
			North: 0, South: 0, East: 0, West: 0,
		}

		Expect(Efficiency(readings, alloc, 100)).
			To(BeNumerically("~", 100, 1e-9))
	})
})
