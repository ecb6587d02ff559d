package ctrl

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	It("should accept the default configuration", func() {
		Expect(DefaultConfig().Validate()).To(BeNil())
	})

	It("should reject non-positive parameters", func() {
		cfg := DefaultConfig()
		cfg.YellowTime = 0

		err := cfg.Validate()
		Expect(err).To(HaveOccurred())

		code, _ := CodeOf(err)
		Expect(code).To(Equal(ErrCodeInvalidConfiguration))
	})

	It("should reject a minimum green at or above the maximum", func() {
		cfg := DefaultConfig()
		cfg.MinGreen = cfg.MaxGreen

		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("should reject a cycle too short for overhead plus minimum green",
		func() {
			cfg := Config{
				CycleLength: 59,
				MinGreen:    10,
				MaxGreen:    60,
				YellowTime:  3,
				AllRedTime:  2,
			}

			Expect(cfg.Validate()).To(HaveOccurred())
		})

	It("should compute the available time", func() {
		cfg := Config{
			CycleLength: 60,
			MinGreen:    10,
			MaxGreen:    60,
			YellowTime:  3,
			AllRedTime:  2,
		}

		Expect(cfg.AvailableTime()).To(Equal(40))
	})

	It("should apply a patch only to the set fields", func() {
		cycle := 120
		maxGreen := 80

		next := ConfigPatch{
			CycleLength: &cycle,
			MaxGreen:    &maxGreen,
		}.applyTo(DefaultConfig())

		Expect(next.CycleLength).To(Equal(120))
		Expect(next.MaxGreen).To(Equal(80))
		Expect(next.MinGreen).To(Equal(DefaultConfig().MinGreen))
		Expect(next.YellowTime).To(Equal(DefaultConfig().YellowTime))
		Expect(next.AllRedTime).To(Equal(DefaultConfig().AllRedTime))
	})
})

var _ = Describe("Lane", func() {
	It("should parse lane names case-insensitively", func() {
		l, err := ParseLane("north")
		Expect(err).To(BeNil())
		Expect(l).To(Equal(North))

		l, err = ParseLane("West")
		Expect(err).To(BeNil())
		Expect(l).To(Equal(West))
	})

	It("should reject unknown lane names", func() {
		_, err := ParseLane("Up")
		Expect(err).To(HaveOccurred())

		code, _ := CodeOf(err)
		Expect(code).To(Equal(ErrCodeInvalidInput))
	})

	It("should keep a fixed enumeration order", func() {
		Expect(Lanes()).To(Equal([]Lane{North, South, East, West}))
	})
})
