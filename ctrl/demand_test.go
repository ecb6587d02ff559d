package ctrl

import (
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DemandSource", func() {
	var (
		rng *rand.Rand
		src *DemandSource

		midday time.Time
	)

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(1))

		var err error
		src, err = NewDemandSource(North, 0.3, rng)
		Expect(err).To(BeNil())

		midday = time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)
	})

	It("should reject an unrecognized lane", func() {
		_, err := NewDemandSource(Lane(7), 0.3, rng)

		Expect(err).To(HaveOccurred())

		code, _ := CodeOf(err)
		Expect(code).To(Equal(ErrCodeInvalidConfiguration))
	})

	It("should reject a smoothing coefficient outside [0, 1]", func() {
		_, err := NewDemandSource(North, 1.2, rng)
		Expect(err).To(HaveOccurred())

		_, err = NewDemandSource(North, -0.1, rng)
		Expect(err).To(HaveOccurred())
	})

	It("should keep every sample within [0, 100] at any hour", func() {
		for hour := 0; hour < 24; hour++ {
			at := time.Date(2024, 5, 14, hour, 30, 0, 0, time.UTC)

			for i := 0; i < 200; i++ {
				v := src.Sample(at)
				Expect(v).To(BeNumerically(">=", 0))
				Expect(v).To(BeNumerically("<=", 100))
			}
		}
	})

	It("should bias the draw by the time-of-day peak factor", func() {
		Expect(peakFactor(time.Date(2024, 5, 14, 8, 0, 0, 0, time.UTC))).
			To(Equal(1.5))
		Expect(peakFactor(time.Date(2024, 5, 14, 18, 0, 0, 0, time.UTC))).
			To(Equal(1.5))
		Expect(peakFactor(time.Date(2024, 5, 14, 23, 0, 0, 0, time.UTC))).
			To(Equal(0.3))
		Expect(peakFactor(time.Date(2024, 5, 14, 3, 0, 0, 0, time.UTC))).
			To(Equal(0.3))
		Expect(peakFactor(midday)).To(Equal(1.0))
	})

	It("should draw values around the configured mean at midday", func() {
		exact, err := NewDemandSource(North, 1, rng)
		Expect(err).To(BeNil())

		sum := 0.0
		n := 2000
		for i := 0; i < n; i++ {
			sum += exact.Sample(midday)
		}

		Expect(sum / float64(n)).To(BeNumerically("~", 50, 3))
	})

	It("should return the override value immediately, without a ramp", func() {
		src.Sample(midday)

		src.SetOverride(80)

		Expect(src.Sample(midday)).To(Equal(80.0))
		Expect(src.LastReading()).To(Equal(80.0))
	})

	It("should clamp the override to [0, 100]", func() {
		src.SetOverride(140)
		Expect(src.Sample(midday)).To(Equal(100.0))

		src.SetOverride(-20)
		Expect(src.Sample(midday)).To(Equal(0.0))
	})

	It("should resume generative sampling when the override clears", func() {
		src.SetOverride(0)
		Expect(src.Sample(midday)).To(Equal(0.0))

		src.ClearOverride()

		// The smoothing accumulator starts from the override value, so the
		// next generated sample moves by at most alpha of the distance.
		v := src.Sample(midday)
		Expect(v).To(BeNumerically(">=", 0))
		Expect(v).To(BeNumerically("<=", 30))
	})

	It("should initialize the smoothing state to the first target", func() {
		frozen, err := NewDemandSource(North, 0, rand.New(rand.NewSource(2)))
		Expect(err).To(BeNil())

		first := frozen.Sample(midday)

		// With alpha zero, later samples never move off the first target.
		for i := 0; i < 10; i++ {
			Expect(frozen.Sample(midday)).To(Equal(first))
		}
	})

	It("should restore the default reading on reset", func() {
		src.SetOverride(90)
		src.Sample(midday)

		src.Reset()

		Expect(src.LastReading()).To(Equal(50.0))
		_, overridden := src.Override()
		Expect(overridden).To(BeFalse())
	})
})
