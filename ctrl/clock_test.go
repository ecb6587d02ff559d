package ctrl

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("VirtualClock", func() {
	var (
		start time.Time
		clock *VirtualClock
	)

	BeforeEach(func() {
		start = time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)
		clock = NewVirtualClock(start)
	})

	It("should only move when advanced", func() {
		Expect(clock.Now()).To(Equal(start))

		clock.Advance(3 * time.Second)

		Expect(clock.Now()).To(Equal(start.Add(3 * time.Second)))
	})

	It("should fire due callbacks in time order", func() {
		var fired []string

		clock.AfterFunc(2*time.Second, func() {
			fired = append(fired, "second")
		})
		clock.AfterFunc(time.Second, func() {
			fired = append(fired, "first")
		})

		clock.Advance(5 * time.Second)

		Expect(fired).To(Equal([]string{"first", "second"}))
	})

	It("should not fire callbacks that are not yet due", func() {
		fired := false
		clock.AfterFunc(2*time.Second, func() { fired = true })

		clock.Advance(time.Second)
		Expect(fired).To(BeFalse())

		clock.Advance(time.Second)
		Expect(fired).To(BeTrue())
	})

	It("should run a callback with the clock at its due instant", func() {
		var at time.Time
		clock.AfterFunc(time.Second, func() { at = clock.Now() })

		clock.Advance(time.Minute)

		Expect(at).To(Equal(start.Add(time.Second)))
	})

	It("should fire a callback scheduled by another callback", func() {
		fired := false

		clock.AfterFunc(time.Second, func() {
			clock.AfterFunc(time.Second, func() { fired = true })
		})

		clock.Advance(2 * time.Second)

		Expect(fired).To(BeTrue())
	})

	It("should not fire a stopped timer", func() {
		fired := false
		t := clock.AfterFunc(time.Second, func() { fired = true })

		Expect(t.Stop()).To(BeTrue())
		clock.Advance(5 * time.Second)

		Expect(fired).To(BeFalse())
		Expect(t.Stop()).To(BeFalse())
	})
})
