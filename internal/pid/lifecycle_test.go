package pid_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidctl/internal/pid"
)

var _ = Describe("Controller lifecycle", func() {
	var (
		c   *pid.Controller
		cfg pid.Config
	)

	BeforeEach(func() {
		c = &pid.Controller{}
		cfg = pid.Config{KP: 1.5, KD: 0.2, KI: 0.7, Timestep: 0.1, MinOut: -5, MaxOut: 5}
	})

	Context("when never initialized", func() {
		It("is not initialized", func() {
			Expect(c.IsInitialized()).To(BeFalse())
		})

		It("returns zero from both calculations", func() {
			for _, in := range [][2]float64{{0, 0}, {10, -10}, {-3.5, 2}} {
				out, err := c.Calculate(in[0], in[1])
				Expect(out).To(Equal(0.0))
				Expect(err).To(MatchError(pid.ErrNotInitialized))

				out, err = c.CalculatePeek(in[0], in[1])
				Expect(out).To(Equal(0.0))
				Expect(err).To(MatchError(pid.ErrNotInitialized))
			}
		})

		It("has no config", func() {
			got, ok := c.Config()
			Expect(ok).To(BeFalse())
			Expect(got).To(BeZero())
		})

		It("rejects Reset and SetConfig", func() {
			Expect(c.Reset()).To(MatchError(pid.ErrNotInitialized))
			Expect(c.SetConfig(cfg)).To(MatchError(pid.ErrNotInitialized))
			Expect(c.IsInitialized()).To(BeFalse())
		})
	})

	Context("when initialized", func() {
		BeforeEach(func() {
			Expect(c.Initialize(cfg)).To(Succeed())
		})

		It("stores the config", func() {
			got, ok := c.Config()
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(cfg))
		})

		It("rejects a second Initialize and keeps its state", func() {
			c.Calculate(3, 1)
			integ := c.Integrator()

			other := cfg
			other.KP = 9
			Expect(c.Initialize(other)).To(MatchError(pid.ErrAlreadyInitialized))

			got, _ := c.Config()
			Expect(got).To(Equal(cfg))
			Expect(c.Integrator()).To(Equal(integ))
		})

		It("can be re-initialized after Deinitialize", func() {
			c.Calculate(3, 1)
			c.Deinitialize()
			Expect(c.Initialize(cfg)).To(Succeed())
			Expect(c.Integrator()).To(BeZero())
			Expect(c.PrevError()).To(BeZero())
		})

		It("reset clears history but not the config", func() {
			c.Calculate(4, 0)
			c.Calculate(4, 1)
			Expect(c.Integrator()).NotTo(BeZero())

			before, _ := c.Config()
			Expect(c.Reset()).To(Succeed())
			after, _ := c.Config()

			Expect(after).To(Equal(before))
			Expect(c.Integrator()).To(BeZero())
			Expect(c.PrevError()).To(BeZero())
			Expect(c.IsInitialized()).To(BeTrue())
		})

		It("behaves like a fresh controller after reset", func() {
			fresh, err := pid.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			c.Calculate(100, 0)
			Expect(c.Reset()).To(Succeed())

			want, _ := fresh.Calculate(2, 1)
			got, _ := c.Calculate(2, 1)
			Expect(got).To(Equal(want))
		})
	})

	Describe("Deinitialize", func() {
		It("is idempotent", func() {
			Expect(c.Initialize(cfg)).To(Succeed())
			c.Deinitialize()
			Expect(c.IsInitialized()).To(BeFalse())
			c.Deinitialize()
			Expect(c.IsInitialized()).To(BeFalse())
		})

		It("hides the previous config", func() {
			Expect(c.Initialize(cfg)).To(Succeed())
			c.Deinitialize()
			_, ok := c.Config()
			Expect(ok).To(BeFalse())

			out, err := c.Calculate(1, 0)
			Expect(out).To(BeZero())
			Expect(err).To(MatchError(pid.ErrNotInitialized))
		})
	})

	DescribeTable("validity gate",
		func(timestep, minOut, maxOut float64, valid bool) {
			cfg.Timestep, cfg.MinOut, cfg.MaxOut = timestep, minOut, maxOut
			err := c.Initialize(cfg)
			if valid {
				Expect(err).To(Succeed())
			} else {
				Expect(err).To(MatchError(pid.ErrInvalidConfig))
				Expect(c.IsInitialized()).To(BeFalse())
			}
		},
		Entry("positive timestep, ordered bounds", 0.01, -1.0, 1.0, true),
		Entry("equal bounds", 1.0, 0.0, 0.0, true),
		Entry("zero timestep", 0.0, -1.0, 1.0, false),
		Entry("negative timestep", -1.0, -1.0, 1.0, false),
		Entry("inverted bounds", 1.0, 2.0, 1.0, false),
	)
})
