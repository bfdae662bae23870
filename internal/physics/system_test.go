package physics

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/starsys/internal/dynamo"
	"github.com/san-kum/starsys/internal/integrators"
)

// circularSpeed is the orbital speed of each of two unit masses one unit
// apart (G = 1); the orbit period is then pi*sqrt(2).
var circularSpeed = math.Sqrt(0.5)

var circularPeriod = math.Pi * math.Sqrt2

func binary(span dynamo.TimeSpan, speed float64) *System {
	sys, err := NewSystemFromConditions([]InitialCondition{
		{Mass: 1, X: -0.5, Y: 0, VX: 0, VY: -speed},
		{Mass: 1, X: 0.5, Y: 0, VX: 0, VY: speed},
	}, span)
	Expect(err).NotTo(HaveOccurred())
	return sys
}

// upwardCrossing returns the interpolated time after `after` at which body
// k's y coordinate crosses zero going up, or NaN.
func upwardCrossing(res *integrators.Result, k int, after float64) float64 {
	for i := 1; i < len(res.Times); i++ {
		if res.Times[i] <= after {
			continue
		}
		y0, y1 := res.States[i-1][2*k+1], res.States[i][2*k+1]
		if y0 < 0 && y1 >= 0 {
			t0, t1 := res.Times[i-1], res.Times[i]
			return t0 + (t1-t0)*(-y0)/(y1-y0)
		}
	}
	return math.NaN()
}

var _ = Describe("System", func() {
	Describe("construction", func() {
		It("moves the bodies into the zero-momentum frame", func() {
			sys, err := NewSystemFromConditions([]InitialCondition{
				{Mass: 3, X: 0, Y: 0, VX: 1, VY: 2},
				{Mass: 0.5, X: 1, Y: 0, VX: -4, VY: 0.25},
				{Mass: 0, X: 0, Y: 2, VX: 7, VY: -1},
				{Mass: 1.25, X: -1, Y: -1, VX: 0.1, VY: 3},
			}, dynamo.TimeSpan{T0: 0, Tf: 1})
			Expect(err).NotTo(HaveOccurred())

			p := sys.Momentum()
			Expect(p.X).To(BeNumerically("~", 0, 1e-12))
			Expect(p.Y).To(BeNumerically("~", 0, 1e-12))
		})

		It("shifts massless bodies by the same center-of-mass velocity", func() {
			sys, err := NewSystemFromConditions([]InitialCondition{
				{Mass: 2, VX: 1, VY: 1},
				{Mass: 0, X: 5, VX: 1, VY: 0},
			}, dynamo.TimeSpan{T0: 0, Tf: 1})
			Expect(err).NotTo(HaveOccurred())

			Expect(sys.Bodies()[0].InitialVelocity()).To(Equal(r2.Vec{}))
			Expect(sys.Bodies()[1].InitialVelocity()).To(Equal(r2.Vec{X: 0, Y: -1}))
		})

		It("lays out the state as positions then velocities", func() {
			sys, err := NewSystemFromConditions([]InitialCondition{
				{Mass: 1, X: 1, Y: 2, VX: 5, VY: 6},
				{Mass: 1, X: 3, Y: 4, VX: -5, VY: -6},
			}, dynamo.TimeSpan{T0: 0, Tf: 1})
			Expect(err).NotTo(HaveOccurred())

			Expect(sys.Masses()).To(Equal([]float64{1, 1}))
			Expect(sys.InitialState()).To(Equal(dynamo.State{1, 2, 3, 4, 5, 6, -5, -6}))
		})

		It("rejects a system without mass", func() {
			_, err := NewSystemFromConditions([]InitialCondition{
				{Mass: 0, X: 1},
				{Mass: 0, X: 2, VY: 1},
			}, dynamo.TimeSpan{T0: 0, Tf: 1})
			Expect(err).To(MatchError(dynamo.ErrDegenerateSystem))

			_, err = NewSystem(nil, dynamo.TimeSpan{T0: 0, Tf: 1})
			Expect(err).To(MatchError(dynamo.ErrDegenerateSystem))
		})

		It("rejects an invalid time span", func() {
			_, err := NewSystemFromConditions([]InitialCondition{{Mass: 1}}, dynamo.TimeSpan{T0: 2, Tf: 1})
			Expect(err).To(MatchError(dynamo.ErrInvalidTimeSpan))
		})

		It("rejects negative masses", func() {
			_, err := NewSystemFromConditions([]InitialCondition{{Mass: 1}, {Mass: -1}}, dynamo.TimeSpan{T0: 0, Tf: 1})
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))

			var simErr *dynamo.SimulationError
			Expect(err).To(BeAssignableToTypeOf(simErr))
			Expect(err.(*dynamo.SimulationError).Body).To(Equal(1))
		})

		It("normalizes a body only once", func() {
			b, err := NewBody(1, r2.Vec{}, r2.Vec{X: 1})
			Expect(err).NotTo(HaveOccurred())

			_, err = NewSystem([]*Body{b}, dynamo.TimeSpan{T0: 0, Tf: 1})
			Expect(err).NotTo(HaveOccurred())

			_, err = NewSystem([]*Body{b}, dynamo.TimeSpan{T0: 0, Tf: 1})
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))

			c, _ := NewBody(1, r2.Vec{}, r2.Vec{})
			_, err = NewSystem([]*Body{c, c}, dynamo.TimeSpan{T0: 0, Tf: 1})
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})
	})

	Describe("ComputeTrajectories", func() {
		for _, method := range integrators.Methods() {
			method := method

			It("reproduces the Keplerian period of a circular binary with "+method.String(), func() {
				sys := binary(dynamo.TimeSpan{T0: 0, Tf: 1.5 * circularPeriod}, circularSpeed)

				res, err := sys.ComputeTrajectories(method)
				Expect(err).NotTo(HaveOccurred())

				period := upwardCrossing(res, 1, circularPeriod/2)
				Expect(math.IsNaN(period)).To(BeFalse())
				Expect(math.Abs(period-circularPeriod) / circularPeriod).To(BeNumerically("<", 1e-3))
			})

			It("keeps a lone body at rest in its own frame with "+method.String(), func() {
				sys, err := NewSystemFromConditions([]InitialCondition{
					{Mass: 2, X: 1, Y: -3, VX: 1, VY: 0.5},
				}, dynamo.TimeSpan{T0: 0, Tf: 2})
				Expect(err).NotTo(HaveOccurred())

				res, err := sys.ComputeTrajectories(method)
				Expect(err).NotTo(HaveOccurred())

				for _, s := range res.States {
					Expect(s).To(Equal(dynamo.State{1, -3, 0, 0}))
				}
			})

			It("is deterministic and overwrites earlier runs with "+method.String(), func() {
				sys := binary(dynamo.TimeSpan{T0: 0, Tf: 1}, circularSpeed)

				first, err := sys.ComputeTrajectories(method)
				Expect(err).NotTo(HaveOccurred())
				firstTrack, ok := sys.Bodies()[0].Trajectory()
				Expect(ok).To(BeTrue())

				second, err := sys.ComputeTrajectories(method)
				Expect(err).NotTo(HaveOccurred())
				secondTrack, _ := sys.Bodies()[0].Trajectory()

				Expect(second.Times).To(Equal(first.Times))
				Expect(second.States).To(Equal(first.States))
				Expect(secondTrack).To(Equal(firstTrack))
			})
		}

		It("returns a binary to its starting point after one period with midpoint steps", func() {
			sys := binary(dynamo.TimeSpan{T0: 0, Tf: circularPeriod}, circularSpeed)

			res, err := sys.ComputeTrajectories(integrators.Midpoint)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Times[len(res.Times)-1]).To(Equal(circularPeriod))

			for _, b := range sys.Bodies() {
				end, err := b.PositionAt(b.Len() - 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(r2.Norm(r2.Sub(end, b.InitialPosition()))).To(BeNumerically("<", 1e-3))
			}
		})

		It("closes an eccentric binary orbit after one Keplerian period with the adaptive solver", func() {
			// Relative speed below circular: semi-major axis a from vis-viva.
			speed := math.Sqrt(2) / 4
			v := 2 * speed
			a := 1 / (2/1.0 - v*v/2)
			period := 2 * math.Pi * math.Sqrt(a*a*a/2)

			sys := binary(dynamo.TimeSpan{T0: 0, Tf: period}, speed)
			integ, err := integrators.New(integrators.Config{
				StepSize: period / 200,
				RTol:     integrators.DefaultRTol,
				ATol:     integrators.DefaultATol,
			})
			Expect(err).NotTo(HaveOccurred())

			res, err := sys.ComputeTrajectoriesWith(integ, integrators.Adaptive)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Times[len(res.Times)-1]).To(BeNumerically("~", period, 1e-12))

			final := res.Final()
			initial := sys.InitialState()
			for i := 0; i < 4; i++ {
				Expect(final[i]).To(BeNumerically("~", initial[i], 1e-6))
			}
		})

		It("scatters state columns onto each body", func() {
			sys := binary(dynamo.TimeSpan{T0: 0, Tf: 0.5}, circularSpeed)

			res, err := sys.ComputeTrajectories(integrators.Midpoint)
			Expect(err).NotTo(HaveOccurred())

			for k, b := range sys.Bodies() {
				Expect(b.Len()).To(Equal(res.Len()))
				for i, row := range res.States {
					p, err := b.PositionAt(i)
					Expect(err).NotTo(HaveOccurred())
					Expect(p).To(Equal(r2.Vec{X: row[2*k], Y: row[2*k+1]}))
				}
			}
		})

		It("replaces a trajectory of a different length", func() {
			sys := binary(dynamo.TimeSpan{T0: 0, Tf: 1}, circularSpeed)

			_, err := sys.ComputeTrajectories(integrators.Midpoint)
			Expect(err).NotTo(HaveOccurred())
			Expect(sys.Bodies()[1].Len()).To(Equal(101))

			coarse, err := integrators.New(integrators.Config{StepSize: 0.25, RTol: 1e-9, ATol: 1e-12})
			Expect(err).NotTo(HaveOccurred())
			res, err := sys.ComputeTrajectoriesWith(coarse, integrators.Adaptive)
			Expect(err).NotTo(HaveOccurred())

			Expect(sys.Bodies()[1].Len()).To(Equal(5))
			last, err := sys.Bodies()[1].PositionAt(4)
			Expect(err).NotTo(HaveOccurred())
			Expect(last).To(Equal(r2.Vec{X: res.Final()[2], Y: res.Final()[3]}))
		})

		It("fails on an unsupported method before touching the bodies", func() {
			sys := binary(dynamo.TimeSpan{T0: 0, Tf: 1}, circularSpeed)

			_, err := sys.ComputeTrajectories(integrators.Method(99))
			Expect(err).To(MatchError(dynamo.ErrUnsupportedMethod))

			for _, b := range sys.Bodies() {
				Expect(b.Computed()).To(BeFalse())
			}
		})

		It("advances a massless test particle without disturbing the others", func() {
			span := dynamo.TimeSpan{T0: 0, Tf: 1}
			with, err := NewSystemFromConditions([]InitialCondition{
				{Mass: 1, X: -0.5, VY: -circularSpeed},
				{Mass: 1, X: 0.5, VY: circularSpeed},
				{Mass: 0, X: 3, Y: 0},
			}, span)
			Expect(err).NotTo(HaveOccurred())
			without := binary(span, circularSpeed)

			a, err := with.ComputeTrajectories(integrators.Midpoint)
			Expect(err).NotTo(HaveOccurred())
			b, err := without.ComputeTrajectories(integrators.Midpoint)
			Expect(err).NotTo(HaveOccurred())

			for i := range a.States {
				Expect(a.States[i][0:4]).To(Equal(b.States[i][0:4]))
			}

			probe, _ := with.Bodies()[2].PositionAt(a.Len() - 1)
			Expect(probe.X).To(BeNumerically("<", 3))
		})
	})
})
