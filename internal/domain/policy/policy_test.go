package policy_test

import (
	"errors"
	"testing"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/policy"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCurve(t *testing.T) {
	Convey("Given the default risk modifier curve", t, func() {
		c := policy.Default().Capacity.RiskModifierCurve

		Convey("Then knots are hit exactly", func() {
			So(c.At(80), ShouldEqual, 1.2)
			So(c.At(0), ShouldEqual, 0.25)
			So(c.At(100), ShouldEqual, 1.5)
		})

		Convey("Then values between knots interpolate", func() {
			So(c.At(70), ShouldAlmostEqual, 1.05, 1e-12)
		})

		Convey("Then inputs outside the range clamp to the ends", func() {
			So(c.At(-10), ShouldEqual, 0.25)
			So(c.At(140), ShouldEqual, 1.5)
		})

		Convey("Then it never decreases", func() {
			prev := c.At(0)
			for s := 0.0; s <= 100; s += 0.5 {
				So(c.At(s), ShouldBeGreaterThanOrEqualTo, prev)
				prev = c.At(s)
			}
		})
	})

	Convey("Given a decreasing curve", t, func() {
		c := policy.Curve{{X: 0, Y: 100}, {X: 60, Y: 0}}

		Convey("Then it validates and evaluates", func() {
			So(c.Validate("days"), ShouldBeNil)
			So(c.Decreasing(), ShouldBeTrue)
			So(c.At(30), ShouldEqual, 50)
		})
	})

	Convey("Given malformed curves", t, func() {
		Convey("Then a single point is rejected", func() {
			err := policy.Curve{{X: 0, Y: 1}}.Validate("c")
			So(errors.Is(err, policy.ErrInvalidPolicy), ShouldBeTrue)
		})

		Convey("Then unordered x values are rejected", func() {
			err := policy.Curve{{X: 10, Y: 1}, {X: 5, Y: 2}}.Validate("c")
			So(errors.Is(err, policy.ErrInvalidPolicy), ShouldBeTrue)
		})

		Convey("Then a non-monotonic curve is rejected", func() {
			err := policy.Curve{{X: 0, Y: 0}, {X: 1, Y: 10}, {X: 2, Y: 5}}.Validate("c")
			So(errors.Is(err, policy.ErrInvalidPolicy), ShouldBeTrue)
		})
	})
}

func TestPolicyValidate(t *testing.T) {
	Convey("Given the default policy", t, func() {
		p := policy.Default()

		Convey("Then it is valid", func() {
			So(p.Validate(), ShouldBeNil)
			So(p.Weights.Sum(), ShouldEqual, 100)
		})

		Convey("When weights no longer sum to 100", func() {
			p.Weights.TenureDepth = 20

			Convey("Then validation fails", func() {
				So(errors.Is(p.Validate(), policy.ErrInvalidPolicy), ShouldBeTrue)
			})
		})

		Convey("When the risk curve dips below the floor", func() {
			p.Capacity.RiskModifierCurve = policy.Curve{{X: 0, Y: 0.1}, {X: 100, Y: 1.2}}

			Convey("Then validation fails", func() {
				So(errors.Is(p.Validate(), policy.ErrInvalidPolicy), ShouldBeTrue)
			})
		})

		Convey("When the risk curve decreases", func() {
			p.Capacity.RiskModifierCurve = policy.Curve{{X: 0, Y: 1.5}, {X: 100, Y: 0.5}}

			Convey("Then validation fails", func() {
				So(errors.Is(p.Validate(), policy.ErrInvalidPolicy), ShouldBeTrue)
			})
		})

		Convey("When a benchmark exceeds 100", func() {
			p.Benchmarks.Margin = policy.Curve{{X: 0, Y: 0}, {X: 50, Y: 120}}

			Convey("Then validation fails", func() {
				So(errors.Is(p.Validate(), policy.ErrInvalidPolicy), ShouldBeTrue)
			})
		})

		Convey("When the limits are inverted", func() {
			p.Capacity.MinLimit = 10
			p.Capacity.MaxLimit = 5

			Convey("Then validation fails", func() {
				So(errors.Is(p.Validate(), policy.ErrInvalidPolicy), ShouldBeTrue)
			})
		})
	})
}

func TestBands(t *testing.T) {
	Convey("Given the default bands", t, func() {
		b := policy.Default().Bands

		Convey("Then labels follow the thresholds", func() {
			So(b.Label(80), ShouldEqual, "excellent")
			So(b.Label(79.99), ShouldEqual, "good")
			So(b.Label(60), ShouldEqual, "good")
			So(b.Label(40), ShouldEqual, "moderate")
			So(b.Label(39.9), ShouldEqual, "needs attention")
			So(b.Label(0), ShouldEqual, "needs attention")
		})
	})
}
