// Package policy holds the tunable tables of the credit engine: signal
// weights, normalization curves, the risk modifier curve and thresholds.
// A Policy is loaded from configuration and validated before use.
package policy

import (
	"fmt"
	"math"
)

// Point is one knot of a piecewise-linear curve.
type Point struct {
	X float64 `koanf:"x" json:"x"`
	Y float64 `koanf:"y" json:"y"`
}

// Curve maps a raw value to an output by linear interpolation between
// knots. Inputs outside the knot range take the nearest end value.
type Curve []Point

// At evaluates the curve at x.
func (c Curve) At(x float64) float64 {
	if len(c) == 0 || math.IsNaN(x) {
		return 0
	}
	if x <= c[0].X {
		return c[0].Y
	}
	last := c[len(c)-1]
	if x >= last.X {
		return last.Y
	}
	for i := 1; i < len(c); i++ {
		if x == c[i].X {
			return c[i].Y
		}
		if x < c[i].X {
			a, b := c[i-1], c[i]
			t := (x - a.X) / (b.X - a.X)
			return a.Y + t*(b.Y-a.Y)
		}
	}
	return last.Y
}

// Min returns the smallest output of the curve.
func (c Curve) Min() float64 {
	m := math.Inf(1)
	for _, p := range c {
		m = math.Min(m, p.Y)
	}
	return m
}

// Max returns the largest output of the curve.
func (c Curve) Max() float64 {
	m := math.Inf(-1)
	for _, p := range c {
		m = math.Max(m, p.Y)
	}
	return m
}

// Increasing reports whether outputs never decrease along the curve.
func (c Curve) Increasing() bool {
	for i := 1; i < len(c); i++ {
		if c[i].Y < c[i-1].Y {
			return false
		}
	}
	return true
}

// Decreasing reports whether outputs never increase along the curve.
func (c Curve) Decreasing() bool {
	for i := 1; i < len(c); i++ {
		if c[i].Y > c[i-1].Y {
			return false
		}
	}
	return true
}

// Validate checks that knots are strictly ordered on X and that the curve
// is monotonic.
func (c Curve) Validate(name string) error {
	if len(c) < 2 {
		return fmt.Errorf("%s: at least two points required: %w", name, ErrInvalidPolicy)
	}
	for i := 1; i < len(c); i++ {
		if c[i].X <= c[i-1].X {
			return fmt.Errorf("%s: x must be strictly increasing at point %d: %w", name, i, ErrInvalidPolicy)
		}
	}
	if !c.Increasing() && !c.Decreasing() {
		return fmt.Errorf("%s: curve must be monotonic: %w", name, ErrInvalidPolicy)
	}
	return nil
}

// validateScoreCurve additionally bounds outputs to [0,100].
func (c Curve) validateScoreCurve(name string) error {
	if err := c.Validate(name); err != nil {
		return err
	}
	if c.Min() < 0 || c.Max() > 100 {
		return fmt.Errorf("%s: outputs must lie in [0,100]: %w", name, ErrInvalidPolicy)
	}
	return nil
}
