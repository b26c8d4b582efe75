// Package geom provides the minimal 2D vector math used by the control
// surfaces. Vectors are immutable values; operations return new vectors.
package geom

import "math"

// Vec2 is a 2D vector in surface-local pixel coordinates.
// Y grows downward, matching pointer/screen conventions.
type Vec2 struct {
	X float64
	Y float64
}

// Zero is the null vector.
var Zero = Vec2{}

// Sub returns a - b.
func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

// Scale returns the vector multiplied by f.
func (a Vec2) Scale(f float64) Vec2 {
	return Vec2{a.X * f, a.Y * f}
}

// Mag returns the vector's magnitude.
func (a Vec2) Mag() float64 {
	return math.Hypot(a.X, a.Y)
}

// ClampMag rescales the vector to magnitude max if it is longer,
// preserving its direction exactly. Shorter vectors are returned
// unchanged. Clamping is to the circle, not per-axis.
func (a Vec2) ClampMag(max float64) Vec2 {
	m := a.Mag()
	if m <= max || m == 0 {
		return a
	}
	return a.Scale(max / m)
}

// Angle returns the vector's angle in radians, measured from the
// positive X axis, in (-pi, pi]. The zero vector yields 0.
func (a Vec2) Angle() float64 {
	return math.Atan2(a.Y, a.X)
}
