package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
)

// Vec3 is a world-space point or direction. Z is up.
type Vec3 = mgl64.Vec3

// Down is the direction used for ground lookups.
var Down = Vec3{0, 0, -1}

func Lerp(a, b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func Midpoint(a, b Vec3) Vec3 {
	return Lerp(a, b, 0.5)
}

func Dist(a, b Vec3) float64 {
	return b.Sub(a).Len()
}

func LenSq(v Vec3) float64 {
	return v.Dot(v)
}

// Norm returns v scaled to unit length, or the zero vector when v has none.
func Norm(v Vec3) Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

// Flat drops the height component.
func Flat(v Vec3) cp.Vector {
	return cp.Vector{X: v.X(), Y: v.Y()}
}

// TriArea2 is twice the signed area of (a, b, c) on the ground plane.
// Positive when c lies clockwise of a->b.
func TriArea2(a, b, c Vec3) float64 {
	ax := b.X() - a.X()
	ay := b.Y() - a.Y()
	bx := c.X() - a.X()
	by := c.Y() - a.Y()
	return bx*ay - ax*by
}

// NearlyEqual2 compares two points on the ground plane.
func NearlyEqual2(a, b Vec3) bool {
	const eq = 0.001 * 0.001
	dx := a.X() - b.X()
	dy := a.Y() - b.Y()
	return dx*dx+dy*dy < eq
}
