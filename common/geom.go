package common

import (
	"math"

	"github.com/jakecoffman/cp"
)

const planeEpsilon = 0.00001

// boundaryEpsilon widens point-in-polygon tests so points on a shared edge
// land in at least one of the two polygons.
const boundaryEpsilon = 1e-6

type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// NewRay normalizes dir.
func NewRay(origin, dir Vec3) Ray {
	return Ray{Origin: origin, Dir: Norm(dir)}
}

// Slide returns the point t units along the ray.
func (r Ray) Slide(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Plane stores a normal and a point on the plane (a polygon's centroid).
type Plane struct {
	Normal Vec3
	Point  Vec3
}

// IntersectRay returns the ray parameter of the hit. Rays parallel to the
// plane miss. t may be negative.
func (p Plane) IntersectRay(r Ray) (float64, bool) {
	d := p.Point.Dot(p.Normal)
	num := p.Normal.Dot(r.Origin) - d
	denom := p.Normal.Dot(r.Dir)
	if math.Abs(denom) < planeEpsilon {
		return 0, false
	}
	return -(num / denom), true
}

// PointInPoly is the even-odd crossing test.
func PointInPoly(verts []cp.Vector, p cp.Vector) bool {
	inside := false
	for i, j := 0, len(verts)-1; i < len(verts); j, i = i, i+1 {
		vi, vj := verts[i], verts[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) &&
			p.X < (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
	}
	return inside
}

// PolyContains is PointInPoly with points on the outline counted as inside.
func PolyContains(verts []cp.Vector, p cp.Vector) bool {
	if PointInPoly(verts, p) {
		return true
	}
	for i, j := 0, len(verts)-1; i < len(verts); j, i = i, i+1 {
		if SegmentDistSq(p, verts[j], verts[i]) <= boundaryEpsilon*boundaryEpsilon {
			return true
		}
	}
	return false
}

// SegmentDistSq is the squared distance from p to segment ab.
func SegmentDistSq(p, a, b cp.Vector) float64 {
	ab := b.Sub(a)
	l := ab.LengthSq()
	if l == 0 {
		return p.Sub(a).LengthSq()
	}
	t := p.Sub(a).Dot(ab) / l
	t = math.Max(0, math.Min(1, t))
	return p.Sub(a.Add(ab.Mult(t))).LengthSq()
}

// SegmentsCross reports whether ab and cd cross at a point interior to both.
// Touching, collinear and parallel segments do not cross.
func SegmentsCross(a, b, c, d cp.Vector) bool {
	denom := (b.X-a.X)*(d.Y-c.Y) - (b.Y-a.Y)*(d.X-c.X)
	if denom == 0 {
		return false
	}

	num1 := (a.Y-c.Y)*(d.X-c.X) - (a.X-c.X)*(d.Y-c.Y)
	num2 := (a.Y-c.Y)*(b.X-a.X) - (a.X-c.X)*(b.Y-a.Y)
	if num1 == 0 || num2 == 0 {
		return false
	}

	r := num1 / denom
	s := num2 / denom
	return r > 0 && r < 1 && s > 0 && s < 1
}
