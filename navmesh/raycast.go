package navmesh

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/navkit/common"
)

// Raycast returns the nearest polygon hit by the ray and the distance along
// it. Polygons behind the origin are ignored.
func (m *Mesh) Raycast(ray common.Ray) (*Poly, float64, bool) {
	if m == nil {
		return nil, 0, false
	}

	best := math.Inf(1)
	var result *Poly
	var local []cp.Vector

	for i := range m.Polys {
		poly := &m.Polys[i]

		t, ok := poly.Plane.IntersectRay(ray)
		if !ok || t < 0 || t >= best {
			continue
		}

		hit := ray.Slide(t)
		origin, right, up := m.basis(poly)

		local = local[:0]
		for _, e := range m.PolyEdges(poly) {
			local = append(local, project(m.Vertices[e.Verts[0]], origin, right, up))
		}

		if common.PolyContains(local, project(hit, origin, right, up)) {
			best = t
			result = poly
		}
	}

	if result == nil {
		return nil, 0, false
	}
	return result, best, true
}

// basis builds a 2D frame on the polygon's plane: right runs along the first
// edge, up is perpendicular to it within the plane.
func (m *Mesh) basis(p *Poly) (origin, right, up common.Vec3) {
	e := m.Edges[p.EdgeStart]
	origin = m.Vertices[e.Verts[0]]
	right = common.Norm(m.Vertices[e.Verts[1]].Sub(origin))
	up = common.Norm(right.Cross(p.Plane.Normal))
	return origin, right, up
}

func project(v, origin, right, up common.Vec3) cp.Vector {
	d := v.Sub(origin)
	return cp.Vector{X: d.Dot(right), Y: d.Dot(up)}
}

// LineEdgeCast reports whether the ground-plane segment p1-p2 crosses one of
// the polygon's edges carrying any of flags. EdgeNone matches every edge.
func (m *Mesh) LineEdgeCast(p *Poly, p1, p2 cp.Vector, flags EdgeFlag) bool {
	for _, e := range m.PolyEdges(p) {
		if flags != EdgeNone && e.Flags&flags == 0 {
			continue
		}
		a := common.Flat(m.Vertices[e.Verts[0]])
		b := common.Flat(m.Vertices[e.Verts[1]])
		if common.SegmentsCross(p1, p2, a, b) {
			return true
		}
	}
	return false
}
