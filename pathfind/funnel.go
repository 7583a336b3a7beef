package pathfind

import (
	"github.com/milk9111/navkit/common"
	"github.com/milk9111/navkit/navmesh"
)

// SmoothPath string-pulls a coarse path from Solve through its portals and
// overwrites it with the resulting waypoints: start, every corner the agent
// has to turn around, then dest. Each portal is shrunk by radius at both
// ends so corners are cut no closer than that. An empty path is left as is.
func (s *Solver) SmoothPath(mesh *navmesh.Mesh, path *Path, start, dest common.Vec3, radius float64) {
	n := path.Len()
	if n == 0 {
		return
	}

	// Edges run counter-clockwise around the polygon being left, so a is on
	// the right of the walker and b on the left.
	portals := append(s.portals[:0], start, start)
	for i := 0; i < n-1; i++ {
		e := mesh.Edges[path.nodes[i].Edge]
		a := mesh.Vertices[e.Verts[0]]
		b := mesh.Vertices[e.Verts[1]]
		u := common.Norm(a.Sub(b)).Mul(radius)
		portals = append(portals, b.Add(u), a.Sub(u))
	}
	portals = append(portals, dest, dest)
	s.portals = portals
	count := len(portals) / 2

	startPoly := path.nodes[n-1].Poly
	if n > 1 {
		startPoly = NoIndex
		if p, ok := mesh.EdgePoly(path.nodes[0].Edge); ok {
			startPoly = p.Index
		}
	}

	out := append(s.smoothed[:0], Node{Position: start, Edge: NoIndex, Poly: startPoly})
	corner := func(portal int, p common.Vec3) {
		c := path.nodes[portal-1]
		out = append(out, Node{Position: p, Edge: c.Edge, Poly: c.Poly})
	}

	apex, left, right := portals[0], portals[0], portals[1]
	apexIndex, leftIndex, rightIndex := 0, 0, 0

	for i := 1; i < count && len(out) < path.Cap(); i++ {
		l := portals[i*2]
		r := portals[i*2+1]

		if common.TriArea2(apex, right, r) <= 0 {
			if common.NearlyEqual2(apex, right) || common.TriArea2(apex, left, r) > 0 {
				right = r
				rightIndex = i
			} else {
				corner(leftIndex, left)
				apex, apexIndex = left, leftIndex
				left, right = apex, apex
				leftIndex, rightIndex = apexIndex, apexIndex
				i = apexIndex
				continue
			}
		}

		if common.TriArea2(apex, left, l) >= 0 {
			if common.NearlyEqual2(apex, left) || common.TriArea2(apex, right, l) < 0 {
				left = l
				leftIndex = i
			} else {
				corner(rightIndex, right)
				apex, apexIndex = right, rightIndex
				left, right = apex, apex
				leftIndex, rightIndex = apexIndex, apexIndex
				i = apexIndex
				continue
			}
		}
	}

	last := Node{Position: dest, Edge: NoIndex, Poly: path.nodes[n-1].Poly}
	switch {
	case len(out) > 1 && common.NearlyEqual2(out[len(out)-1].Position, dest):
		out[len(out)-1] = last
	case len(out) >= path.Cap():
		out = out[:path.Cap()-1]
		out = append(out, last)
	default:
		out = append(out, last)
	}
	s.smoothed = out

	path.nodes = append(path.nodes[:0], out...)
}
