// Package navmesh holds the walkable floor of a level: shared vertices,
// per-polygon edge loops and the adjacency between convex polygons.
package navmesh

import (
	"errors"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/navkit/common"
)

var (
	ErrUnsupportedVersion = errors.New("navmesh: unsupported version")
	ErrMissingCounts      = errors.New("navmesh: geometry before counts")
	ErrMalformed          = errors.New("navmesh: malformed data")
	ErrOpenLoop           = errors.New("navmesh: polygon edges do not form a closed loop")
	ErrUnknownFormat      = errors.New("navmesh: unknown file format")
)

// EdgeFlag marks edges for sight and walkability queries.
type EdgeFlag uint8

const (
	EdgeNone  EdgeFlag = 0
	EdgeSolid EdgeFlag = 1 << 0
)

// Edge is one side of a polygon. Shared edges are stored once per polygon,
// each copy pointing at the other side.
type Edge struct {
	Verts [2]int
	Flags EdgeFlag

	neighbor int
	linked   bool
}

// Neighbor returns the polygon on the other side, if any.
func (e Edge) Neighbor() (int, bool) {
	return e.neighbor, e.linked
}

func (e *Edge) flip() {
	e.Verts[0], e.Verts[1] = e.Verts[1], e.Verts[0]
}

type Poly struct {
	Index     int
	EdgeStart int
	EdgeCount int
	Plane     common.Plane
}

// Mesh is immutable once loaded and may be shared by any number of solvers.
type Mesh struct {
	Vertices []common.Vec3
	Edges    []Edge
	Polys    []Poly
}

func (m *Mesh) PolyCount() int {
	if m == nil {
		return 0
	}
	return len(m.Polys)
}

// Poly returns the polygon at index i, or nil when i is out of range.
func (m *Mesh) Poly(i int) *Poly {
	if m == nil || i < 0 || i >= len(m.Polys) {
		return nil
	}
	return &m.Polys[i]
}

// PolyEdges returns the polygon's loop as a sub-slice of the edge array.
func (m *Mesh) PolyEdges(p *Poly) []Edge {
	return m.Edges[p.EdgeStart : p.EdgeStart+p.EdgeCount]
}

// Neighbor resolves a polygon's local edge to the adjacent polygon.
func (m *Mesh) Neighbor(p *Poly, edge int) (*Poly, bool) {
	if edge < 0 || edge >= p.EdgeCount {
		panic("navmesh: edge index out of range")
	}
	n, ok := m.Edges[p.EdgeStart+edge].Neighbor()
	if !ok {
		return nil, false
	}
	return &m.Polys[n], true
}

// EdgeMidpoint returns the midpoint of the edge at global index i.
func (m *Mesh) EdgeMidpoint(i int) common.Vec3 {
	e := m.Edges[i]
	return common.Midpoint(m.Vertices[e.Verts[0]], m.Vertices[e.Verts[1]])
}

// EdgePoly returns the polygon whose loop owns the edge at global index i.
func (m *Mesh) EdgePoly(i int) (*Poly, bool) {
	for k := range m.Polys {
		p := &m.Polys[k]
		if i >= p.EdgeStart && i < p.EdgeStart+p.EdgeCount {
			return p, true
		}
	}
	return nil, false
}

// Loop returns the polygon's vertices in traversal order.
func (m *Mesh) Loop(p *Poly) []common.Vec3 {
	out := make([]common.Vec3, 0, p.EdgeCount)
	for _, e := range m.PolyEdges(p) {
		out = append(out, m.Vertices[e.Verts[0]])
	}
	return out
}

type Stats struct {
	Vertices      int
	Edges         int
	Polys         int
	SolidEdges    int
	BoundaryEdges int
	Bounds        cp.BB
	MinZ, MaxZ    float64
}

func (m *Mesh) Stats() Stats {
	s := Stats{
		Vertices: len(m.Vertices),
		Edges:    len(m.Edges),
		Polys:    len(m.Polys),
	}
	for _, e := range m.Edges {
		if e.Flags&EdgeSolid != 0 {
			s.SolidEdges++
		}
		if !e.linked {
			s.BoundaryEdges++
		}
	}
	if len(m.Vertices) == 0 {
		return s
	}

	first := common.Flat(m.Vertices[0])
	s.Bounds = cp.BB{L: first.X, B: first.Y, R: first.X, T: first.Y}
	s.MinZ, s.MaxZ = math.Inf(1), math.Inf(-1)
	for _, v := range m.Vertices {
		s.Bounds = s.Bounds.Expand(common.Flat(v))
		s.MinZ = math.Min(s.MinZ, v.Z())
		s.MaxZ = math.Max(s.MaxZ, v.Z())
	}
	return s
}
