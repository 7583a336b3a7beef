package navmesh

import "github.com/milk9111/navkit/common"

// Line is a debug segment, ready for any line renderer.
type Line struct {
	A, B  common.Vec3
	Solid bool
}

// DebugLines returns every polygon edge. Shared edges appear once per side.
func (m *Mesh) DebugLines() []Line {
	if m == nil {
		return nil
	}
	out := make([]Line, 0, len(m.Edges))
	for i := range m.Polys {
		for _, e := range m.PolyEdges(&m.Polys[i]) {
			out = append(out, Line{
				A:     m.Vertices[e.Verts[0]],
				B:     m.Vertices[e.Verts[1]],
				Solid: e.Flags&EdgeSolid != 0,
			})
		}
	}
	return out
}
