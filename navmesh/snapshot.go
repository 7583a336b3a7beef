package navmesh

import (
	"fmt"
	"io"

	"github.com/milk9111/navkit/common"
	"github.com/vmihailenco/msgpack/v5"
)

const snapshotVersion = 1

// snapshot is the .navpack layout: the mesh after loop ordering, so reading
// it back skips the text parser.
type snapshot struct {
	Version  int            `msgpack:"version"`
	Vertices [][3]float64   `msgpack:"vertices"`
	Edges    []snapshotEdge `msgpack:"edges"`
	Polys    []snapshotPoly `msgpack:"polys"`
}

type snapshotEdge struct {
	A        int   `msgpack:"a"`
	B        int   `msgpack:"b"`
	Neighbor int   `msgpack:"n"`
	Linked   bool  `msgpack:"l"`
	Flags    uint8 `msgpack:"f"`
}

type snapshotPoly struct {
	EdgeStart int        `msgpack:"start"`
	EdgeCount int        `msgpack:"count"`
	Normal    [3]float64 `msgpack:"normal"`
	Center    [3]float64 `msgpack:"center"`
}

func WriteSnapshot(w io.Writer, m *Mesh) error {
	s := snapshot{
		Version:  snapshotVersion,
		Vertices: make([][3]float64, len(m.Vertices)),
		Edges:    make([]snapshotEdge, len(m.Edges)),
		Polys:    make([]snapshotPoly, len(m.Polys)),
	}
	for i, v := range m.Vertices {
		s.Vertices[i] = v
	}
	for i, e := range m.Edges {
		s.Edges[i] = snapshotEdge{
			A:        e.Verts[0],
			B:        e.Verts[1],
			Neighbor: e.neighbor,
			Linked:   e.linked,
			Flags:    uint8(e.Flags),
		}
	}
	for i, p := range m.Polys {
		s.Polys[i] = snapshotPoly{
			EdgeStart: p.EdgeStart,
			EdgeCount: p.EdgeCount,
			Normal:    p.Plane.Normal,
			Center:    p.Plane.Point,
		}
	}

	if err := msgpack.NewEncoder(w).Encode(&s); err != nil {
		return fmt.Errorf("navmesh: write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a .navpack and re-checks every index it references.
func ReadSnapshot(r io.Reader) (*Mesh, error) {
	var s snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: snapshot %d", ErrUnsupportedVersion, s.Version)
	}

	m := &Mesh{
		Vertices: make([]common.Vec3, len(s.Vertices)),
		Edges:    make([]Edge, len(s.Edges)),
		Polys:    make([]Poly, len(s.Polys)),
	}
	for i, v := range s.Vertices {
		m.Vertices[i] = v
	}
	for i, e := range s.Edges {
		if e.A < 0 || e.A >= len(m.Vertices) || e.B < 0 || e.B >= len(m.Vertices) {
			return nil, fmt.Errorf("%w: edge %d vertex out of range", ErrMalformed, i)
		}
		if e.Linked && (e.Neighbor < 0 || e.Neighbor >= len(m.Polys)) {
			return nil, fmt.Errorf("%w: edge %d neighbor out of range", ErrMalformed, i)
		}
		m.Edges[i] = Edge{
			Verts:    [2]int{e.A, e.B},
			Flags:    EdgeFlag(e.Flags),
			neighbor: e.Neighbor,
			linked:   e.Linked,
		}
	}
	for i, p := range s.Polys {
		if p.EdgeStart < 0 || p.EdgeCount < 3 || p.EdgeStart+p.EdgeCount > len(m.Edges) {
			return nil, fmt.Errorf("%w: poly %d edge range invalid", ErrMalformed, i)
		}
		m.Polys[i] = Poly{
			Index:     i,
			EdgeStart: p.EdgeStart,
			EdgeCount: p.EdgeCount,
			Plane:     common.Plane{Normal: p.Normal, Point: p.Center},
		}
		edges := m.PolyEdges(&m.Polys[i])
		for k := range edges {
			if edges[k].Verts[1] != edges[(k+1)%len(edges)].Verts[0] {
				return nil, fmt.Errorf("%w: poly %d", ErrOpenLoop, i)
			}
		}
	}
	return m, nil
}
