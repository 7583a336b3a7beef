package pathfind

import (
	"github.com/milk9111/navkit/common"
	"github.com/milk9111/navkit/navmesh"
)

// DefaultPathCapacity matches the longest path an actor is expected to carry.
const DefaultPathCapacity = 128

// NoIndex marks a waypoint that did not come from an edge or polygon.
const NoIndex = -1

// Node is one waypoint.
type Node struct {
	Position common.Vec3
	Edge     int
	Poly     int
}

// Path is a fixed-capacity waypoint list. It is rewritten in place by every
// Solve and SmoothPath call and must not be shared between callers.
type Path struct {
	nodes []Node
}

func NewPath(capacity int) *Path {
	if capacity <= 0 {
		capacity = DefaultPathCapacity
	}
	return &Path{nodes: make([]Node, 0, capacity)}
}

// Append adds a waypoint, failing with ErrPathFull at capacity.
func (p *Path) Append(position common.Vec3, edge, poly int) error {
	if len(p.nodes) == cap(p.nodes) {
		return ErrPathFull
	}
	p.nodes = append(p.nodes, Node{Position: position, Edge: edge, Poly: poly})
	return nil
}

func (p *Path) Clear() {
	p.nodes = p.nodes[:0]
}

func (p *Path) Len() int {
	return len(p.nodes)
}

func (p *Path) Cap() int {
	return cap(p.nodes)
}

// At returns the waypoint at i. It panics when i is out of range.
func (p *Path) At(i int) Node {
	if i < 0 || i >= len(p.nodes) {
		panic("pathfind: path index out of range")
	}
	return p.nodes[i]
}

// Nodes exposes the waypoints. The slice is only valid until the next call
// that rewrites the path.
func (p *Path) Nodes() []Node {
	return p.nodes
}

// Reverse writes in's waypoints into out in reverse order. in and out must
// be different paths, and out must be able to hold all of in.
func Reverse(in, out *Path) {
	if in == out {
		panic("pathfind: cannot reverse a path into itself")
	}
	if in.Len() > out.Cap() {
		panic("pathfind: reverse target too small")
	}
	out.nodes = out.nodes[:in.Len()]
	for i, n := range in.nodes {
		out.nodes[len(in.nodes)-1-i] = n
	}
}

// DebugLines returns the consecutive waypoint segments.
func (p *Path) DebugLines() []navmesh.Line {
	if p.Len() < 2 {
		return nil
	}
	out := make([]navmesh.Line, 0, p.Len()-1)
	for i := 1; i < len(p.nodes); i++ {
		out = append(out, navmesh.Line{A: p.nodes[i-1].Position, B: p.nodes[i].Position})
	}
	return out
}
