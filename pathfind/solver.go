// Package pathfind searches a navmesh for a polygon corridor and pulls it
// tight into a walkable waypoint list.
//
// A Solver keeps its node pool and closed set between calls. It is not safe
// for concurrent use: run one search at a time per Solver, or give each
// query stream its own Solver. Meshes can be shared freely.
package pathfind

import (
	"errors"

	"github.com/milk9111/navkit/common"
	"github.com/milk9111/navkit/navmesh"
)

var (
	ErrNoPolygon   = errors.New("pathfind: start or end polygon missing")
	ErrEmptyMesh   = errors.New("pathfind: mesh has no polygons")
	ErrNotPrepared = errors.New("pathfind: solver not prepared for this mesh")
	ErrUnreachable = errors.New("pathfind: end polygon unreachable")
	ErrPathFull    = errors.New("pathfind: path capacity exceeded")
)

// DefaultHeuristicWeight overweights the distance-to-go, trading optimal
// paths for fewer expansions.
const DefaultHeuristicWeight = 1.5

const none = -1

// searchNode links by pool index; the pool is a growable slice.
type searchNode struct {
	poly   int
	edge   int
	cost   float64
	next   int
	parent int
}

type Solver struct {
	// HeuristicWeight scales the straight-line estimate to the end point.
	// Zero means DefaultHeuristicWeight.
	HeuristicWeight float64

	head   int
	pool   []searchNode
	closed []bool

	scratch  *Path
	portals  []common.Vec3
	smoothed []Node
}

func NewSolver() *Solver {
	return &Solver{HeuristicWeight: DefaultHeuristicWeight, head: none}
}

// Prepare sizes the search buffers for mesh. Call it after every mesh load.
func (s *Solver) Prepare(mesh *navmesh.Mesh) {
	n := mesh.PolyCount()
	s.pool = make([]searchNode, 0, n)
	s.closed = make([]bool, n)
	s.head = none
}

func (s *Solver) weight() float64 {
	if s.HeuristicWeight <= 0 {
		return DefaultHeuristicWeight
	}
	return s.HeuristicWeight
}

// Solve finds a polygon corridor from startPoly to endPoly and writes it to
// path: one waypoint per crossed edge (at the edge midpoint) followed by end.
// The path is empty on any error.
func (s *Solver) Solve(mesh *navmesh.Mesh, start, end common.Vec3, startPoly, endPoly *navmesh.Poly, path *Path) error {
	path.Clear()

	if startPoly == nil || endPoly == nil {
		return ErrNoPolygon
	}
	if mesh.PolyCount() == 0 {
		return ErrEmptyMesh
	}
	if len(s.closed) != mesh.PolyCount() {
		return ErrNotPrepared
	}

	s.pool = s.pool[:0]
	clear(s.closed)

	s.pool = append(s.pool, searchNode{
		poly:   startPoly.Index,
		edge:   none,
		next:   none,
		parent: none,
	})
	s.head = 0

	weight := s.weight()

	for s.head != none {
		cur := s.head
		node := s.pool[cur]

		s.head = node.next
		s.pool[cur].next = none
		s.closed[node.poly] = true

		if node.poly == endPoly.Index {
			return s.reconstruct(mesh, cur, end, endPoly, path)
		}

		ref := start
		if node.edge != none {
			ref = mesh.EdgeMidpoint(node.edge)
		}

		poly := &mesh.Polys[node.poly]
		for i := 0; i < poly.EdgeCount; i++ {
			edge := poly.EdgeStart + i
			neighbor, ok := mesh.Edges[edge].Neighbor()
			if !ok || s.closed[neighbor] {
				continue
			}

			// An open node is moved, never duplicated, even when the new
			// cost is worse.
			slot := s.unlink(neighbor)
			if slot == none {
				s.pool = append(s.pool, searchNode{})
				slot = len(s.pool) - 1
			}

			mid := mesh.EdgeMidpoint(edge)
			s.pool[slot] = searchNode{
				poly:   neighbor,
				edge:   edge,
				cost:   node.cost + common.Dist(mid, ref) + common.Dist(mid, end)*weight,
				next:   none,
				parent: cur,
			}
			s.insert(slot)
		}
	}

	return ErrUnreachable
}

// unlink removes the open node for poly and returns its slot.
func (s *Solver) unlink(poly int) int {
	prev := none
	for i := s.head; i != none; i = s.pool[i].next {
		if s.pool[i].poly != poly {
			prev = i
			continue
		}
		if prev == none {
			s.head = s.pool[i].next
		} else {
			s.pool[prev].next = s.pool[i].next
		}
		s.pool[i].next = none
		return i
	}
	return none
}

// insert links slot into the open list after every node of equal or lower cost.
func (s *Solver) insert(slot int) {
	cost := s.pool[slot].cost
	prev := none
	i := s.head
	for i != none && s.pool[i].cost <= cost {
		prev = i
		i = s.pool[i].next
	}
	s.pool[slot].next = i
	if prev == none {
		s.head = slot
	} else {
		s.pool[prev].next = slot
	}
}

func (s *Solver) reconstruct(mesh *navmesh.Mesh, goal int, end common.Vec3, endPoly *navmesh.Poly, path *Path) error {
	if s.scratch == nil || s.scratch.Cap() != path.Cap() {
		s.scratch = NewPath(path.Cap())
	}
	tmp := s.scratch
	tmp.Clear()

	if err := tmp.Append(end, NoIndex, endPoly.Index); err != nil {
		return err
	}
	for i := goal; s.pool[i].parent != none; i = s.pool[i].parent {
		n := s.pool[i]
		if err := tmp.Append(mesh.EdgeMidpoint(n.edge), n.edge, n.poly); err != nil {
			return err
		}
	}

	Reverse(tmp, path)
	return nil
}
