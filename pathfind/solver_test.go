package pathfind

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/milk9111/navkit/common"
	"github.com/milk9111/navkit/levels"
	"github.com/milk9111/navkit/navmesh"
)

func loadLevel(t *testing.T, name string) *navmesh.Mesh {
	t.Helper()
	m, err := navmesh.LoadFS(levels.LevelsFS, name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return m
}

func prepared(m *navmesh.Mesh) *Solver {
	s := NewSolver()
	s.Prepare(m)
	return s
}

func polyAt(t *testing.T, m *navmesh.Mesh, p common.Vec3) *navmesh.Poly {
	t.Helper()
	poly, _, ok := m.Raycast(common.NewRay(p.Add(common.Vec3{0, 0, 1}), common.Down))
	if !ok {
		t.Fatalf("no polygon under %v", p)
	}
	return poly
}

func near(a, b common.Vec3) bool {
	return a.Sub(b).Len() < 1e-9
}

func TestSolveSharedEdge(t *testing.T) {
	m := loadLevel(t, "square.nav")
	s := prepared(m)
	path := NewPath(DefaultPathCapacity)

	start := common.Vec3{1.5, 0.5, 0}
	dest := common.Vec3{0.5, 1.5, 0}
	if err := s.Solve(m, start, dest, m.Poly(0), m.Poly(1), path); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if path.Len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", path.Len())
	}

	cross := path.At(0)
	if cross.Edge != 2 || cross.Poly != 1 || !near(cross.Position, common.Vec3{1, 1, 0}) {
		t.Fatalf("unexpected crossing %+v", cross)
	}
	last := path.At(1)
	if last.Edge != NoIndex || last.Poly != 1 || last.Position != dest {
		t.Fatalf("unexpected last node %+v", last)
	}
}

func TestSolveSamePolygon(t *testing.T) {
	m := loadLevel(t, "square.nav")
	s := prepared(m)
	path := NewPath(DefaultPathCapacity)

	dest := common.Vec3{1.8, 0.5, 0}
	if err := s.Solve(m, common.Vec3{1.2, 0.1, 0}, dest, m.Poly(0), m.Poly(0), path); err != nil {
		t.Fatal(err)
	}
	if path.Len() != 1 || path.At(0).Position != dest || path.At(0).Poly != 0 {
		t.Fatalf("expected only the destination, got %+v", path.Nodes())
	}
}

func TestSolveErrors(t *testing.T) {
	square := loadLevel(t, "square.nav")
	islands := loadLevel(t, "islands.nav")
	origin := common.Vec3{}

	t.Run("nil_polygon", func(t *testing.T) {
		path := NewPath(8)
		err := prepared(square).Solve(square, origin, origin, nil, square.Poly(0), path)
		if !errors.Is(err, ErrNoPolygon) {
			t.Fatalf("expected ErrNoPolygon, got %v", err)
		}
	})

	t.Run("empty_mesh", func(t *testing.T) {
		empty := &navmesh.Mesh{}
		path := NewPath(8)
		err := prepared(empty).Solve(empty, origin, origin, square.Poly(0), square.Poly(1), path)
		if !errors.Is(err, ErrEmptyMesh) {
			t.Fatalf("expected ErrEmptyMesh, got %v", err)
		}
	})

	t.Run("not_prepared", func(t *testing.T) {
		path := NewPath(8)
		err := NewSolver().Solve(square, origin, origin, square.Poly(0), square.Poly(1), path)
		if !errors.Is(err, ErrNotPrepared) {
			t.Fatalf("expected ErrNotPrepared, got %v", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		path := NewPath(8)
		_ = path.Append(origin, NoIndex, 0)
		err := prepared(islands).Solve(islands, common.Vec3{0.5, 0.5, 0}, common.Vec3{3.5, 0.5, 0}, islands.Poly(0), islands.Poly(1), path)
		if !errors.Is(err, ErrUnreachable) {
			t.Fatalf("expected ErrUnreachable, got %v", err)
		}
		if path.Len() != 0 {
			t.Fatalf("failed solve left %d nodes", path.Len())
		}
	})

	t.Run("path_full", func(t *testing.T) {
		corridor := loadLevel(t, "corridor.nav")
		path := NewPath(2)
		err := prepared(corridor).Solve(corridor, common.Vec3{1, 1, 0}, common.Vec3{3, 3, 0}, corridor.Poly(0), corridor.Poly(2), path)
		if !errors.Is(err, ErrPathFull) {
			t.Fatalf("expected ErrPathFull, got %v", err)
		}
		if path.Len() != 0 {
			t.Fatalf("failed solve left %d nodes", path.Len())
		}
	})
}

func TestSolveReusesState(t *testing.T) {
	m := loadLevel(t, "yard.nav")
	shared := prepared(m)

	pairs := [][2]common.Vec3{
		{{1, 1, 0}, {11, 7, 0}},
		{{11, 1, 0}, {1, 7, 0}},
		{{5, 1, 0}, {5, 7, 0}},
		{{1, 1, 0}, {11, 7, 0}},
	}

	for _, pair := range pairs {
		start, dest := pair[0], pair[1]
		sp, dp := polyAt(t, m, start), polyAt(t, m, dest)

		got := NewPath(DefaultPathCapacity)
		if err := shared.Solve(m, start, dest, sp, dp, got); err != nil {
			t.Fatalf("%v -> %v: %v", start, dest, err)
		}
		want := NewPath(DefaultPathCapacity)
		if err := prepared(m).Solve(m, start, dest, sp, dp, want); err != nil {
			t.Fatal(err)
		}

		if got.Len() != want.Len() {
			t.Fatalf("%v -> %v: reused solver found %d nodes, fresh found %d", start, dest, got.Len(), want.Len())
		}
		for i := range got.Nodes() {
			if got.At(i) != want.At(i) {
				t.Fatalf("%v -> %v: node %d differs: %+v vs %+v", start, dest, i, got.At(i), want.At(i))
			}
		}
	}
}

func TestSolveYardConnectivity(t *testing.T) {
	m := loadLevel(t, "yard.nav")
	s := prepared(m)
	path := NewPath(DefaultPathCapacity)

	for a := range m.Polys {
		for b := range m.Polys {
			start := m.Polys[a].Plane.Point
			dest := m.Polys[b].Plane.Point
			if err := s.Solve(m, start, dest, m.Poly(a), m.Poly(b), path); err != nil {
				t.Fatalf("%d -> %d: %v", a, b, err)
			}

			last := path.At(path.Len() - 1)
			if last.Position != dest || last.Poly != b {
				t.Fatalf("%d -> %d: path ends at %+v", a, b, last)
			}

			prev := a
			for i := 0; i < path.Len()-1; i++ {
				n := path.At(i)
				owner, ok := m.EdgePoly(n.Edge)
				if !ok || owner.Index != prev {
					t.Fatalf("%d -> %d: node %d crosses an edge not owned by poly %d", a, b, i, prev)
				}
				if nb, ok := m.Edges[n.Edge].Neighbor(); !ok || nb != n.Poly {
					t.Fatalf("%d -> %d: node %d poly %d is not across edge %d", a, b, i, n.Poly, n.Edge)
				}
				prev = n.Poly
			}
		}
	}
}

func TestSmoothPathCorridor(t *testing.T) {
	m := loadLevel(t, "corridor.nav")
	s := prepared(m)
	path := NewPath(DefaultPathCapacity)

	start := common.Vec3{1, 1, 0}
	dest := common.Vec3{3, 3, 0}
	if err := s.Solve(m, start, dest, m.Poly(0), m.Poly(2), path); err != nil {
		t.Fatal(err)
	}
	s.SmoothPath(m, path, start, dest, 0.25)

	want := []Node{
		{Position: start, Edge: NoIndex, Poly: 0},
		{Position: common.Vec3{2, 1.75, 0}, Edge: 1, Poly: 1},
		{Position: common.Vec3{2.25, 2, 0}, Edge: 6, Poly: 2},
		{Position: dest, Edge: NoIndex, Poly: 2},
	}
	if path.Len() != len(want) {
		t.Fatalf("expected %d waypoints, got %+v", len(want), path.Nodes())
	}
	for i, w := range want {
		got := path.At(i)
		if !near(got.Position, w.Position) || got.Edge != w.Edge || got.Poly != w.Poly {
			t.Fatalf("waypoint %d: got %+v, want %+v", i, got, w)
		}
	}
}

func TestSmoothPathStraight(t *testing.T) {
	m := loadLevel(t, "square.nav")
	s := prepared(m)
	path := NewPath(DefaultPathCapacity)

	start := common.Vec3{1.5, 0.5, 0}
	dest := common.Vec3{0.5, 1.5, 0}
	if err := s.Solve(m, start, dest, m.Poly(0), m.Poly(1), path); err != nil {
		t.Fatal(err)
	}
	s.SmoothPath(m, path, start, dest, 0.25)

	if path.Len() != 2 {
		t.Fatalf("expected a straight line, got %+v", path.Nodes())
	}
	if path.At(0).Position != start || path.At(1).Position != dest {
		t.Fatalf("endpoints not preserved: %+v", path.Nodes())
	}
	if path.At(0).Poly != 0 || path.At(1).Poly != 1 {
		t.Fatalf("unexpected polys: %+v", path.Nodes())
	}
}

func TestSmoothPathEmpty(t *testing.T) {
	m := loadLevel(t, "square.nav")
	path := NewPath(4)
	prepared(m).SmoothPath(m, path, common.Vec3{}, common.Vec3{1, 1, 0}, 0.25)
	if path.Len() != 0 {
		t.Fatalf("empty path should stay empty")
	}
}

func segmentsTouch(p, q, a, b common.Vec3) bool {
	const eps = 1e-12
	fp, fq, fa, fb := common.Flat(p), common.Flat(q), common.Flat(a), common.Flat(b)
	if common.SegmentsCross(fp, fq, fa, fb) {
		return true
	}
	return common.SegmentDistSq(fp, fa, fb) < eps ||
		common.SegmentDistSq(fq, fa, fb) < eps ||
		common.SegmentDistSq(fa, fp, fq) < eps ||
		common.SegmentDistSq(fb, fp, fq) < eps
}

func TestSmoothPathStaysInPortals(t *testing.T) {
	m := loadLevel(t, "yard.nav")
	s := prepared(m)
	coarse := NewPath(DefaultPathCapacity)
	smooth := NewPath(DefaultPathCapacity)
	const radius = 0.25

	pairs := [][2]common.Vec3{
		{{3, 3, 0}, {9, 3, 0}},
		{{5, 1, 0}, {9, 7, 0}},
		{{1, 7, 0}, {11, 1, 0}},
		{{5, 7, 0}, {5, 1, 0}},
	}

	for _, pair := range pairs {
		start, dest := pair[0], pair[1]
		if err := s.Solve(m, start, dest, polyAt(t, m, start), polyAt(t, m, dest), coarse); err != nil {
			t.Fatalf("%v -> %v: %v", start, dest, err)
		}
		smooth.Clear()
		for _, n := range coarse.Nodes() {
			_ = smooth.Append(n.Position, n.Edge, n.Poly)
		}
		s.SmoothPath(m, smooth, start, dest, radius)

		if smooth.At(0).Position != start || smooth.At(smooth.Len()-1).Position != dest {
			t.Fatalf("%v -> %v: endpoints not preserved", start, dest)
		}

		// Every crossed edge is passed inside its inset portal.
		for _, n := range coarse.Nodes()[:coarse.Len()-1] {
			e := m.Edges[n.Edge]
			a, b := m.Vertices[e.Verts[0]], m.Vertices[e.Verts[1]]
			u := common.Norm(a.Sub(b)).Mul(radius)
			l, r := b.Add(u), a.Sub(u)

			passed := false
			for i := 1; i < smooth.Len() && !passed; i++ {
				passed = segmentsTouch(smooth.At(i-1).Position, smooth.At(i).Position, l, r)
			}
			if !passed {
				t.Fatalf("%v -> %v: edge %d crossed outside its portal: %+v", start, dest, n.Edge, smooth.Nodes())
			}
		}

		// No segment cuts through a wall.
		for _, e := range m.Edges {
			if _, ok := e.Neighbor(); ok {
				continue
			}
			a, b := common.Flat(m.Vertices[e.Verts[0]]), common.Flat(m.Vertices[e.Verts[1]])
			for i := 1; i < smooth.Len(); i++ {
				p, q := common.Flat(smooth.At(i-1).Position), common.Flat(smooth.At(i).Position)
				if common.SegmentsCross(p, q, a, b) {
					t.Fatalf("%v -> %v: segment %d crosses wall %v-%v", start, dest, i, a, b)
				}
			}
		}
	}
}

func TestSmoothPathTruncates(t *testing.T) {
	m := loadLevel(t, "yard.nav")
	s := prepared(m)
	coarse := NewPath(DefaultPathCapacity)

	start, dest := common.Vec3{3, 3, 0}, common.Vec3{9, 3, 0}
	if err := s.Solve(m, start, dest, polyAt(t, m, start), polyAt(t, m, dest), coarse); err != nil {
		t.Fatal(err)
	}
	if coarse.Len() < 3 {
		t.Fatalf("expected a detour around the pillar, got %d nodes", coarse.Len())
	}

	small := NewPath(2)
	for _, n := range coarse.Nodes()[:2] {
		_ = small.Append(n.Position, n.Edge, n.Poly)
	}
	s.SmoothPath(m, small, start, dest, 0.25)
	if small.Len() > small.Cap() {
		t.Fatalf("smoothed path exceeded capacity")
	}
	if small.At(small.Len()-1).Position != dest {
		t.Fatalf("truncated path must still end on dest")
	}
}

func TestHeuristicWeightDefault(t *testing.T) {
	s := &Solver{}
	if s.weight() != DefaultHeuristicWeight {
		t.Fatalf("zero weight should fall back to %v", DefaultHeuristicWeight)
	}
	s.HeuristicWeight = 1
	if s.weight() != 1 {
		t.Fatalf("explicit weight ignored")
	}
}

// stairs is two rows of unit cells, offset by one:
//
//	   [3][4][5]
//	[0][1][2]
//
// Cells 2 and 3 both border cell 4, so the search reaches 4 twice.
const stairs = `version: 1
vertex_count: 13
edge_count: 24
poly_count: 6
vertices:
0, 0, 0
1, 0, 0
1, 1, 0
0, 1, 0
2, 0, 0
2, 1, 0
3, 0, 0
3, 1, 0
2, 2, 0
1, 2, 0
3, 2, 0
4, 1, 0
4, 2, 0
edges:
-1, 0, 1, 1
1, 1, 2, 0
-1, 2, 3, 1
-1, 3, 0, 1
-1, 1, 4, 1
2, 4, 5, 0
3, 5, 2, 0
0, 2, 1, 0
-1, 4, 6, 1
-1, 6, 7, 1
4, 7, 5, 0
1, 5, 4, 0
1, 2, 5, 0
4, 5, 8, 0
-1, 8, 9, 1
-1, 9, 2, 1
2, 5, 7, 0
5, 7, 10, 0
-1, 10, 8, 1
3, 8, 5, 0
-1, 7, 11, 1
-1, 11, 12, 1
-1, 12, 10, 1
4, 10, 7, 0
polys:
0, 4
0, 0, 1
4, 4
0, 0, 1
8, 4
0, 0, 1
12, 4
0, 0, 1
16, 4
0, 0, 1
20, 4
0, 0, 1
`

// openNode returns the pool slot left for poly by the last search.
func openNode(t *testing.T, s *Solver, poly int) searchNode {
	t.Helper()
	for _, n := range s.pool {
		if n.poly == poly {
			return n
		}
	}
	t.Fatalf("poly %d never reached", poly)
	return searchNode{}
}

func TestSolveHeuristicWeightPicksRoute(t *testing.T) {
	m, err := navmesh.Load(strings.NewReader(stairs))
	if err != nil {
		t.Fatal(err)
	}
	start := common.Vec3{0.5, 0.5, 0}
	end := common.Vec3{3.5, 1.5, 0}

	cases := []struct {
		name   string
		weight float64
		polys  []int
		edges  []int
		// cell 4's final parent and cost
		parent int
		cost   float64
	}{
		// 3 is expanded first and reaches 4 at 8.168; 2 then finds a
		// cheaper 7.821 and takes 4 over.
		{"weight_1", 1, []int{1, 2, 4, 5}, []int{1, 5, 10, 17}, 2, 7.820499},
		// 2 is expanded first and reaches 4 at 10.627; 3 then reaches it
		// at 11.295 and still takes it over.
		{"weight_1.5", 1.5, []int{1, 3, 4, 5}, []int{1, 6, 13, 17}, 3, 11.295416},
		{"default", 0, []int{1, 3, 4, 5}, []int{1, 6, 13, 17}, 3, 11.295416},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := prepared(m)
			s.HeuristicWeight = c.weight
			path := NewPath(DefaultPathCapacity)
			if err := s.Solve(m, start, end, m.Poly(0), m.Poly(5), path); err != nil {
				t.Fatalf("Solve: %v", err)
			}

			if path.Len() != len(c.polys)+1 {
				t.Fatalf("expected %d nodes, got %+v", len(c.polys)+1, path.Nodes())
			}
			for i := range c.polys {
				n := path.At(i)
				if n.Poly != c.polys[i] || n.Edge != c.edges[i] {
					t.Fatalf("node %d = poly %d edge %d, want poly %d edge %d", i, n.Poly, n.Edge, c.polys[i], c.edges[i])
				}
			}
			if last := path.At(path.Len() - 1); last.Position != end || last.Edge != NoIndex {
				t.Fatalf("unexpected last node %+v", last)
			}

			cell := openNode(t, s, 4)
			if got := s.pool[cell.parent].poly; got != c.parent {
				t.Fatalf("cell 4 parent = %d, want %d", got, c.parent)
			}
			if math.Abs(cell.cost-c.cost) > 1e-5 {
				t.Fatalf("cell 4 cost = %v, want %v", cell.cost, c.cost)
			}
		})
	}
}

func TestOpenListReinsertMovesNode(t *testing.T) {
	s := &Solver{head: none}
	for i, cost := range []float64{1, 2, 3} {
		s.pool = append(s.pool, searchNode{poly: i, cost: cost, next: none})
		s.insert(i)
	}

	slot := s.unlink(0)
	if slot != 0 {
		t.Fatalf("unlink returned slot %d", slot)
	}
	s.pool[slot].cost = 2.5
	s.pool[slot].parent = 7
	s.insert(slot)

	var order []int
	for i := s.head; i != none; i = s.pool[i].next {
		order = append(order, s.pool[i].poly)
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 0 || order[2] != 2 {
		t.Fatalf("open list order = %v, want [1 0 2]", order)
	}
	if len(s.pool) != 3 || s.pool[0].parent != 7 {
		t.Fatalf("reinsert must reuse the slot")
	}

	// Equal costs queue behind existing entries.
	s.pool = append(s.pool, searchNode{poly: 3, cost: 2.5, next: none})
	s.insert(3)
	order = order[:0]
	for i := s.head; i != none; i = s.pool[i].next {
		order = append(order, s.pool[i].poly)
	}
	if order[1] != 0 || order[2] != 3 {
		t.Fatalf("tie order = %v, want 0 before 3", order)
	}
}
