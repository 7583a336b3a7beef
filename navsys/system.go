// Package navsys owns one navmesh and one solver and answers the ground,
// sight and path queries game logic asks of them.
package navsys

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/milk9111/navkit/common"
	"github.com/milk9111/navkit/levels"
	"github.com/milk9111/navkit/navmesh"
	"github.com/milk9111/navkit/pathfind"
	"github.com/milk9111/navkit/prefabs"
)

var ErrNoMesh = errors.New("navsys: no mesh loaded")

// lift raises query points above the floor before looking down for it.
var lift = common.Vec3{0, 0, 1}

type Hit struct {
	Poly     *navmesh.Poly
	Point    common.Vec3
	Distance float64
}

// System is single-threaded. Callers that share one across goroutines must
// serialize access themselves.
type System struct {
	DataPath string

	mesh     *navmesh.Mesh
	meshPath string
	solver   *pathfind.Solver
}

func New(dataPath string) *System {
	return &System{
		DataPath: dataPath,
		solver:   pathfind.NewSolver(),
	}
}

// Configure applies a navigation spec and loads its mesh, if any.
func (s *System) Configure(spec *prefabs.NavigationSpec) error {
	s.DataPath = spec.DataPath
	s.solver.HeuristicWeight = spec.Solver.HeuristicWeight
	if spec.Mesh == "" {
		return nil
	}
	return s.LoadMesh(spec.Mesh)
}

func (s *System) Mesh() *navmesh.Mesh {
	return s.mesh
}

// MeshPath is the path passed to the last successful LoadMesh.
func (s *System) MeshPath() string {
	return s.meshPath
}

func (s *System) Solver() *pathfind.Solver {
	return s.solver
}

// SetMesh installs an already loaded mesh.
func (s *System) SetMesh(m *navmesh.Mesh) {
	s.mesh = m
	s.meshPath = ""
	if m != nil {
		s.solver.Prepare(m)
	}
}

func (s *System) resolve(path string) string {
	if s.DataPath == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.DataPath, path)
}

// embedded reports whether path names a built-in level. Only bare names
// load from the embedded set, and only when no DataPath is configured.
func (s *System) embedded(path string) bool {
	return s.DataPath == "" && levels.Has(path)
}

// LoadMesh replaces the current mesh. An empty path unloads it. On failure,
// including a missing file, the error is logged and returned and the System
// is left without a mesh.
func (s *System) LoadMesh(path string) error {
	s.mesh = nil
	s.meshPath = ""
	if path == "" {
		return nil
	}

	var (
		m    *navmesh.Mesh
		err  error
		full = s.resolve(path)
	)
	if s.embedded(path) {
		m, err = navmesh.LoadFS(levels.LevelsFS, path)
	} else {
		m, err = navmesh.LoadFile(full)
	}
	if err != nil {
		log.Printf("navsys: load %s: %v", full, err)
		return fmt.Errorf("navsys: load %s: %w", full, err)
	}

	s.mesh = m
	s.meshPath = path
	s.solver.Prepare(m)
	return nil
}

// Raycast finds the closest polygon hit by ray.
func (s *System) Raycast(ray common.Ray) (Hit, bool) {
	if s.mesh == nil {
		return Hit{}, false
	}
	p, t, ok := s.mesh.Raycast(ray)
	if !ok {
		return Hit{}, false
	}
	return Hit{Poly: p, Point: ray.Slide(t), Distance: t}, true
}

// Ground finds the polygon under p, looking down from one unit above it.
func (s *System) Ground(p common.Vec3) (Hit, bool) {
	return s.Raycast(common.NewRay(p.Add(lift), common.Down))
}

// LineIntersectsSolid reports whether walking or looking from start to end
// is blocked. The segment first must not hit the floor before its end, then
// its ground projection must not cross a solid edge of the polygon found
// height units above start (or end when nothing lies below start).
//
// start and end are floor positions. The downward casts begin height units
// above them rather than at the points themselves, so passing eye positions
// looks for the floor polygon height units too high.
func (s *System) LineIntersectsSolid(start, end common.Vec3, height float64) bool {
	if s.mesh == nil {
		return false
	}

	seg := end.Sub(start)
	if lenSq := common.LenSq(seg); lenSq > 0 {
		if _, t, ok := s.mesh.Raycast(common.NewRay(start, seg)); ok && t*t < lenSq {
			return true
		}
	}

	up := common.Vec3{0, 0, height}
	poly, _, ok := s.mesh.Raycast(common.NewRay(start.Add(up), common.Down))
	if !ok {
		poly, _, ok = s.mesh.Raycast(common.NewRay(end.Add(up), common.Down))
		if !ok {
			return false
		}
	}

	return s.mesh.LineEdgeCast(poly, common.Flat(start), common.Flat(end), navmesh.EdgeSolid)
}

// FindPath localizes start and dest on the mesh and writes a smoothed path
// into path. Points on the same polygon produce the single waypoint dest.
func (s *System) FindPath(start, dest common.Vec3, radius float64, path *pathfind.Path) error {
	path.Clear()
	if s.mesh == nil {
		return ErrNoMesh
	}

	from, ok := s.Ground(start)
	if !ok {
		return fmt.Errorf("navsys: find path: start %v: %w", start, pathfind.ErrNoPolygon)
	}
	to, ok := s.Ground(dest)
	if !ok {
		return fmt.Errorf("navsys: find path: dest %v: %w", dest, pathfind.ErrNoPolygon)
	}

	if from.Poly == to.Poly {
		return path.Append(dest, pathfind.NoIndex, to.Poly.Index)
	}

	if err := s.solver.Solve(s.mesh, start, dest, from.Poly, to.Poly, path); err != nil {
		return err
	}
	s.solver.SmoothPath(s.mesh, path, start, dest, radius)
	return nil
}

// PollReload drains pending watcher notifications without blocking and
// reloads the mesh when its file changed. It reports whether a reload ran.
func (s *System) PollReload(w *prefabs.Watcher) bool {
	if w == nil || s.meshPath == "" {
		return false
	}

	current := filepath.Base(s.resolve(s.meshPath))
	changed := false
	for {
		select {
		case c, ok := <-w.Changes:
			if !ok {
				return s.reload(changed)
			}
			if c.Kind == prefabs.KindMesh && strings.EqualFold(filepath.Base(c.Path), current) {
				changed = true
			}
		case err, ok := <-w.Errors:
			if !ok {
				return s.reload(changed)
			}
			log.Printf("navsys: watch: %v", err)
		default:
			return s.reload(changed)
		}
	}
}

func (s *System) reload(changed bool) bool {
	if !changed {
		return false
	}
	path := s.meshPath
	log.Printf("navsys: reloading %s", path)
	if err := s.LoadMesh(path); err != nil {
		// Keep watching the same file so a fixed save reloads it.
		s.meshPath = path
	}
	return true
}
