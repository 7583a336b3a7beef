package navmesh

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/milk9111/navkit/common"
)

const (
	supportedVersion = 1

	ExtText     = ".nav"
	ExtSnapshot = ".navpack"
)

// LoadFile reads a mesh from disk, picking the decoder by extension.
func LoadFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("navmesh: load %s: %w", path, err)
	}
	defer f.Close()

	m, err := decode(path, f)
	if err != nil {
		return nil, fmt.Errorf("navmesh: load %s: %w", path, err)
	}
	return m, nil
}

// LoadFS is LoadFile over an fs.FS such as the embedded levels.
func LoadFS(fsys fs.FS, name string) (*Mesh, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("navmesh: load %s: %w", name, err)
	}
	defer f.Close()

	m, err := decode(name, f)
	if err != nil {
		return nil, fmt.Errorf("navmesh: load %s: %w", name, err)
	}
	return m, nil
}

func decode(name string, r io.Reader) (*Mesh, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtText:
		return Load(r)
	case ExtSnapshot:
		return ReadSnapshot(r)
	default:
		return nil, ErrUnknownFormat
	}
}

type section int

const (
	sectionHeader section = iota
	sectionVertices
	sectionEdges
	sectionPolys
)

type parser struct {
	sc   *bufio.Scanner
	line int

	vertCount int
	edgeCount int
	polyCount int

	read map[section]bool
	mesh *Mesh
}

// Load parses the version 1 text format. On any error no mesh is returned.
func Load(r io.Reader) (*Mesh, error) {
	p := &parser{
		sc:        bufio.NewScanner(r),
		vertCount: -1,
		edgeCount: -1,
		polyCount: -1,
		read:      map[section]bool{},
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	if err := finalize(p.mesh); err != nil {
		return nil, err
	}
	return p.mesh, nil
}

func (p *parser) run() error {
	for {
		line, ok := p.next()
		if !ok {
			break
		}

		key, value, _ := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if p.mesh != nil && strings.HasSuffix(key, "_count") {
			return p.errorf("%s after geometry", key)
		}

		var err error
		switch key {
		case "version":
			var v int
			v, err = strconv.Atoi(value)
			if err == nil && v != supportedVersion {
				return fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
			}
		case "vertex_count":
			p.vertCount, err = p.count(value)
		case "edge_count":
			p.edgeCount, err = p.count(value)
		case "poly_count":
			p.polyCount, err = p.count(value)
		case "vertices":
			err = p.readSection(sectionVertices, p.readVertices)
		case "edges":
			err = p.readSection(sectionEdges, p.readEdges)
		case "polys":
			err = p.readSection(sectionPolys, p.readPolys)
		default:
			return p.errorf("unexpected %q", line)
		}
		if err != nil {
			return p.wrap(err)
		}
	}
	if err := p.sc.Err(); err != nil {
		return err
	}

	for _, s := range []section{sectionVertices, sectionEdges, sectionPolys} {
		if !p.read[s] {
			return fmt.Errorf("%w: missing section", ErrMalformed)
		}
	}
	return nil
}

// next returns the next line that is not blank or a comment.
func (p *parser) next() (string, bool) {
	for p.sc.Scan() {
		p.line++
		line := strings.TrimSpace(p.sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, true
	}
	return "", false
}

func (p *parser) count(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}

func (p *parser) readSection(s section, fn func() error) error {
	if p.vertCount < 0 || p.edgeCount < 0 || p.polyCount < 0 {
		return ErrMissingCounts
	}
	if p.read[s] {
		return fmt.Errorf("duplicate section")
	}
	if p.mesh == nil {
		p.mesh = &Mesh{
			Vertices: make([]common.Vec3, p.vertCount),
			Edges:    make([]Edge, p.edgeCount),
			Polys:    make([]Poly, p.polyCount),
		}
	}
	p.read[s] = true
	return fn()
}

func (p *parser) readVertices() error {
	for i := range p.mesh.Vertices {
		f, err := p.floats(3)
		if err != nil {
			return err
		}
		p.mesh.Vertices[i] = common.Vec3{f[0], f[1], f[2]}
	}
	return nil
}

func (p *parser) readEdges() error {
	for i := range p.mesh.Edges {
		v, err := p.ints(4)
		if err != nil {
			return err
		}
		neighbor, a, b, solid := v[0], v[1], v[2], v[3]
		if neighbor < -1 || neighbor >= len(p.mesh.Polys) {
			return fmt.Errorf("edge %d: neighbor %d out of range", i, neighbor)
		}
		if a < 0 || a >= len(p.mesh.Vertices) || b < 0 || b >= len(p.mesh.Vertices) {
			return fmt.Errorf("edge %d: vertex out of range", i)
		}

		e := Edge{Verts: [2]int{a, b}}
		if neighbor >= 0 {
			e.neighbor = neighbor
			e.linked = true
		}
		if solid != 0 {
			e.Flags |= EdgeSolid
		}
		p.mesh.Edges[i] = e
	}
	return nil
}

func (p *parser) readPolys() error {
	for i := range p.mesh.Polys {
		r, err := p.ints(2)
		if err != nil {
			return err
		}
		start, count := r[0], r[1]
		if start < 0 || count < 3 || start+count > len(p.mesh.Edges) {
			return fmt.Errorf("poly %d: edge range %d+%d invalid", i, start, count)
		}

		n, err := p.floats(3)
		if err != nil {
			return err
		}
		p.mesh.Polys[i] = Poly{
			Index:     i,
			EdgeStart: start,
			EdgeCount: count,
			Plane:     common.Plane{Normal: common.Vec3{n[0], n[1], n[2]}},
		}
	}
	return nil
}

func (p *parser) fields(n int) ([]string, error) {
	line, ok := p.next()
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	parts := strings.Split(line, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d values, got %q", n, line)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func (p *parser) floats(n int) ([]float64, error) {
	parts, err := p.fields(n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i, s := range parts {
		if out[i], err = strconv.ParseFloat(s, 64); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *parser) ints(n int) ([]int, error) {
	parts, err := p.fields(n)
	if err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i, s := range parts {
		if out[i], err = strconv.Atoi(s); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return p.wrap(fmt.Errorf(format, args...))
}

func (p *parser) wrap(err error) error {
	if err == ErrMissingCounts {
		return fmt.Errorf("%w (line %d)", err, p.line)
	}
	return fmt.Errorf("%w: line %d: %v", ErrMalformed, p.line, err)
}

// finalize chains every polygon's edges into a loop, fixes its winding and
// derives the plane.
func finalize(m *Mesh) error {
	for i := range m.Polys {
		poly := &m.Polys[i]
		edges := m.PolyEdges(poly)
		if err := orderLoop(edges); err != nil {
			return fmt.Errorf("%w: poly %d", err, i)
		}
		if loopArea(m.Vertices, edges) < 0 {
			reverseLoop(edges)
		}

		normal := common.Norm(poly.Plane.Normal)
		if normal == (common.Vec3{}) {
			normal = newellNormal(m.Vertices, edges)
		}

		var center common.Vec3
		for _, e := range edges {
			center = center.Add(common.Midpoint(m.Vertices[e.Verts[0]], m.Vertices[e.Verts[1]]))
		}
		poly.Plane = common.Plane{
			Normal: normal,
			Point:  center.Mul(1 / float64(len(edges))),
		}
	}
	return nil
}

// orderLoop flips and, where needed, reorders edges so each one starts where
// the previous one ended.
func orderLoop(edges []Edge) error {
	first := edges[0]
	if first.Verts[0] == edges[1].Verts[0] || first.Verts[0] == edges[1].Verts[1] {
		first.flip()
	}

	work := make([]Edge, len(edges))
	copy(work, edges)
	work[0] = first
	if chainLoop(work) {
		copy(edges, work)
		return nil
	}

	copy(work, edges)
	work[0] = first
	work[0].flip()
	if chainLoop(work) {
		copy(edges, work)
		return nil
	}
	return ErrOpenLoop
}

func chainLoop(edges []Edge) bool {
	for k := 1; k < len(edges); k++ {
		end := edges[k-1].Verts[1]
		found := -1
		for j := k; j < len(edges); j++ {
			if edges[j].Verts[0] == end || edges[j].Verts[1] == end {
				found = j
				break
			}
		}
		if found < 0 {
			return false
		}
		edges[k], edges[found] = edges[found], edges[k]
		if edges[k].Verts[1] == end {
			edges[k].flip()
		}
	}
	return edges[len(edges)-1].Verts[1] == edges[0].Verts[0]
}

func reverseLoop(edges []Edge) {
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	for i := range edges {
		edges[i].flip()
	}
}

// loopArea is the signed ground-plane area; positive for counter-clockwise.
func loopArea(verts []common.Vec3, edges []Edge) float64 {
	var area float64
	for _, e := range edges {
		a := verts[e.Verts[0]]
		b := verts[e.Verts[1]]
		area += a.X()*b.Y() - b.X()*a.Y()
	}
	return area * 0.5
}

func newellNormal(verts []common.Vec3, edges []Edge) common.Vec3 {
	var n common.Vec3
	for _, e := range edges {
		a := verts[e.Verts[0]]
		b := verts[e.Verts[1]]
		n[0] += (a.Y() - b.Y()) * (a.Z() + b.Z())
		n[1] += (a.Z() - b.Z()) * (a.X() + b.X())
		n[2] += (a.X() - b.X()) * (a.Y() + b.Y())
	}
	return common.Norm(n)
}
