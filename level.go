package main

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/navkit/common"
	"github.com/milk9111/navkit/navmesh"
)

const levelMargin = 40

// Level maps a navmesh onto the screen. World y grows up, screen y grows down.
type Level struct {
	mesh  *navmesh.Mesh
	lines []navmesh.Line

	scale   float64
	offsetX float64
	offsetY float64
}

// NewLevel frames the mesh bounds in a width x height view, never zooming
// past maxScale pixels per world unit.
func NewLevel(mesh *navmesh.Mesh, width, height, maxScale float64) *Level {
	l := &Level{mesh: mesh, scale: maxScale}
	if mesh == nil || len(mesh.Vertices) == 0 {
		return l
	}
	l.lines = mesh.DebugLines()

	bb := mesh.Stats().Bounds
	w := math.Max(bb.R-bb.L, 1e-6)
	h := math.Max(bb.T-bb.B, 1e-6)
	l.scale = math.Min(maxScale, math.Min((width-2*levelMargin)/w, (height-2*levelMargin)/h))

	center := bb.Center()
	l.offsetX = width/2 - center.X*l.scale
	l.offsetY = height/2 + center.Y*l.scale
	return l
}

func (l *Level) ToScreen(v common.Vec3) (float32, float32) {
	return float32(l.offsetX + v.X()*l.scale), float32(l.offsetY - v.Y()*l.scale)
}

// ToWorld returns the ground-plane point under a screen position at height z.
func (l *Level) ToWorld(x, y int, z float64) common.Vec3 {
	return common.Vec3{
		(float64(x) - l.offsetX) / l.scale,
		(l.offsetY - float64(y)) / l.scale,
		z,
	}
}

func (l *Level) Draw(screen *ebiten.Image, edge, solid color.Color) {
	for _, ln := range l.lines {
		x0, y0 := l.ToScreen(ln.A)
		x1, y1 := l.ToScreen(ln.B)
		if ln.Solid {
			vector.StrokeLine(screen, x0, y0, x1, y1, 2, solid, true)
		} else {
			vector.StrokeLine(screen, x0, y0, x1, y1, 1, edge, true)
		}
	}
}

// DrawLines strokes arbitrary world-space segments, such as a path.
func (l *Level) DrawLines(screen *ebiten.Image, lines []navmesh.Line, width float32, clr color.Color) {
	for _, ln := range lines {
		x0, y0 := l.ToScreen(ln.A)
		x1, y1 := l.ToScreen(ln.B)
		vector.StrokeLine(screen, x0, y0, x1, y1, width, clr, true)
	}
}

// DrawCircle outlines a world-space circle on the ground plane.
func (l *Level) DrawCircle(screen *ebiten.Image, center common.Vec3, radius float64, clr color.Color) {
	const segments = 24
	px, py := l.ToScreen(center.Add(common.Vec3{radius, 0, 0}))
	for i := 1; i <= segments; i++ {
		t := 2 * math.Pi * float64(i) / segments
		x, y := l.ToScreen(center.Add(common.Vec3{math.Cos(t) * radius, math.Sin(t) * radius, 0}))
		vector.StrokeLine(screen, px, py, x, y, 1.5, clr, true)
		px, py = x, y
	}
}
