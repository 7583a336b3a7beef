package main

import (
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/navkit/common"
	"github.com/milk9111/navkit/navsys"
	"github.com/milk9111/navkit/prefabs"
	"golang.org/x/image/colornames"
)

const (
	baseWidth  = 1280
	baseHeight = 720
)

type Game struct {
	frames int
	debug  bool

	sys     *navsys.System
	spec    *prefabs.NavigationSpec
	watcher *prefabs.Watcher
	level   *Level
	agent   *Agent
	panel   *Panel

	background color.Color
	edge       color.Color
	solid      color.Color
	pathColor  color.Color
}

func NewGame(sys *navsys.System, spec *prefabs.NavigationSpec, watcher *prefabs.Watcher, debug bool) *Game {
	g := &Game{
		debug:      debug,
		sys:        sys,
		spec:       spec,
		watcher:    watcher,
		background: spec.Viewer.Background.Or(color.NRGBA{R: 0x1b, G: 0x1d, B: 0x23, A: 0xff}),
		edge:       spec.Viewer.Edge.Or(colornames.Gray),
		solid:      spec.Viewer.Solid.Or(colornames.Indianred),
		pathColor:  spec.Viewer.Path.Or(colornames.Yellowgreen),
	}
	g.agent = NewAgent(sys, spec.Agent, spec.Solver.PathCapacity)
	g.panel = NewPanel(g)
	g.rebuildLevel()
	return g
}

// rebuildLevel reframes the view and respawns the agent after the mesh changes.
func (g *Game) rebuildLevel() {
	mesh := g.sys.Mesh()
	g.level = NewLevel(mesh, baseWidth-panelWidth, baseHeight, g.spec.Viewer.Scale)
	g.panel.SetMesh(g.sys.MeshPath())
	if mesh.PolyCount() == 0 {
		g.agent.Stop()
		return
	}
	if g.agent.Place(g.agent.Pos) {
		return
	}
	// The agent fell off the new mesh; drop it in the middle of the first polygon.
	loop := mesh.Loop(mesh.Poly(0))
	var spawn common.Vec3
	for _, v := range loop {
		spawn = spawn.Add(v)
	}
	g.agent.Place(spawn.Mul(1 / float64(len(loop))))
}

func (g *Game) reloadMesh() {
	path := g.sys.MeshPath()
	if path == "" {
		return
	}
	if err := g.sys.LoadMesh(path); err != nil {
		log.Printf("reload %s: %v", path, err)
		return
	}
	g.rebuildLevel()
}

func (g *Game) Update() error {
	g.frames++

	g.panel.UI.Update()

	if g.watcher != nil && g.sys.PollReload(g.watcher) {
		g.rebuildLevel()
	}

	x, y := ebiten.CursorPosition()
	if x < baseWidth-panelWidth-20 {
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			g.agent.MoveTo(g.level.ToWorld(x, y, g.agent.Pos.Z()))
		}
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
			if !g.agent.Place(g.level.ToWorld(x, y, g.agent.Pos.Z()+g.agent.Height)) {
				log.Printf("no floor under %d,%d", x, y)
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.debug = !g.debug
	}

	g.agent.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.background)

	g.level.Draw(screen, g.edge, g.solid)
	g.level.DrawLines(screen, g.agent.Remaining(), 2, g.pathColor)
	g.agent.Draw(screen, g.level)

	ebitenutil.DebugPrint(screen, fmt.Sprintf("Frames: %d    FPS: %.2f", g.frames, ebiten.ActualFPS()))
	if g.debug {
		g.drawDebug(screen)
	}

	g.panel.UI.Draw(screen)
}

func (g *Game) drawDebug(screen *ebiten.Image) {
	mesh := g.sys.Mesh()
	if mesh == nil {
		return
	}
	st := mesh.Stats()
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("verts: %d  edges: %d  polys: %d  solid: %d",
		st.Vertices, st.Edges, st.Polys, st.SolidEdges), 0, 40)

	x, y := ebiten.CursorPosition()
	w := g.level.ToWorld(x, y, g.agent.Pos.Z()+g.agent.Height)
	label := fmt.Sprintf("cursor: %.2f, %.2f", w.X(), w.Y())
	if hit, ok := g.sys.Ground(w); ok {
		label += fmt.Sprintf("  poly %d", hit.Poly.Index)
		if g.sys.LineIntersectsSolid(g.agent.Pos, hit.Point, g.agent.Height) {
			label += "  blocked"
		}
	}
	ebitenutil.DebugPrintAt(screen, label, 0, 60)
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
