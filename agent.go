package main

import (
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/milk9111/navkit/common"
	"github.com/milk9111/navkit/navmesh"
	"github.com/milk9111/navkit/navsys"
	"github.com/milk9111/navkit/pathfind"
	"github.com/milk9111/navkit/prefabs"
	"golang.org/x/image/colornames"
)

// agentState is implemented by each state of the walking agent.
type agentState interface {
	Enter(a *Agent)
	Update(a *Agent)
	Name() string
}

// arriveDist is how close a waypoint must be before the next one is taken.
const arriveDist = 0.05

func (a *Agent) setState(s agentState) {
	a.state = s
	a.state.Enter(a)
}

type idleState struct{}

func (idleState) Name() string    { return "idle" }
func (idleState) Enter(a *Agent)  { a.path.Clear() }
func (idleState) Update(a *Agent) {}

type walkingState struct{}

func (walkingState) Name() string { return "walking" }
func (walkingState) Enter(a *Agent) {
	a.next = 1
}
func (walkingState) Update(a *Agent) {
	step := a.Speed / float64(ebiten.TPS())
	for step > 0 && a.next < a.path.Len() {
		target := a.path.At(a.next).Position
		d := common.Dist(a.Pos, target)
		if d <= step || d < arriveDist {
			a.Pos = target
			step -= d
			a.next++
			continue
		}
		a.Pos = common.Lerp(a.Pos, target, step/d)
		step = 0
	}
	if a.next >= a.path.Len() {
		a.setState(stateIdle)
	}
}

type stuckState struct{}

func (stuckState) Name() string { return "stuck" }
func (stuckState) Enter(a *Agent) {
	a.path.Clear()
}
func (stuckState) Update(a *Agent) {}

var (
	stateIdle    agentState = idleState{}
	stateWalking agentState = walkingState{}
	stateStuck   agentState = stuckState{}
)

// Agent walks a navmesh along smoothed paths.
type Agent struct {
	Name   string
	Pos    common.Vec3
	Radius float64
	Height float64
	Speed  float64

	sys   *navsys.System
	path  *pathfind.Path
	next  int
	dest  common.Vec3
	err   error
	state agentState
}

func NewAgent(sys *navsys.System, spec prefabs.AgentSpec, capacity int) *Agent {
	a := &Agent{
		Name:   spec.Name,
		Radius: spec.Radius,
		Height: spec.Height,
		Speed:  4,
		sys:    sys,
		path:   pathfind.NewPath(capacity),
	}
	a.setState(stateIdle)
	return a
}

// Place puts the agent on the floor under p.
func (a *Agent) Place(p common.Vec3) bool {
	hit, ok := a.sys.Ground(p)
	if !ok {
		return false
	}
	a.Pos = hit.Point
	a.err = nil
	a.setState(stateIdle)
	return true
}

// MoveTo plans a path to dest and starts walking it.
func (a *Agent) MoveTo(dest common.Vec3) {
	a.dest = dest
	if err := a.sys.FindPath(a.Pos, dest, a.Radius, a.path); err != nil {
		log.Printf("agent %s: move to %v: %v", a.Name, dest, err)
		a.err = err
		a.setState(stateStuck)
		return
	}
	a.err = nil
	// FindPath leaves the start out when both ends share a polygon.
	if a.path.Len() == 1 {
		one := a.path.At(0)
		a.path.Clear()
		_ = a.path.Append(a.Pos, pathfind.NoIndex, one.Poly)
		_ = a.path.Append(one.Position, one.Edge, one.Poly)
	}
	a.setState(stateWalking)
}

func (a *Agent) Stop() {
	a.setState(stateIdle)
}

func (a *Agent) Update() {
	a.state.Update(a)
}

// Remaining is the part of the path still ahead of the agent.
func (a *Agent) Remaining() []navmesh.Line {
	if a.state != stateWalking || a.next >= a.path.Len() {
		return nil
	}
	out := []navmesh.Line{{A: a.Pos, B: a.path.At(a.next).Position}}
	for i := a.next + 1; i < a.path.Len(); i++ {
		out = append(out, navmesh.Line{A: a.path.At(i - 1).Position, B: a.path.At(i).Position})
	}
	return out
}

func (a *Agent) Draw(screen *ebiten.Image, lvl *Level) {
	lvl.DrawCircle(screen, a.Pos, a.Radius, colornames.Gold)
	if a.state == stateStuck {
		lvl.DrawCircle(screen, a.dest, a.Radius, colornames.Red)
	}

	status := fmt.Sprintf("%s: %s  waypoints: %d", a.Name, a.state.Name(), a.path.Len())
	if a.err != nil {
		status += "  " + a.err.Error()
	}
	ebitenutil.DebugPrintAt(screen, status, 0, 20)
}
