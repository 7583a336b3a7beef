package prefabs

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/milk9111/navkit/pathfind"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSpec = errors.New("prefabs: invalid spec")

const NavigationFile = "navigation.yaml"

const (
	DefaultAgentRadius = 0.25
	DefaultAgentHeight = 1.0
	DefaultServerAddr  = "127.0.0.1:8077"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

type NavigationSpec struct {
	DataPath string     `yaml:"data_path"`
	Mesh     string     `yaml:"mesh"`
	Solver   SolverSpec `yaml:"solver"`
	Agent    AgentSpec  `yaml:"agent"`
	Watch    bool       `yaml:"watch"`
	Server   ServerSpec `yaml:"server"`
	Viewer   ViewerSpec `yaml:"viewer"`
}

type SolverSpec struct {
	HeuristicWeight float64 `yaml:"heuristic_weight"`
	PathCapacity    int     `yaml:"path_capacity"`
}

type AgentSpec struct {
	Name   string  `yaml:"name"`
	Radius float64 `yaml:"radius"`
	Height float64 `yaml:"height"`
}

type ServerSpec struct {
	Addr string `yaml:"addr"`
}

type ViewerSpec struct {
	Scale      float64    `yaml:"scale"`
	Background *YAMLColor `yaml:"background"`
	Edge       *YAMLColor `yaml:"edge"`
	Solid      *YAMLColor `yaml:"solid"`
	Path       *YAMLColor `yaml:"path"`
}

// LoadNavigationSpec reads name from the prefabs directory (or the embedded
// copy) and validates it.
func LoadNavigationSpec(name string) (*NavigationSpec, error) {
	if name == "" {
		name = NavigationFile
	}
	spec, err := LoadSpec[NavigationSpec](name)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", name, err)
	}
	return &spec, nil
}

// ReadNavigationSpec reads a spec from an explicit file path.
func ReadNavigationSpec(path string) (*NavigationSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prefabs: load %s: %w", path, err)
	}
	var spec NavigationSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("prefabs: unmarshal %s: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", path, err)
	}
	return &spec, nil
}

// Validate fills unset fields with defaults and rejects negative values.
func (s *NavigationSpec) Validate() error {
	switch {
	case s.Solver.HeuristicWeight < 0:
		return fmt.Errorf("%w: solver.heuristic_weight %v", ErrInvalidSpec, s.Solver.HeuristicWeight)
	case s.Solver.PathCapacity < 0:
		return fmt.Errorf("%w: solver.path_capacity %d", ErrInvalidSpec, s.Solver.PathCapacity)
	case s.Agent.Radius < 0:
		return fmt.Errorf("%w: agent.radius %v", ErrInvalidSpec, s.Agent.Radius)
	case s.Agent.Height < 0:
		return fmt.Errorf("%w: agent.height %v", ErrInvalidSpec, s.Agent.Height)
	}

	if s.Solver.HeuristicWeight == 0 {
		s.Solver.HeuristicWeight = pathfind.DefaultHeuristicWeight
	}
	if s.Solver.PathCapacity == 0 {
		s.Solver.PathCapacity = pathfind.DefaultPathCapacity
	}
	if s.Agent.Radius == 0 {
		s.Agent.Radius = DefaultAgentRadius
	}
	if s.Agent.Height == 0 {
		s.Agent.Height = DefaultAgentHeight
	}
	if s.Server.Addr == "" {
		s.Server.Addr = DefaultServerAddr
	}
	if s.Viewer.Scale <= 0 {
		s.Viewer.Scale = 48
	}
	return nil
}

type YAMLColor struct {
	color.Color
}

// Or returns c, or fallback when c was not set.
func (c *YAMLColor) Or(fallback color.Color) color.Color {
	if c == nil || c.Color == nil {
		return fallback
	}
	return c.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
