package prefabs

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/milk9111/navkit/pathfind"
	"gopkg.in/yaml.v3"
)

func TestLoadNavigationSpecEmbedded(t *testing.T) {
	spec, err := LoadNavigationSpec("")
	if err != nil {
		t.Fatalf("LoadNavigationSpec: %v", err)
	}
	if spec.Mesh != "yard.nav" || spec.DataPath != "levels" {
		t.Fatalf("unexpected mesh settings: %+v", spec)
	}
	if spec.Agent.Name != "walker" || spec.Agent.Radius != 0.25 {
		t.Fatalf("unexpected agent: %+v", spec.Agent)
	}
	if spec.Viewer.Solid.Or(color.Black) != (color.NRGBA{R: 0xe0, G: 0x6c, B: 0x75, A: 0xff}) {
		t.Fatalf("unexpected solid color %v", spec.Viewer.Solid)
	}
}

func TestNavigationFileKeysKnown(t *testing.T) {
	data, err := PrefabsFS.ReadFile(NavigationFile)
	if err != nil {
		t.Fatal(err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var spec NavigationSpec
	if err := dec.Decode(&spec); err != nil {
		t.Fatalf("%s has keys no field reads: %v", NavigationFile, err)
	}
}

func TestLoadNavigationSpecDiskOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "prefabs"), 0o755); err != nil {
		t.Fatal(err)
	}
	override := []byte("mesh: corridor.nav\nagent:\n  radius: 0.5\n")
	if err := os.WriteFile(filepath.Join(dir, "prefabs", NavigationFile), override, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	spec, err := LoadNavigationSpec(NavigationFile)
	if err != nil {
		t.Fatal(err)
	}
	if spec.Mesh != "corridor.nav" || spec.Agent.Radius != 0.5 {
		t.Fatalf("disk copy not preferred: %+v", spec)
	}
	if spec.Solver.PathCapacity != pathfind.DefaultPathCapacity {
		t.Fatalf("defaults not applied: %+v", spec.Solver)
	}
}

func TestReadNavigationSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.yaml")
	if err := os.WriteFile(path, []byte("solver:\n  heuristic_weight: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadNavigationSpec(path); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec, got %v", err)
	}
	if _, err := ReadNavigationSpec(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		spec NavigationSpec
		ok   bool
	}{
		{"empty", NavigationSpec{}, true},
		{"negative_radius", NavigationSpec{Agent: AgentSpec{Radius: -1}}, false},
		{"negative_height", NavigationSpec{Agent: AgentSpec{Height: -1}}, false},
		{"negative_capacity", NavigationSpec{Solver: SolverSpec{PathCapacity: -4}}, false},
		{"negative_weight", NavigationSpec{Solver: SolverSpec{HeuristicWeight: -1}}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.spec.Validate()
			if c.ok != (err == nil) {
				t.Fatalf("Validate() = %v, want ok=%v", err, c.ok)
			}
			if err != nil && !errors.Is(err, ErrInvalidSpec) {
				t.Fatalf("expected ErrInvalidSpec, got %v", err)
			}
		})
	}

	var spec NavigationSpec
	if err := spec.Validate(); err != nil {
		t.Fatal(err)
	}
	if spec.Agent.Radius != DefaultAgentRadius ||
		spec.Solver.HeuristicWeight != pathfind.DefaultHeuristicWeight ||
		spec.Solver.PathCapacity != pathfind.DefaultPathCapacity ||
		spec.Server.Addr != DefaultServerAddr {
		t.Fatalf("defaults not applied: %+v", spec)
	}
}

func TestYAMLColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.Color
		ok   bool
	}{
		{`"#ff8000"`, color.NRGBA{R: 0xff, G: 0x80, A: 0xff}, true},
		{`"10203040"`, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, true},
		{`"#fff"`, nil, false},
		{`"#zz0000"`, nil, false},
		{`[1, 2]`, nil, false},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			var got YAMLColor
			err := yaml.Unmarshal([]byte(c.in), &got)
			if c.ok != (err == nil) {
				t.Fatalf("unmarshal %s: %v", c.in, err)
			}
			if c.ok && got.Color != c.want {
				t.Fatalf("got %v, want %v", got.Color, c.want)
			}
		})
	}

	var unset *YAMLColor
	if unset.Or(color.White) != color.White {
		t.Fatalf("nil color should fall back")
	}
}

func TestLoadScript(t *testing.T) {
	names := ScriptNames()
	if len(names) < 2 {
		t.Fatalf("expected embedded scripts, got %v", names)
	}
	for _, name := range []string{"route.tengo", "scripts/route.tengo", "prefabs/scripts/route.tengo"} {
		if _, err := LoadScript(name); err != nil {
			t.Fatalf("LoadScript(%q): %v", name, err)
		}
	}
	if _, err := LoadScript("nope.tengo"); err == nil {
		t.Fatalf("expected error for unknown script")
	}
}

func TestWatcherFiltersAndDebounces(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	mesh := filepath.Join(dir, "floor.nav")
	if err := os.WriteFile(mesh, []byte("version: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-w.Changes:
		if c.Path != mesh || c.Kind != KindMesh {
			t.Fatalf("expected mesh change for %s, got %+v", mesh, c)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no change for mesh file")
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	for range w.Changes {
	}
}

func TestWatcherNestedDirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "zone", "east")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	script := filepath.Join(sub, "route.tengo")
	if err := os.WriteFile(script, []byte("result := 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-w.Changes:
			if c.Path == script && c.Kind == KindScript {
				return
			}
		case <-deadline:
			t.Fatalf("no change for nested script")
		}
	}
}

func TestKindOf(t *testing.T) {
	cases := map[string]FileKind{
		"a.nav":      KindMesh,
		"b.NAVPACK":  KindMesh,
		"c.yaml":     KindSpec,
		"d.yml":      KindSpec,
		"e.tengo":    KindScript,
		"f.txt":      KindOther,
		"g.nav.swp":  KindOther,
		"navigation": KindOther,
	}
	for name, want := range cases {
		if got := KindOf(name); got != want {
			t.Errorf("%s: kind = %v, want %v", name, got, want)
		}
	}
}
