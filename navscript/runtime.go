// Package navscript runs tengo scripts against a navigation system. Scripts
// see two globals: `nav`, the query functions, and `args`, the caller's
// inputs. Whatever they assign to `result` is handed back.
package navscript

import (
	"errors"
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/navkit/common"
	"github.com/milk9111/navkit/navsys"
	"github.com/milk9111/navkit/pathfind"
	"github.com/milk9111/navkit/prefabs"
)

var ErrNoSystem = errors.New("navscript: nil navigation system")

const defaultRadius = 0.25

// Runtime is one compiled script bound to a System. Like the System it is
// not safe for concurrent use.
type Runtime struct {
	name     string
	sys      *navsys.System
	compiled *tengo.Compiled
	engine   *tengo.ImmutableMap
	path     *pathfind.Path
}

// Load compiles a script from the prefabs scripts directory.
func Load(name string, sys *navsys.System) (*Runtime, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("navscript: load %s: %w", name, err)
	}
	return Compile(name, src, sys)
}

func Compile(name string, src []byte, sys *navsys.System) (*Runtime, error) {
	if sys == nil {
		return nil, ErrNoSystem
	}

	script := tengo.NewScript(src)
	_ = script.Add("nav", map[string]any{})
	_ = script.Add("args", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("navscript: compile %s: %w", name, err)
	}

	rt := &Runtime{
		name:     name,
		sys:      sys,
		compiled: compiled,
		path:     pathfind.NewPath(pathfind.DefaultPathCapacity),
	}
	rt.engine = rt.buildEngine()
	return rt, nil
}

func (rt *Runtime) Name() string {
	return rt.name
}

// Run executes the script once with args and returns its `result` global
// converted to plain Go values.
func (rt *Runtime) Run(args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	if err := rt.compiled.Set("nav", rt.engine); err != nil {
		return nil, err
	}
	if err := rt.compiled.Set("args", args); err != nil {
		return nil, fmt.Errorf("navscript: %s: args: %w", rt.name, err)
	}
	if err := rt.compiled.Run(); err != nil {
		return nil, fmt.Errorf("navscript: run %s: %w", rt.name, err)
	}
	if !rt.compiled.IsDefined("result") {
		return nil, nil
	}
	return rt.compiled.Get("result").Value(), nil
}

func (rt *Runtime) buildEngine() *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["poly_count"] = &tengo.UserFunction{Name: "poly_count", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(rt.sys.Mesh().PolyCount())}, nil
	}}

	values["raycast"] = &tengo.UserFunction{Name: "raycast", Value: func(args ...tengo.Object) (tengo.Object, error) {
		origin, rest, ok := vecArg(args)
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "origin", Expected: "vector", Found: typeName(args)}
		}
		dir := common.Down
		if len(rest) > 0 {
			if dir, _, ok = vecArg(rest); !ok {
				return nil, tengo.ErrInvalidArgumentType{Name: "dir", Expected: "vector", Found: typeName(rest)}
			}
		}
		hit, ok := rt.sys.Raycast(common.NewRay(origin, dir))
		if !ok {
			return tengo.UndefinedValue, nil
		}
		return &tengo.ImmutableMap{Value: map[string]tengo.Object{
			"poly":     &tengo.Int{Value: int64(hit.Poly.Index)},
			"point":    vecObject(hit.Point),
			"distance": &tengo.Float{Value: hit.Distance},
		}}, nil
	}}

	values["line_of_sight"] = &tengo.UserFunction{Name: "line_of_sight", Value: func(args ...tengo.Object) (tengo.Object, error) {
		start, rest, ok := vecArg(args)
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "start", Expected: "vector", Found: typeName(args)}
		}
		end, rest, ok := vecArg(rest)
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "end", Expected: "vector", Found: typeName(rest)}
		}
		height := 1.0
		if len(rest) > 0 {
			if height, ok = tengo.ToFloat64(rest[0]); !ok {
				return nil, tengo.ErrInvalidArgumentType{Name: "height", Expected: "float", Found: rest[0].TypeName()}
			}
		}
		if rt.sys.LineIntersectsSolid(start, end, height) {
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["find_path"] = &tengo.UserFunction{Name: "find_path", Value: func(args ...tengo.Object) (tengo.Object, error) {
		start, rest, ok := vecArg(args)
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "start", Expected: "vector", Found: typeName(args)}
		}
		dest, rest, ok := vecArg(rest)
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "dest", Expected: "vector", Found: typeName(rest)}
		}
		radius := defaultRadius
		if len(rest) > 0 {
			if radius, ok = tengo.ToFloat64(rest[0]); !ok {
				return nil, tengo.ErrInvalidArgumentType{Name: "radius", Expected: "float", Found: rest[0].TypeName()}
			}
		}

		if err := rt.sys.FindPath(start, dest, radius, rt.path); err != nil {
			return &tengo.Error{Value: &tengo.String{Value: err.Error()}}, nil
		}
		points := make([]tengo.Object, 0, rt.path.Len())
		for _, n := range rt.path.Nodes() {
			points = append(points, vecObject(n.Position))
		}
		return &tengo.Array{Value: points}, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

// vecArg reads a vector from the front of args, either as one
// three-element array or as three numbers, and returns the rest.
func vecArg(args []tengo.Object) (common.Vec3, []tengo.Object, bool) {
	if len(args) == 0 {
		return common.Vec3{}, nil, false
	}
	if arr, ok := args[0].(*tengo.Array); ok {
		v, ok := floats3(arr.Value)
		return v, args[1:], ok
	}
	if arr, ok := args[0].(*tengo.ImmutableArray); ok {
		v, ok := floats3(arr.Value)
		return v, args[1:], ok
	}
	if len(args) < 3 {
		return common.Vec3{}, nil, false
	}
	v, ok := floats3(args[:3])
	return v, args[3:], ok
}

func floats3(objs []tengo.Object) (common.Vec3, bool) {
	if len(objs) != 3 {
		return common.Vec3{}, false
	}
	var v common.Vec3
	for i, o := range objs {
		f, ok := tengo.ToFloat64(o)
		if !ok {
			return common.Vec3{}, false
		}
		v[i] = f
	}
	return v, true
}

func vecObject(v common.Vec3) *tengo.ImmutableArray {
	return &tengo.ImmutableArray{Value: []tengo.Object{
		&tengo.Float{Value: v.X()},
		&tengo.Float{Value: v.Y()},
		&tengo.Float{Value: v.Z()},
	}}
}

func typeName(args []tengo.Object) string {
	if len(args) == 0 {
		return "none"
	}
	names := make([]string, 0, len(args))
	for _, a := range args {
		names = append(names, a.TypeName())
	}
	return strings.Join(names, ",")
}
