package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/milk9111/navkit/common"
	"github.com/milk9111/navkit/navsys"
	"github.com/milk9111/navkit/prefabs"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// options are the flags every command shares.
type options struct {
	configFile string
	mesh       string
	dataPath   string
}

func (o *options) bind(c *cobra.Command) {
	c.Flags().StringVar(&o.configFile, "config", "", "navigation yaml file (defaults to the embedded navigation.yaml)")
	c.Flags().StringVar(&o.mesh, "mesh", "", "mesh file, overriding the config")
	c.Flags().StringVar(&o.dataPath, "data", "", "directory meshes are resolved against, overriding the config")
}

func (o *options) spec() (*prefabs.NavigationSpec, error) {
	var (
		spec *prefabs.NavigationSpec
		err  error
	)
	if o.configFile != "" {
		spec, err = prefabs.ReadNavigationSpec(o.configFile)
	} else {
		spec, err = prefabs.LoadNavigationSpec(prefabs.NavigationFile)
	}
	if err != nil {
		return nil, err
	}
	if o.mesh != "" {
		spec.Mesh = o.mesh
	}
	if o.dataPath != "" {
		spec.DataPath = o.dataPath
	}
	return spec, nil
}

// system loads the configured mesh. A missing mesh is an error for every
// command that asks for one.
func (o *options) system() (*navsys.System, *prefabs.NavigationSpec, error) {
	spec, err := o.spec()
	if err != nil {
		return nil, nil, err
	}
	if spec.Mesh == "" {
		return nil, nil, navsys.ErrNoMesh
	}
	sys := navsys.New(spec.DataPath)
	if err := sys.Configure(spec); err != nil {
		return nil, nil, err
	}
	return sys, spec, nil
}

// parseVec reads "x,y,z". A missing z is zero.
func parseVec(s string) (common.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return common.Vec3{}, fmt.Errorf("vector %q: want x,y[,z]", s)
	}
	var v common.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return common.Vec3{}, fmt.Errorf("vector %q: %w", s, err)
		}
		v[i] = f
	}
	return v, nil
}

func vecArgs(args []string) ([]common.Vec3, error) {
	out := make([]common.Vec3, 0, len(args))
	for _, a := range args {
		v, err := parseVec(a)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// report writes a command's result as yaml.
func report(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
