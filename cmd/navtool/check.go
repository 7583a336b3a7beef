package main

import (
	"github.com/milk9111/navkit/levels"
	"github.com/spf13/cobra"
)

type meshReport struct {
	Mesh          string     `yaml:"mesh"`
	Vertices      int        `yaml:"vertices"`
	Edges         int        `yaml:"edges"`
	Polys         int        `yaml:"polys"`
	SolidEdges    int        `yaml:"solid_edges"`
	BoundaryEdges int        `yaml:"boundary_edges"`
	Min           [2]float64 `yaml:"min,flow"`
	Max           [2]float64 `yaml:"max,flow"`
	MinZ          float64    `yaml:"min_z"`
	MaxZ          float64    `yaml:"max_z"`
}

func CheckCmd() *cobra.Command {
	var (
		opts options
		list bool
	)
	c := &cobra.Command{
		Use:   "check",
		Short: "load a mesh and print its statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return report(cmd.OutOrStdout(), map[string][]string{"embedded": levels.Names()})
			}
			sys, _, err := opts.system()
			if err != nil {
				return err
			}
			st := sys.Mesh().Stats()
			return report(cmd.OutOrStdout(), meshReport{
				Mesh:          sys.MeshPath(),
				Vertices:      st.Vertices,
				Edges:         st.Edges,
				Polys:         st.Polys,
				SolidEdges:    st.SolidEdges,
				BoundaryEdges: st.BoundaryEdges,
				Min:           [2]float64{st.Bounds.L, st.Bounds.B},
				Max:           [2]float64{st.Bounds.R, st.Bounds.T},
				MinZ:          st.MinZ,
				MaxZ:          st.MaxZ,
			})
		},
	}
	opts.bind(c)
	c.Flags().BoolVar(&list, "list", false, "list the embedded meshes instead")
	return c
}
