package main

import (
	"fmt"

	"github.com/milk9111/navkit/common"
	"github.com/milk9111/navkit/pathfind"
	"github.com/spf13/cobra"
)

type hitReport struct {
	Hit      bool       `yaml:"hit"`
	Poly     int        `yaml:"poly"`
	Point    [3]float64 `yaml:"point,flow,omitempty"`
	Distance float64    `yaml:"distance,omitempty"`
}

func RaycastCmd() *cobra.Command {
	var (
		opts options
		dir  string
	)
	c := &cobra.Command{
		Use:   "raycast ORIGIN",
		Short: "cast a ray at the mesh, straight down unless --dir is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			origin, err := parseVec(args[0])
			if err != nil {
				return err
			}
			d := common.Down
			if dir != "" {
				if d, err = parseVec(dir); err != nil {
					return err
				}
			}
			sys, _, err := opts.system()
			if err != nil {
				return err
			}
			hit, ok := sys.Raycast(common.NewRay(origin, d))
			if !ok {
				return report(cmd.OutOrStdout(), hitReport{Poly: pathfind.NoIndex})
			}
			return report(cmd.OutOrStdout(), hitReport{
				Hit:      true,
				Poly:     hit.Poly.Index,
				Point:    hit.Point,
				Distance: hit.Distance,
			})
		},
	}
	opts.bind(c)
	c.Flags().StringVar(&dir, "dir", "", "ray direction as x,y,z")
	return c
}

func LineCmd() *cobra.Command {
	var (
		opts   options
		height float64
	)
	c := &cobra.Command{
		Use:   "los START END",
		Short: "report whether a solid edge blocks the line between two points",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pts, err := vecArgs(args)
			if err != nil {
				return err
			}
			sys, spec, err := opts.system()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("height") {
				height = spec.Agent.Height
			}
			blocked := sys.LineIntersectsSolid(pts[0], pts[1], height)
			return report(cmd.OutOrStdout(), map[string]bool{"blocked": blocked})
		},
	}
	opts.bind(c)
	c.Flags().Float64Var(&height, "height", 1, "eye height above the start point")
	return c
}

type waypointReport struct {
	Position [3]float64 `yaml:"position,flow"`
	Edge     int        `yaml:"edge"`
	Poly     int        `yaml:"poly"`
}

func PathCmd() *cobra.Command {
	var (
		opts   options
		radius float64
	)
	c := &cobra.Command{
		Use:   "path START DEST",
		Short: "find a smoothed path between two points",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pts, err := vecArgs(args)
			if err != nil {
				return err
			}
			sys, spec, err := opts.system()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("radius") {
				radius = spec.Agent.Radius
			}
			path := pathfind.NewPath(spec.Solver.PathCapacity)
			if err := sys.FindPath(pts[0], pts[1], radius, path); err != nil {
				return fmt.Errorf("path %v -> %v: %w", pts[0], pts[1], err)
			}
			out := make([]waypointReport, 0, path.Len())
			for _, n := range path.Nodes() {
				out = append(out, waypointReport{Position: n.Position, Edge: n.Edge, Poly: n.Poly})
			}
			return report(cmd.OutOrStdout(), map[string]any{"waypoints": out})
		},
	}
	opts.bind(c)
	c.Flags().Float64Var(&radius, "radius", 0, "agent radius (defaults to the config's agent radius)")
	return c
}
