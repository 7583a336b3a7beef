package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/milk9111/navkit/navmesh"
	"github.com/spf13/cobra"
)

func PackCmd() *cobra.Command {
	var (
		opts options
		out  string
	)
	c := &cobra.Command{
		Use:   "pack",
		Short: "write the mesh as a binary .navpack snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, _, err := opts.system()
			if err != nil {
				return err
			}
			if out == "" {
				base := filepath.Base(sys.MeshPath())
				out = strings.TrimSuffix(base, filepath.Ext(base)) + navmesh.ExtSnapshot
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := navmesh.WriteSnapshot(f, sys.Mesh()); err != nil {
				_ = f.Close()
				return fmt.Errorf("pack %s: %w", out, err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			// Read it back so a broken snapshot never ships.
			if _, err := navmesh.LoadFile(out); err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), map[string]string{"mesh": sys.MeshPath(), "snapshot": out})
		},
	}
	opts.bind(c)
	c.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to the mesh name with .navpack)")
	return c
}
