package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/milk9111/navkit/prefabs"
	"github.com/milk9111/navkit/server"
	"github.com/spf13/cobra"
)

func ServeCmd() *cobra.Command {
	var (
		opts  options
		addr  string
		watch bool
	)
	c := &cobra.Command{
		Use:   "serve",
		Short: "serve mesh queries over http",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, spec, err := opts.system()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = spec.Server.Addr
			}
			gin.SetMode(gin.ReleaseMode)

			ctrl := server.NewController(sys, server.Options{
				Radius:       spec.Agent.Radius,
				Height:       spec.Agent.Height,
				PathCapacity: spec.Solver.PathCapacity,
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if watch || spec.Watch {
				w, err := prefabs.NewWatcher(spec.DataPath)
				if err != nil {
					return err
				}
				defer w.Close()
				go ctrl.Watch(ctx, w)
			}

			log.Printf("navtool: serving %s on %s", sys.MeshPath(), addr)
			return ctrl.Serve(ctx, addr)
		},
	}
	opts.bind(c)
	c.Flags().StringVar(&addr, "addr", "", "listen address (defaults to the config's server address)")
	c.Flags().BoolVar(&watch, "watch", false, "reload the mesh when it changes on disk")
	return c
}
