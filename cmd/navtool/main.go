package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "navtool",
		Short:        "navmesh inspection and query tool",
		SilenceUsage: true,
	}
	root.AddCommand(
		CheckCmd(),
		RaycastCmd(),
		LineCmd(),
		PathCmd(),
		ScriptCmd(),
		PackCmd(),
		ServeCmd(),
	)
	if err := root.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
