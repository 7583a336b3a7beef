package main

import (
	"encoding/json"
	"fmt"

	"github.com/milk9111/navkit/navscript"
	"github.com/milk9111/navkit/prefabs"
	"github.com/spf13/cobra"
)

func ScriptCmd() *cobra.Command {
	var (
		opts    options
		rawArgs string
	)
	c := &cobra.Command{
		Use:   "script NAME",
		Short: "run a navigation script against the mesh",
		Long:  "Runs a tengo script from prefabs/scripts with the mesh bound to nav and --args bound to args, then prints its result.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return report(cmd.OutOrStdout(), map[string][]string{"scripts": prefabs.ScriptNames()})
			}
			var scriptArgs map[string]any
			if rawArgs != "" {
				if err := json.Unmarshal([]byte(rawArgs), &scriptArgs); err != nil {
					return fmt.Errorf("script args: %w", err)
				}
			}
			sys, _, err := opts.system()
			if err != nil {
				return err
			}
			rt, err := navscript.Load(args[0], sys)
			if err != nil {
				return err
			}
			result, err := rt.Run(scriptArgs)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), map[string]any{"script": rt.Name(), "result": result})
		},
	}
	opts.bind(c)
	c.Flags().StringVar(&rawArgs, "args", "", `script arguments as a JSON object, e.g. '{"from":[1,1,0],"to":[9,5,0]}'`)
	return c
}
