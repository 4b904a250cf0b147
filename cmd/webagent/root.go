package main

import (
	"github.com/spf13/cobra"
)

// cfgFile is the shared --config flag, following the teacher's
// cmd/nebo/vars.go pattern of one persistent flag set on the root command.
var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "webagent",
		Short: "Drive a browser to accomplish a natural-language task",
		Long: `webagent plans, opens a starting page, and repeatedly inspects a live
page, asks a language model for the next action, executes it, and stops
when the model reports completion and a validator agrees.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "webagent.yaml", "path to the YAML config file")

	root.AddCommand(newRunCmd())
	root.AddCommand(newDoctorCmd())

	return root
}
