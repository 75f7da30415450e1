package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <speed>",
	Short: "Change the speed of the running daemon",
	Long: `Set rewrites the target of the running daemon without restarting it.
The daemon picks the new speed up within one check interval.

Fails when no daemon is running; use --speed to start one.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetCmd,
}

func init() {
	rootCmd.AddCommand(setCmd)
}

func runSetCmd(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid speed %q: not an integer", args[0])
	}

	a, err := buildApp(cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.preflight(); err != nil {
		return err
	}
	return a.runSet(cmd, n)
}
