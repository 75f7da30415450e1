package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/fanguard/pkg/fanguard/config"
)

var (
	cfgFile   string
	speed     int
	stopFlag  bool
	status    bool
	logsCount int
	follow    bool
	format    string
	verbose   bool

	rootCmd = &cobra.Command{
		Use:   "fanguard",
		Short: "Hold the cooling fan at a fixed speed",
		Long: `fanguard keeps the cooling fan at the speed you choose, even when the
firmware keeps resetting it. A background daemon (fanguardd) re-asserts the
speed every 150ms and logs every firmware override it corrects.

Examples:
  fanguard --speed 3         # Enforce fan state 3
  fanguard --status          # Show temperature, fan state and daemon status
  fanguard --logs            # Print the last 30 event log lines
  fanguard --logs 100        # Print the last 100 event log lines
  fanguard --logs --follow   # Stream new event log lines
  fanguard --stop            # Stop enforcing; firmware takes over again
  fanguard set 2             # Change the speed of the running daemon
  fanguard devices           # List cooling devices and thermal zones`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/fanguard/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug output on stderr")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "o", "pretty", "status output format: pretty, plain, json, yaml")

	flags := rootCmd.Flags()
	flags.IntVar(&speed, "speed", 0, "start the daemon enforcing fan state N (0..max_state)")
	flags.BoolVar(&stopFlag, "stop", false, "stop the daemon and return control to the firmware")
	flags.BoolVar(&status, "status", false, "show temperature, fan state and daemon status (default)")
	flags.IntVar(&logsCount, "logs", config.DefaultTailLines, "print the last N event log lines")
	flags.Lookup("logs").NoOptDefVal = strconv.Itoa(config.DefaultTailLines)
	flags.BoolVarP(&follow, "follow", "f", false, "with --logs, keep streaming new lines")

	rootCmd.MarkFlagsMutuallyExclusive("speed", "stop", "status", "logs")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		cmd.PrintErrln(cmd.UsageString())
		return err
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runRoot(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	lines := logsCount
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if !flags.Changed("logs") || err != nil {
			cmd.PrintErrln(cmd.UsageString())
			return fmt.Errorf("unexpected argument %q", args[0])
		}
		lines = n
	}
	if follow && !flags.Changed("logs") {
		return errors.New("--follow requires --logs")
	}

	a, err := buildApp(cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.preflight(); err != nil {
		return err
	}

	switch {
	case flags.Changed("speed"):
		return a.runSpeed(cmd, speed)
	case stopFlag:
		return a.runStop(cmd)
	case flags.Changed("logs"):
		return a.runLogs(cmd, lines, follow)
	default:
		return a.runStatus(cmd, format)
	}
}
