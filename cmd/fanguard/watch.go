package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/fanguard/cmd/fanguard/tui"
)

var watchRefresh time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of temperature, fan state and daemon events",
	Long: `Watch opens a full-screen dashboard that refreshes the status every
second. While a daemon is running, the up and down keys change its speed.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchRefresh, "refresh", time.Second, "refresh interval")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.preflight(); err != nil {
		return err
	}

	model := tui.NewModel(tui.Options{
		Status: a.sup.Status,
		SetTarget: func(speed int) error {
			return a.withLock(cmd.Context(), func() error {
				_, err := a.sup.SetTarget(speed)
				return err
			})
		},
		Refresh: watchRefresh,
	})

	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}
