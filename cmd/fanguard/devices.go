package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/fanguard/pkg/fanguard/config"
	"github.com/jamesainslie/fanguard/pkg/fanguard/hardware"
	"github.com/jamesainslie/fanguard/pkg/fanguard/output"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List cooling devices and thermal zones",
	Long: `Devices lists every cooling device and thermal zone under the thermal
sysfs root, which helps pick hardware.dir and hardware.temp on boards
with more than one fan. It only reads and needs no privileges.`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	devices, err := hardware.Discover(cfg.Hardware.ThermalRoot)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), output.MutedStyle.Render("No thermal devices found under "+cfg.Hardware.ThermalRoot))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), output.DevicesTable(devices))
	return nil
}
