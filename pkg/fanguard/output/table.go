package output

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jamesainslie/fanguard/pkg/fanguard/hardware"
)

// DevicesTable renders discovered cooling devices and thermal zones.
func DevicesTable(devices []hardware.Device) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"NAME", "KIND", "TYPE", "VALUE", "MAX"})

	for _, d := range devices {
		tw.AppendRow(table.Row{d.Name, string(d.Kind), d.Type, deviceValue(d), deviceMax(d)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func deviceValue(d hardware.Device) string {
	if d.Kind == hardware.KindThermal {
		return strconv.Itoa(d.Current) + "°C"
	}
	if d.Current == hardware.Unknown {
		return "-"
	}
	return strconv.Itoa(d.Current)
}

func deviceMax(d hardware.Device) string {
	if d.Kind == hardware.KindThermal || d.Max <= 0 {
		return "-"
	}
	return strconv.Itoa(d.Max)
}
