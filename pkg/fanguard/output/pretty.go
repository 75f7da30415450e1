package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/fanguard/pkg/daemon"
	"github.com/jamesainslie/fanguard/pkg/fanguard/hardware"
)

const gaugeWidth = 20

// PrettyFormatter renders a styled status panel for the terminal.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, s *daemon.Status) error {
	w.WriteString(HeaderBox.Render(f.formatReadings(s)))
	w.WriteString("\n")

	if s.Active && len(s.Recent) > 0 {
		w.WriteString(f.formatRecent(s.Recent))
		w.WriteString("\n")
	}
	return nil
}

func (f *PrettyFormatter) formatReadings(s *daemon.Status) string {
	lines := []string{
		field("Temperature:", ValueStyle.Render(fmt.Sprintf("%d°C", s.Temperature))),
		field("Fan:", f.formatFan(s)),
		field("Daemon:", f.formatDaemon(s)),
	}
	return strings.Join(lines, "\n")
}

func (f *PrettyFormatter) formatFan(s *daemon.Status) string {
	if s.CurrentState == hardware.Unknown {
		return WarningStyle.Render("unreadable")
	}
	reading := ValueStyle.Render(fmt.Sprintf("%d/%d (%d%%)", s.CurrentState, s.MaxState, s.Percent))
	return reading + "  " + Gauge(s.Percent, gaugeWidth)
}

func (f *PrettyFormatter) formatDaemon(s *daemon.Status) string {
	if !s.Active {
		return WarningStyle.Render(s.Message)
	}

	parts := []string{fmt.Sprintf("pid %d", s.PID)}
	if s.Target != nil {
		parts = append(parts, fmt.Sprintf("target %d", *s.Target))
	}
	if s.Uptime > 0 {
		parts = append(parts, "up "+FormatDuration(s.Uptime))
	}
	if s.RSS > 0 {
		parts = append(parts, humanize.IBytes(s.RSS))
	}
	return SuccessStyle.Render("active") + " " + MutedStyle.Render("("+strings.Join(parts, ", ")+")")
}

func (f *PrettyFormatter) formatRecent(lines []string) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Recent events"))
	for _, line := range lines {
		sb.WriteString("\n")
		sb.WriteString(EventStyle(line).Render(line))
	}
	return FooterBox.Render(sb.String())
}

// EventStyle picks a style for an event log line.
func EventStyle(line string) lipgloss.Style {
	switch {
	case strings.Contains(line, "firmware override"):
		return WarningStyle
	case strings.Contains(line, "error"):
		return ErrorStyle
	case strings.Contains(line, "heartbeat"):
		return MutedStyle
	default:
		return ValueStyle
	}
}

// Gauge renders a fixed-width bar filled to percent.
func Gauge(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return GaugeStyle.Render(strings.Repeat("█", filled)) +
		MutedStyle.Render(strings.Repeat("░", width-filled))
}

func field(label, value string) string {
	return LabelStyle.Render(fmt.Sprintf("%-13s", label)) + value
}

// FormatDuration formats a duration in a human-friendly way.
func FormatDuration(d time.Duration) string {
	sec := int(d.Seconds())
	if sec < 60 {
		return fmt.Sprintf("%ds", sec)
	}
	minutes := sec / 60
	seconds := sec % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes %= 60
	if hours < 24 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dd %dh", hours/24, hours%24)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
