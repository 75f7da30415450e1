package output

import (
	"bytes"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/fanguard/pkg/daemon"
)

// PlainFormatter writes aligned "key value" lines suitable for scripting.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, s *daemon.Status) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	row := func(key, value string) {
		fmt.Fprintf(tw, "%s\t%s\n", key, value)
	}

	row("temperature", fmt.Sprintf("%dC", s.Temperature))
	row("fan_state", fmt.Sprintf("%d/%d", s.CurrentState, s.MaxState))
	row("fan_percent", strconv.Itoa(s.Percent))

	if !s.Active {
		row("daemon", "inactive")
		row("message", s.Message)
		return tw.Flush()
	}

	row("daemon", "active")
	row("pid", strconv.Itoa(s.PID))
	if s.Target != nil {
		row("target", strconv.Itoa(*s.Target))
	}
	if s.Uptime > 0 {
		row("uptime", FormatDuration(s.Uptime))
	}
	if s.RSS > 0 {
		row("rss", humanize.IBytes(s.RSS))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, line := range s.Recent {
		w.WriteString(line)
		w.WriteString("\n")
	}
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
