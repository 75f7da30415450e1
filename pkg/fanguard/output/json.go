package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/fanguard/pkg/daemon"
)

// statusView is the structured form shared by the json and yaml formatters.
type statusView struct {
	TemperatureC int    `json:"temperature_c" yaml:"temperature_c"`
	CurrentState int    `json:"current_state" yaml:"current_state"`
	MaxState     int    `json:"max_state" yaml:"max_state"`
	Percent      int    `json:"percent" yaml:"percent"`
	Active       bool   `json:"active" yaml:"active"`
	Message      string `json:"message,omitempty" yaml:"message,omitempty"`

	PID      int        `json:"pid,omitempty" yaml:"pid,omitempty"`
	Target   *int       `json:"target,omitempty" yaml:"target,omitempty"`
	Started  *time.Time `json:"started,omitempty" yaml:"started,omitempty"`
	Uptime   string     `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	RSS      uint64     `json:"rss_bytes,omitempty" yaml:"rss_bytes,omitempty"`
	RSSHuman string     `json:"rss_human,omitempty" yaml:"rss_human,omitempty"`
	Recent   []string   `json:"recent,omitempty" yaml:"recent,omitempty"`
}

func buildView(s *daemon.Status) statusView {
	v := statusView{
		TemperatureC: s.Temperature,
		CurrentState: s.CurrentState,
		MaxState:     s.MaxState,
		Percent:      s.Percent,
		Active:       s.Active,
		Message:      s.Message,
		PID:          s.PID,
		Target:       s.Target,
		Recent:       s.Recent,
	}
	if !s.Started.IsZero() {
		started := s.Started
		v.Started = &started
	}
	if s.Uptime > 0 {
		v.Uptime = s.Uptime.String()
	}
	if s.RSS > 0 {
		v.RSS = s.RSS
		v.RSSHuman = humanize.IBytes(s.RSS)
	}
	return v
}

// JSONFormatter formats the status as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, s *daemon.Status) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildView(s))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
