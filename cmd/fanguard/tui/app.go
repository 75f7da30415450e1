// Package tui implements the live fanguard dashboard.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/fanguard/pkg/daemon"
	"github.com/jamesainslie/fanguard/pkg/fanguard/hardware"
	"github.com/jamesainslie/fanguard/pkg/fanguard/output"
)

// Options configures the dashboard.
type Options struct {
	// Status returns a fresh snapshot. Called once per refresh.
	Status func() daemon.Status
	// SetTarget changes the running daemon's speed. Nil disables the keys.
	SetTarget func(speed int) error
	// Refresh is the polling interval.
	Refresh time.Duration
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	opts    Options
	status  daemon.Status
	polled  bool
	gauge   progress.Model
	spinner spinner.Model
	notice  string
	err     error

	width  int
	height int
}

// statusMsg carries a polled snapshot.
type statusMsg daemon.Status

// tickMsg triggers the next poll.
type tickMsg struct{}

// setResultMsg reports the outcome of a target change.
type setResultMsg struct {
	speed int
	err   error
}

// NewModel creates a dashboard model.
func NewModel(opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = time.Second
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(output.ColorSuccess)

	return Model{
		opts:    opts,
		gauge:   progress.New(progress.WithSolidFill(string(output.ColorPrimary)), progress.WithoutPercentage()),
		spinner: s,
		width:   80,
		height:  24,
	}
}

// Init starts polling.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.poll(), m.spinner.Tick)
}

func (m Model) poll() tea.Cmd {
	status := m.opts.Status
	return func() tea.Msg {
		return statusMsg(status())
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.gauge.Width = max(10, min(40, msg.Width-30))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case statusMsg:
		m.status = daemon.Status(msg)
		m.polled = true
		return m, m.tick()

	case tickMsg:
		return m, m.poll()

	case setResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.notice = ""
		} else {
			m.err = nil
			m.notice = fmt.Sprintf("target set to %d", msg.speed)
		}
		return m, m.poll()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m, m.poll()
	case "up", "+", "k":
		return m, m.adjust(1)
	case "down", "-", "j":
		return m, m.adjust(-1)
	}
	return m, nil
}

// adjust moves the daemon's target by delta, clamped to the fan's range.
func (m Model) adjust(delta int) tea.Cmd {
	if m.opts.SetTarget == nil || !m.status.Active || m.status.Target == nil {
		return nil
	}
	speed := *m.status.Target + delta
	if speed < 0 || speed > m.status.MaxState {
		return nil
	}
	set := m.opts.SetTarget
	return func() tea.Msg {
		return setResultMsg{speed: speed, err: set(speed)}
	}
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("fanguard"))
	b.WriteString("\n")

	if !m.polled {
		b.WriteString(m.spinner.View() + " reading sensors...\n")
		return b.String()
	}

	b.WriteString(panelStyle.Render(m.readings()))
	b.WriteString("\n")

	if m.status.Active && len(m.status.Recent) > 0 {
		lines := make([]string, 0, len(m.status.Recent))
		for _, line := range m.status.Recent {
			lines = append(lines, output.EventStyle(line).Render(line))
		}
		b.WriteString(output.FooterBox.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(output.ErrorStyle.Render("Error: "+m.err.Error()) + "\n")
	case m.notice != "":
		b.WriteString(output.SuccessStyle.Render(m.notice) + "\n")
	}

	help := "q quit • r refresh"
	if m.opts.SetTarget != nil && m.status.Active {
		help += " • ↑/↓ change speed"
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func (m Model) readings() string {
	s := m.status
	rows := []string{
		row("Temperature", fmt.Sprintf("%d°C", s.Temperature)),
	}

	if s.CurrentState == hardware.Unknown {
		rows = append(rows, row("Fan", output.WarningStyle.Render("unreadable")))
	} else {
		rows = append(rows, row("Fan", fmt.Sprintf("%s %d/%d", m.gauge.ViewAs(float64(s.Percent)/100), s.CurrentState, s.MaxState)))
	}

	if !s.Active {
		rows = append(rows, row("Daemon", output.WarningStyle.Render(s.Message)))
		return strings.Join(rows, "\n")
	}

	daemonLine := m.spinner.View() + " " + output.SuccessStyle.Render("active") + fmt.Sprintf("  pid %d", s.PID)
	rows = append(rows, row("Daemon", daemonLine))
	if s.Target != nil {
		rows = append(rows, row("Target", fmt.Sprintf("%d", *s.Target)))
	}
	if s.Uptime > 0 {
		rows = append(rows, row("Uptime", output.FormatDuration(s.Uptime)))
	}
	if s.RSS > 0 {
		rows = append(rows, row("Memory", humanize.IBytes(s.RSS)))
	}
	return strings.Join(rows, "\n")
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}
