package output

import (
	"errors"
	"strings"

	"github.com/jamesainslie/fanguard/pkg/daemon"
)

// RenderError formats err as the single "Error: ..." line printed on
// stderr. A start failure is followed by the daemon's last log lines.
func RenderError(err error) string {
	var sb strings.Builder
	sb.WriteString(ErrorStyle.Render("Error: " + err.Error()))

	var startErr *daemon.StartError
	if errors.As(err, &startErr) && len(startErr.LogTail) > 0 {
		sb.WriteString("\n")
		sb.WriteString(MutedStyle.Render("Last daemon log lines:"))
		for _, line := range startErr.LogTail {
			sb.WriteString("\n")
			sb.WriteString(MutedStyle.Render("  " + line))
		}
	}
	return sb.String()
}
