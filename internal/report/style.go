package report

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const bannerWidth = 50

var banner = strings.Repeat("=", bannerWidth)

// styles are bound to the output writer's renderer, so pipes and buffers
// get plain text while terminals get colour.
type styles struct {
	title   lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	success lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d7ff")),
		warn:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaf00")),
		err:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff5f5f")),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5fd75f")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#808080")),
	}
}
