package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lanrat/tapesort"
)

var (
	primaryColor = lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#B4A7FF"}
	successColor = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#A6E3A1"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#F38BA8"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#6C6F85", Dark: "#7F849C"}
)

// styles are bound to the renderer of the writer they print to, so output that is
// not a terminal gets no escape codes
type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	info  lipgloss.Style
	muted lipgloss.Style
	err   lipgloss.Style
	box   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().Foreground(primaryColor).Bold(true),
		label: r.NewStyle().Foreground(mutedColor).Width(12),
		value: r.NewStyle().Width(12).Align(lipgloss.Right),
		info:  r.NewStyle().Foreground(successColor),
		muted: r.NewStyle().Foreground(mutedColor),
		err:   r.NewStyle().Foreground(errorColor).Bold(true),
		box: r.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1),
	}
}

func (st styles) row(label string, values ...string) string {
	cells := []string{st.label.Render(label)}
	for _, v := range values {
		cells = append(cells, st.value.Render(v))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// report renders the measured cost of a sort next to the textbook cost
func (st styles) report(info tapesort.SortInfo) string {
	rows := []string{
		st.title.Render("end info"),
		st.row("", "measured", "theoretical"),
		st.row("phases", fmt.Sprint(info.Phases), fmt.Sprint(info.TheoreticalPhases)),
		st.row("disk ops", fmt.Sprint(info.DiskOps), fmt.Sprint(info.TheoreticalDiskOps)),
		"",
		st.muted.Render(fmt.Sprintf("records %d  runs %d  fan-in %d  page %d",
			info.Records, info.Runs, info.FanIn, info.PageRecords)),
	}
	if len(info.PhaseStats) > 0 {
		var b strings.Builder
		for i, ps := range info.PhaseStats {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "phase %d: %d -> %d runs, longest %d, %d ops",
				ps.Phase, ps.InputRuns, ps.Runs, ps.LongestRun, ps.DiskOps)
		}
		rows = append(rows, st.muted.Render(b.String()))
	}
	return st.box.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)) + "\n"
}
