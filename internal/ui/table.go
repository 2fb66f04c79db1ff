package ui

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"FlowTagger/internal/model"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00CEC9")).MarginTop(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6C5CE7")).Underline(true)

	tagged   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00B894"))
	untagged = lipgloss.NewStyle().Foreground(lipgloss.Color("#FD79A8"))
	meta     = lipgloss.NewStyle().Foreground(lipgloss.Color("#636e72"))
)

// PrintReport renders a report summary for a terminal.
func PrintReport(out io.Writer, report *model.Report) {
	fmt.Fprintln(out, titleStyle.Render("Tag Counts"))
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, headerStyle.Render("TAG")+"\t"+headerStyle.Render("COUNT"))
	for _, tc := range report.TagCounts {
		style := tagged
		if tc.Tag == model.UntaggedTag {
			style = untagged
		}
		fmt.Fprintf(w, "%s\t%s\n", style.Render(tc.Tag), strconv.FormatUint(tc.Count, 10))
	}
	w.Flush()

	fmt.Fprintln(out, titleStyle.Render("Port/Protocol Combination Counts"))
	w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, headerStyle.Render("PORT")+"\t"+headerStyle.Render("PROTOCOL")+"\t"+headerStyle.Render("COUNT"))
	for _, cc := range report.CombinationCounts {
		protocol := cc.Key.Protocol
		if protocol == "" {
			protocol = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", cc.Key.Port, protocol, cc.Count)
	}
	w.Flush()

	fmt.Fprintln(out)
	fmt.Fprintln(out, meta.Render(fmt.Sprintf("run %s: %d records classified, %d skipped, %d lookup entries",
		report.RunID, report.Processed, report.SkippedTotal(), report.LookupEntries)))
	for _, reason := range model.SkipReasons {
		if n := report.SkipCounts[reason]; n > 0 {
			fmt.Fprintln(out, meta.Render(fmt.Sprintf("  %s: %d", reason, n)))
		}
	}
}
