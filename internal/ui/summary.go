package ui

import (
	"strings"
	"time"

	"github.com/grcdesk/grcdesk/internal/bulk"
	"github.com/pterm/pterm"
)

// PrintSummary renders one row per item followed by the run totals.
func PrintSummary(summary bulk.Summary, dir string) {
	if len(summary.Items) == 0 {
		pterm.Warning.Println("No reports were exported.")
		return
	}

	_ = pterm.DefaultTable.WithHasHeader().WithData(SummaryRows(summary, true)).Render()
	pterm.Println()

	switch {
	case summary.Failed > 0:
		pterm.Warning.Printf("%s. Artifacts in %s\n", summary.Message(), dir)
	default:
		pterm.Success.Printf("%s. Artifacts in %s\n", summary.Message(), dir)
	}
}

// SummaryRows builds the result table, header first. Colour is optional so
// the rows can be asserted on in tests.
func SummaryRows(summary bulk.Summary, colour bool) [][]string {
	rows := [][]string{{"Report", "Status", "File", "Notes", "Duration"}}
	for _, it := range summary.Items {
		status := string(it.Status)
		if colour {
			status = statusStyle(it.Status)
		}
		notes := it.Error
		if len(it.Degraded) > 0 {
			notes = "unavailable: " + strings.Join(it.Degraded, ", ")
		}
		rows = append(rows, []string{
			string(it.Report),
			status,
			it.Filename,
			notes,
			(time.Duration(it.DurationMS) * time.Millisecond).String(),
		})
	}
	return rows
}

func statusStyle(s bulk.Status) string {
	switch s {
	case bulk.StatusExported:
		return pterm.FgGreen.Sprint("EXPORTED")
	case bulk.StatusDegraded:
		return pterm.FgYellow.Sprint("DEGRADED")
	case bulk.StatusFailed:
		return pterm.FgRed.Sprint("FAILED")
	default:
		return pterm.FgCyan.Sprint(strings.ToUpper(string(s)))
	}
}
