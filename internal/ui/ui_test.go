package ui

import (
	"testing"

	"github.com/grcdesk/grcdesk/internal/bulk"
	"github.com/grcdesk/grcdesk/internal/report"
)

func TestItemLine(t *testing.T) {
	t.Parallel()

	e := bulk.Event{
		Report:    report.TypeAudit,
		Completed: 2,
		Total:     5,
		Progress:  40,
		Item:      &bulk.Item{Report: report.TypeAudit, Status: bulk.StatusDegraded},
	}
	if got, want := ItemLine(e), "audit degraded (2/5, 40%)"; got != want {
		t.Fatalf("ItemLine() = %q, want %q", got, want)
	}
}

func TestSummaryRows(t *testing.T) {
	t.Parallel()

	summary := bulk.Summary{
		Items: []bulk.Item{
			{Report: report.TypeRisk, Status: bulk.StatusExported, Filename: "risk_report_2026-03-31.xlsx", DurationMS: 1500},
			{Report: report.TypeAudit, Status: bulk.StatusDegraded, Filename: "audit_report_2026-03-31.xlsx", Degraded: []string{"findings", "schedules"}},
			{Report: report.TypeCompliance, Status: bulk.StatusFailed, Error: "boom"},
		},
	}

	rows := SummaryRows(summary, false)
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	if rows[0][0] != "Report" {
		t.Fatalf("header = %v", rows[0])
	}
	if got := rows[1]; got[1] != "exported" || got[4] != "1.5s" {
		t.Fatalf("risk row = %v", got)
	}
	if got := rows[2][3]; got != "unavailable: findings, schedules" {
		t.Fatalf("degraded notes = %q", got)
	}
	if got := rows[3]; got[1] != "failed" || got[3] != "boom" {
		t.Fatalf("failed row = %v", got)
	}
}
