package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/grcdesk/grcdesk/internal/bulk"
	"github.com/grcdesk/grcdesk/internal/export"
	"github.com/grcdesk/grcdesk/internal/http/viewmodels"
	"github.com/grcdesk/grcdesk/internal/http/views"
	"github.com/grcdesk/grcdesk/internal/report"
	"github.com/labstack/echo/v5"
)

// HandleReportsIndex renders the reports page.
func (h *Handlers) HandleReportsIndex(c *echo.Context) error {
	formats := export.Formats()
	data := viewmodels.ReportsViewData{
		Layout:  h.LayoutData(c, "Reports"),
		Formats: make([]string, 0, len(formats)),
	}
	for _, f := range formats {
		data.Formats = append(data.Formats, string(f))
	}

	for _, t := range report.Types() {
		card := viewmodels.ReportCard{
			Type:     string(t),
			Title:    t.Title(),
			JSONHref: views.ReportHref(string(t)),
		}
		for _, f := range formats {
			card.Exports = append(card.Exports, viewmodels.ExportLink{
				Label: strings.ToUpper(f.Extension()),
				Href:  views.ExportHref(string(t), string(f)),
			})
		}
		data.Reports = append(data.Reports, card)
	}

	if h.Bulk != nil {
		data.Bulk = bulkView(h.Bulk.Snapshot())
	}
	return h.RenderComponent(c, views.ReportsPage(data))
}

func bulkView(snap bulk.Snapshot) viewmodels.BulkExportView {
	view := viewmodels.BulkExportView{
		State:     string(snap.State),
		Completed: snap.Completed,
		Total:     snap.Total,
		Progress:  snap.Progress,
		Current:   string(snap.Current),
	}
	if snap.State != bulk.StateDone {
		return view
	}

	var exported, degraded, failed int
	for _, it := range snap.Items {
		switch it.Status {
		case bulk.StatusExported:
			exported++
		case bulk.StatusDegraded:
			degraded++
		case bulk.StatusFailed:
			failed++
		}
	}
	view.Message = fmt.Sprintf("Last run exported %d of %d reports (%d degraded, %d failed).",
		exported+degraded, len(snap.Items), degraded, failed)
	return view
}

func (h *Handlers) HandleHealthz(c *echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
