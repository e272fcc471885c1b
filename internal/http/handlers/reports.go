package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/grcdesk/grcdesk/internal/bulk"
	"github.com/grcdesk/grcdesk/internal/export"
	"github.com/grcdesk/grcdesk/internal/metrics"
	"github.com/grcdesk/grcdesk/internal/report"
	"github.com/labstack/echo/v5"
)

// HandleReport serves the assembled record for one report type as JSON.
func (h *Handlers) HandleReport(c *echo.Context) error {
	t, err := report.ParseType(c.Param("type"))
	if err != nil {
		return APIError(c, http.StatusNotFound, "unknown report type")
	}

	rep, err := h.Reports.Assemble(c.Request().Context(), t, report.Options{
		Filter:   governanceFilterFromQuery(c),
		Detailed: true,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rep)
}

// HandleReportExport renders one report in the requested format and serves it
// as a download.
func (h *Handlers) HandleReportExport(c *echo.Context) error {
	t, err := report.ParseType(c.Param("type"))
	if err != nil {
		return APIError(c, http.StatusNotFound, "unknown report type")
	}
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return APIError(c, http.StatusBadRequest, "format must be one of: pdf, excel, csv")
	}

	start := time.Now()
	status := bulk.StatusFailed
	defer func() {
		metrics.ReportExportDuration.WithLabelValues(string(t), string(format)).Observe(time.Since(start).Seconds())
		metrics.ReportExportsTotal.WithLabelValues(string(t), string(format), string(status)).Inc()
	}()

	rep, err := h.Reports.Assemble(c.Request().Context(), t, report.Options{
		Filter:   governanceFilterFromQuery(c),
		Detailed: format != export.FormatPDF,
	})
	if err != nil {
		return err
	}
	art, err := export.Render(rep, format)
	if err != nil {
		if errors.Is(err, export.ErrEmptyInput) {
			return APIError(c, http.StatusUnprocessableEntity, "report has no data to export")
		}
		return err
	}

	status = bulk.StatusExported
	if degraded := rep.ReportMeta().Degraded(); len(degraded) > 0 {
		status = bulk.StatusDegraded
		c.Response().Header().Set("X-Degraded-Sources", strings.Join(degraded, ","))
	}
	setAttachment(c, art.Filename)
	return c.Blob(http.StatusOK, art.ContentType, art.Body)
}

func setAttachment(c *echo.Context, filename string) {
	header := c.Response().Header()
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	header.Set("Cache-Control", "no-store")
}
