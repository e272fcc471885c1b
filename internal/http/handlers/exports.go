package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/grcdesk/grcdesk/internal/bulk"
	"github.com/grcdesk/grcdesk/internal/export"
	"github.com/grcdesk/grcdesk/internal/grc"
	"github.com/grcdesk/grcdesk/internal/report"
	"github.com/labstack/echo/v5"
)

var errBulkNotConfigured = errors.New("bulk exporter not configured")

type bulkExportRequest struct {
	Reports []string             `json:"reports"`
	Format  string               `json:"format"`
	Filter  grc.GovernanceFilter `json:"filter"`
}

// HandleBulkExport runs the orchestrator over the selected reports and streams
// the artifacts back as a zip archive with a trailing summary.json.
func (h *Handlers) HandleBulkExport(c *echo.Context) error {
	if h.Bulk == nil {
		return errBulkNotConfigured
	}

	var body bulkExportRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return APIError(c, http.StatusBadRequest, "invalid request body")
	}
	types, err := report.ParseTypes(body.Reports)
	if err != nil {
		return APIError(c, http.StatusBadRequest, err.Error())
	}
	format, err := export.ParseFormat(body.Format)
	if err != nil {
		return APIError(c, http.StatusBadRequest, "format must be one of: pdf, excel, csv")
	}

	req := bulk.Request{Types: types, Format: format, Filter: body.Filter}
	runID, err := h.Bulk.Begin(req)
	switch {
	case errors.Is(err, bulk.ErrAlreadyRunning):
		return APIError(c, http.StatusConflict, err.Error())
	case errors.Is(err, bulk.ErrEmptySelection):
		return APIError(c, http.StatusBadRequest, err.Error())
	case err != nil:
		return APIError(c, http.StatusBadRequest, err.Error())
	}

	setAttachment(c, "grcdesk_export_"+h.now().Format(time.DateOnly)+".zip")
	header := c.Response().Header()
	header.Set("Content-Type", "application/zip")
	header.Set("X-Export-Run-ID", runID)
	c.Response().WriteHeader(http.StatusOK)

	// Headers are committed from here on; failures can only be logged.
	sink := bulk.NewZipSink(c.Response())
	summary, err := h.Bulk.Execute(c.Request().Context(), runID, req, sink)
	if err != nil {
		c.Logger().Error("bulk export aborted", "run_id", runID, "err", err)
		return nil
	}
	if err := sink.Close(summary); err != nil {
		c.Logger().Error("bulk export archive incomplete", "run_id", runID, "err", err)
	}
	return nil
}

// HandleExportStatus serves the orchestrator snapshot.
func (h *Handlers) HandleExportStatus(c *echo.Context) error {
	if h.Bulk == nil {
		return errBulkNotConfigured
	}
	return c.JSON(http.StatusOK, h.Bulk.Snapshot())
}
