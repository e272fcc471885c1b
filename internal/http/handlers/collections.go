package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/grcdesk/grcdesk/internal/grc"
	"github.com/labstack/echo/v5"
)

// governanceFilterFromQuery reads the optional status, type and departmentId
// query parameters.
func governanceFilterFromQuery(c *echo.Context) grc.GovernanceFilter {
	return grc.GovernanceFilter{
		Status:       strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))),
		Type:         strings.ToUpper(strings.TrimSpace(c.QueryParam("type"))),
		DepartmentID: strings.TrimSpace(c.QueryParam("departmentId")),
	}
}

// listEnvelope serves items under key, never as JSON null.
func listEnvelope[T any](c *echo.Context, key string, list func(context.Context) ([]T, error)) error {
	items, err := list(c.Request().Context())
	if err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, map[string][]T{key: items})
}

func (h *Handlers) HandleGovernance(c *echo.Context) error {
	filter := governanceFilterFromQuery(c)
	return listEnvelope(c, "items", func(ctx context.Context) ([]grc.GovernanceItem, error) {
		return h.Store.ListGovernanceItems(ctx, filter)
	})
}

func (h *Handlers) HandleAudits(c *echo.Context) error {
	return listEnvelope(c, "audits", h.Store.ListAudits)
}

func (h *Handlers) HandleAuditFindings(c *echo.Context) error {
	return listEnvelope(c, "findings", h.Store.ListAuditFindings)
}

func (h *Handlers) HandleAuditSchedules(c *echo.Context) error {
	return listEnvelope(c, "schedules", h.Store.ListAuditSchedules)
}

func (h *Handlers) HandleComplianceControls(c *echo.Context) error {
	return listEnvelope(c, "controls", h.Store.ListComplianceControls)
}

func (h *Handlers) HandleCompliancePolicies(c *echo.Context) error {
	return listEnvelope(c, "policies", h.Store.ListCompliancePolicies)
}

func (h *Handlers) HandleRisks(c *echo.Context) error {
	return listEnvelope(c, "risks", h.Store.ListRisks)
}

func (h *Handlers) HandleDepartments(c *echo.Context) error {
	return listEnvelope(c, "departments", h.Store.ListDepartments)
}
