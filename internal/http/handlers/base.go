// Package handlers contains HTTP handler logic split by domain.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/alexedwards/scs/v2"
	"github.com/grcdesk/grcdesk/internal/bulk"
	"github.com/grcdesk/grcdesk/internal/config"
	"github.com/grcdesk/grcdesk/internal/grc"
	"github.com/grcdesk/grcdesk/internal/http/authn"
	"github.com/grcdesk/grcdesk/internal/http/viewmodels"
	"github.com/grcdesk/grcdesk/internal/store"
	"github.com/labstack/echo/v5"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging and client error references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"
)

// Store is the persistence surface the handlers read from.
type Store interface {
	GetAuthUser(ctx context.Context, id int64) (store.AuthUser, error)
	GetAuthUserByEmail(ctx context.Context, email string) (store.AuthUser, error)
	CountAuthUsers(ctx context.Context) (int64, error)
	UpdateAuthUserLoginMeta(ctx context.Context, arg store.UpdateAuthUserLoginMetaParams) error

	ListDepartments(ctx context.Context) ([]grc.Department, error)
	ListGovernanceItems(ctx context.Context, filter grc.GovernanceFilter) ([]grc.GovernanceItem, error)
	ListAudits(ctx context.Context) ([]grc.Audit, error)
	ListAuditFindings(ctx context.Context) ([]grc.AuditFinding, error)
	ListAuditSchedules(ctx context.Context) ([]grc.AuditSchedule, error)
	ListComplianceControls(ctx context.Context) ([]grc.ComplianceControl, error)
	ListCompliancePolicies(ctx context.Context) ([]grc.CompliancePolicy, error)
	ListRisks(ctx context.Context) ([]grc.Risk, error)
}

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg      config.Config
	Store    Store
	Sessions *scs.SessionManager
	Reports  bulk.Assembler
	Bulk     *bulk.Orchestrator
	Now      func() time.Time
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// LayoutData builds the common layout data for page rendering.
func (h *Handlers) LayoutData(c *echo.Context, title string) viewmodels.LayoutData {
	principal, ok := authn.PrincipalFromContext(c)
	return viewmodels.LayoutData{
		Title:      title,
		UserEmail:  principal.Email,
		UserRole:   principal.Role,
		IsAdmin:    ok && principal.IsAdmin(),
		Toast:      popFlashToast(c),
		ActivePath: c.Request().URL.Path,
	}
}

// RenderComponent renders a templ component as the response.
func (h *Handlers) RenderComponent(c *echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request().Context(), c.Response()); err != nil {
		return h.RenderError(c, err)
	}
	return nil
}

// RenderError returns a plain text error response.
func (h *Handlers) RenderError(c *echo.Context, err error) error {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	path := ""
	if req := c.Request(); req != nil && req.URL != nil {
		path = req.URL.Path
	}
	method := ""
	if req := c.Request(); req != nil {
		method = req.Method
	}
	c.Logger().Error("http error",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", c.RealIP(),
		"error", err,
	)

	msg := "Internal server error."
	if requestID != "" {
		msg = fmt.Sprintf("%s Reference: %s.", msg, requestID)
	}
	msg = fmt.Sprintf("%s Code: %s.", msg, InternalErrorCode)
	return c.String(http.StatusInternalServerError, msg)
}

// RenderNotFound returns a 404 response.
func RenderNotFound(c *echo.Context) error {
	return c.String(http.StatusNotFound, "404 page not found")
}

// APIError writes the JSON error envelope used by every /api route.
func APIError(c *echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}
