package httpapp

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/grcdesk/grcdesk/internal/auth"
	"github.com/grcdesk/grcdesk/internal/bulk"
	"github.com/grcdesk/grcdesk/internal/config"
	"github.com/grcdesk/grcdesk/internal/http/authn"
	"github.com/grcdesk/grcdesk/internal/http/handlers"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
)

const (
	headerRequestID = "X-Request-ID"

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h *handlers.Handlers
	e *echo.Echo
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(cfg config.Config, st handlers.Store, sessions *scs.SessionManager, reports bulk.Assembler, orch *bulk.Orchestrator) (*EchoServer, error) {
	if sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if reports == nil || orch == nil {
		return nil, errors.New("report assembler and bulk orchestrator are required")
	}
	h := &handlers.Handlers{
		Cfg:      cfg,
		Store:    st,
		Sessions: sessions,
		Reports:  reports,
		Bulk:     orch,
	}
	es := &EchoServer{h: h, e: echo.New()}
	es.e.HTTPErrorHandler = es.httpErrorHandler
	es.e.Use(requestIDMiddleware())
	es.e.Use(middleware.Recover())
	es.registerRoutes()
	return es, nil
}

func (es *EchoServer) registerRoutes() {
	es.e.GET("/healthz", es.h.HandleHealthz)

	es.e.GET("/login", es.h.HandleLoginGet)
	es.e.POST("/login", es.h.HandleLoginPost)
	es.e.POST("/logout", es.h.HandleLogoutPost)
	es.e.POST("/api/auth/login", es.h.HandleAPILogin)
	es.e.POST("/api/auth/logout", es.h.HandleAPILogout)

	authed := es.e.Group("", authn.RequireAuth(es.h.Sessions, es.h.Store))
	authed.GET("/", es.h.HandleReportsIndex)
	authed.GET("/api/auth/me", es.h.HandleAPIMe)

	authed.GET("/api/departments", es.h.HandleDepartments)
	authed.GET("/api/governance", es.h.HandleGovernance)
	authed.GET("/api/audit", es.h.HandleAudits)
	authed.GET("/api/audit/findings", es.h.HandleAuditFindings)
	authed.GET("/api/audit/schedules", es.h.HandleAuditSchedules)
	authed.GET("/api/compliance/controls", es.h.HandleComplianceControls)
	authed.GET("/api/compliance/policies", es.h.HandleCompliancePolicies)
	authed.GET("/api/risk", es.h.HandleRisks)

	authed.GET("/api/reports/:type", es.h.HandleReport)
	authed.GET("/api/reports/:type/export", es.h.HandleReportExport)

	authed.GET("/api/exports/status", es.h.HandleExportStatus)
	authed.POST("/api/exports/bulk", es.h.HandleBulkExport, authn.RequireRole(auth.RoleAdmin))
}

// Handler returns the echo router wrapped with session loading.
func (es *EchoServer) Handler() http.Handler {
	return es.h.Sessions.LoadAndSave(es.e)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (es *EchoServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           es.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(headerRequestID))
			if id == "" || len(id) > 128 || strings.ContainsAny(id, "\r\n") {
				id = uuid.NewString()
			}
			c.Set(handlers.ContextKeyRequestID, id)
			c.Response().Header().Set(headerRequestID, id)
			return next(c)
		}
	}
}

type statusCoder interface {
	StatusCode() int
}

func httpStatusFromError(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code >= 400 && code <= 599 {
			return code
		}
	}
	return http.StatusInternalServerError
}

func (es *EchoServer) httpErrorHandler(c *echo.Context, err error) {
	if err == nil {
		return
	}

	status := httpStatusFromError(err)
	if status >= http.StatusInternalServerError {
		_ = es.h.RenderError(c, err)
		return
	}

	if authn.IsAPIRequest(c) {
		_ = handlers.APIError(c, status, strings.ToLower(http.StatusText(status)))
		return
	}
	if status == http.StatusNotFound {
		_ = handlers.RenderNotFound(c)
		return
	}
	_ = c.String(status, http.StatusText(status))
}
