package httpapp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/grcdesk/grcdesk/internal/bulk"
	"github.com/grcdesk/grcdesk/internal/config"
	"github.com/grcdesk/grcdesk/internal/grc"
	"github.com/grcdesk/grcdesk/internal/http/handlers"
	"github.com/grcdesk/grcdesk/internal/report"
	"github.com/grcdesk/grcdesk/internal/source"
	"github.com/grcdesk/grcdesk/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v5"
)

func TestHTTPErrorHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
		wantBody   []string
		wantExact  string
	}{
		{
			name:       "internal error is generic",
			path:       "/reports",
			err:        errors.New("leaky database detail"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   []string{"Internal server error", "Reference: req-123", "Code: " + handlers.InternalErrorCode},
		},
		{
			name:       "not found page",
			path:       "/missing",
			err:        echo.NewHTTPError(http.StatusNotFound, "leaky not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   []string{"404 page not found"},
		},
		{
			name:       "echo not found sentinel",
			path:       "/missing",
			err:        echo.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantBody:   []string{"404 page not found"},
		},
		{
			name:       "bad request uses status text",
			path:       "/bad",
			err:        echo.NewHTTPError(http.StatusBadRequest, "leaky bad request"),
			wantStatus: http.StatusBadRequest,
			wantExact:  http.StatusText(http.StatusBadRequest),
		},
		{
			name:       "api errors use json envelope",
			path:       "/api/reports/risk",
			err:        echo.NewHTTPError(http.StatusForbidden, "leaky forbidden"),
			wantStatus: http.StatusForbidden,
			wantExact:  `{"error":"forbidden"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			e.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

			req := httptest.NewRequest(http.MethodGet, "http://example.com"+tt.path, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.Set(handlers.ContextKeyRequestID, "req-123")

			es := &EchoServer{h: &handlers.Handlers{}, e: e}
			es.httpErrorHandler(c, tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status=%d want %d", rec.Code, tt.wantStatus)
			}
			body := rec.Body.String()
			if strings.Contains(body, "leaky") {
				t.Fatalf("response leaked error details: %q", body)
			}
			for _, want := range tt.wantBody {
				if !strings.Contains(body, want) {
					t.Fatalf("body=%q missing %q", body, want)
				}
			}
			if tt.wantExact != "" {
				if got := strings.TrimSpace(body); got != tt.wantExact {
					t.Fatalf("body=%q want %q", got, tt.wantExact)
				}
			}
		})
	}
}

func TestHTTPStatusFromError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{echo.ErrNotFound, http.StatusNotFound},
		{echo.ErrForbidden, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := httpStatusFromError(tt.err); got != tt.want {
			t.Fatalf("httpStatusFromError(%v)=%d want %d", tt.err, got, tt.want)
		}
	}
}

type emptyStore struct{}

func (emptyStore) GetAuthUser(context.Context, int64) (store.AuthUser, error) {
	return store.AuthUser{}, pgx.ErrNoRows
}

func (emptyStore) GetAuthUserByEmail(context.Context, string) (store.AuthUser, error) {
	return store.AuthUser{}, pgx.ErrNoRows
}

func (emptyStore) CountAuthUsers(context.Context) (int64, error) { return 0, nil }

func (emptyStore) UpdateAuthUserLoginMeta(context.Context, store.UpdateAuthUserLoginMetaParams) error {
	return nil
}

func (emptyStore) ListDepartments(context.Context) ([]grc.Department, error) { return nil, nil }

func (emptyStore) ListGovernanceItems(context.Context, grc.GovernanceFilter) ([]grc.GovernanceItem, error) {
	return nil, nil
}

func (emptyStore) ListAudits(context.Context) ([]grc.Audit, error) { return nil, nil }

func (emptyStore) ListAuditFindings(context.Context) ([]grc.AuditFinding, error) { return nil, nil }

func (emptyStore) ListAuditSchedules(context.Context) ([]grc.AuditSchedule, error) { return nil, nil }

func (emptyStore) ListComplianceControls(context.Context) ([]grc.ComplianceControl, error) {
	return nil, nil
}

func (emptyStore) ListCompliancePolicies(context.Context) ([]grc.CompliancePolicy, error) {
	return nil, nil
}

func (emptyStore) ListRisks(context.Context) ([]grc.Risk, error) { return nil, nil }

func newTestServer(t *testing.T) *EchoServer {
	t.Helper()
	assembler := report.NewAssembler(source.NewStoreSource(emptyStore{}))
	es, err := NewEchoServer(config.Config{}, emptyStore{}, scs.New(), assembler, bulk.NewOrchestrator(assembler))
	if err != nil {
		t.Fatalf("NewEchoServer() error = %v", err)
	}
	es.e.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return es
}

func TestNewEchoServerRequiresSessions(t *testing.T) {
	assembler := report.NewAssembler(source.NewStoreSource(emptyStore{}))
	if _, err := NewEchoServer(config.Config{}, emptyStore{}, nil, assembler, bulk.NewOrchestrator(assembler)); err == nil {
		t.Fatal("expected error without a session manager")
	}
}

func TestRoutesHealthzSetsRequestID(t *testing.T) {
	es := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/healthz", nil)
	rec := httptest.NewRecorder()
	es.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID header")
	}
}

func TestRoutesKeepIncomingRequestID(t *testing.T) {
	es := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	es.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("X-Request-ID=%q", got)
	}
}

func TestRoutesAPIRequiresSession(t *testing.T) {
	es := newTestServer(t)

	for _, target := range []string{"/api/risk", "/api/reports/audit", "/api/exports/status", "/api/auth/me"} {
		req := httptest.NewRequest(http.MethodGet, "http://example.com"+target, nil)
		rec := httptest.NewRecorder()
		es.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status=%d want 401", target, rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"unauthorized"}` {
			t.Fatalf("%s: body=%q", target, got)
		}
	}
}

func TestRoutesPagesRedirectToLogin(t *testing.T) {
	es := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	rec := httptest.NewRecorder()
	es.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("status=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRoutesLoginPageShowsSetupHint(t *testing.T) {
	es := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/login", nil)
	rec := httptest.NewRecorder()
	es.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "bootstrap-admin") {
		t.Fatalf("body missing setup hint: %q", rec.Body.String())
	}
}
