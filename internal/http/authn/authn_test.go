package authn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/grcdesk/grcdesk/internal/auth"
	"github.com/grcdesk/grcdesk/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v5"
)

func TestSanitizeNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "whitespace", in: "   ", want: ""},
		{name: "root", in: "/", want: ""},
		{name: "ok_path", in: "/reports", want: "/reports"},
		{name: "ok_path_query", in: "/reports?type=audit", want: "/reports?type=audit"},
		{name: "ok_root_query", in: "/?foo=bar", want: "/?foo=bar"},
		{name: "absolute_url", in: "https://evil.example/", want: ""},
		{name: "protocol_relative", in: "//evil.example/", want: ""},
		{name: "triple_slash", in: "///evil.example/", want: ""},
		{name: "backslash", in: "/\\evil.example/", want: ""},
		{name: "encoded_slash", in: "/%2f%2fevil.example/", want: ""},
		{name: "encoded_backslash", in: "/%5cevil.example/", want: ""},
		{name: "login_path", in: "/login", want: ""},
		{name: "login_subpath", in: "/login/reset", want: ""},
		{name: "newline", in: "/\n/evil", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeNext(tt.in); got != tt.want {
				t.Fatalf("SanitizeNext(%q)=%q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

type usersByID map[int64]store.AuthUser

func (u usersByID) GetAuthUser(_ context.Context, id int64) (store.AuthUser, error) {
	user, ok := u[id]
	if !ok {
		return store.AuthUser{}, pgx.ErrNoRows
	}
	return user, nil
}

func newSessionContext(t *testing.T, method, target string, userID int64) (*echo.Context, *httptest.ResponseRecorder, *scs.SessionManager) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	sessions := scs.New()
	ctx, err := sessions.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("sessions.Load() error = %v", err)
	}
	if userID > 0 {
		sessions.Put(ctx, SessionKeyUserID, userID)
	}
	c.SetRequest(req.WithContext(ctx))
	return c, rec, sessions
}

func TestRequireAuthAPIReturnsJSON401(t *testing.T) {
	t.Parallel()

	c, rec, sessions := newSessionContext(t, http.MethodGet, "http://example.com/api/risk", 0)
	handler := RequireAuth(sessions, usersByID{})(func(c *echo.Context) error {
		t.Fatal("next handler called")
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] != "unauthorized" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestRequireAuthPageRedirectsToLogin(t *testing.T) {
	t.Parallel()

	c, rec, sessions := newSessionContext(t, http.MethodGet, "http://example.com/reports?type=audit", 0)
	handler := RequireAuth(sessions, usersByID{})(func(c *echo.Context) error { return nil })
	if err := handler(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/login?next=%2Freports%3Ftype%3Daudit" {
		t.Fatalf("Location = %q", got)
	}
}

func TestRequireAuthSetsPrincipal(t *testing.T) {
	t.Parallel()

	users := usersByID{7: {ID: 7, Email: "viewer@example.com", Role: auth.RoleViewer, IsActive: true}}
	c, _, sessions := newSessionContext(t, http.MethodGet, "http://example.com/api/risk", 7)

	var got auth.Principal
	handler := RequireAuth(sessions, users)(func(c *echo.Context) error {
		p, ok := PrincipalFromContext(c)
		if !ok {
			t.Fatal("principal missing")
		}
		got = p
		return c.NoContent(http.StatusNoContent)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if got.UserID != 7 || got.Email != "viewer@example.com" || got.IsAdmin() {
		t.Fatalf("principal = %+v", got)
	}
}

func TestLoadPrincipalInactiveUser(t *testing.T) {
	t.Parallel()

	users := usersByID{3: {ID: 3, Email: "gone@example.com", Role: auth.RoleAdmin}}
	c, _, sessions := newSessionContext(t, http.MethodGet, "http://example.com/", 3)

	_, ok, err := LoadPrincipal(c, sessions, users)
	if err != nil || ok {
		t.Fatalf("LoadPrincipal() = %v, %v; want no principal", ok, err)
	}
}

func TestRequireRoleForbidsAPIViewer(t *testing.T) {
	t.Parallel()

	c, rec, _ := newSessionContext(t, http.MethodPost, "http://example.com/api/exports/bulk", 0)
	c.Set(ContextKeyPrincipal, auth.Principal{UserID: 1, Role: auth.RoleViewer})

	handler := RequireRole(auth.RoleAdmin)(func(c *echo.Context) error {
		t.Fatal("next handler called")
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}
