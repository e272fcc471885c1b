package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/grcdesk/grcdesk/internal/auth"
	"github.com/grcdesk/grcdesk/internal/auth/providers"
	"github.com/grcdesk/grcdesk/internal/http/authn"
	"github.com/grcdesk/grcdesk/internal/http/viewmodels"
	"github.com/grcdesk/grcdesk/internal/http/views"
	"github.com/grcdesk/grcdesk/internal/store"
	"github.com/labstack/echo/v5"
)

var errSessionsNotConfigured = errors.New("auth sessions not configured")

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User auth.Principal `json:"user"`
}

func (h *Handlers) HandleLoginGet(c *echo.Context) error {
	if h.Sessions == nil {
		return errSessionsNotConfigured
	}

	if _, ok, err := authn.LoadPrincipal(c, h.Sessions, h.Store); err != nil {
		return err
	} else if ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	count, err := h.Store.CountAuthUsers(c.Request().Context())
	if err != nil {
		return err
	}

	data := viewmodels.LoginViewData{
		Next:          authn.SanitizeNext(c.QueryParam("next")),
		SetupRequired: count == 0,
		Toast:         popFlashToast(c),
	}
	return h.RenderComponent(c, views.LoginPage(data))
}

func (h *Handlers) HandleLoginPost(c *echo.Context) error {
	if h.Sessions == nil {
		return errSessionsNotConfigured
	}
	ctx := c.Request().Context()

	count, err := h.Store.CountAuthUsers(ctx)
	if err != nil {
		return err
	}

	email := auth.NormalizeEmail(c.FormValue("email"))
	data := viewmodels.LoginViewData{
		Email: email,
		Next:  authn.SanitizeNext(c.FormValue("next")),
	}
	if count == 0 {
		data.SetupRequired = true
		return h.RenderComponent(c, views.LoginPage(data))
	}

	if _, err := h.signIn(c, email, c.FormValue("password")); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			data.ErrorMessage = "Invalid email or password."
			return h.RenderComponent(c, views.LoginPage(data))
		}
		return err
	}

	if data.Next != "" {
		return c.Redirect(http.StatusSeeOther, data.Next)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handlers) HandleLogoutPost(c *echo.Context) error {
	if h.Sessions == nil {
		return errSessionsNotConfigured
	}

	if err := h.Sessions.Destroy(c.Request().Context()); err != nil {
		return err
	}
	setFlashToast(c, viewmodels.ToastViewData{
		Category: "success",
		Title:    "Signed out",
	})
	return c.Redirect(http.StatusSeeOther, "/login")
}

// HandleAPILogin authenticates a JSON body and starts a session.
func (h *Handlers) HandleAPILogin(c *echo.Context) error {
	if h.Sessions == nil {
		return errSessionsNotConfigured
	}

	var body loginRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return APIError(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		return APIError(c, http.StatusBadRequest, "email and password are required")
	}

	principal, err := h.signIn(c, body.Email, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return APIError(c, http.StatusUnauthorized, "invalid email or password")
		}
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: principal})
}

func (h *Handlers) HandleAPILogout(c *echo.Context) error {
	if h.Sessions == nil {
		return errSessionsNotConfigured
	}
	if err := h.Sessions.Destroy(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) HandleAPIMe(c *echo.Context) error {
	principal, ok := authn.PrincipalFromContext(c)
	if !ok {
		return APIError(c, http.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(http.StatusOK, userResponse{User: principal})
}

func (h *Handlers) signIn(c *echo.Context, email, password string) (auth.Principal, error) {
	ctx := c.Request().Context()
	principal, err := providers.NewPasswordProvider(h.Store).Authenticate(ctx, email, password)
	if err != nil {
		return auth.Principal{}, err
	}

	if err := h.Sessions.RenewToken(ctx); err != nil {
		return auth.Principal{}, err
	}
	h.Sessions.Put(ctx, authn.SessionKeyUserID, principal.UserID)
	h.recordLogin(ctx, principal.UserID, c.RealIP())
	return principal, nil
}

func (h *Handlers) recordLogin(ctx context.Context, userID int64, ip string) {
	_ = h.Store.UpdateAuthUserLoginMeta(ctx, store.UpdateAuthUserLoginMetaParams{
		ID:          userID,
		LastLoginAt: h.now(),
		LastLoginIP: strings.TrimSpace(ip),
	})
}
