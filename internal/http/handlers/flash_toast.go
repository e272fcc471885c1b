package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/grcdesk/grcdesk/internal/http/viewmodels"
	"github.com/labstack/echo/v5"
)

const flashToastCookieName = "grc_toast"

func setFlashToast(c *echo.Context, toast viewmodels.ToastViewData) {
	toast = cleanToast(toast)
	if toast.Title == "" && toast.Description == "" {
		return
	}

	payload, err := json.Marshal(toast)
	if err != nil {
		return
	}
	c.SetCookie(toastCookie(base64.RawURLEncoding.EncodeToString(payload), 30))
}

func popFlashToast(c *echo.Context) *viewmodels.ToastViewData {
	cookie, err := c.Cookie(flashToastCookieName)
	if err != nil || cookie == nil {
		return nil
	}
	expired := toastCookie("", -1)
	expired.Expires = time.Unix(0, 0)
	c.SetCookie(expired)

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var toast viewmodels.ToastViewData
	if err := json.Unmarshal(raw, &toast); err != nil {
		return nil
	}
	toast = cleanToast(toast)
	if toast.Title == "" && toast.Description == "" {
		return nil
	}
	return &toast
}

func toastCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     flashToastCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func cleanToast(toast viewmodels.ToastViewData) viewmodels.ToastViewData {
	toast.Category = normalizeToastCategory(toast.Category)
	toast.Title = strings.TrimSpace(toast.Title)
	toast.Description = strings.TrimSpace(toast.Description)
	return toast
}

func normalizeToastCategory(category string) string {
	switch c := strings.ToLower(strings.TrimSpace(category)); c {
	case "success", "error", "warning", "info":
		return c
	default:
		return "info"
	}
}
