// Package auth defines dashboard principals and password hashing.
package auth

import (
	"errors"
	"strings"

	"github.com/grcdesk/grcdesk/internal/store"
)

const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"

	MethodPassword = "password"

	// MinPasswordLength applies to passwords set through the CLI.
	MinPasswordLength = 12
)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

type Principal struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Method string `json:"method"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// PrincipalFromUser maps a stored user to a password principal.
func PrincipalFromUser(u store.AuthUser) Principal {
	return Principal{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		Method: MethodPassword,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeRole returns RoleAdmin or RoleViewer, or "" for anything else.
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleAdmin:
		return RoleAdmin
	case RoleViewer:
		return RoleViewer
	default:
		return ""
	}
}
