package providers

import (
	"context"

	"github.com/grcdesk/grcdesk/internal/auth"
)

// Provider authenticates a login attempt and returns the signed-in principal.
type Provider interface {
	Name() string
	Authenticate(ctx context.Context, email, password string) (auth.Principal, error)
}

var _ Provider = (*PasswordProvider)(nil)
