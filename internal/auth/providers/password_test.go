package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/grcdesk/grcdesk/internal/auth"
	"github.com/grcdesk/grcdesk/internal/store"
	"github.com/jackc/pgx/v5"
)

type usersByEmail map[string]store.AuthUser

func (u usersByEmail) GetAuthUserByEmail(_ context.Context, email string) (store.AuthUser, error) {
	user, ok := u[email]
	if !ok {
		return store.AuthUser{}, pgx.ErrNoRows
	}
	return user, nil
}

func TestPasswordProviderAuthenticate(t *testing.T) {
	t.Parallel()

	hash, err := auth.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	users := usersByEmail{
		"admin@example.com":    {ID: 1, Email: "admin@example.com", PasswordHash: hash, Role: auth.RoleAdmin, IsActive: true},
		"disabled@example.com": {ID: 2, Email: "disabled@example.com", PasswordHash: hash, Role: auth.RoleViewer},
	}
	p := NewPasswordProvider(users)

	principal, err := p.Authenticate(context.Background(), "  Admin@Example.com ", "correct horse battery")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if principal.UserID != 1 || !principal.IsAdmin() || principal.Method != auth.MethodPassword {
		t.Fatalf("principal = %+v", principal)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "admin@example.com", "nope"},
		{"unknown user", "ghost@example.com", "correct horse battery"},
		{"inactive user", "disabled@example.com", "correct horse battery"},
		{"empty email", "", "correct horse battery"},
		{"empty password", "admin@example.com", ""},
	}
	for _, tt := range tests {
		if _, err := p.Authenticate(context.Background(), tt.email, tt.password); !errors.Is(err, auth.ErrInvalidCredentials) {
			t.Fatalf("%s: err = %v, want ErrInvalidCredentials", tt.name, err)
		}
	}
}

func TestPasswordProviderPropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	p := NewPasswordProvider(failingLookup{})
	if _, err := p.Authenticate(context.Background(), "a@example.com", "pw"); err == nil || errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want store error", err)
	}
}

type failingLookup struct{}

func (failingLookup) GetAuthUserByEmail(context.Context, string) (store.AuthUser, error) {
	return store.AuthUser{}, errors.New("connection reset")
}
