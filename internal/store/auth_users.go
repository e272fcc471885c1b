package store

import (
	"context"
	"time"
)

type AuthUser struct {
	ID           int64      `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         string     `json:"role" db:"role"`
	IsActive     bool       `json:"isActive" db:"is_active"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	LastLoginIP  string     `json:"-" db:"last_login_ip"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

const authUserColumns = `id, email, password_hash, role, is_active, last_login_at, last_login_ip, created_at`

func scanAuthUser(row interface{ Scan(...any) error }) (AuthUser, error) {
	var u AuthUser
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.LastLoginAt, &u.LastLoginIP, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetAuthUser(ctx context.Context, id int64) (AuthUser, error) {
	return scanAuthUser(q.db.QueryRow(ctx, `SELECT `+authUserColumns+` FROM auth_users WHERE id = $1`, id))
}

func (q *Queries) GetAuthUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	return scanAuthUser(q.db.QueryRow(ctx, `SELECT `+authUserColumns+` FROM auth_users WHERE email = $1`, email))
}

func (q *Queries) CountAuthUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM auth_users`).Scan(&n)
	return n, err
}

func (q *Queries) CountAuthAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM auth_users WHERE role = 'admin' AND is_active`).Scan(&n)
	return n, err
}

type CreateAuthUserParams struct {
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
}

func (q *Queries) CreateAuthUser(ctx context.Context, arg CreateAuthUserParams) (AuthUser, error) {
	return scanAuthUser(q.db.QueryRow(ctx,
		`INSERT INTO auth_users (email, password_hash, role, is_active) VALUES ($1, $2, $3, $4) RETURNING `+authUserColumns,
		arg.Email, arg.PasswordHash, arg.Role, arg.IsActive,
	))
}

type UpdateAuthUserLoginMetaParams struct {
	ID          int64
	LastLoginAt time.Time
	LastLoginIP string
}

func (q *Queries) UpdateAuthUserLoginMeta(ctx context.Context, arg UpdateAuthUserLoginMetaParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE auth_users SET last_login_at = $2, last_login_ip = $3 WHERE id = $1`,
		arg.ID, arg.LastLoginAt, arg.LastLoginIP,
	)
	return err
}
