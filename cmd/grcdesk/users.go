package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/grcdesk/grcdesk/internal/auth"
	"github.com/grcdesk/grcdesk/internal/config"
	"github.com/grcdesk/grcdesk/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const generatedPasswordLength = 24

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage dashboard users.",
}

type bootstrapAdminOptions struct {
	Email            string
	Password         string
	PasswordStdin    bool
	GeneratePassword bool
}

var bootstrapAdmin bootstrapAdminOptions

var bootstrapAdminCmd = &cobra.Command{
	Use:   "bootstrap-admin",
	Short: "Create the first admin user (idempotent if an admin already exists).",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email := auth.NormalizeEmail(bootstrapAdmin.Email)
		if email == "" {
			return errors.New("--email is required")
		}

		password, generated, err := resolveBootstrapPassword(cmd, bootstrapAdmin, os.Stdin)
		if err != nil {
			return err
		}
		if err := auth.ValidatePassword(password); err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		created, err := createFirstAdmin(ctx, store.New(pool), email, password)
		if err != nil {
			return err
		}
		if !created {
			cmd.Println("admin user already exists; nothing to do")
			return nil
		}

		cmd.Printf("created admin user: %s\n", email)
		if generated {
			cmd.Printf("generated password: %s\n", password)
		}
		return nil
	},
}

type adminStore interface {
	CountAuthAdmins(ctx context.Context) (int64, error)
	GetAuthUserByEmail(ctx context.Context, email string) (store.AuthUser, error)
	CreateAuthUser(ctx context.Context, arg store.CreateAuthUserParams) (store.AuthUser, error)
}

// createFirstAdmin reports false without writing when an admin already exists.
func createFirstAdmin(ctx context.Context, q adminStore, email, password string) (bool, error) {
	admins, err := q.CountAuthAdmins(ctx)
	if err != nil {
		return false, err
	}
	if admins > 0 {
		return false, nil
	}

	if _, err := q.GetAuthUserByEmail(ctx, email); err == nil {
		return false, fmt.Errorf("user already exists: %s", email)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	if _, err := q.CreateAuthUser(ctx, store.CreateAuthUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
		IsActive:     true,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func resolveBootstrapPassword(cmd *cobra.Command, opts bootstrapAdminOptions, stdin *os.File) (string, bool, error) {
	sources := 0
	for _, set := range []bool{opts.Password != "", opts.PasswordStdin, opts.GeneratePassword} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return "", false, errors.New("--password, --password-stdin and --generate-password are mutually exclusive")
	}

	switch {
	case opts.PasswordStdin:
		if fi, err := stdin.Stat(); err != nil {
			return "", false, err
		} else if fi.Mode()&os.ModeCharDevice != 0 {
			return "", false, errors.New("stdin is a terminal; use --password or omit to prompt")
		}
		password, err := readPasswordLine(stdin)
		if err != nil {
			return "", false, err
		}
		return password, false, nil
	case opts.GeneratePassword:
		password, err := generatePassword(generatedPasswordLength)
		if err != nil {
			return "", false, err
		}
		return password, true, nil
	case opts.Password != "":
		return opts.Password, false, nil
	}

	fd := int(stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", false, errors.New("no password provided (use --password, --password-stdin, or --generate-password)")
	}
	password, err := promptPassword(cmd, fd, "Password: ")
	if err != nil {
		return "", false, err
	}
	confirm, err := promptPassword(cmd, fd, "Confirm password: ")
	if err != nil {
		return "", false, err
	}
	if password != confirm {
		return "", false, errors.New("passwords do not match")
	}
	return password, false, nil
}

func promptPassword(cmd *cobra.Command, fd int, prompt string) (string, error) {
	cmd.Print(prompt)
	raw, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", errors.New("password is empty")
	}
	return string(raw), nil
}

// readPasswordLine returns the first line of r without its line ending.
func readPasswordLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", errors.New("password is empty")
	}
	password := strings.TrimRight(scanner.Text(), "\r\n")
	if password == "" {
		return "", errors.New("password is empty")
	}
	return password, nil
}

func generatePassword(length int) (string, error) {
	if length < auth.MinPasswordLength {
		return "", fmt.Errorf("password length must be at least %d", auth.MinPasswordLength)
	}
	const alphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b), nil
}

func init() {
	usersCmd.AddCommand(bootstrapAdminCmd)
	flags := bootstrapAdminCmd.Flags()
	flags.StringVar(&bootstrapAdmin.Email, "email", "", "Email address for the admin user")
	flags.StringVar(&bootstrapAdmin.Password, "password", "", "Password for the admin user (discouraged; prefer --password-stdin)")
	flags.BoolVar(&bootstrapAdmin.PasswordStdin, "password-stdin", false, "Read the password from stdin")
	flags.BoolVar(&bootstrapAdmin.GeneratePassword, "generate-password", false, "Generate a random password and print it")
	_ = bootstrapAdminCmd.MarkFlagRequired("email")
}
