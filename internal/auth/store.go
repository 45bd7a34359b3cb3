// Package auth is the credential store: a SQLite-backed username/password
// table plus per-user namespace provisioning.
//
// Passwords are stored as a bare SHA-256 hex digest to stay compatible
// with the existing table format. That is prototype-grade credential
// storage, not real security; any deployment that needs the latter wants
// a salted slow KDF and a schema migration.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"finboard/internal/log"
)

var (
	// ErrUserExists reports a duplicate username on account creation.
	ErrUserExists = errors.New("username already exists")
	// ErrInvalidUsername rejects names that cannot become a namespace
	// directory: 3-32 chars of letters, digits, underscore or hyphen.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrWeakPassword rejects empty or too-short passwords.
	ErrWeakPassword = errors.New("password must be at least 6 characters")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// Provisioner creates the per-user storage namespace on account creation.
// Implemented by the record store.
type Provisioner interface {
	Provision(username string) error
}

// Store verifies credentials against the users table.
type Store struct {
	db          *sql.DB
	provisioner Provisioner
	logger      *log.Logger
}

// New opens (creating if needed) the credential database at dbPath, runs
// migrations and returns a ready Store.
func New(dbPath string, p Provisioner, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:          db,
		provisioner: p,
		logger:      logger.WithComponent(log.ComponentAuth),
	}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// HashPassword returns the stored digest format for a password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CreateAccount registers a new user and provisions an empty namespace
// (the three table files). A duplicate username yields ErrUserExists.
func (s *Store) CreateAccount(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	if len(password) < 6 {
		return ErrWeakPassword
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, HashPassword(password))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	if s.provisioner != nil {
		if err := s.provisioner.Provision(username); err != nil {
			return fmt.Errorf("provision namespace: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "Account created", log.FieldUser, username, log.FieldOperation, log.OpCreate)
	return nil
}

// Verify checks a username/password pair. Unknown usernames return
// (false, nil), not an error; the digest comparison is constant-time.
func (s *Store) Verify(ctx context.Context, username, password string) (bool, error) {
	var stored string
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE username = ?`, strings.TrimSpace(username)).
		Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup user: %w", err)
	}

	supplied := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1, nil
}

// UserExists reports whether a username is registered.
func (s *Store) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, strings.TrimSpace(username)).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}

// UserCount returns the number of registered accounts.
func (s *Store) UserCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// isUniqueViolation matches the sqlite UNIQUE constraint error. The
// modernc driver exposes it only through the message text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
