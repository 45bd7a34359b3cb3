package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"finboard/internal/store"
)

func newTestAuth(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	recs := store.New(filepath.Join(dir, "data"), nil)
	s, err := New(filepath.Join(dir, "auth.db"), recs, nil)
	if err != nil {
		t.Fatalf("open auth store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, filepath.Join(dir, "data")
}

func TestCreateAccountAndDuplicate(t *testing.T) {
	s, dataDir := newTestAuth(t)
	ctx := context.Background()

	if err := s.CreateAccount(ctx, "alice", "hunter22"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := s.CreateAccount(ctx, "alice", "other-pass"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("second create: got %v, want ErrUserExists", err)
	}
	n, err := s.UserCount(ctx)
	if err != nil || n != 1 {
		t.Fatalf("user count = %d (err=%v), want exactly 1 row", n, err)
	}

	// Namespace provisioned with the three table files.
	for _, name := range []string{"transactions.csv", "clients.csv", "recurring.csv"} {
		if _, err := os.Stat(filepath.Join(dataDir, "alice", name)); err != nil {
			t.Fatalf("namespace file %s missing: %v", name, err)
		}
	}
}

func TestCreateAccountValidation(t *testing.T) {
	s, _ := newTestAuth(t)
	ctx := context.Background()

	cases := []struct {
		username, password string
		want               error
	}{
		{"ab", "hunter22", ErrInvalidUsername},
		{"has space", "hunter22", ErrInvalidUsername},
		{"../escape", "hunter22", ErrInvalidUsername},
		{"alice", "short", ErrWeakPassword},
	}
	for _, tc := range cases {
		if err := s.CreateAccount(ctx, tc.username, tc.password); !errors.Is(err, tc.want) {
			t.Fatalf("CreateAccount(%q, %q) = %v, want %v", tc.username, tc.password, err, tc.want)
		}
	}
}

func TestVerify(t *testing.T) {
	s, _ := newTestAuth(t)
	ctx := context.Background()

	if err := s.CreateAccount(ctx, "bob", "sekrit99"); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := s.Verify(ctx, "bob", "sekrit99")
	if err != nil || !ok {
		t.Fatalf("correct password: ok=%v err=%v", ok, err)
	}
	ok, err = s.Verify(ctx, "bob", "wrong")
	if err != nil || ok {
		t.Fatalf("wrong password: ok=%v err=%v", ok, err)
	}
	// Unknown usernames return false, not an error.
	ok, err = s.Verify(ctx, "nobody", "whatever")
	if err != nil || ok {
		t.Fatalf("unknown user: ok=%v err=%v", ok, err)
	}
}

func TestHashPasswordIsStableDigest(t *testing.T) {
	// The stored format is the SHA-256 hex digest of the raw password.
	got := HashPassword("password")
	want := "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"
	if got != want {
		t.Fatalf("HashPassword = %s, want %s", got, want)
	}
}

func TestSessions(t *testing.T) {
	m := NewSessionManager(50 * time.Millisecond)
	defer m.Stop()

	token := m.Create("alice")
	if user, ok := m.Lookup(token); !ok || user != "alice" {
		t.Fatalf("lookup = (%q, %v)", user, ok)
	}
	if _, ok := m.Lookup("not-a-token"); ok {
		t.Fatal("bogus token accepted")
	}

	m.Destroy(token)
	if _, ok := m.Lookup(token); ok {
		t.Fatal("destroyed session still valid")
	}

	expiring := m.Create("bob")
	time.Sleep(80 * time.Millisecond)
	if _, ok := m.Lookup(expiring); ok {
		t.Fatal("expired session still valid")
	}
}
