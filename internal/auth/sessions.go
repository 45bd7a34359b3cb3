package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionManager keeps login sessions in process memory: opaque tokens
// mapped to usernames with a TTL. Sessions do not survive a restart,
// which is fine for a single-user local dashboard.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]session
	ttl      time.Duration

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type session struct {
	username  string
	expiresAt time.Time
}

// NewSessionManager creates a manager and starts its cleanup goroutine.
func NewSessionManager(ttl time.Duration) *SessionManager {
	m := &SessionManager{
		sessions:    make(map[string]session),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}
	go m.startCleanup()
	return m
}

// Create opens a session for the user and returns its token.
func (m *SessionManager) Create(username string) string {
	token := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = session{
		username:  username,
		expiresAt: time.Now().Add(m.ttl),
	}
	return token
}

// Lookup resolves a token to its username. Expired sessions are removed
// on access.
func (m *SessionManager) Lookup(token string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return "", false
	}
	if time.Now().After(s.expiresAt) {
		delete(m.sessions, token)
		return "", false
	}
	return s.username, true
}

// Destroy removes a session (logout).
func (m *SessionManager) Destroy(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// ActiveSessions returns the number of live (possibly expired but not yet
// collected) sessions.
func (m *SessionManager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanupExpired()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *SessionManager) cleanupExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for token, s := range m.sessions {
		if now.After(s.expiresAt) {
			delete(m.sessions, token)
		}
	}
}

// Stop shuts down the cleanup goroutine.
func (m *SessionManager) Stop() {
	m.shutdownOnce.Do(func() {
		close(m.stopCleanup)
	})
}
