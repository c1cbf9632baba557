package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"EcoFinds/internal/auth"
)

// Manager owns the open sessions, one per sign-in. Sessions idle for
// longer than the idle limit are dropped the next time one is opened.
type Manager struct {
	deps Deps
	idle time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	s        *Session
	lastSeen time.Time
}

func NewManager(deps Deps, idle time.Duration) *Manager {
	return &Manager{
		deps:    deps.withDefaults(),
		idle:    idle,
		entries: make(map[string]*entry),
	}
}

// OpenSession implements auth.SessionOpener.
func (m *Manager) OpenSession(id auth.Identity) string {
	return m.Open(User{ID: id.UserID, Email: id.Email, Username: id.Username}).ID()
}

// Open starts a fresh session for u and moves it past the auth page.
func (m *Manager) Open(u User) *Session {
	s := New(u, m.deps)
	_ = s.authenticate()

	now := m.deps.Now()

	m.mu.Lock()
	m.sweepLocked(now)
	m.entries[s.ID()] = &entry{s: s, lastSeen: now}
	n := len(m.entries)
	m.mu.Unlock()

	m.deps.Metrics.ActiveSessions.Set(float64(n))
	m.deps.Log.Info("session opened", zap.String("session_id", s.ID()), zap.String("user_id", u.ID))
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	now := m.deps.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok || m.expired(e, now) {
		return nil, false
	}
	e.lastSeen = now
	return e.s, true
}

// Close ends a session and reports whether it was open.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	_, ok := m.entries[id]
	delete(m.entries, id)
	n := len(m.entries)
	m.mu.Unlock()

	if ok {
		m.deps.Metrics.ActiveSessions.Set(float64(n))
		m.deps.Log.Info("session closed", zap.String("session_id", id))
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Manager) expired(e *entry, now time.Time) bool {
	return m.idle > 0 && now.Sub(e.lastSeen) > m.idle
}

func (m *Manager) sweepLocked(now time.Time) {
	for id, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, id)
		}
	}
}
