package session

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EcoFinds/internal/auth"
	"EcoFinds/internal/catalog"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestManager_OpenGetClose(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	m := NewManager(Deps{Catalog: catalog.NewMemStore(nil), Metrics: metrics}, time.Hour)

	sid := m.OpenSession(auth.Identity{UserID: "u1", Username: "eco"})
	s, ok := m.Get(sid)
	require.True(t, ok)
	assert.Equal(t, "u1", s.User().ID)
	assert.Equal(t, PageHome, s.Nav().Page, "signed-in sessions start at home")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ActiveSessions))

	other := m.OpenSession(auth.Identity{UserID: "u1"})
	assert.NotEqual(t, sid, other)
	assert.Equal(t, 2, m.Len())

	assert.True(t, m.Close(sid))
	assert.False(t, m.Close(sid))
	_, ok = m.Get(sid)
	assert.False(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ActiveSessions))
}

func TestManager_IdleSessionsExpire(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewManager(Deps{Catalog: catalog.NewMemStore(nil), Now: c.Now}, 10*time.Minute)

	stale := m.Open(User{ID: "u1"}).ID()
	fresh := m.Open(User{ID: "u2"}).ID()

	c.Advance(6 * time.Minute)
	_, ok := m.Get(fresh)
	require.True(t, ok)

	c.Advance(6 * time.Minute)
	_, ok = m.Get(stale)
	assert.False(t, ok)
	_, ok = m.Get(fresh)
	assert.True(t, ok)

	m.Open(User{ID: "u3"})
	assert.Equal(t, 2, m.Len(), "stale session swept on open")
}
