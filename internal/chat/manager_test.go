package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(fb *fakeBackend, rate float64, burst int) *Manager {
	if fb.sessionID == "" {
		fb.sessionID = "sess-1"
	}
	return NewManager(fb, ManagerConfig{
		Session:   Config{Clock: newFakeClock(), NewID: sequentialIDs()},
		SendRate:  rate,
		SendBurst: burst,
		IdleTTL:   10 * time.Minute,
	}, nil)
}

func TestManager_OneSessionPerVisitor(t *testing.T) {
	m := newTestManager(&fakeBackend{}, 0, 0)

	a := m.Session("visitor-a")
	assert.Same(t, a, m.Session("visitor-a"))
	assert.NotSame(t, a, m.Session("visitor-b"))
	assert.Equal(t, 2, m.Len())
}

func TestManager_RateLimitsSends(t *testing.T) {
	fb := &fakeBackend{}
	m := newTestManager(fb, 0.001, 2)

	s := m.Session("v")
	s.Open()
	require.NoError(t, s.Register(context.Background(), anna))

	for i := 0; i < 2; i++ {
		ex, err := m.Submit("v", "ciao")
		require.NoError(t, err)
		ex.Complete(context.Background())
	}

	_, err := m.Submit("v", "ancora")
	assert.ErrorIs(t, err, ErrRateLimited)

	// other visitors have their own budget
	other := m.Session("w")
	other.Open()
	require.NoError(t, other.Register(context.Background(), anna))
	_, err = m.Submit("w", "ciao")
	assert.NoError(t, err)
}

func TestManager_Sweep(t *testing.T) {
	m := newTestManager(&fakeBackend{}, 0, 0)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	idle := m.Session("idle")
	idle.Open()

	busy := m.Session("busy")
	busy.Open()
	require.NoError(t, busy.Register(context.Background(), anna))
	_, err := busy.Submit("in attesa")
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	m.Session("fresh")

	now = now.Add(6 * time.Minute)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, StateClosed, idle.State())

	m.CloseAll()
	assert.Zero(t, m.Len())
	assert.Equal(t, StateClosed, busy.State())
}

func TestManager_RejectedMessagesKeepBudget(t *testing.T) {
	m := newTestManager(&fakeBackend{}, 0.001, 1)

	s := m.Session("v")
	s.Open()
	_, err := m.Submit("v", "prima della registrazione")
	assert.ErrorIs(t, err, ErrNotRegistered)

	require.NoError(t, s.Register(context.Background(), anna))

	_, err = m.Submit("v", "   ")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)

	ex, err := m.Submit("v", "Quanto costa la ASYA?")
	require.NoError(t, err)
	ex.Complete(context.Background())

	_, err = m.Submit("v", "e la Kick?")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestManager_SweepKeepsWatchedSessions(t *testing.T) {
	m := newTestManager(&fakeBackend{}, 0, 0)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	s := m.Session("v")
	s.Open()
	_, cancel := s.Subscribe()

	now = now.Add(time.Hour)
	assert.Zero(t, m.Sweep())
	assert.Same(t, s, m.Session("v"))

	cancel()
	now = now.Add(time.Hour)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, StateClosed, s.State())
}
