package chat

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/spherical-ai/spherical/libs/showroom/internal/domain"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
)

// ErrRateLimited is returned when a visitor sends faster than allowed.
var ErrRateLimited = domain.ValidationError("too many messages, slow down", nil)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Session   Config
	SendRate  float64 // messages per second per visitor, 0 disables limiting
	SendBurst int
	IdleTTL   time.Duration
}

// Manager keeps one chat session per visitor.
type Manager struct {
	backend Backend
	cfg     ManagerConfig
	logger  *observability.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*managedSession
}

type managedSession struct {
	session  *Session
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewManager creates a session manager.
func NewManager(backend Backend, cfg ManagerConfig, logger *observability.Logger) *Manager {
	if logger == nil {
		logger = observability.Nop()
	}
	if cfg.SendBurst <= 0 {
		cfg.SendBurst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	return &Manager{
		backend:  backend,
		cfg:      cfg,
		logger:   logger.WithComponent("chat_manager"),
		now:      time.Now,
		sessions: make(map[string]*managedSession),
	}
}

func (m *Manager) entry(visitorID string) *managedSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[visitorID]
	if !ok {
		limit := rate.Inf
		if m.cfg.SendRate > 0 {
			limit = rate.Limit(m.cfg.SendRate)
		}
		e = &managedSession{
			session: NewSession(m.backend, m.cfg.Session, m.logger.WithVisitor(visitorID)),
			limiter: rate.NewLimiter(limit, m.cfg.SendBurst),
		}
		m.sessions[visitorID] = e
	}
	e.lastUsed = m.now()
	return e
}

// Session returns the visitor's session, creating a closed one on first use.
func (m *Manager) Session(visitorID string) *Session {
	return m.entry(visitorID).session
}

// Submit rate-limits and submits a customer message for the visitor. Only
// accepted messages spend the visitor's budget. The caller runs Complete on
// the returned exchange.
func (m *Manager) Submit(visitorID, text string) (*Exchange, error) {
	e := m.entry(visitorID)
	if e.limiter.Tokens() < 1 {
		return nil, ErrRateLimited
	}
	ex, err := e.session.Submit(text)
	if err != nil {
		return nil, err
	}
	e.limiter.Allow()
	return ex, nil
}

// Sweep closes and forgets sessions idle for longer than the configured TTL.
// Sessions with a request in flight or a live subscriber are kept.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.cfg.IdleTTL)
	removed := 0
	for id, e := range m.sessions {
		if e.lastUsed.After(cutoff) || e.session.Busy() || e.session.Watched() {
			continue
		}
		e.session.Close()
		delete(m.sessions, id)
		removed++
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug().Int("removed", n).Msg("Swept idle chat sessions")
			}
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll closes every session, used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.sessions {
		e.session.Close()
		delete(m.sessions, id)
	}
}
