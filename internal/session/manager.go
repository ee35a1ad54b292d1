package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplitter/internal/metrics"
)

const (
	DefaultTTL           = 2 * time.Hour
	DefaultSweepInterval = 10 * time.Minute
)

// Manager keeps live sessions and expires the ones nobody touched for a
// TTL. Expiry releases the session's stored artifacts.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	deps  Dependencies
	ttl   time.Duration
	sweep time.Duration
	stop  chan struct{}
}

func NewManager(deps Dependencies, ttl, sweep time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweep <= 0 {
		sweep = DefaultSweepInterval
	}
	m := &Manager{
		sessions: make(map[string]*Session),
		deps:     deps,
		ttl:      ttl,
		sweep:    sweep,
		stop:     make(chan struct{}),
	}
	go m.sweeper()
	return m
}

// Create opens a fresh session with no document loaded.
func (m *Manager) Create() *Session {
	s := New(m.deps)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	metrics.SessionOpened()
	log.Info().Str("session", s.ID).Msg("session opened")
	return s
}

// Get returns a live session and marks it touched.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if ok {
		s.Touch()
	}
	return s, ok
}

// Remove closes a session explicitly. A session mid-split is left alone.
func (m *Manager) Remove(id string) bool {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	if !s.Close() {
		return false
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	metrics.SessionClosed()
	log.Info().Str("session", id).Msg("session closed")
	return true
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stop halts the sweeper. Live sessions are not torn down; process exit
// handles that.
func (m *Manager) Stop() {
	close(m.stop)
}

func (m *Manager) sweeper() {
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweepOnce()
		}
	}
}

func (m *Manager) sweepOnce() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.RLock()
	var expired []*Session
	for _, s := range m.sessions {
		if s.LastTouch().Before(cutoff) {
			expired = append(expired, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range expired {
		// A running split keeps the session alive; the next sweep
		// retries.
		if !s.Close() {
			continue
		}
		m.mu.Lock()
		delete(m.sessions, s.ID)
		m.mu.Unlock()

		metrics.SessionClosed()
		log.Info().Str("session", s.ID).Dur("idle", time.Since(s.LastTouch())).Msg("session expired")
	}
}
