package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	domerrors "github.com/garyellow/ders-bilgi-bot/internal/errors"
	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
)

// Manager holds a bounded set of sessions; the least recently used one is
// evicted when capacity is reached. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex // guards inserts and the sessions gauge
	sessions *lru.Cache[string, *Session]
	answerer Answerer
	metrics  *metrics.Metrics
}

// NewManager creates a Manager holding at most capacity sessions.
func NewManager(capacity int, answerer Answerer, m *metrics.Metrics) (*Manager, error) {
	cache, err := lru.New[string, *Session](capacity)
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	return &Manager{sessions: cache, answerer: answerer, metrics: m}, nil
}

// Create opens a session with a fresh random id.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), m.answerer)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions.Add(s.id, s)
	m.metrics.SetSessionsActive(m.sessions.Len())
	return s
}

// Get returns the session with id, or ErrSessionNotFound.
func (m *Manager) Get(id string) (*Session, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domerrors.ErrSessionNotFound, id)
	}
	return s, nil
}

// GetOrCreate returns the session for key, opening one keyed by it when absent.
func (m *Manager) GetOrCreate(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions.Get(key); ok {
		return s
	}
	s := newSession(key, m.answerer)
	m.sessions.Add(key, s)
	m.metrics.SetSessionsActive(m.sessions.Len())
	return s
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.Len()
}
