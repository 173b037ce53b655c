// Package session keeps in-memory editing sessions, one allocation engine per
// session, and expires them after a period of inactivity.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/group-rooming/internal/allocation"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Session is one head guest's editing session.
type Session struct {
	ID          string
	HeadGuestID string
	CreatedAt   time.Time

	mu     sync.Mutex
	engine *allocation.Engine
}

// Do runs fn with exclusive access to the session's engine.
func (s *Session) Do(fn func(e *allocation.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.engine)
}

// Manager stores sessions with a sliding expiry.
type Manager struct {
	store  *cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewManager creates a Manager. Sessions idle for longer than ttl are dropped;
// cleanup is how often expired sessions are purged.
func NewManager(ttl, cleanup time.Duration, logger *zap.Logger) *Manager {
	store := cache.New(ttl, cleanup)
	store.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*Session); ok {
			logger.Info("session closed",
				zap.String("session_id", id),
				zap.String("head_guest_id", s.HeadGuestID),
				zap.Duration("age", time.Since(s.CreatedAt)),
			)
		}
	})
	return &Manager{store: store, ttl: ttl, logger: logger}
}

// Create registers a new session around engine.
func (m *Manager) Create(engine *allocation.Engine) *Session {
	s := &Session{
		ID:          uuid.NewString(),
		HeadGuestID: engine.HeadGuestID(),
		CreatedAt:   time.Now(),
		engine:      engine,
	}
	m.store.Set(s.ID, s, cache.DefaultExpiration)
	m.logger.Info("session opened",
		zap.String("session_id", s.ID),
		zap.String("head_guest_id", s.HeadGuestID),
	)
	return s
}

// Get returns the session and extends its expiry.
func (m *Manager) Get(id string) (*Session, error) {
	v, ok := m.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s := v.(*Session)
	m.store.Set(id, s, cache.DefaultExpiration)
	return s, nil
}

// Delete ends a session.
func (m *Manager) Delete(id string) error {
	if _, ok := m.store.Get(id); !ok {
		return ErrNotFound
	}
	m.store.Delete(id)
	return nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	return m.store.ItemCount()
}
