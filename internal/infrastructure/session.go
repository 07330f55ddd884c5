package infrastructure

import (
	"context"
	"proyecto_reservas/internal/entities"
	"sync"
	"time"
)

// MemorySessionStore keeps sessions in process memory. Sessions untouched for
// longer than ttl are treated as absent and swept periodically.
type MemorySessionStore struct {
	sessions  map[entities.SessionKey]*entities.Session
	mu        sync.RWMutex
	ttl       time.Duration
	now       func() time.Time
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemorySessionStore creates a store; ttl <= 0 disables expiry.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	s := &MemorySessionStore{
		sessions: make(map[entities.SessionKey]*entities.Session),
		ttl:      ttl,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	if ttl > 0 {
		go s.cleanup(sweepInterval(ttl))
	}
	return s
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

func (s *MemorySessionStore) expired(session *entities.Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(session.UpdatedAt) > s.ttl
}

// Get returns a copy of the stored session, or nil when absent or expired.
func (s *MemorySessionStore) Get(_ context.Context, key entities.SessionKey) (*entities.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.expired(session, s.now()) {
		s.mu.Lock()
		if current, still := s.sessions[key]; still && s.expired(current, s.now()) {
			delete(s.sessions, key)
		}
		s.mu.Unlock()
		return nil, nil
	}
	return session.Clone(), nil
}

// Put stores a copy of session, replacing any previous one.
func (s *MemorySessionStore) Put(_ context.Context, key entities.SessionKey, session *entities.Session) error {
	stored := session.Clone()
	stored.UpdatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = stored
	return nil
}

// Delete removes the session if present.
func (s *MemorySessionStore) Delete(_ context.Context, key entities.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// Len returns the number of stored sessions, expired ones included until swept.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *MemorySessionStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, session := range s.sessions {
		if s.expired(session, now) {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed
}

func (s *MemorySessionStore) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.done:
			return
		}
	}
}

// Close stops the background sweeper.
func (s *MemorySessionStore) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
