package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/schemconv/pkg/engine"
)

// MemoryStore keeps sessions in process memory. Engines hold live models,
// so sessions are never serialized; a multi-replica deployment needs
// sticky routing.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	max      int
	now      func() time.Time
}

// NewMemoryStore creates a store. Zero values select DefaultTTL and
// DefaultMaxSessions.
func NewMemoryStore(ttl time.Duration, max int) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &MemoryStore{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		max:      max,
		now:      time.Now,
	}
}

// Create implements Store. Expired sessions are swept first when the
// store is full.
func (s *MemoryStore) Create(ctx context.Context, opts ...engine.Option) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if len(s.sessions) >= s.max {
		s.sweepLocked(now)
		if len(s.sessions) >= s.max {
			return nil, fmt.Errorf("%w (%d)", ErrLimit, s.max)
		}
	}

	e := engine.New(opts...)
	sess := &Session{ID: e.ID(), Engine: e, CreatedAt: now}
	sess.touch(now, s.ttl)
	s.sessions[sess.ID] = sess
	return sess, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	now := s.now()
	if !ok {
		return nil, ErrNotFound
	}
	if sess.IsExpired(now) {
		_ = s.Delete(ctx, id)
		return nil, ErrNotFound
	}
	sess.touch(now, s.ttl)
	return sess, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Cleanup implements Store.
func (s *MemoryStore) Cleanup(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now()), nil
}

// Len returns the number of stored sessions, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run calls Cleanup every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Cleanup(ctx)
		}
	}
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	n := 0
	for id, sess := range s.sessions {
		if sess.IsExpired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
