// Package session keeps engine handles alive between HTTP requests.
//
// Each session owns one engine.Engine, addressed by the engine's UUID.
// Sessions expire after a period without use; [MemoryStore.Run] sweeps
// expired ones in the background.
//
//	store := session.NewMemoryStore(session.DefaultTTL, 0)
//	sess, err := store.Create(ctx, engine.WithLogger(logger))
//	...
//	sess, err = store.Get(ctx, id)
//	if errors.Is(err, session.ErrNotFound) {
//	    // unknown or expired
//	}
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/schemconv/pkg/engine"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New("session not found")

	// ErrLimit is returned by Create when the store is full.
	ErrLimit = errors.New("session limit reached")
)

// Default limits.
const (
	// DefaultTTL is how long an idle session lives.
	DefaultTTL = 30 * time.Minute

	// DefaultMaxSessions bounds live sessions, and therefore loaded models.
	DefaultMaxSessions = 256
)

// Session is one engine held on behalf of a client.
type Session struct {
	ID        uuid.UUID
	Engine    *engine.Engine
	CreatedAt time.Time

	mu        sync.Mutex
	expiresAt time.Time
}

// ExpiresAt returns when the session lapses unless used again.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt())
}

func (s *Session) touch(now time.Time, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = now.Add(ttl)
}

// Store is the interface for session storage backends.
type Store interface {
	// Create starts a session with a new Empty engine.
	Create(ctx context.Context, opts ...engine.Option) (*Session, error)

	// Get returns a live session and extends its lifetime.
	// Returns ErrNotFound if it does not exist or has expired.
	Get(ctx context.Context, id uuid.UUID) (*Session, error)

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	// Cleanup removes expired sessions and returns how many were dropped.
	Cleanup(ctx context.Context) (int, error)
}
