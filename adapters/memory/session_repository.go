// Package memory keeps game sessions in process memory for the lifetime of the server
package memory

import (
	"context"
	"sync"
	"time"

	"cltlab/domain/core"
	"cltlab/domain/game"
)

// SessionRepository implements ports.SessionRepository on a map. Sessions are copied on the
// way in and out so callers never share state with the store.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*game.Session
}

// NewSessionRepository creates an empty in-memory session store
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[core.SessionID]*game.Session),
	}
}

// Save creates or replaces the session
func (r *SessionRepository) Save(ctx context.Context, sess *game.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sess == nil || sess.ID.IsEmpty() || sess.State == nil {
		return core.ErrInvalidSessionID
	}

	r.mu.Lock()
	r.sessions[sess.ID] = sess.Clone()
	r.mu.Unlock()
	return nil
}

// Get returns a copy of the session
func (r *SessionRepository) Get(ctx context.Context, id core.SessionID) (*game.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Delete removes the session if present
func (r *SessionRepository) Delete(ctx context.Context, id core.SessionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}

// PurgeIdle removes sessions whose last update is older than idle
func (r *SessionRepository) PurgeIdle(ctx context.Context, idle time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	purged := 0
	for id, sess := range r.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(r.sessions, id)
			purged++
		}
	}
	return purged, nil
}

// Len is the number of live sessions
func (r *SessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
