package ports

import (
	"context"
	"time"

	"cltlab/domain/core"
	"cltlab/domain/game"
)

// SessionRepository stores game sessions for as long as the player's session lives
type SessionRepository interface {
	// Save creates or replaces the session
	Save(ctx context.Context, sess *game.Session) error

	// Get returns a copy of the session or core.ErrSessionNotFound
	Get(ctx context.Context, id core.SessionID) (*game.Session, error)

	// Delete ends the session; deleting an unknown session is not an error
	Delete(ctx context.Context, id core.SessionID) error

	// PurgeIdle deletes sessions not updated within idle and returns how many were removed
	PurgeIdle(ctx context.Context, idle time.Duration) (int, error)
}
