// Package sqlstore keeps game sessions in a SQL table so several server processes can share
// them. Postgres and SQLite are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cltlab/domain/core"
	"cltlab/domain/game"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported store kinds and the database/sql drivers behind them
const (
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"

	driverPostgres = "postgres"
	driverSQLite   = "sqlite3"
)

const schema = `
	CREATE TABLE IF NOT EXISTS game_sessions (
		id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`

// sessionRow is the table layout; timestamps are unix nanoseconds so idle comparisons behave
// the same on both databases
type sessionRow struct {
	ID        string `db:"id"`
	State     string `db:"state"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

// SessionRepository implements ports.SessionRepository on sqlx
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository wraps an open database. Call Migrate before first use.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Open connects to the store of the given kind and ensures the table exists
func Open(ctx context.Context, kind, dsn string) (*SessionRepository, error) {
	driver, err := driverFor(kind)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, fmt.Errorf("session store %s needs a DSN", kind)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s session store: %w", kind, err)
	}
	if driver == driverSQLite && strings.Contains(dsn, ":memory:") {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	repo := NewSessionRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func driverFor(kind string) (string, error) {
	switch kind {
	case KindPostgres:
		return driverPostgres, nil
	case KindSQLite:
		return driverSQLite, nil
	}
	return "", fmt.Errorf("unsupported session store %q", kind)
}

// Migrate creates the sessions table if it does not exist
func (r *SessionRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create game_sessions table: %w", err)
	}
	return nil
}

// Close releases the database
func (r *SessionRepository) Close() error {
	return r.db.Close()
}

// Save creates or replaces the session
func (r *SessionRepository) Save(ctx context.Context, sess *game.Session) error {
	if sess == nil || sess.ID.IsEmpty() || sess.State == nil {
		return core.ErrInvalidSessionID
	}

	stateJSON, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	row := sessionRow{
		ID:        sess.ID.String(),
		State:     string(stateJSON),
		CreatedAt: sess.CreatedAt.UnixNano(),
		UpdatedAt: sess.UpdatedAt.UnixNano(),
	}

	query := `
		INSERT INTO game_sessions (id, state, created_at, updated_at)
		VALUES (:id, :state, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to save game session: %w", err)
	}
	return nil
}

// Get returns the session or core.ErrSessionNotFound
func (r *SessionRepository) Get(ctx context.Context, id core.SessionID) (*game.Session, error) {
	query := r.db.Rebind(`
		SELECT id, state, created_at, updated_at
		FROM game_sessions
		WHERE id = ?`)

	var row sessionRow
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get game session: %w", err)
	}

	var state game.State
	if err := json.Unmarshal([]byte(row.State), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}

	return &game.Session{
		ID:        core.SessionID(row.ID),
		State:     &state,
		CreatedAt: time.Unix(0, row.CreatedAt),
		UpdatedAt: time.Unix(0, row.UpdatedAt),
	}, nil
}

// Delete removes the session; unknown ids are not an error
func (r *SessionRepository) Delete(ctx context.Context, id core.SessionID) error {
	query := r.db.Rebind(`DELETE FROM game_sessions WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id.String()); err != nil {
		return fmt.Errorf("failed to delete game session: %w", err)
	}
	return nil
}

// PurgeIdle deletes sessions not updated within idle
func (r *SessionRepository) PurgeIdle(ctx context.Context, idle time.Duration) (int, error) {
	cutoff := time.Now().Add(-idle).UnixNano()

	query := r.db.Rebind(`DELETE FROM game_sessions WHERE updated_at < ?`)
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge idle game sessions: %w", err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged game sessions: %w", err)
	}
	return int(purged), nil
}
