package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"cltlab/domain/core"
	"cltlab/domain/game"
	"cltlab/domain/population"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(updated time.Time) *game.Session {
	return &game.Session{
		ID:        core.NewSessionID(),
		State:     game.NewState(game.ModeSubmit, population.Bimodal),
		CreatedAt: updated,
		UpdatedAt: updated,
	}
}

func TestSaveAndGet(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()
	sess := newSession(time.Now())

	require.NoError(t, repo.Save(ctx, sess))

	got, err := repo.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, population.Bimodal, got.State.Hidden)
	assert.Equal(t, game.PhaseInput, got.State.Phase)
}

func TestStoreIsolatesCallers(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()
	sess := newSession(time.Now())
	require.NoError(t, repo.Save(ctx, sess))

	// mutating the caller's copy after Save does not reach the store
	require.NoError(t, sess.State.SubmitSampleSize(10, []float64{1, 2, 3}))

	got, err := repo.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseInput, got.State.Phase)

	// nor does mutating a copy returned by Get
	got.State.Round = 99
	again, err := repo.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.State.Round)
}

func TestGetUnknownSession(t *testing.T) {
	_, err := NewSessionRepository().Get(context.Background(), core.NewSessionID())
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.True(t, core.IsNotFoundError(err))
}

func TestSaveRejectsIncompleteSession(t *testing.T) {
	repo := NewSessionRepository()
	assert.Error(t, repo.Save(context.Background(), nil))
	assert.Error(t, repo.Save(context.Background(), &game.Session{ID: core.NewSessionID()}))
	assert.Error(t, repo.Save(context.Background(), &game.Session{State: &game.State{}}))
}

func TestDelete(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()
	sess := newSession(time.Now())
	require.NoError(t, repo.Save(ctx, sess))

	require.NoError(t, repo.Delete(ctx, sess.ID))
	_, err := repo.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	// deleting twice is fine
	assert.NoError(t, repo.Delete(ctx, sess.ID))
}

func TestPurgeIdle(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	stale := newSession(time.Now().Add(-3 * time.Hour))
	fresh := newSession(time.Now())
	require.NoError(t, repo.Save(ctx, stale))
	require.NoError(t, repo.Save(ctx, fresh))

	purged, err := repo.PurgeIdle(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
	assert.Equal(t, 1, repo.Len())

	_, err = repo.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestCancelledContext(t *testing.T) {
	repo := NewSessionRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, repo.Save(ctx, newSession(time.Now())), context.Canceled)
	_, err := repo.Get(ctx, core.NewSessionID())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentAccess(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := newSession(time.Now())
			assert.NoError(t, repo.Save(ctx, sess))
			_, err := repo.Get(ctx, sess.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 32, repo.Len())
}
