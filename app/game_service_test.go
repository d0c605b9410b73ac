package app

import (
	"context"
	"testing"
	"time"

	"cltlab/domain/core"
	"cltlab/domain/game"
	"cltlab/domain/population"
	"cltlab/domain/stats"
	apperrors "cltlab/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameFullRound(t *testing.T) {
	f := newFixture(t, 11)
	ctx := context.Background()

	sess, err := f.game.Start(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, game.ModeSubmit, sess.State.Mode)
	assert.Equal(t, game.PhaseInput, sess.State.Phase)
	assert.Equal(t, 1, sess.State.Round)
	assert.True(t, sess.State.Hidden.Valid())

	sess, err = f.game.SubmitSampleSize(ctx, sess.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseGuess, sess.State.Phase)
	assert.Equal(t, 25, sess.State.SampleSize)
	assert.Len(t, sess.State.Means, stats.DefaultSampleCount)

	hidden := sess.State.Hidden
	sess, err = f.game.SubmitGuess(ctx, sess.ID, hidden.Slug())
	require.NoError(t, err)
	assert.Equal(t, game.PhaseReveal, sess.State.Phase)
	assert.True(t, sess.State.Correct)

	sess, err = f.game.NewRound(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseInput, sess.State.Phase)
	assert.Equal(t, 2, sess.State.Round)
	assert.False(t, sess.State.HasGuess)
	assert.Nil(t, sess.State.Means)

	stored, err := f.game.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.State, stored.State)
}

func TestGameWrongGuess(t *testing.T) {
	f := newFixture(t, 12)
	ctx := context.Background()

	sess, err := f.game.Start(ctx, game.ModeSubmit)
	require.NoError(t, err)
	sess, err = f.game.SubmitSampleSize(ctx, sess.ID, 3)
	require.NoError(t, err)

	wrong := population.All()[(int(sess.State.Hidden)+1)%population.Count()]
	sess, err = f.game.SubmitGuess(ctx, sess.ID, wrong.String())
	require.NoError(t, err)
	assert.False(t, sess.State.Correct)
	assert.Equal(t, wrong, sess.State.Guess)
}

func TestGameRejectsIllegalMoves(t *testing.T) {
	f := newFixture(t, 13)
	ctx := context.Background()

	sess, err := f.game.Start(ctx, game.ModeSubmit)
	require.NoError(t, err)

	_, err = f.game.SubmitGuess(ctx, sess.ID, "normal")
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
	assert.Equal(t, apperrors.CodeInvalidTransition, apperrors.GetCode(err))

	_, err = f.game.NewRound(ctx, sess.ID)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	_, err = f.game.SubmitSampleSize(ctx, sess.ID, 0)
	assert.ErrorIs(t, err, core.ErrSampleSizeOutOfRange)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	_, err = f.game.SubmitSampleSize(ctx, sess.ID, 4)
	require.NoError(t, err)

	_, err = f.game.SubmitSampleSize(ctx, sess.ID, 4)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	_, err = f.game.SubmitGuess(ctx, sess.ID, "lognormal")
	assert.ErrorIs(t, err, core.ErrUnknownFamily)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	// rejected moves leave the stored state untouched
	stored, err := f.game.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseGuess, stored.State.Phase)
	assert.Equal(t, 4, stored.State.SampleSize)
}

func TestGameLiveMode(t *testing.T) {
	f := newFixture(t, 14)
	ctx := context.Background()

	sess, err := f.game.Start(ctx, game.ModeLive)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseGuess, sess.State.Phase)
	assert.Equal(t, stats.DefaultSampleSize, sess.State.SampleSize)
	assert.Len(t, sess.State.Means, stats.DefaultSampleCount)

	sess, err = f.game.SubmitSampleSize(ctx, sess.ID, 40)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseGuess, sess.State.Phase)
	assert.Equal(t, 40, sess.State.SampleSize)

	sess, err = f.game.SubmitGuess(ctx, sess.ID, "uniform")
	require.NoError(t, err)
	assert.Equal(t, game.PhaseReveal, sess.State.Phase)

	sess, err = f.game.NewRound(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseGuess, sess.State.Phase)
	assert.Equal(t, 40, sess.State.SampleSize, "live rounds keep the sample size")
	assert.Len(t, sess.State.Means, stats.DefaultSampleCount)
}

func TestGameInvalidModeAndUnknownSession(t *testing.T) {
	f := newFixture(t, 15)
	ctx := context.Background()

	_, err := f.game.Start(ctx, game.Mode("turbo"))
	assert.ErrorIs(t, err, core.ErrInvalidMode)

	_, err = f.game.Get(ctx, core.NewSessionID())
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))

	_, err = f.game.SubmitSampleSize(ctx, core.NewSessionID(), 10)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

func TestGameEndAndPurge(t *testing.T) {
	f := newFixture(t, 16)
	ctx := context.Background()

	ended, err := f.game.Start(ctx, "")
	require.NoError(t, err)
	require.NoError(t, f.game.End(ctx, ended.ID))
	_, err = f.game.Get(ctx, ended.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	f.game.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	_, err = f.game.Start(ctx, "")
	require.NoError(t, err)
	f.game.now = time.Now
	kept, err := f.game.Start(ctx, "")
	require.NoError(t, err)

	purged, err := f.game.PurgeIdle(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
	assert.Equal(t, 1, f.store.Len())

	_, err = f.game.Get(ctx, kept.ID)
	assert.NoError(t, err)
}

func TestGameServiceDefaultMode(t *testing.T) {
	f := newFixture(t, 17)
	live := NewGameService(f.store, f.lab, f.rng, game.ModeLive, nil)
	assert.Equal(t, game.ModeLive, live.DefaultMode())

	sess, err := live.Start(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, game.ModeLive, sess.State.Mode)
}

// TestHiddenFamilyIsUniform draws many hidden families and checks the counts with a
// chi-square goodness-of-fit test at the 0.1% level.
func TestHiddenFamilyIsUniform(t *testing.T) {
	f := newFixture(t, 18)
	ctx := context.Background()

	const draws = 6000
	counts := make(map[population.Family]int)
	for i := 0; i < draws; i++ {
		fam, err := f.game.drawHidden(ctx)
		require.NoError(t, err)
		require.True(t, fam.Valid())
		counts[fam]++
	}

	expected := float64(draws) / float64(population.Count())
	var chi2 float64
	for _, fam := range population.All() {
		d := float64(counts[fam]) - expected
		chi2 += d * d / expected
	}
	// chi-square critical value for 5 degrees of freedom at 0.001
	assert.Less(t, chi2, 20.52, "counts %v", counts)
}
