package app

import (
	"context"
	"time"

	"cltlab/domain/core"
	"cltlab/domain/game"
	"cltlab/domain/population"
	"cltlab/internal"
	apperrors "cltlab/internal/errors"
	"cltlab/ports"
)

// GameService drives the mystery-population game. Every move loads the session, applies one
// state transition and saves it back.
type GameService struct {
	sessions    ports.SessionRepository
	lab         *LabService
	rng         ports.RNGPort
	defaultMode game.Mode
	logger      *internal.Logger
	now         func() time.Time
}

// NewGameService creates a game service; sessions started without a mode use defaultMode
func NewGameService(sessions ports.SessionRepository, lab *LabService, rng ports.RNGPort, defaultMode game.Mode, logger *internal.Logger) *GameService {
	if defaultMode == "" {
		defaultMode = game.ModeSubmit
	}
	return &GameService{
		sessions:    sessions,
		lab:         lab,
		rng:         rng,
		defaultMode: defaultMode,
		logger:      logger.With("game"),
		now:         time.Now,
	}
}

// DefaultMode is the mode of sessions started without one
func (s *GameService) DefaultMode() game.Mode {
	return s.defaultMode
}

// Start opens a new session in round 1 with a uniformly drawn hidden family.
// An empty mode selects the service default.
func (s *GameService) Start(ctx context.Context, mode game.Mode) (*game.Session, error) {
	if mode == "" {
		mode = s.defaultMode
	}
	if _, err := game.ParseMode(string(mode)); err != nil {
		return nil, apperrors.Wrapf(err, "unsupported game mode %q", mode)
	}

	hidden, err := s.drawHidden(ctx)
	if err != nil {
		return nil, err
	}

	state := game.NewState(mode, hidden)
	if err := s.prepareLiveRound(ctx, state); err != nil {
		return nil, err
	}

	now := s.now()
	sess := &game.Session{
		ID:        core.NewSessionID(),
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperrors.StoreError("failed to save game session", err)
	}

	s.logger.Debug("session %s started in %s mode", sess.ID, mode)
	return sess, nil
}

// Get returns the session or a NOT_FOUND error
func (s *GameService) Get(ctx context.Context, id core.SessionID) (*game.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to load game session %s", id)
	}
	return sess, nil
}

// SubmitSampleSize resamples the hidden population at n and freezes the means for the round
func (s *GameService) SubmitSampleSize(ctx context.Context, id core.SessionID, n int) (*game.Session, error) {
	if err := ValidateSampleSize(n); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(st *game.State) error {
		if !st.AcceptsSampleSize() {
			return core.NewTransitionError("submit a sample size", string(st.Phase))
		}
		exp, err := s.lab.Experiment(ctx, st.Hidden, n)
		if err != nil {
			return err
		}
		return st.SubmitSampleSize(n, exp.Means)
	})
}

// SubmitGuess records the player's guess. Unknown family tags are rejected, not defaulted.
func (s *GameService) SubmitGuess(ctx context.Context, id core.SessionID, tag string) (*game.Session, error) {
	guess, ok := population.Parse(tag)
	if !ok {
		return nil, apperrors.Wrap(core.NewUnknownFamilyError(tag), "guess must name one of the families")
	}
	sess, err := s.update(ctx, id, func(st *game.State) error {
		return st.SubmitGuess(guess)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("session %s round %d: guessed %s, hidden %s", id, sess.State.Round, guess, sess.State.Hidden)
	return sess, nil
}

// NewRound draws a fresh hidden family once the current round has been revealed
func (s *GameService) NewRound(ctx context.Context, id core.SessionID) (*game.Session, error) {
	return s.update(ctx, id, func(st *game.State) error {
		if !st.Revealed() {
			return core.NewTransitionError("start a new round", string(st.Phase))
		}
		hidden, err := s.drawHidden(ctx)
		if err != nil {
			return err
		}
		if err := st.NewRound(hidden); err != nil {
			return err
		}
		return s.prepareLiveRound(ctx, st)
	})
}

// End deletes the session
func (s *GameService) End(ctx context.Context, id core.SessionID) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return apperrors.StoreError("failed to delete game session", err)
	}
	return nil
}

// PurgeIdle removes sessions untouched for longer than idle
func (s *GameService) PurgeIdle(ctx context.Context, idle time.Duration) (int, error) {
	n, err := s.sessions.PurgeIdle(ctx, idle)
	if err != nil {
		return 0, apperrors.StoreError("failed to purge idle sessions", err)
	}
	if n > 0 {
		s.logger.Info("purged %d idle game sessions", n)
	}
	return n, nil
}

func (s *GameService) update(ctx context.Context, id core.SessionID, apply func(*game.State) error) (*game.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(sess.State); err != nil {
		return nil, apperrors.Wrapf(err, "game session %s", id)
	}
	sess.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperrors.StoreError("failed to save game session", err)
	}
	return sess, nil
}

// prepareLiveRound resamples at the carried-over sample size when a live round opens in the
// guess phase
func (s *GameService) prepareLiveRound(ctx context.Context, st *game.State) error {
	if st.Mode != game.ModeLive {
		return nil
	}
	exp, err := s.lab.Experiment(ctx, st.Hidden, st.SampleSize)
	if err != nil {
		return err
	}
	st.Means = exp.Means
	return nil
}

// drawHidden picks a family uniformly; repeats across rounds are allowed
func (s *GameService) drawHidden(ctx context.Context) (population.Family, error) {
	r, err := s.rng.Stream(ctx, "game/hidden")
	if err != nil {
		return population.Normal, apperrors.Wrap(err, "failed to open game stream")
	}
	return population.All()[r.IntN(population.Count())], nil
}
