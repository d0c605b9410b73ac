package game

import (
	"time"

	"cltlab/domain/core"
	"cltlab/domain/population"
	"cltlab/domain/stats"
)

// Phase is the step of a round the player is in
type Phase string

const (
	PhaseInput  Phase = "input"
	PhaseGuess  Phase = "guess"
	PhaseReveal Phase = "reveal"
)

// Mode selects between the explicit-submit game and the live variant, where the round opens
// directly in the guess phase and the sample size can be adjusted without leaving it.
type Mode string

const (
	ModeSubmit Mode = "submit"
	ModeLive   Mode = "live"
)

// ParseMode validates a mode name; empty selects ModeSubmit
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSubmit:
		return ModeSubmit, nil
	case ModeLive:
		return ModeLive, nil
	}
	return "", core.ErrInvalidMode
}

func (m Mode) initialPhase() Phase {
	if m == ModeLive {
		return PhaseGuess
	}
	return PhaseInput
}

// State is the mutable record of one mystery-population game
type State struct {
	Mode       Mode              `json:"mode"`
	Phase      Phase             `json:"phase"`
	Round      int               `json:"round"`
	Hidden     population.Family `json:"hidden"`
	SampleSize int               `json:"sample_size"`
	Means      []float64         `json:"means,omitempty"`
	Guess      population.Family `json:"guess"`
	HasGuess   bool              `json:"has_guess"`
	Correct    bool              `json:"correct"`
}

// NewState opens round 1 with the given hidden family
func NewState(mode Mode, hidden population.Family) *State {
	return &State{
		Mode:       mode,
		Phase:      mode.initialPhase(),
		Round:      1,
		Hidden:     hidden,
		SampleSize: stats.DefaultSampleSize,
	}
}

// AcceptsSampleSize reports whether SubmitSampleSize is a legal move right now
func (s *State) AcceptsSampleSize() bool {
	return s.Phase == PhaseInput || (s.Mode == ModeLive && s.Phase == PhaseGuess)
}

// SubmitSampleSize freezes n and the sample means drawn for it, moving input to guess.
// In live mode it may be repeated while guessing.
func (s *State) SubmitSampleSize(n int, means []float64) error {
	if !s.AcceptsSampleSize() {
		return core.NewTransitionError("submit a sample size", string(s.Phase))
	}
	if n < stats.MinSampleSize || n > stats.MaxSampleSize {
		return core.NewSampleSizeError(n, stats.MinSampleSize, stats.MaxSampleSize)
	}
	s.SampleSize = n
	s.Means = means
	s.Phase = PhaseGuess
	return nil
}

// SubmitGuess records the guess and its verdict, moving guess to reveal
func (s *State) SubmitGuess(guess population.Family) error {
	if s.Phase != PhaseGuess {
		return core.NewTransitionError("guess", string(s.Phase))
	}
	if !guess.Valid() {
		return core.NewUnknownFamilyError(guess.String())
	}
	s.Guess = guess
	s.HasGuess = true
	s.Correct = guess == s.Hidden
	s.Phase = PhaseReveal
	return nil
}

// NewRound starts the next round with a freshly drawn hidden family. The sample size is kept
// so the live variant can resample straight away.
func (s *State) NewRound(hidden population.Family) error {
	if s.Phase != PhaseReveal {
		return core.NewTransitionError("start a new round", string(s.Phase))
	}
	s.Round++
	s.Hidden = hidden
	s.Phase = s.Mode.initialPhase()
	s.Means = nil
	s.Guess = population.Normal
	s.HasGuess = false
	s.Correct = false
	return nil
}

// Revealed reports whether the hidden family may be shown
func (s *State) Revealed() bool {
	return s.Phase == PhaseReveal
}

// Clone returns a deep copy
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	if s.Means != nil {
		c.Means = append([]float64(nil), s.Means...)
	}
	return &c
}

// Session binds a game state to its owner for the lifetime of a browser or CLI session
type Session struct {
	ID        core.SessionID `json:"id"`
	State     *State         `json:"state"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Clone returns a deep copy
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.State = s.State.Clone()
	return &c
}

// View is the player-facing projection of a state: the hidden family is withheld until reveal
type View struct {
	SessionID  core.SessionID     `json:"session_id"`
	Mode       Mode               `json:"mode"`
	Phase      Phase              `json:"phase"`
	Round      int                `json:"round"`
	SampleSize int                `json:"sample_size"`
	Means      []float64          `json:"means,omitempty"`
	Guess      *population.Family `json:"guess,omitempty"`
	Hidden     *population.Family `json:"hidden,omitempty"`
	Correct    *bool              `json:"correct,omitempty"`
}

// NewView projects a session for display
func NewView(sess *Session) View {
	st := sess.State
	v := View{
		SessionID:  sess.ID,
		Mode:       st.Mode,
		Phase:      st.Phase,
		Round:      st.Round,
		SampleSize: st.SampleSize,
		Means:      st.Means,
	}
	if st.HasGuess {
		g := st.Guess
		v.Guess = &g
	}
	if st.Revealed() {
		h := st.Hidden
		c := st.Correct
		v.Hidden = &h
		v.Correct = &c
	}
	return v
}
