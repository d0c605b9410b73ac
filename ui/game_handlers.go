package ui

import (
	"context"
	"html/template"
	"io"
	"net/http"

	"cltlab/adapters/render"
	"cltlab/domain/core"
	"cltlab/domain/game"
	"cltlab/domain/stats"
)

// SessionCookie carries the game session id between page loads
const SessionCookie = "clt_session"

type gamePage struct {
	View          game.View
	Families      []familyOption
	MinSampleSize int
	MaxSampleSize int
	Live          bool
	CanSubmitSize bool
	CanGuess      bool
	Revealed      bool
	Correct       bool
	MeansPNG      template.URL
	HiddenName    string
	HiddenPNG     template.URL
}

// handleGame renders the current round, starting a session in the default mode when the
// browser has none
func (a *App) handleGame(w http.ResponseWriter, r *http.Request) {
	sess, err := a.currentSession(r)
	if err != nil {
		sess, err = a.game.Start(r.Context(), "")
		if err != nil {
			a.renderError(w, err)
			return
		}
		setSessionCookie(w, sess.ID)
	}

	page, err := a.buildGamePage(r.Context(), sess)
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderTemplate(w, "game.html", page)
}

// handleGameStart replaces the browser's session with a fresh one in the posted mode
func (a *App) handleGameStart(w http.ResponseWriter, r *http.Request) {
	if old, err := a.currentSession(r); err == nil {
		if err := a.game.End(r.Context(), old.ID); err != nil {
			a.logger.Warn("failed to end session %s: %v", old.ID, err)
		}
	}
	sess, err := a.game.Start(r.Context(), game.Mode(r.FormValue("mode")))
	if err != nil {
		a.renderError(w, err)
		return
	}
	setSessionCookie(w, sess.ID)
	http.Redirect(w, r, "/game", http.StatusSeeOther)
}

func (a *App) handleGameSampleSize(w http.ResponseWriter, r *http.Request) {
	a.move(w, r, func(ctx context.Context, id core.SessionID) error {
		n, err := intParam(r, "n", stats.DefaultSampleSize)
		if err != nil {
			return err
		}
		_, err = a.game.SubmitSampleSize(ctx, id, n)
		return err
	})
}

func (a *App) handleGameGuess(w http.ResponseWriter, r *http.Request) {
	a.move(w, r, func(ctx context.Context, id core.SessionID) error {
		_, err := a.game.SubmitGuess(ctx, id, r.FormValue("family"))
		return err
	})
}

func (a *App) handleGameNewRound(w http.ResponseWriter, r *http.Request) {
	a.move(w, r, func(ctx context.Context, id core.SessionID) error {
		_, err := a.game.NewRound(ctx, id)
		return err
	})
}

// move applies one game action to the browser's session and redirects back to the game page
func (a *App) move(w http.ResponseWriter, r *http.Request, action func(context.Context, core.SessionID) error) {
	sess, err := a.currentSession(r)
	if err != nil {
		a.renderError(w, err)
		return
	}
	if err := action(r.Context(), sess.ID); err != nil {
		a.renderError(w, err)
		return
	}
	http.Redirect(w, r, "/game", http.StatusSeeOther)
}

func (a *App) currentSession(r *http.Request) (*game.Session, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, core.NewNotFoundError("game session", "(no cookie)")
	}
	id, err := core.ParseSessionID(cookie.Value)
	if err != nil {
		return nil, err
	}
	return a.game.Get(r.Context(), id)
}

func (a *App) buildGamePage(ctx context.Context, sess *game.Session) (*gamePage, error) {
	st := sess.State
	page := &gamePage{
		View:          game.NewView(sess),
		Families:      familyOptions(-1),
		MinSampleSize: stats.MinSampleSize,
		MaxSampleSize: stats.MaxSampleSize,
		Live:          st.Mode == game.ModeLive,
		CanSubmitSize: st.AcceptsSampleSize(),
		CanGuess:      st.Phase == game.PhaseGuess,
		Revealed:      st.Revealed(),
	}

	if len(st.Means) > 0 {
		// the experiment carries no family so the chart cannot give the answer away
		exp := &stats.Experiment{SampleSize: st.SampleSize, SampleCount: len(st.Means), Means: st.Means}
		uri, err := render.DataURI(func(out io.Writer) error {
			return render.WriteSamplingChart(out, exp)
		})
		if err != nil {
			return nil, err
		}
		page.MeansPNG = template.URL(uri)
	}

	if page.Revealed {
		pop, err := a.lab.Population(ctx, st.Hidden)
		if err != nil {
			return nil, err
		}
		uri, err := render.DataURI(func(out io.Writer) error {
			return render.WritePopulationChart(out, pop)
		})
		if err != nil {
			return nil, err
		}
		page.Correct = st.Correct
		page.HiddenName = st.Hidden.String()
		page.HiddenPNG = template.URL(uri)
	}
	return page, nil
}

func setSessionCookie(w http.ResponseWriter, id core.SessionID) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
