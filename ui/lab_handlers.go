package ui

import (
	"html/template"
	"io"
	"net/http"
	"strconv"

	"cltlab/adapters/render"
	"cltlab/domain/population"
	"cltlab/domain/stats"
	apperrors "cltlab/internal/errors"
)

// familyOption is one entry of the family selector
type familyOption struct {
	Tag      string
	Name     string
	Selected bool
}

type labPage struct {
	Families      []familyOption
	Family        population.Family
	Description   string
	SampleSize    int
	MinSampleSize int
	MaxSampleSize int
	PopulationPNG template.URL
	SamplingPNG   template.URL
	Stats         template.HTML
	Summary       stats.Summary
	Converging    bool
	Color         string
}

type raceTile struct {
	Family  population.Family
	Chart   template.URL
	PValue  float64
	Verdict string
	Passed  bool
}

type racePage struct {
	SampleSize    int
	MinSampleSize int
	MaxSampleSize int
	Tiles         []raceTile
	Table         template.HTML
	Note          template.HTML
}

// handleLab renders the single-population lab
func (a *App) handleLab(w http.ResponseWriter, r *http.Request) {
	family := population.ParseOrDefault(r.URL.Query().Get("family"))
	n, err := intParam(r, "n", stats.DefaultSampleSize)
	if err != nil {
		a.renderError(w, err)
		return
	}

	ex, err := a.lab.Explore(r.Context(), family, n)
	if err != nil {
		a.renderError(w, err)
		return
	}

	popPNG, err := render.DataURI(func(out io.Writer) error {
		return render.WritePopulationChart(out, ex.Population)
	})
	if err != nil {
		a.renderError(w, err)
		return
	}
	samplingPNG, err := render.DataURI(func(out io.Writer) error {
		return render.WriteSamplingChart(out, ex.Experiment)
	})
	if err != nil {
		a.renderError(w, err)
		return
	}

	a.renderTemplate(w, "lab.html", labPage{
		Families:      familyOptions(family),
		Family:        family,
		Description:   family.Description(),
		SampleSize:    n,
		MinSampleSize: stats.MinSampleSize,
		MaxSampleSize: stats.MaxSampleSize,
		PopulationPNG: template.URL(popPNG),
		SamplingPNG:   template.URL(samplingPNG),
		Stats:         render.HTML(render.StatsMarkdown(ex.Experiment.Summary)),
		Summary:       ex.Experiment.Summary,
		Converging:    ex.Experiment.Converging(),
		Color:         render.SamplingHex(n),
	})
}

// handleRace renders every family side by side at one sample size
func (a *App) handleRace(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "n", 1)
	if err != nil {
		a.renderError(w, err)
		return
	}

	results, err := a.lab.Race(r.Context(), n)
	if err != nil {
		a.renderError(w, err)
		return
	}

	tiles := make([]raceTile, 0, len(results))
	for _, exp := range results {
		exp := exp
		uri, err := render.DataURI(func(out io.Writer) error {
			return render.WriteTileChart(out, exp)
		})
		if err != nil {
			a.renderError(w, err)
			return
		}
		tile := raceTile{Family: exp.Family, Chart: template.URL(uri), Verdict: "untested"}
		if nt := exp.Summary.Normality; nt != nil {
			tile.PValue, tile.Verdict, tile.Passed = nt.PValue, nt.Verdict(), nt.Passed
		}
		tiles = append(tiles, tile)
	}

	a.renderTemplate(w, "race.html", racePage{
		SampleSize:    n,
		MinSampleSize: stats.MinSampleSize,
		MaxSampleSize: stats.MaxSampleSize,
		Tiles:         tiles,
		Table:         render.HTML(render.RaceTableMarkdown(results)),
		Note:          render.HTML(render.RaceNote),
	})
}

// renderError answers with the error page and the status the error's code maps to
func (a *App) renderError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed: %v", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	a.renderTemplate(w, "error.html", map[string]interface{}{
		"Status":  status,
		"Code":    apperrors.GetCode(err),
		"Message": err.Error(),
	})
}

func familyOptions(selected population.Family) []familyOption {
	out := make([]familyOption, 0, population.Count())
	for _, f := range population.All() {
		out = append(out, familyOption{Tag: f.Slug(), Name: f.String(), Selected: f == selected})
	}
	return out
}

// intParam reads an integer from the query string or a posted form
func intParam(r *http.Request, key string, def int) (int, error) {
	raw := r.FormValue(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput(key + " must be an integer")
	}
	return v, nil
}
