package api

import (
	"bytes"
	"fmt"
	"net/http"

	"cltlab/adapters/excel"
	"cltlab/adapters/render"
	"cltlab/app"
	"cltlab/domain/population"
	"cltlab/domain/stats"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type familyResponse struct {
	Tag             string  `json:"tag"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	TheoreticalMean float64 `json:"theoretical_mean"`
	TheoreticalSD   float64 `json:"theoretical_sd"`
}

type populationResponse struct {
	Family    population.Family `json:"family"`
	Size      int               `json:"size"`
	Mean      float64           `json:"mean"`
	StdDev    float64           `json:"std_dev"`
	Color     string            `json:"color"`
	Histogram *render.Histogram `json:"histogram"`
	Density   *render.Curve     `json:"density,omitempty"`
}

type experimentResponse struct {
	Family     population.Family `json:"family"`
	SampleSize int               `json:"sample_size"`
	Summary    stats.Summary     `json:"summary"`
	Converging bool              `json:"converging"`
	Color      string            `json:"color"`
	Histogram  *render.Histogram `json:"histogram"`
	Density    *render.Curve     `json:"density,omitempty"`
}

func (s *Server) handleFamilies(c *gin.Context) {
	out := make([]familyResponse, 0, population.Count())
	for _, f := range population.All() {
		out = append(out, familyResponse{
			Tag:             f.Slug(),
			Name:            f.String(),
			Description:     f.Description(),
			TheoreticalMean: f.TheoreticalMean(),
			TheoreticalSD:   f.TheoreticalStdDev(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"families": out})
}

func (s *Server) handlePopulation(c *gin.Context) {
	bins, err := intQuery(c, "bins", render.DefaultBins)
	if err != nil {
		s.respondError(c, err)
		return
	}
	pop, err := s.lab.Population(c.Request.Context(), familyParam(c.Param("family")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	hist, err := render.NewHistogram(pop.Values, bins)
	if err != nil {
		s.respondError(c, binError(err))
		return
	}
	c.JSON(http.StatusOK, populationResponse{
		Family:    pop.Family,
		Size:      pop.Size(),
		Mean:      pop.Mean,
		StdDev:    pop.StdDev,
		Color:     render.PopulationHex,
		Histogram: hist,
		Density:   densityOrNil(pop.Values),
	})
}

func (s *Server) handleExperiment(c *gin.Context) {
	n, err := intQuery(c, "n", stats.DefaultSampleSize)
	if err != nil {
		s.respondError(c, err)
		return
	}
	bins, err := intQuery(c, "bins", render.DefaultBins)
	if err != nil {
		s.respondError(c, err)
		return
	}
	exp, err := s.lab.Experiment(c.Request.Context(), familyParam(c.Query("family")), n)
	if err != nil {
		s.respondError(c, err)
		return
	}
	resp, err := newExperimentResponse(exp, bins)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRace(c *gin.Context) {
	n, err := intQuery(c, "n", 1)
	if err != nil {
		s.respondError(c, err)
		return
	}
	results, err := s.lab.Race(c.Request.Context(), n)
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]experimentResponse, 0, len(results))
	for _, exp := range results {
		resp, err := newExperimentResponse(exp, render.DefaultBins)
		if err != nil {
			s.respondError(c, err)
			return
		}
		out = append(out, *resp)
	}
	c.JSON(http.StatusOK, gin.H{"sample_size": n, "results": out})
}

func (s *Server) handleConverge(c *gin.Context) {
	maxN, err := intQuery(c, "max_n", stats.MaxSampleSize)
	if err != nil {
		s.respondError(c, err)
		return
	}
	conv, err := s.lab.Converge(c.Request.Context(), familyParam(c.Query("family")), app.DefaultConvergenceSizes(maxN))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) handleSamplingChart(c *gin.Context) {
	n, err := intQuery(c, "n", stats.DefaultSampleSize)
	if err != nil {
		s.respondError(c, err)
		return
	}
	exp, err := s.lab.Experiment(c.Request.Context(), familyParam(c.Query("family")), n)
	if err != nil {
		s.respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := render.WriteSamplingChart(&buf, exp); err != nil {
		s.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// handleExport downloads a race at n as a workbook
func (s *Server) handleExport(c *gin.Context) {
	n, err := intQuery(c, "n", stats.DefaultSampleSize)
	if err != nil {
		s.respondError(c, err)
		return
	}
	results, err := s.lab.Race(c.Request.Context(), n)
	if err != nil {
		s.respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := excel.WriteWorkbook(&buf, results); err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="clt-race-n%d.xlsx"`, n))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func newExperimentResponse(exp *stats.Experiment, bins int) (*experimentResponse, error) {
	hist, err := render.NewHistogram(exp.Means, bins)
	if err != nil {
		return nil, binError(err)
	}
	return &experimentResponse{
		Family:     exp.Family,
		SampleSize: exp.SampleSize,
		Summary:    exp.Summary,
		Converging: exp.Converging(),
		Color:      render.SamplingHex(exp.SampleSize),
		Histogram:  hist,
		Density:    densityOrNil(exp.Means),
	}, nil
}

// densityOrNil drops the curve for samples too degenerate to smooth
func densityOrNil(xs []float64) *render.Curve {
	curve, err := render.NewDensity(xs, render.DefaultDensityPoints)
	if err != nil {
		return nil
	}
	return curve
}
