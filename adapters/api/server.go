// Package api serves the lab and the game as JSON under /api
package api

import (
	"net/http"
	"strconv"

	"cltlab/app"
	"cltlab/domain/core"
	"cltlab/domain/population"
	"cltlab/internal"
	apperrors "cltlab/internal/errors"

	"github.com/gin-gonic/gin"
)

// Prefix is the path every API route lives under
const Prefix = "/api"

// Server holds the services behind the JSON API
type Server struct {
	router *gin.Engine
	lab    *app.LabService
	game   *app.GameService
	logger *internal.Logger
}

// NewServer creates the API engine. mode is a gin mode ("debug", "release" or "test").
func NewServer(lab *app.LabService, game *app.GameService, mode string, logger *internal.Logger) *Server {
	if mode != "" {
		gin.SetMode(mode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	s := &Server{
		router: router,
		lab:    lab,
		game:   game,
		logger: logger.With("api"),
	}
	s.setupRoutes()
	return s
}

// ServeHTTP lets the API be mounted in another router
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.Group(Prefix)

	// Lab
	api.GET("/families", s.handleFamilies)
	api.GET("/populations/:family", s.handlePopulation)
	api.GET("/experiments", s.handleExperiment)
	api.GET("/race", s.handleRace)
	api.GET("/converge", s.handleConverge)
	api.GET("/charts/sampling.png", s.handleSamplingChart)
	api.GET("/export.xlsx", s.handleExport)

	// Game
	api.POST("/game/sessions", s.handleStartGame)
	api.GET("/game/sessions/:id", s.handleGetGame)
	api.POST("/game/sessions/:id/sample-size", s.handleSampleSize)
	api.POST("/game/sessions/:id/guess", s.handleGuess)
	api.POST("/game/sessions/:id/rounds", s.handleNewRound)
	api.DELETE("/game/sessions/:id", s.handleEndGame)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "code": apperrors.CodeNotFound})
	})
}

// respondError writes the error body with the status its code maps to
func (s *Server) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": err.Error(),
		"code":  apperrors.GetCode(err),
	})
}

// familyParam reads a family tag; unknown or missing tags select Normal
func familyParam(raw string) population.Family {
	return population.ParseOrDefault(raw)
}

// intQuery reads an integer query parameter, falling back to def when it is absent
func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput(key + " must be an integer")
	}
	return v, nil
}

func sessionParam(c *gin.Context) (core.SessionID, error) {
	id, err := core.ParseSessionID(c.Param("id"))
	if err != nil {
		return "", apperrors.Wrap(err, "malformed session id")
	}
	return id, nil
}

// binError classifies a histogram failure; with valid samples only a bad bin count can cause one
func binError(err error) error {
	return apperrors.WithCode(apperrors.CodeInvalidInput, err)
}
