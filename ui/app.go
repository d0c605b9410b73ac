package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cltlab/app"
	"cltlab/internal"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App is the server-rendered web front end: the single-population lab, the race across
// families and the mystery game
type App struct {
	router    *chi.Mux
	lab       *app.LabService
	game      *app.GameService
	templates *template.Template
	logger    *internal.Logger
}

// NewApp creates the web application. When api is not nil it is mounted under /api.
func NewApp(lab *app.LabService, game *app.GameService, api http.Handler, logger *internal.Logger) (*App, error) {
	funcMap := template.FuncMap{
		"pct": func(p float64) string { return fmt.Sprintf("%.4f", p) },
		"fixed": func(digits int, v float64) string {
			return fmt.Sprintf("%.*f", digits, v)
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		lab:       lab,
		game:      game,
		templates: templates,
		logger:    logger.With("ui"),
	}

	a.setupMiddleware()
	a.setupRoutes(api)

	return a, nil
}

// ServeHTTP makes the app an http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes(api http.Handler) {
	// Pages
	a.router.Get("/", a.handleLab)
	a.router.Get("/race", a.handleRace)
	a.router.Get("/game", a.handleGame)

	// Game moves, each followed by a redirect back to /game
	a.router.Post("/game/start", a.handleGameStart)
	a.router.Post("/game/sample-size", a.handleGameSampleSize)
	a.router.Post("/game/guess", a.handleGameGuess)
	a.router.Post("/game/new-round", a.handleGameNewRound)

	if api != nil {
		a.router.Mount("/api", api)
	}
}

// Template helpers
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.logger.Error("template %s: %v", templateName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
