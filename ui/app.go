// Package ui is the browser-facing dashboard: cohort summaries, the
// frequency table, and analysis results rendered server-side over chi.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"immunostat/internal"
	"immunostat/internal/service"
)

//go:embed templates/*
var embeddedFiles embed.FS

// App serves the dashboard.
type App struct {
	router    *chi.Mux
	svc       *service.AnalysisService
	templates *template.Template
	log       *internal.Logger
}

// NewApp wires the dashboard against the analysis service.
func NewApp(svc *service.AnalysisService, log *internal.Logger) (*App, error) {
	if log == nil {
		log = internal.NewDefaultLogger()
	}

	funcMap := template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.2f%%", v*100) },
		"f3":  func(v float64) string { return fmt.Sprintf("%.3f", v) },
		"f5":  func(v float64) string { return fmt.Sprintf("%.5f", v) },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		svc:       svc,
		templates: templates,
		log:       log,
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app, nil
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/frequencies", a.handleFrequencies)
	a.router.Get("/analysis", a.handleAnalysis)
	a.router.Get("/flow", a.handleFlow)
}

// Router exposes the chi mux for mounting or serving.
func (a *App) Router() http.Handler {
	return a.router
}

// Start runs the dashboard on the given port, blocking.
func (a *App) Start(port string) error {
	a.log.Info("dashboard listening on :%s", port)
	return http.ListenAndServe(":"+port, a.router)
}

func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.log.Error("template %s failed: %v", templateName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
