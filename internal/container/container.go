// Package container wires the application's dependencies and manages
// their lifecycle.
package container

import (
	"immunostat/adapters/ingest"
	"immunostat/adapters/store"
	"immunostat/internal"
	"immunostat/internal/config"
	"immunostat/internal/service"
	"immunostat/stats/engine"
)

// Container holds the wired application components.
type Container struct {
	Config *config.Config
	Log    *internal.Logger

	Store    *store.Store
	Analyzer *engine.Analyzer
	Service  *service.AnalysisService
	Loader   *ingest.Loader
}

// New connects the database and wires the full dependency graph.
func New(cfg *config.Config) (*Container, error) {
	log := internal.NewDefaultLogger()

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	analyzer := engine.NewAnalyzer(log)
	svc := service.New(st, analyzer, cfg.Analysis, log)
	loader := ingest.NewLoader(st, log)

	return &Container{
		Config:   cfg,
		Log:      log,
		Store:    st,
		Analyzer: analyzer,
		Service:  svc,
		Loader:   loader,
	}, nil
}

// Close releases held resources.
func (c *Container) Close() error {
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}
