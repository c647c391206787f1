// Command immunostat-server runs both front doors: the JSON API on one
// port and the HTML dashboard on another.
package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"immunostat/internal/api"
	"immunostat/internal/config"
	"immunostat/internal/container"
	"immunostat/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer c.Close()

	apiHandler := api.NewHandler(c.Service, c.Log)
	apiRouter := api.NewRouter(apiHandler, cfg.Server.GinMode)

	dashboard, err := ui.NewApp(c.Service, c.Log)
	if err != nil {
		log.Fatalf("dashboard: %v", err)
	}

	var g errgroup.Group
	g.Go(func() error {
		c.Log.Info("API listening on :%s", cfg.Server.APIPort)
		return http.ListenAndServe(fmt.Sprintf(":%s", cfg.Server.APIPort), apiRouter)
	})
	g.Go(func() error {
		return dashboard.Start(cfg.Server.UIPort)
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
