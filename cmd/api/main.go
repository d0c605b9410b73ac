package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"cltlab/adapters/api"
	"cltlab/internal"
	"cltlab/internal/config"
	"cltlab/internal/container"

	"github.com/joho/godotenv"
)

// Serves only the JSON API, for deployments that render the lab elsewhere
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(cfg.Logging.Level)

	ctx := context.Background()
	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer c.Shutdown()

	go c.RunSessionJanitor(ctx, 5*time.Minute)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewServer(c.Lab, c.Game, cfg.Server.GinMode, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("Starting API server on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatal("Server failed:", err)
	}
}
