package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/jaki95/music-radar/config"
	"github.com/jaki95/music-radar/internal/app"
	"github.com/jaki95/music-radar/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load("./config/config.yaml")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	port := flag.String("port", cfg.Server.Port, "Server port")
	flag.Parse()

	// Setup logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	a := app.New(cfg)
	defer a.Close()
	a.Start(nil)

	srv := server.New(cfg, a)

	slog.Info("Starting Music Radar API server", "port", *port)
	if err := srv.Start(*port); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
