// CardioCare share-link service - single-use report sharing
package main

import (
	"context"
	"os"

	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/config"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/logging"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/shareserver"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	logger := logging.New("info", "text")

	logger.Info("starting share-link service",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"port", cfg.SharePort,
		"base_url", cfg.ShareBaseURL,
	)

	srv, err := shareserver.New(cfg, shareserver.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
