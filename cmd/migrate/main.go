// Package main applies the embedded PostgreSQL migrations.
package main

import (
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/encounter/internal/config"
	"github.com/cory-johannsen/encounter/internal/observability"
	"github.com/cory-johannsen/encounter/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	direction := flag.String("direction", postgres.DirectionUp, "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	state, err := postgres.Migrate(cfg.Database.DSN(), *direction, *steps)
	if err != nil {
		logger.Fatal("migration failed",
			zap.String("direction", *direction),
			zap.Int("steps", *steps),
			zap.Error(err),
		)
	}

	msg := "migrated"
	if state.NoChange {
		msg = "no changes"
	}
	logger.Info(msg,
		zap.String("direction", *direction),
		zap.Uint("version", state.Version),
		zap.Bool("dirty", state.Dirty),
		zap.Duration("elapsed", time.Since(start)),
	)
}
