// Package main plays encounters offline with every side under AI control and
// prints a YAML report.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/encounter/internal/bootstrap"
	"github.com/cory-johannsen/encounter/internal/config"
	"github.com/cory-johannsen/encounter/internal/observability"
	"github.com/cory-johannsen/encounter/internal/simulate"
	"github.com/cory-johannsen/encounter/internal/storage/sqlite"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	encounterID := flag.String("encounter", "goblin_ambush", "encounter definition ID")
	partyID := flag.String("party", "heroes", "party definition ID")
	runs := flag.Int("runs", 100, "number of encounters to play")
	seed := flag.Int64("seed", 0, "base dice seed; 0 uses engine.seed from config")
	maxTurns := flag.Int("max-turns", simulate.DefaultMaxTurns, "turn budget per run")
	dbPath := flag.String("db", "", "sqlite encounter log; empty uses sqlite.path from config")
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

	if *seed == 0 {
		*seed = cfg.Engine.Seed
	}
	if *dbPath == "" {
		*dbPath = cfg.SQLite.Path
	}

	eng, err := bootstrap.Load(cfg.Content, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	defer eng.Close()

	var recorder simulate.Recorder
	if *dbPath != "" {
		encLog, err := sqlite.Open(*dbPath)
		if err != nil {
			logger.Fatal("opening encounter log", zap.String("path", *dbPath), zap.Error(err))
		}
		defer encLog.Close()
		recorder = encLog
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sim := simulate.New(eng.Library, eng.Decider, cfg.Engine, recorder, logger)
	rep, err := sim.Run(ctx, simulate.Request{
		Encounter: *encounterID,
		Party:     *partyID,
		Runs:      *runs,
		Seed:      *seed,
		MaxTurns:  *maxTurns,
	})
	if err != nil {
		logger.Error("simulation stopped", zap.Error(err))
	}
	if rep != nil {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			logger.Fatal("writing report", zap.Error(err))
		}
		_ = enc.Close()
		logger.Info("simulation complete",
			zap.Int("runs", len(rep.Runs)),
			zap.Float64("win_rate", rep.WinRate),
			zap.Float64("mean_turns", rep.MeanTurns),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	if err != nil {
		os.Exit(1)
	}
}
