// Package main runs the encounter engine as a gRPC service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/encounter/internal/bootstrap"
	"github.com/cory-johannsen/encounter/internal/config"
	"github.com/cory-johannsen/encounter/internal/encounterserver"
	"github.com/cory-johannsen/encounter/internal/observability"
	"github.com/cory-johannsen/encounter/internal/server"
	"github.com/cory-johannsen/encounter/internal/storage/postgres"
	"github.com/cory-johannsen/encounter/internal/storage/sqlite"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	migrate := flag.Bool("migrate", false, "apply database migrations before serving")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	eng, err := bootstrap.Load(cfg.Content, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	defer eng.Close()

	if *migrate {
		state, err := postgres.Migrate(cfg.Database.DSN(), postgres.DirectionUp, 0)
		if err != nil {
			logger.Fatal("migrating database", zap.Error(err))
		}
		logger.Info("database migrated", zap.Uint("version", state.Version), zap.Bool("no_change", state.NoChange))
	}

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	pool.LogStats(logger)

	characters := postgres.NewCharacterRepository(pool.DB())
	var sink encounterserver.ResultSink = postgres.NewEncounterRepository(pool.DB())

	if cfg.SQLite.Path != "" {
		encLog, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			logger.Fatal("opening encounter log", zap.String("path", cfg.SQLite.Path), zap.Error(err))
		}
		defer encLog.Close()
		sink = encounterserver.MultiSink{sink, encLog}
		logger.Info("encounter log enabled", zap.String("path", cfg.SQLite.Path))
	}

	sessions := encounterserver.NewSessionManager(encounterserver.Options{
		Library:     eng.Library,
		Engine:      cfg.Engine,
		Decider:     eng.Decider,
		NewSource:   bootstrap.SessionSources(cfg.Engine.Seed),
		Saver:       characters,
		Sink:        sink,
		MaxSessions: cfg.Server.MaxSessions,
		Logger:      logger,
	})
	defer sessions.Close()

	svc := encounterserver.NewService(sessions, eng.Library, characters, logger)
	grpcServer, hs := encounterserver.NewGRPCServer(svc)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func(context.Context) error {
			lis, err := net.Listen("tcp", cfg.Server.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.Server.Addr(), err)
			}
			logger.Info("grpc listening", zap.String("addr", lis.Addr().String()))
			return grpcServer.Serve(lis)
		},
		StopFn: func(context.Context) {
			hs.Shutdown()
			grpcServer.GracefulStop()
		},
	})

	logger.Info("encounter server ready",
		zap.String("grpc_addr", cfg.Server.Addr()),
		zap.Strings("encounters", eng.Library.EncounterIDs()),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("encounter server stopped")
}
