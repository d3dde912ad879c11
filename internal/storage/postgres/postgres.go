// Package postgres persists characters and encounter results in PostgreSQL
// using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/encounter/internal/config"
)

// DefaultConnectTimeout bounds the initial ping in NewPool.
const DefaultConnectTimeout = 5 * time.Second

// Pool wraps a pgx connection pool with health-check and lifecycle methods.
type Pool struct {
	pool *pgxpool.Pool
	name string
}

// NewPool creates a PostgreSQL connection pool from cfg and pings it.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	p := &Pool{pool: pool, name: cfg.Name}
	if err := p.Health(ctx, DefaultConnectTimeout); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database %q: %w", cfg.Name, err)
	}
	return p, nil
}

// Health checks that the database is reachable within timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// LogStats writes the pool's connection counters at Info.
func (p *Pool) LogStats(logger *zap.Logger) {
	st := p.pool.Stat()
	logger.Info("database pool",
		zap.String("database", p.name),
		zap.Int32("total_conns", st.TotalConns()),
		zap.Int32("idle_conns", st.IdleConns()),
		zap.Int32("max_conns", st.MaxConns()),
	)
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for use by repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
