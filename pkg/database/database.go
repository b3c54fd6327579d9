// Package database manages the Postgres connection pool and ties its
// health to the service lifecycle.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/opendocket/docket/pkg/lifecycle"
)

// System exposes the connection pool and hooks it into lifecycle coordination.
type System interface {
	// Connection returns the shared connection pool.
	Connection() *sql.DB
	// Start registers the connectivity probe and pool teardown with lc.
	Start(lc *lifecycle.Coordinator) error
}

type postgres struct {
	pool        *sql.DB
	logger      *slog.Logger
	pingTimeout time.Duration
}

// New opens a pgx-backed pool for cfg. Opening validates the DSN and sets
// pool limits; no connection is dialed until the startup probe runs.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	pool, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &postgres{
		pool:        pool,
		logger:      logger.With("system", "database", "name", cfg.Name),
		pingTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (p *postgres) Connection() *sql.DB {
	return p.pool
}

func (p *postgres) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		if err := p.ping(lc.Context()); err != nil {
			p.logger.Error("database unreachable", "error", err)
			return
		}
		p.logger.Info("database connected")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		if err := p.pool.Close(); err != nil {
			p.logger.Error("database close failed", "error", err)
			return
		}
		p.logger.Info("database connection closed")
	})

	return nil
}

// ping verifies connectivity within the configured timeout.
func (p *postgres) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.pingTimeout)
	defer cancel()
	return p.pool.PingContext(ctx)
}
