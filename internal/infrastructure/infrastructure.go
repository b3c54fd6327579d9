// Package infrastructure assembles the process-wide subsystems every domain
// module shares: lifecycle coordination, logging, Postgres access, blob
// storage, and metrics.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/opendocket/docket/internal/config"
	"github.com/opendocket/docket/pkg/database"
	"github.com/opendocket/docket/pkg/lifecycle"
	"github.com/opendocket/docket/pkg/metrics"
	"github.com/opendocket/docket/pkg/storage"
)

// Infrastructure carries the shared subsystems domain modules depend on.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Metrics   *metrics.Manager
}

// New constructs every subsystem from cfg without starting any of them;
// Start wires them into the lifecycle.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Metrics:   metrics.New(),
	}, nil
}

// Start registers database and storage lifecycle hooks.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	return nil
}

// Scoped returns a copy of the infrastructure whose logger is tagged with
// the given module name.
func (i *Infrastructure) Scoped(module string) *Infrastructure {
	scoped := *i
	scoped.Logger = i.Logger.With("module", module)
	return &scoped
}
