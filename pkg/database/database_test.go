package database_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/opendocket/docket/pkg/database"
	"github.com/opendocket/docket/pkg/lifecycle"
)

func quiet() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// poolConfig returns a valid config pointed at a port nothing listens on.
func poolConfig(open, idle int) *database.Config {
	return &database.Config{
		Name:            "docket",
		User:            "docket_ro",
		Password:        "docket",
		Host:            "127.0.0.1",
		Port:            5433,
		SSLMode:         "disable",
		MaxOpenConns:    open,
		MaxIdleConns:    idle,
		ConnMaxLifetime: "30m",
		ConnTimeout:     "2s",
	}
}

func TestNewOpensLazily(t *testing.T) {
	sys, err := database.New(poolConfig(10, 5), quiet())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	conn := sys.Connection()
	if conn == nil {
		t.Fatal("Connection() = nil")
	}

	// Nothing has dialed yet, so Close succeeds without a live server.
	if err := conn.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewAppliesPoolLimits(t *testing.T) {
	sys, err := database.New(poolConfig(12, 3), quiet())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	conn := sys.Connection()
	defer conn.Close()

	if got := conn.Stats().MaxOpenConnections; got != 12 {
		t.Errorf("MaxOpenConnections = %d, want 12", got)
	}
}

func TestStartLifecycle(t *testing.T) {
	cfg := poolConfig(4, 2)
	cfg.ConnTimeout = "100ms"

	sys, err := database.New(cfg, quiet())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// The connectivity probe fails against the dead port but startup still
	// completes and the ready gate opens.
	lc.WaitForStartup()
	if !lc.Ready() {
		t.Error("Ready() = false after WaitForStartup")
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
