package lifecycle_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opendocket/docket/pkg/lifecycle"
)

func TestReadyGate(t *testing.T) {
	lc := lifecycle.New()

	if lc.Ready() {
		t.Error("Ready() = true before startup completed")
	}

	lc.WaitForStartup()

	if !lc.Ready() {
		t.Error("Ready() = false after WaitForStartup")
	}
}

func TestStartupHooksExecute(t *testing.T) {
	lc := lifecycle.New()

	var started atomic.Int32
	lc.OnStartup(func() { started.Add(1) })
	lc.OnStartup(func() { started.Add(1) })

	lc.WaitForStartup()

	if got := started.Load(); got != 2 {
		t.Errorf("startup hooks ran %d times, want 2", got)
	}
}

func TestShutdownHooksExecute(t *testing.T) {
	lc := lifecycle.New()

	var drained atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		drained.Store(true)
	})

	lc.WaitForStartup()

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !drained.Load() {
		t.Error("Shutdown() returned before the hook finished")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()

	release := make(chan struct{})
	defer close(release)
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-release
	})

	lc.WaitForStartup()

	err := lc.Shutdown(20 * time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "shutdown timeout") {
		t.Errorf("Shutdown() error = %v, want a timeout", err)
	}
}

func TestContextCancelledOnShutdown(t *testing.T) {
	lc := lifecycle.New()
	lc.WaitForStartup()

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case <-lc.Context().Done():
	default:
		t.Error("lifecycle context still live after Shutdown")
	}
}

func TestBackgroundBlocksShutdown(t *testing.T) {
	lc := lifecycle.New()

	var finished atomic.Bool
	lc.Background(func(ctx context.Context) {
		<-ctx.Done()
		finished.Store(true)
	})

	lc.WaitForStartup()

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !finished.Load() {
		t.Error("Shutdown() returned before background work finished")
	}
}
