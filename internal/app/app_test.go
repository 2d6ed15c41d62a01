package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jixie-rent/server/internal/config"
)

type recordingService struct {
	name     string
	startErr error
	mu       *sync.Mutex
	stopped  *[]string
}

func (s *recordingService) Name() string { return s.name }

func (s *recordingService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *recordingService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.stopped = append(*s.stopped, s.name)
	return nil
}

func TestRunnerStopsServicesInReverseOrder(t *testing.T) {
	var mu sync.Mutex
	var stopped []string
	boom := errors.New("listen failed")
	runner := NewRunner(
		&recordingService{name: "resources", mu: &mu, stopped: &stopped},
		&recordingService{name: "worker", mu: &mu, stopped: &stopped},
		&recordingService{name: "http", startErr: boom, mu: &mu, stopped: &stopped},
	)

	err := runner.Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(stopped) != 3 || stopped[0] != "http" || stopped[2] != "resources" {
		t.Fatalf("unexpected stop order: %v", stopped)
	}
}

func TestRunnerCancelledContextIsCleanExit(t *testing.T) {
	var mu sync.Mutex
	var stopped []string
	runner := NewRunner(&recordingService{name: "worker", mu: &mu, stopped: &stopped})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
}

func TestBuildRunnerRejectsUnknownMode(t *testing.T) {
	if _, err := BuildRunner(config.LoadDefaults(), "cron"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("nil config should fail")
	}
}

func TestNormalizeOptionsDefaults(t *testing.T) {
	opts := normalizeOptions(Options{Mode: " API "})
	if opts.Mode != ModeAPI {
		t.Fatalf("mode should be normalized, got %q", opts.Mode)
	}
	if len(opts.Signals) != 2 {
		t.Fatalf("default signals missing: %v", opts.Signals)
	}
	if opts.ShutdownTimeout != defaultShutdownTimeout {
		t.Fatalf("unexpected shutdown timeout %v", opts.ShutdownTimeout)
	}
	if opts.Logger == nil {
		t.Fatalf("default logger missing")
	}
}
