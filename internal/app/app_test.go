package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bwyatt92/muninn/internal/command"
	"github.com/bwyatt92/muninn/internal/config"
	"github.com/bwyatt92/muninn/internal/conversation/mock"
	"github.com/bwyatt92/muninn/internal/status"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.ListenAddr = "127.0.0.1:0"
	return cfg
}

func mockOptions() []Option {
	return []Option{
		WithWakeDetector(mock.NewWake(0)),
		WithCapturer(mock.NewCapturer()),
		WithSpeaker(&mock.Speaker{}),
		WithStatusDriver(status.DriverFunc(func(status.State, int) error { return nil })),
		WithStore(command.NewMemStore(nil)),
	}
}

func TestNewWiresInjectedCollaborators(t *testing.T) {
	t.Parallel()

	a, err := New(testConfig(), mockOptions()...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	if a.orch == nil || a.listener == nil || a.httpSrv == nil || a.indicator == nil {
		t.Error("subsystems not fully wired")
	}
	if a.player == nil || a.recorder == nil {
		t.Error("default playback drivers missing")
	}
	if a.registry != nil {
		t.Error("registry should stay untouched when all drivers are injected")
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Drivers.Wake.Name = "bogus"

	_, err := New(cfg, WithRegistry(config.NewRegistry()))
	if !errors.Is(err, config.ErrDriverNotRegistered) {
		t.Fatalf("err = %v, want ErrDriverNotRegistered", err)
	}
}

func TestNewRejectsBadLexiconPath(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Lexicon.Path = "does-not-exist.yaml"

	if _, err := New(cfg, mockOptions()...); err == nil {
		t.Fatal("expected lexicon load failure")
	}
}

func TestApplyConfigHotReloads(t *testing.T) {
	t.Parallel()

	level := new(slog.LevelVar)
	opts := append(mockOptions(), WithLogLevelVar(level))

	a, err := New(testConfig(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	next := testConfig()
	next.Server.LogLevel = config.LogDebug
	next.Conversation.MaxTurns = 9
	next.Thresholds.Accept = 0.9

	a.applyConfig(a.cfg, next)

	if got := level.Level(); got != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", got)
	}
	if a.cfg.Conversation.MaxTurns != 9 {
		t.Errorf("max turns = %d, want 9", a.cfg.Conversation.MaxTurns)
	}
}

func TestReadinessProbeDuringConfigReloads(t *testing.T) {
	t.Parallel()

	a, err := New(testConfig(), mockOptions()...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		prev := testConfig()
		for i := 0; i < 50; i++ {
			next := testConfig()
			next.Conversation.MaxTurns = 3 + i%5
			a.applyConfig(prev, next)
			prev = next
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
			rec := httptest.NewRecorder()
			a.httpSrv.Handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("readyz = %d, want 200", rec.Code)
			}
		}
	}()

	wg.Wait()
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	a, err := New(testConfig(), mockOptions()...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
