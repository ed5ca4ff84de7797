// Package app wires all Muninn subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run executes the conversation loop alongside the HTTP
// diagnostics server, and Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithCapturer, WithStore, etc.). When an option is not provided, New
// creates real implementations from the config via the driver registry.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/bwyatt92/muninn/internal/command"
	"github.com/bwyatt92/muninn/internal/config"
	"github.com/bwyatt92/muninn/internal/conversation"
	"github.com/bwyatt92/muninn/internal/driver/console"
	"github.com/bwyatt92/muninn/internal/health"
	"github.com/bwyatt92/muninn/internal/intent"
	"github.com/bwyatt92/muninn/internal/lexicon"
	"github.com/bwyatt92/muninn/internal/observe"
	"github.com/bwyatt92/muninn/internal/skill"
	"github.com/bwyatt92/muninn/internal/status"
	"github.com/bwyatt92/muninn/internal/transcript"
)

// App owns all subsystem lifetimes and runs the Muninn voice loop.
type App struct {
	cfg      *config.Config
	registry *config.Registry

	// Collaborators. Injectable via options; otherwise created from config.
	wake         conversation.WakeDetector
	capturer     conversation.Capturer
	speaker      conversation.Speaker
	statusDriver status.Driver
	player       command.Player
	recorder     command.Recorder
	store        command.Store

	// Subsystems built in New.
	lex       *lexicon.Lexicon
	listener  *conversation.Listener
	orch      *conversation.Orchestrator
	indicator *status.Indicator
	httpSrv   *http.Server
	watcher   *config.Watcher

	log   *slog.Logger
	level *slog.LevelVar

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once

	// mu guards cfg and lex: the config watcher goroutine replaces both
	// while the readiness probe and the retune path read them.
	mu sync.RWMutex
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithRegistry replaces the driver registry. The default registry carries the
// console drivers.
func WithRegistry(r *config.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithWakeDetector injects a wake detector instead of creating one from config.
func WithWakeDetector(w conversation.WakeDetector) Option {
	return func(a *App) { a.wake = w }
}

// WithCapturer injects a capturer instead of creating one from config.
func WithCapturer(c conversation.Capturer) Option {
	return func(a *App) { a.capturer = c }
}

// WithSpeaker injects a speaker instead of creating one from config.
func WithSpeaker(s conversation.Speaker) Option {
	return func(a *App) { a.speaker = s }
}

// WithStatusDriver injects a status driver instead of creating one from config.
func WithStatusDriver(d status.Driver) Option {
	return func(a *App) { a.statusDriver = d }
}

// WithPlayer injects a playback driver instead of the console one.
func WithPlayer(p command.Player) Option {
	return func(a *App) { a.player = p }
}

// WithRecorder injects a recording driver instead of the console one.
func WithRecorder(r command.Recorder) Option {
	return func(a *App) { a.recorder = r }
}

// WithStore injects a message archive instead of an empty in-memory one.
func WithStore(s command.Store) Option {
	return func(a *App) { a.store = s }
}

// WithLogger sets the application logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *App) { a.log = log }
}

// WithLogLevelVar hands the App the level variable backing its logger so
// config reloads can adjust verbosity at runtime.
func WithLogLevelVar(v *slog.LevelVar) Option {
	return func(a *App) { a.level = v }
}

// DefaultRegistry returns a registry with the built-in drivers registered.
// The console wake detector and capturer share one terminal device.
func DefaultRegistry() *config.Registry {
	r := config.NewRegistry()
	device := console.NewDevice(os.Stdin)
	r.RegisterWake("console", func(config.DriverEntry) (conversation.WakeDetector, error) {
		return device, nil
	})
	r.RegisterCapture("console", func(config.DriverEntry) (conversation.Capturer, error) {
		return device, nil
	})
	r.RegisterSpeech("console", func(config.DriverEntry) (conversation.Speaker, error) {
		return console.NewSpeaker(os.Stdout), nil
	})
	r.RegisterStatus("log", func(config.DriverEntry) (status.Driver, error) {
		return console.StatusDriver(nil), nil
	})
	return r
}

// New creates an App by wiring all subsystems together. Use Option functions
// to inject test doubles for any collaborator.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg: cfg,
		log: slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}

	if err := a.initLexicon(); err != nil {
		return nil, fmt.Errorf("app: init lexicon: %w", err)
	}
	if err := a.initDrivers(); err != nil {
		return nil, fmt.Errorf("app: init drivers: %w", err)
	}
	a.initConversation()
	a.initHTTP()

	return a, nil
}

// initLexicon loads the vocabulary file, falling back to the built-in tables
// when no path is configured.
func (a *App) initLexicon() error {
	if a.cfg.Lexicon.Path == "" {
		a.lex = lexicon.Default()
		a.log.Info("using built-in lexicon")
		return nil
	}
	lex, err := lexicon.Load(a.cfg.Lexicon.Path)
	if err != nil {
		return err
	}
	a.lex = lex
	a.log.Info("lexicon loaded", "path", a.cfg.Lexicon.Path)
	return nil
}

// reg returns the driver registry, building the default one on first use so
// fully injected test setups never touch the terminal device.
func (a *App) reg() *config.Registry {
	if a.registry == nil {
		a.registry = DefaultRegistry()
	}
	return a.registry
}

// initDrivers creates every collaborator that was not injected.
func (a *App) initDrivers() error {
	var err error
	if a.wake == nil {
		if a.wake, err = a.reg().CreateWake(a.cfg.Drivers.Wake); err != nil {
			return err
		}
	}
	if a.capturer == nil {
		if a.capturer, err = a.reg().CreateCapture(a.cfg.Drivers.Capture); err != nil {
			return err
		}
	}
	if a.speaker == nil {
		if a.speaker, err = a.reg().CreateSpeech(a.cfg.Drivers.Speech); err != nil {
			return err
		}
	}
	if a.statusDriver == nil {
		if a.statusDriver, err = a.reg().CreateStatus(a.cfg.Drivers.Status); err != nil {
			return err
		}
	}
	if a.player == nil {
		a.player = console.NewPlayer(a.log)
	}
	if a.recorder == nil {
		a.recorder = console.NewRecorder("recordings")
	}
	if a.store == nil {
		a.store = command.NewMemStore(nil)
	}
	return nil
}

// initConversation assembles the resolver, listener, processor, and
// orchestrator from the loaded config and lexicon.
func (a *App) initConversation() {
	a.indicator = status.NewIndicator(a.statusDriver, status.WithLogger(a.log))
	a.closers = append(a.closers, func() error {
		a.indicator.Close()
		return nil
	})

	normalizer := transcript.NewNormalizer(a.lex, transcript.WithMetrics(observe.DefaultMetrics()))
	resolver := intent.NewResolver(a.lex, intent.WithThresholds(a.thresholds()))

	a.listener = conversation.NewListener(
		a.capturer,
		normalizer,
		resolver,
		a.cfg.Thresholds.Accept,
		a.cfg.Conversation.MaxTranscriptLen,
		a.log,
	)

	processor := command.NewProcessor(
		a.store,
		a.player,
		a.recorder,
		a.newWeather(),
		a.newJokes(),
		command.WithProcessorLogger(a.log),
	)

	// Non-console speech engines get the console speaker as a fallback so a
	// dead synthesizer still produces visible replies.
	speaker := a.speaker
	if name := a.cfg.Drivers.Speech.Name; name != "" && name != "console" {
		fs := conversation.NewFallbackSpeaker(name, a.speaker)
		fs.AddFallback("console", console.NewSpeaker(os.Stdout))
		speaker = fs
	}

	a.orch = conversation.NewOrchestrator(
		a.wake,
		a.listener,
		speaker,
		processor,
		a.indicator,
		a.limits(),
		conversation.WithLogger(a.log),
	)
}

// initHTTP builds the diagnostics server: Prometheus metrics plus liveness
// and readiness probes.
func (a *App) initHTTP() {
	hh := health.NewHandler()
	hh.Add("lexicon", func(context.Context) error {
		return lexicon.Validate(a.currentLexicon())
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	hh.Register(mux)

	a.httpSrv = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           observe.Middleware(observe.DefaultMetrics())(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (a *App) newWeather() *skill.Weather {
	opts := []skill.WeatherOption{skill.WithWeatherLogger(a.log)}
	if loc := a.cfg.Skills.Weather.Location; loc != "" {
		opts = append(opts, skill.WithWeatherLocation(loc))
	}
	if d := a.cfg.Skills.Weather.Timeout.Std(); d > 0 {
		opts = append(opts, skill.WithWeatherTimeout(d))
	}
	return skill.NewWeather(a.cfg.Skills.Weather.BaseURL, opts...)
}

func (a *App) newJokes() *skill.Jokes {
	opts := []skill.JokesOption{skill.WithJokesLogger(a.log)}
	if d := a.cfg.Skills.Jokes.Timeout.Std(); d > 0 {
		opts = append(opts, skill.WithJokesTimeout(d))
	}
	return skill.NewJokes(a.cfg.Skills.Jokes.GeneralURL, a.cfg.Skills.Jokes.DadURL, opts...)
}

// currentLexicon returns the live vocabulary tables, safe to call from the
// diagnostics server while the watcher swaps in a reloaded lexicon.
func (a *App) currentLexicon() *lexicon.Lexicon {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lex
}

func (a *App) thresholds() intent.Thresholds {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return intent.Thresholds{
		Pattern:    a.cfg.Thresholds.Pattern,
		Strategy:   a.cfg.Thresholds.Strategy,
		Alias:      a.cfg.Thresholds.Alias,
		AliasBlend: a.cfg.Thresholds.AliasBlend,
	}
}

func (a *App) limits() conversation.Limits {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return conversation.Limits{
		WakeTimeout:     a.cfg.Conversation.WakeTimeout.Std(),
		CommandTimeout:  a.cfg.Conversation.CommandTimeout.Std(),
		FollowUpTimeout: a.cfg.Conversation.FollowUpTimeout.Std(),
		MaxTurns:        a.cfg.Conversation.MaxTurns,
	}
}

// WatchConfig starts polling path for changes and applies hot-reloadable
// fields on each update: thresholds and conversation bounds take effect on
// the next session, and a lexicon path change reloads the vocabulary.
func (a *App) WatchConfig(path string, interval time.Duration) error {
	w, err := config.NewWatcher(path, a.applyConfig,
		config.WithInterval(interval),
		config.WithWatcherLogger(a.log),
	)
	if err != nil {
		return fmt.Errorf("app: watch config: %w", err)
	}
	a.watcher = w
	a.closers = append(a.closers, func() error {
		w.Stop()
		return nil
	})
	return nil
}

// applyConfig is the watcher callback. It diffs against the running config
// and retunes the live subsystems.
func (a *App) applyConfig(old, next *config.Config) {
	diff := config.Diff(old, next)
	if diff.Empty() {
		return
	}
	a.log.Info("configuration changed", "diff", fmt.Sprintf("%+v", diff))

	if diff.LogLevelChanged && a.level != nil {
		a.level.Set(diff.NewLogLevel.Slog())
	}

	lex := a.currentLexicon()
	if diff.LexiconPathChanged {
		reloaded, err := lexicon.Load(next.Lexicon.Path)
		if err != nil {
			a.log.Error("lexicon reload failed, keeping previous tables", "error", err)
		} else {
			lex = reloaded
		}
	}

	a.mu.Lock()
	a.cfg = next
	a.lex = lex
	a.mu.Unlock()

	if diff.ThresholdsChanged || diff.LexiconPathChanged || diff.ConversationChanged {
		a.listener.Retune(
			transcript.NewNormalizer(lex, transcript.WithMetrics(observe.DefaultMetrics())),
			intent.NewResolver(lex, intent.WithThresholds(a.thresholds())),
			next.Thresholds.Accept,
			next.Conversation.MaxTranscriptLen,
		)
		a.orch.SetLimits(a.limits())
	}
}

// Run starts the conversation loop and the diagnostics server, blocking until
// ctx is cancelled or either component fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := a.orch.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		a.log.Info("diagnostics server listening", "addr", a.httpSrv.Addr)
		if err := a.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown tears down all subsystems in reverse-init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.log.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				a.log.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				a.log.Warn("closer error", "index", i, "error", err)
			}
		}
		a.log.Info("shutdown complete")
	})
	return shutdownErr
}
