// Package app wires all starcue subsystems into a running server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject doubles via functional options (WithSTT,
// WithReadingLog, WithMetrics). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/starcue/internal/config"
	"github.com/MrWong99/starcue/internal/health"
	"github.com/MrWong99/starcue/internal/listen"
	"github.com/MrWong99/starcue/internal/observe"
	"github.com/MrWong99/starcue/internal/readinglog"
	"github.com/MrWong99/starcue/internal/transport/ws"
	"github.com/MrWong99/starcue/pkg/provider/stt"
)

// drainTimeout bounds the HTTP shutdown once Run's context is cancelled.
const drainTimeout = 10 * time.Second

// errSTTUnavailable is reported by readiness when a speech provider was
// configured but could not be created.
var errSTTUnavailable = errors.New("speech provider configured but not available")

// ReadingLog stores completed readings. *readinglog.PostgresStore satisfies
// it.
type ReadingLog interface {
	listen.Recorder
	Ping(ctx context.Context) error
}

var _ ReadingLog = (*readinglog.PostgresStore)(nil)

// App owns all subsystem lifetimes.
type App struct {
	cfg *config.Config

	// Injected or created in New.
	registry   *config.Registry
	stt        stt.Provider
	readingLog ReadingLog
	metrics    *observe.Metrics
	level      *slog.LevelVar
	configPath string

	ws      *ws.Server
	health  *health.Handler
	server  *http.Server
	ln      net.Listener
	watcher *config.Watcher

	// closers are called in order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithRegistry sets the provider registry used to build the configured speech
// provider. Defaults to a registry with the built-in providers.
func WithRegistry(r *config.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithSTT injects a speech provider instead of creating one from config.
func WithSTT(p stt.Provider) Option {
	return func(a *App) { a.stt = p }
}

// WithReadingLog injects a reading log instead of connecting to PostgreSQL.
func WithReadingLog(l ReadingLog) Option {
	return func(a *App) { a.readingLog = l }
}

// WithMetrics overrides the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLevelVar hands the app the level of the process logger so config
// reloads can change verbosity.
func WithLevelVar(lv *slog.LevelVar) Option {
	return func(a *App) { a.level = lv }
}

// WithConfigWatch enables polling of the config file at path. Changes to the
// log level and listen settings apply live; other changes are logged as
// requiring a restart.
func WithConfigWatch(path string) Option {
	return func(a *App) { a.configPath = path }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together and binds the HTTP
// listener so [App.Addr] is valid on return.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.level == nil {
		a.level = new(slog.LevelVar)
		a.level.Set(cfg.Server.LogLevel.Level())
	}
	if a.registry == nil {
		a.registry = config.NewRegistry()
		RegisterBuiltinProviders(a.registry)
	}

	sttCheck, err := a.initSTT()
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init stt: %w", err)
	}

	if err := a.initReadingLog(ctx); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init reading log: %w", err)
	}

	checkers := []health.Checker{sttCheck}
	if a.readingLog != nil {
		checkers = append(checkers, health.Checker{Name: "readinglog", Check: a.readingLog.Ping})
	}
	a.health = health.New(checkers...)

	a.initWS()

	if err := a.initHTTP(); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init http: %w", err)
	}

	if a.configPath != "" {
		w, err := config.NewWatcher(a.configPath, a.applyConfig)
		if err != nil {
			a.closeAll()
			return nil, fmt.Errorf("app: watch config: %w", err)
		}
		a.watcher = w
		a.closers = append(a.closers, func() error { w.Stop(); return nil })
	}

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initSTT creates the configured speech provider unless one was injected and
// returns its readiness check.
func (a *App) initSTT() (health.Checker, error) {
	if a.stt != nil {
		return health.Static("stt", nil), nil
	}
	entry := a.cfg.Providers.STT
	if entry.Name == "" {
		slog.Info("no speech provider configured, accepting transcripts only")
		return health.Static("stt", nil), nil
	}

	p, err := a.registry.CreateSTT(entry)
	if errors.Is(err, config.ErrProviderNotRegistered) {
		slog.Warn("speech provider not available, accepting transcripts only", "name", entry.Name)
		return health.Static("stt", errSTTUnavailable), nil
	}
	if err != nil {
		return health.Checker{}, fmt.Errorf("create stt provider %q: %w", entry.Name, err)
	}
	a.stt = p
	slog.Info("provider created", "kind", "stt", "name", entry.Name)
	return health.Static("stt", nil), nil
}

// initReadingLog connects to PostgreSQL and migrates the readings table when
// a DSN is configured and no log was injected.
func (a *App) initReadingLog(ctx context.Context) error {
	if a.readingLog != nil {
		return nil
	}
	dsn := a.cfg.Storage.PostgresDSN
	if dsn == "" {
		return nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })

	store := readinglog.NewPostgresStore(pool, readinglog.WithMetrics(a.metrics))
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	a.readingLog = store
	slog.Info("reading log ready")
	return nil
}

func (a *App) initWS() {
	opts := []ws.Option{
		ws.WithMetrics(a.metrics),
		ws.WithOriginPatterns(a.cfg.Server.AllowedOrigins...),
	}
	if a.stt != nil {
		opts = append(opts, ws.WithProvider(a.stt, StreamConfig(a.cfg.Providers.STT)))
	}
	if a.readingLog != nil {
		opts = append(opts, ws.WithRecorder(a.readingLog))
	}
	a.ws = ws.NewServer(ListenConfig(a.cfg.Listen), opts...)
}

func (a *App) initHTTP() error {
	mux := http.NewServeMux()
	a.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/listen", a.ws.Handler())

	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.Server.ListenAddr, err)
	}
	a.ln = ln
	a.closers = append(a.closers, func() error {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	})
	a.server = &http.Server{
		Handler:           observe.Middleware(a.metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// ─── Config reload ───────────────────────────────────────────────────────────

// applyConfig is the watcher callback.
func (a *App) applyConfig(old, next *config.Config) {
	d := config.Diff(old, next)
	if d.LogLevelChanged {
		a.level.Set(d.NewLogLevel.Level())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.ListenChanged {
		a.ws.SetConfig(ListenConfig(d.NewListen))
		slog.Info("listen settings changed, applying to new sessions",
			"partial_timeout", d.NewListen.PartialTimeout,
			"use_alternatives", d.NewListen.UseAlternatives,
		)
	}
	for _, field := range d.RestartRequired {
		slog.Warn("config change requires a restart", "field", field)
	}
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Addr returns the bound HTTP address.
func (a *App) Addr() net.Addr {
	return a.ln.Addr()
}

// Config returns the most recent valid config: the watched file's content
// when watching, the config passed to New otherwise.
func (a *App) Config() *config.Config {
	if a.watcher != nil {
		return a.watcher.Current()
	}
	return a.cfg
}

// Sessions returns the number of open websocket listening sessions.
func (a *App) Sessions() int {
	return a.ws.ActiveSessions()
}

// Run serves HTTP until ctx is cancelled, then drains: readiness starts
// failing, websocket sessions are closed and in-flight requests get
// [drainTimeout] to finish. It returns nil after a clean drain.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", a.ln.Addr().String())
		if err := a.server.Serve(a.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
		defer cancel()
		return a.drain(sctx)
	})

	return g.Wait()
}

// drain stops accepting work. Safe to call more than once.
func (a *App) drain(ctx context.Context) error {
	a.health.SetDraining()
	a.ws.CloseAll()
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("app: http shutdown: %w", err)
	}
	return nil
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown drains HTTP and tears down all subsystems in init order. It
// respects the context deadline: if ctx expires before all closers finish,
// remaining closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if err := a.drain(ctx); err != nil {
			slog.Warn("drain error", "err", err)
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// closeAll runs closers after a failed New.
func (a *App) closeAll() {
	for _, c := range a.closers {
		_ = c()
	}
}
