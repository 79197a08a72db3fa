package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"whisky-collection/internal/assets"
	"whisky-collection/internal/config"
	"whisky-collection/internal/handler"
	"whisky-collection/internal/metrics"
	"whisky-collection/internal/repository"
	"whisky-collection/internal/router"
	"whisky-collection/internal/service"

	"github.com/rs/zerolog"
)

// State is a step of the application lifecycle.
type State int32

const (
	StateStopped State = iota
	StateConnecting
	StateSchemaReady
	StateListening
	StateRunning
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateConnecting:
		return "connecting"
	case StateSchemaReady:
		return "schema_ready"
	case StateListening:
		return "listening"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrAlreadyStarted is returned by Start when the App is not stopped.
var ErrAlreadyStarted = errors.New("application already started")

// App wires the store, the HTTP surface and their lifecycle.
type App struct {
	cfg     *config.Config
	base    zerolog.Logger
	logger  zerolog.Logger
	metrics *metrics.Metrics

	state atomic.Int32

	mu       sync.Mutex
	store    *Store
	listener net.Listener
	server   *http.Server
	errCh    chan error
}

// New creates a stopped App.
func New(cfg *config.Config, logger zerolog.Logger) *App {
	a := &App{
		cfg:    cfg,
		base:   logger,
		logger: logger.With().Str("component", "app").Logger(),
		errCh:  make(chan error, 1),
	}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
	}
	return a
}

// State returns the current lifecycle state.
func (a *App) State() State {
	return State(a.state.Load())
}

// Addr returns the bound listen address, or nil before Listening.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Err reports an HTTP serve failure after Start has returned.
func (a *App) Err() <-chan error {
	return a.errCh
}

// Metrics returns the collectors, or nil when metrics are disabled.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

func (a *App) setState(s State) {
	prev := State(a.state.Swap(int32(s)))
	a.logger.Debug().
		Stringer("from", prev).
		Stringer("to", s).
		Msg("lifecycle transition")
}

// fail closes whatever was opened and moves to Failed.
func (a *App) fail(err error) error {
	a.mu.Lock()
	if a.listener != nil {
		_ = a.listener.Close()
		a.listener = nil
	}
	a.store.Close()
	a.store = nil
	a.mu.Unlock()

	a.setState(StateFailed)
	a.logger.Error().Err(err).Msg("startup failed")
	return err
}

// Start connects, prepares the schema, binds the port and starts serving.
// It returns nil only once the listener is bound.
func (a *App) Start(ctx context.Context) error {
	if !a.state.CompareAndSwap(int32(StateStopped), int32(StateConnecting)) {
		return ErrAlreadyStarted
	}
	a.logger.Info().Str("driver", a.cfg.Database.Driver).Msg("connecting to database")

	if err := a.connect(ctx); err != nil {
		return a.fail(err)
	}
	if err := a.ensureSchema(ctx); err != nil {
		return a.fail(err)
	}
	if err := a.listen(); err != nil {
		return a.fail(err)
	}
	if err := a.serve(ctx); err != nil {
		return a.fail(err)
	}

	return nil
}

func (a *App) connect(ctx context.Context) error {
	var recorder repository.OperationRecorder
	if a.metrics != nil {
		recorder = a.metrics
	}

	store, err := OpenStore(ctx, a.cfg.Database, recorder, a.base)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	a.mu.Lock()
	a.store = store
	a.mu.Unlock()
	return nil
}

func (a *App) ensureSchema(ctx context.Context) error {
	seeded, err := a.store.Repository.EnsureSchema(ctx)
	if err != nil {
		return fmt.Errorf("failed to prepare schema: %w", err)
	}

	a.setState(StateSchemaReady)
	a.logger.Info().Int("seeded", seeded).Msg("schema ready")
	return nil
}

func (a *App) listen() error {
	addr := a.cfg.HTTP.Address()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	a.setState(StateListening)
	return nil
}

func (a *App) serve(ctx context.Context) error {
	source, err := a.assetSource(ctx)
	if err != nil {
		return err
	}

	svc := service.NewWhiskyService(a.store.Repository, a.cfg.Database.AcquireTimeout, a.base)
	mux := router.New(handler.NewWhiskyHandler(svc, a.base), source, a.metrics, a.base)

	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	a.mu.Lock()
	a.server = server
	ln := a.listener
	a.mu.Unlock()

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("HTTP server stopped unexpectedly")
			a.errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	a.setState(StateRunning)
	a.logger.Info().
		Str("address", ln.Addr().String()).
		Msg("HTTP server started")
	return nil
}

// assetSource builds the local source, fronted by S3 when enabled. An S3
// source that cannot be initialised degrades to local only.
func (a *App) assetSource(ctx context.Context) (assets.Source, error) {
	local := assets.NewDirSource(a.cfg.Assets.Dir)
	if !a.cfg.Assets.S3.Enabled {
		a.logger.Info().Str("dir", a.cfg.Assets.Dir).Msg("serving assets from local directory (S3 disabled)")
		return local, nil
	}

	s3Cfg := a.cfg.Assets.S3
	remote, err := assets.NewS3Source(ctx, s3Cfg.Bucket, s3Cfg.Region, s3Cfg.Prefix, a.base)
	if err != nil {
		a.logger.Warn().
			Err(err).
			Msg("failed to initialise S3 asset source, falling back to local directory only")
		return local, nil
	}

	return assets.NewFallbackSource(remote, local, a.base), nil
}

// Shutdown stops the HTTP server within ctx, then closes the database.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	server := a.server
	store := a.store
	a.server = nil
	a.store = nil
	a.listener = nil
	a.mu.Unlock()

	var shutdownErr error
	if server != nil {
		a.logger.Info().Msg("shutting down HTTP server")
		if err := server.Shutdown(ctx); err != nil {
			a.logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				a.logger.Error().Err(closeErr).Msg("failed to close server")
			}
			shutdownErr = fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	store.Close()

	a.setState(StateStopped)
	a.logger.Info().Msg("shutdown completed")
	return shutdownErr
}
