// Package cli provides the process bootstrap shared by the tripctl commands:
// env file, logger, configuration, backend and signal handling.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"travelapp/internal/api"
	"travelapp/internal/backend"
	"travelapp/internal/cache"
	"travelapp/internal/config"
	applog "travelapp/internal/log"
	"travelapp/internal/session"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg and installs it as the slog default.
func SetupLogger(cfg *config.Config, out io.Writer) *applog.Logger {
	if out == nil {
		out = os.Stderr
	}
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: applog.ComponentCLI,
		Output:    out,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration from the environment and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is everything a command needs, wired once per process.
type App struct {
	Config  *config.Config
	Logger  *applog.Logger
	Backend *backend.Result
	Session *session.Session
	API     *api.Client
	Caches  *cache.Manager
}

// Open wires the backend, session and API client. Close releases them.
func Open(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}

	sess := session.New(res.Store, logger)
	if err := sess.Load(ctx); err != nil {
		_ = res.Cleanup()
		return nil, fmt.Errorf("load session: %w", err)
	}

	client, err := api.New(api.Options{
		BaseURL:            cfg.APIBaseURL,
		Timeout:            cfg.HTTPTimeout,
		SubLocationTimeout: cfg.SubLocationTimeout,
		Tokens:             sess,
		Logger:             logger,
		CacheSize:          cfg.CacheSize,
		CacheTTL:           cfg.CacheTTL,
	})
	if err != nil {
		_ = res.Cleanup()
		return nil, fmt.Errorf("create api client: %w", err)
	}

	caches := cache.NewManager(logger)
	client.RegisterCaches(caches)
	caches.StartCleanup(cfg.CacheTTL)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Backend: res,
		Session: sess,
		API:     client,
		Caches:  caches,
	}, nil
}

// Close stops background cleanup and releases the backend.
func (a *App) Close() error {
	a.Caches.Stop()
	if a.Backend.Cleanup == nil {
		return nil
	}
	return a.Backend.Cleanup()
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has run.
func GracefulShutdown(parent context.Context, logger *applog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}
		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Debug("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
