// Package server wires configuration, storage, the auth services and both
// transports into one process and runs them until a shutdown signal.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/saltgate/internal/logging"
	"github.com/dmitrijs2005/saltgate/internal/server/auth"
	"github.com/dmitrijs2005/saltgate/internal/server/config"
	gs "github.com/dmitrijs2005/saltgate/internal/server/grpc"
	httpx "github.com/dmitrijs2005/saltgate/internal/server/http"
	"github.com/dmitrijs2005/saltgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/saltgate/internal/server/services"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   repomanager.RepositoryManager
	tokens  *auth.TokenIssuer
	users   *services.UserService
	limiter httpx.RateLimiter
	metrics *httpx.Metrics
	closers []io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// NewApp opens and migrates the store and builds the services. Logs go to
// logOut.
func NewApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	logger, err := logging.New(c.LogLevel, c.LogFormat, logOut)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, metrics: httpx.NewMetrics()}

	store, err := repomanager.Open(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.store = store
	app.closers = append(app.closers, store)

	if err := store.RunMigrations(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("db migrations error: %w", err)
	}

	pepper, err := c.Pepper()
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("salt pepper: %w", err)
	}

	app.tokens, err = auth.NewTokenIssuer([]byte(c.SecretKey))
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	opts := []services.Option{services.WithLogger(logger.With("module", "user_service"))}
	if c.UsernameCacheTTL > 0 {
		known, err := services.NewKnownUsersCache(c.UsernameCacheTTL)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.closers = append(app.closers, known)
		opts = append(opts, services.WithKnownUsers(known))
	}
	app.users = services.NewUserService(store.Users(), app.tokens, pepper, opts...)

	if c.LoginRateLimit > 0 {
		app.limiter = app.newRateLimiter(ctx)
		app.closers = append(app.closers, closerFunc(app.limiter.Close))
	}

	return app, nil
}

// newRateLimiter prefers Redis when configured and falls back to the
// in-process limiter when it is unreachable.
func (app *App) newRateLimiter(ctx context.Context) httpx.RateLimiter {
	c := app.config
	if c.RedisAddr != "" {
		rl, err := httpx.NewRedisRateLimiter(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB, c.LoginRateLimit, c.LoginRateBurst, app.logger)
		if err == nil {
			return rl
		}
		app.logger.Warn(ctx, "redis rate limiter unavailable", "error", err)
	}
	return httpx.NewMemoryRateLimiter(c.LoginRateLimit, c.LoginRateBurst)
}

// Handler returns the HTTP API handler.
func (app *App) Handler() http.Handler {
	opts := []httpx.RouterOption{
		httpx.WithLogger(app.logger.With("module", "http")),
		httpx.WithMetrics(app.metrics),
		httpx.WithHealthCheck(app.store.Ping),
	}
	if app.limiter != nil {
		opts = append(opts, httpx.WithRateLimiter(app.limiter))
	}
	return httpx.NewRouter(app.users, app.tokens, opts...)
}

func (app *App) initSignalHandler(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// Run serves HTTP, and gRPC when configured, until ctx is cancelled or a
// SIGINT/SIGTERM arrives. Resources are released before it returns.
func (app *App) Run(ctx context.Context) error {
	defer app.Close()

	ctx, stop := app.initSignalHandler(ctx)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	ln, err := net.Listen("tcp", app.config.HTTPAddr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpx.Serve(gctx, ln, app.Handler(), app.config.ShutdownTimeout, app.logger)
	})
	if app.config.GRPCAddr != "" {
		g.Go(func() error {
			return gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.users, app.tokens).Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}

// Close releases the store, cache and limiter. Safe to call more than once.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
