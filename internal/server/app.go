// Package server initializes and runs the application: it waits for the
// database, applies migrations, seeds the first superuser and serves the
// REST API and the gRPC health endpoint until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophcrud/internal/dbx"
	"github.com/dmitrijs2005/gophcrud/internal/logging"
	"github.com/dmitrijs2005/gophcrud/internal/server/config"
	"github.com/dmitrijs2005/gophcrud/internal/server/httpapi"

	gs "github.com/dmitrijs2005/gophcrud/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     logging.Logger
	components *Components
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := NewLogger(c, os.Stdout)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	for _, name := range c.InsecureDefaults() {
		logger.Warn(ctx, "setting still has its insecure default, change it before deploying", "setting", name)
	}

	db, err := OpenDatabase(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	comp, err := Build(c, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := comp.Repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	created, err := comp.Users.EnsureFirstSuperuser(ctx, c.FirstSuperuser, c.FirstSuperuserPassword)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if created {
		logger.Info(ctx, "first superuser created", "email", c.FirstSuperuser)
	}

	return &App{config: c, logger: logger, components: comp}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.components.Resolver,
		dbx.Pinger(app.components.DB), app.config.HealthCheckInterval)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	router := httpapi.NewRouter(httpapi.RouterOptions{
		Login:          app.components.Login,
		Users:          app.components.Users,
		Items:          app.components.Items,
		Resolver:       app.components.Resolver,
		Ready:          dbx.Pinger(app.components.DB),
		AllowedOrigins: app.config.AllowedOrigins(),
		Logger:         app.logger.With("module", "http"),
	})

	srv := &http.Server{
		Addr:         app.config.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.components.DB.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
