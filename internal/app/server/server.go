// Package server assembles the contact book service: storage, HTTP API and
// the lifecycle that ties them together.
package server

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"contactbook/internal/api"
	"contactbook/internal/config"
	"contactbook/internal/data/contacts"
	apperrors "contactbook/internal/errors"
	"contactbook/internal/logger"
)

// App owns the database handle and the HTTP server.
type App struct {
	config *config.Config
	logger logger.Logger

	mu  sync.Mutex
	db  *sql.DB
	api *api.Server
}

// NewServer creates an App from a validated configuration.
func NewServer(cfg *config.Config, log logger.Logger) *App {
	if log == nil {
		log = logger.NewStandardLogger()
	}
	return &App{
		config: cfg,
		logger: log,
	}
}

// Start opens the store and begins serving. It returns once the listener is bound.
func (a *App) Start(ctx context.Context) error {
	var repo *contacts.SQLiteRepository

	steps := []StartupStep{
		{
			Name:      "Open contact store",
			Operation: "app.openStore",
			Category:  apperrors.ErrCategoryDatabase,
			Fn: func(context.Context) error {
				db, err := contacts.OpenDatabase(a.config.Store.Path, a.config.Store.BusyTimeout)
				if err != nil {
					return err
				}
				a.mu.Lock()
				a.db = db
				a.mu.Unlock()
				repo = contacts.NewSQLiteRepository(db)
				return nil
			},
		},
		{
			Name:      "Create schema",
			Operation: "app.bootstrap",
			Category:  apperrors.ErrCategoryDatabase,
			Fn: func(ctx context.Context) error {
				return repo.Bootstrap(ctx)
			},
		},
		{
			Name:      "Start HTTP listener",
			Operation: "app.listen",
			Category:  apperrors.ErrCategoryNetwork,
			Fn: func(context.Context) error {
				srv := api.NewServer(repo, a.logger, api.Options{
					Addr:            a.config.Server.Addr,
					ReadTimeout:     a.config.Server.ReadTimeout,
					WriteTimeout:    a.config.Server.WriteTimeout,
					IdleTimeout:     a.config.Server.IdleTimeout,
					ShutdownTimeout: a.config.Server.ShutdownTimeout,
					MaxBodyBytes:    a.config.Server.MaxBodyBytes,
				})
				if err := srv.Start(); err != nil {
					return err
				}
				a.mu.Lock()
				a.api = srv
				a.mu.Unlock()
				return nil
			},
		},
	}

	if err := NewPipeline(a.logger, steps, wrapStepError).Execute(ctx); err != nil {
		a.closeStore()
		return err
	}

	a.logger.InfoContext(ctx, "contact book ready",
		logger.String("addr", a.Addr()),
		logger.String("store", a.config.Store.Path))
	return nil
}

// Run starts the service and blocks until ctx is cancelled, a client asks
// the server to shut down or serving fails, then drains requests and closes
// the store.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	serveErr := a.await(ctx, a.api.Done(), a.api.Failed())
	return errors.Join(serveErr, a.Stop(context.WithoutCancel(ctx)))
}

// await blocks until one of the stop conditions occurs. Only a serve failure
// yields an error.
func (a *App) await(ctx context.Context, done <-chan struct{}, failed <-chan error) error {
	select {
	case <-ctx.Done():
		a.logger.Info("received exit signal, shutting down gracefully")
	case <-done:
		a.logger.Info("shutdown requested by client")
	case err, ok := <-failed:
		if !ok {
			return nil
		}
		return apperrors.NetworkError(apperrors.CodeNetworkGeneric, "HTTP server stopped serving", err).
			WithOperation("app.serve").
			WithModule("app")
	}
	return nil
}

// Stop shuts the HTTP server down and closes the store. Both steps run even
// if the first fails.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	srv := a.api
	a.mu.Unlock()

	var stopErr error
	if srv != nil {
		if err := srv.Stop(ctx); err != nil {
			stopErr = apperrors.SystemError(apperrors.CodeSystemGeneric, "failed to stop HTTP server", err).
				WithOperation("app.stop").
				WithModule("app")
		}
	}
	return errors.Join(stopErr, a.closeStore())
}

// Addr returns the address the API listens on.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.api == nil {
		return a.config.Server.Addr
	}
	return a.api.Addr()
}

// Done is closed when a client requests shutdown. It is nil before Start.
func (a *App) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.api == nil {
		return nil
	}
	return a.api.Done()
}

func (a *App) closeStore() error {
	a.mu.Lock()
	db := a.db
	a.db = nil
	a.mu.Unlock()

	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return apperrors.DatabaseError(apperrors.CodeDatabaseGeneric, "failed to close contact store", err).
			WithOperation("app.closeStore").
			WithModule("app")
	}
	return nil
}
