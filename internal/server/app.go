// Package server initializes and runs the application: database, object
// store, HTTP API, and the background reconciliation sweep.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/scanvault/scanvault/internal/logging"
	"github.com/scanvault/scanvault/internal/server/auth"
	"github.com/scanvault/scanvault/internal/server/config"
	"github.com/scanvault/scanvault/internal/server/httpapi"
	"github.com/scanvault/scanvault/internal/server/repositories/repomanager"
	"github.com/scanvault/scanvault/internal/server/services"
	"github.com/scanvault/scanvault/internal/server/storage"
	"github.com/scanvault/scanvault/internal/server/sweeper"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	httpSrv     *http.Server
	sweeper     *sweeper.Sweeper
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, fmt.Errorf("repository init error: %w", err)
	}

	store := storage.NewS3Store(cfg)
	blacklist := auth.NewTokenBlacklist(10000, cfg.AccessTokenValidityDuration)

	userService := services.NewUserService(db, rm, blacklist, cfg)
	fileService := services.NewFileService(db, rm, store, cfg, logger)

	router := httpapi.NewRouter(cfg, userService, fileService, blacklist, logger)

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		repomanager: rm,
		httpSrv:     httpapi.NewServer(cfg, router),
		sweeper:     sweeper.New(db, rm, store, cfg, logger),
	}, nil
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

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	app.sweeper.Start(ctx)
	defer app.sweeper.Stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "http server error", "error", err)
			cancelFunc()
		}
	}()

	<-ctx.Done()

	app.logger.Info(ctx, "shutting down")
	if err := httpapi.Shutdown(app.httpSrv, 10*time.Second); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}
	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	return nil
}
