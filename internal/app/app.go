// Package app initializes and runs the service.
// It configures logging, storage, the text generator, authentication and
// routing, and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/jobvocab/internal/auth"
	"github.com/patric-chuzhbe/jobvocab/internal/config"
	"github.com/patric-chuzhbe/jobvocab/internal/db/jsondb"
	"github.com/patric-chuzhbe/jobvocab/internal/db/memorystorage"
	"github.com/patric-chuzhbe/jobvocab/internal/db/mongodb"
	"github.com/patric-chuzhbe/jobvocab/internal/db/postgresdb"
	"github.com/patric-chuzhbe/jobvocab/internal/db/storage"
	"github.com/patric-chuzhbe/jobvocab/internal/generator"
	"github.com/patric-chuzhbe/jobvocab/internal/generator/gemini"
	"github.com/patric-chuzhbe/jobvocab/internal/logger"
	"github.com/patric-chuzhbe/jobvocab/internal/models"
	"github.com/patric-chuzhbe/jobvocab/internal/router"
	"github.com/patric-chuzhbe/jobvocab/internal/service"
)

const shutdownTimeout = 10 * time.Second

// App holds the configuration, storage, generator and HTTP handler of a running service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	agent       *gemini.Agent
	httpHandler http.Handler
}

// New loads the configuration, initializes the logger, picks the storage
// backend, connects the Gemini client and builds the router.
func New(ctx context.Context) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	if err := logger.Init(app.cfg.LogLevel); err != nil {
		return nil, err
	}

	signingKey, err := app.cfg.SigningKey()
	if err != nil {
		return nil, fmt.Errorf("in internal/app/app.go/New(): error while `app.cfg.SigningKey()` calling: %w", err)
	}

	location, err := app.cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("in internal/app/app.go/New(): error while `app.cfg.Location()` calling: %w", err)
	}

	app.db, err = getStorageByType(ctx, app.cfg)
	if err != nil {
		return nil, err
	}

	app.agent, err = gemini.New(
		ctx,
		app.cfg.GeminiAPIKey,
		app.cfg.GeminiModel,
		gemini.WithTemperature(app.cfg.GenerationTemperature),
		gemini.WithTimeout(app.cfg.GenerationTimeout),
	)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}

	theAuth := auth.New(signingKey, app.cfg.TokenTTL)

	app.httpHandler = router.New(
		service.New(
			app.db,
			generator.New(app.agent),
			theAuth,
			service.WithLocation(location),
		),
		theAuth,
	)

	return app, nil
}

// Run serves HTTP until ctx is done or SIGINT/SIGTERM arrives, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:              a.cfg.RunAddr,
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      a.cfg.GenerationTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing storage and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.closeResources()

	case err := <-serverErrCh:
		closeErr := a.closeResources()
		if errors.Is(err, http.ErrServerClosed) {
			return closeErr
		}
		return errors.Join(fmt.Errorf("server error: %w", err), closeErr)
	}
}

func (a *App) closeResources() error {
	var errs []error
	if err := a.agent.Close(); err != nil {
		errs = append(errs, fmt.Errorf("gemini client close error: %w", err))
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage close error: %w", err))
	}

	return errors.Join(errs...)
}

// Close flushes the logger.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.MongoURI != "" {
		return models.StorageTypeMongo
	}

	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	storageType := getAvailableStorageType(cfg)
	logger.Log.Infow("storage selected", "type", storageType)

	switch storageType {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypeMongo:
		return mongodb.New(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.DBConnectionTimeout)

	case models.StorageTypePostgresql:
		return postgresdb.New(
			ctx,
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	db, err := memorystorage.New()
	if err != nil {
		logger.Log.Errorw("memory storage init failed", zap.Error(err))
		return nil, err
	}

	return db, nil
}
