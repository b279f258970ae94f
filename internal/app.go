// Package internal contains core application functionality
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/redis/go-redis/v9"

	"shortn/internal/config"
	"shortn/internal/database"
	"shortn/internal/jobs"
	"shortn/internal/links"
	"shortn/internal/pkg/geoip"
)

// Application wraps cartridge.Application with shortn-specific components
type Application struct {
	*cartridge.Application
	DBManager *database.DBManager // shortn DB manager with migration methods
	Redis     *redis.Client       // nil when the link cache is disabled
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := cartridge.NewLogger(cfg, nil)
	geoip.InitLogger(logger)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, resolver, err := newResolver(cfg, dbManager, logger)
	if err != nil {
		return nil, err
	}

	jobsManager, err := jobs.NewJobs(dbManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jobs: %w", err)
	}

	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		RouteMountFunc: func(srv *cartridge.Server) {
			MountAppRoutesWithResolver(srv, resolver)
		},
		BackgroundWorkers: []cartridge.BackgroundWorker{jobsManager},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &Application{
		Application: app,
		DBManager:   dbManager,
		Redis:       rdb,
	}, nil
}

// newResolver puts the Redis link cache in front of the database when a
// Redis URL is configured.
func newResolver(cfg *config.Config, dbManager *database.DBManager, logger *slog.Logger) (*redis.Client, links.Resolver, error) {
	dbResolver := links.NewDBResolver(dbManager)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, err := links.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up link cache: %w", err)
	}
	if rdb == nil {
		logger.Info("Link cache disabled, resolving short codes from the database")
		return nil, dbResolver, nil
	}

	ttl := time.Duration(cfg.LinkCacheTTLSeconds) * time.Second
	logger.Info("Link cache enabled", slog.Duration("ttl", ttl))
	return rdb, links.NewCachedResolver(dbResolver, links.NewRedisLinkCache(rdb, ttl, logger)), nil
}

// Shutdown stops the application and closes the Redis connection.
func (a *Application) Shutdown(ctx context.Context) error {
	err := a.Application.Shutdown(ctx)
	if a.Redis != nil {
		if closeErr := a.Redis.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
