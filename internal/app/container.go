package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/opsboard/billing-dashboard/internal/billing/report"
	"github.com/opsboard/billing-dashboard/internal/config"
	"github.com/opsboard/billing-dashboard/internal/images"
	"github.com/opsboard/billing-dashboard/internal/observability"
	"github.com/opsboard/billing-dashboard/internal/reportcache"
	"github.com/opsboard/billing-dashboard/internal/storage/blob"
)

// Container aggregates runtime dependencies for handlers and services.
type Container struct {
	Config            *config.Config
	DBPool            *pgxpool.Pool
	Redis             *redis.Client
	Reports           *report.Service
	ReportCache       *reportcache.Cache
	Images            *images.Service
	Observability     *observability.Provider
	ReportingLocation *time.Location
}

// NewContainer builds a dependency container from the provided primitives.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if pool == nil {
		return nil, fmt.Errorf("db pool is required")
	}
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	locName := strings.TrimSpace(cfg.Reporting.Timezone)
	if locName == "" {
		locName = "UTC"
	}
	reportingLoc, err := time.LoadLocation(locName)
	if err != nil {
		return nil, fmt.Errorf("load reporting timezone: %w", err)
	}

	obs, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("setup observability: %w", err)
	}

	imageStore, err := blob.New(ctx, cfg.Images)
	if err != nil {
		return nil, fmt.Errorf("build image storage: %w", err)
	}

	container := &Container{
		Config:            cfg,
		DBPool:            pool,
		Redis:             redisClient,
		Reports:           report.NewService(report.NewPGStore(pool), reportingLoc, cfg.Reporting.Currency),
		ReportCache:       reportcache.New(redisClient, cfg.Reporting.CacheTTL),
		Images:            images.NewService(images.NewPGStore(pool), imageStore, &cfg.Images),
		Observability:     obs,
		ReportingLocation: reportingLoc,
	}
	return container, nil
}
