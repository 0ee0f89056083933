package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/EvanTenenbaum/TERP-sub019/internal/adapters/http/api"
	"github.com/EvanTenenbaum/TERP-sub019/internal/adapters/repository"
	service "github.com/EvanTenenbaum/TERP-sub019/internal/app"
	"github.com/EvanTenenbaum/TERP-sub019/internal/config"
	"github.com/EvanTenenbaum/TERP-sub019/pkg/logger"
)

// engine holds the wired service and everything that must be released with
// it.
type engine struct {
	svc     *service.Service
	pingers map[string]api.Pinger
	closers []func() error
}

// Close releases connections in reverse order of acquisition.
func (e *engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}

// initEngine connects the configured store and snapshot cache and builds the
// service.
func initEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	log := logger.Get()
	e := &engine{pingers: make(map[string]api.Pinger)}

	base, err := openStore(ctx, cfg.Store, e)
	if err != nil {
		return nil, err
	}
	store := repository.NewGuarded(base,
		repository.WithTimeout(cfg.Store.Timeout),
		repository.WithBreakerTimeout(cfg.Store.BreakerTimeout),
		repository.WithTripAfter(cfg.Store.TripAfter),
	)

	cacheOpts := []repository.CacheOption{
		repository.WithTTL(cfg.Cache.TTL),
		repository.WithRefreshRate(cfg.Cache.RefreshRate, cfg.Cache.RefreshBurst),
		repository.WithRefreshTimeout(cfg.Store.Timeout),
	}
	if cfg.Cache.RedisAddr != "" {
		rdb, err := repository.NewRedisClient(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			_ = e.Close()
			return nil, fmt.Errorf("connect snapshot cache: %w", err)
		}
		e.closers = append(e.closers, rdb.Close)
		e.pingers["redis"] = api.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		cacheOpts = append(cacheOpts, repository.WithSnapshotStore(
			repository.NewRedisSnapshots(rdb, cfg.Cache.Prefix, cfg.Cache.TTL),
		))
		log.Info(ctx, "sharing population snapshots", logger.String("redisAddr", cfg.Cache.RedisAddr))
	}

	e.svc = service.New(store,
		service.WithPolicy(cfg.Policy),
		service.WithPopulationCache(repository.NewPopulationCache(store, cacheOpts...)),
		service.WithTopK(cfg.Ranking.TopK),
		service.WithNeighborhood(cfg.Ranking.Neighborhood),
		service.WithMaxLimit(cfg.Ranking.MaxLimit),
		service.WithTrendLookbackDays(cfg.Ranking.TrendLookbackDays),
		service.WithHistoryDays(cfg.Ranking.HistoryDays...),
		service.WithWorkerCount(cfg.Batch.WorkerCount),
	)
	log.Info(ctx, "engine ready",
		logger.String("driver", cfg.Store.Driver),
		logger.String("policyVersion", cfg.Policy.Version),
	)
	return e, nil
}

func openStore(ctx context.Context, cfg config.Store, e *engine) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		if cfg.SeedFile == "" {
			return repository.NewMemoryStore(), nil
		}
		f, err := os.Open(cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()
		return repository.LoadMemoryStore(f)
	case config.DriverPostgres:
		pg, err := repository.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("connect store: %w", err)
		}
		e.closers = append(e.closers, pg.Close)
		e.pingers["postgres"] = pg
		return pg, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
