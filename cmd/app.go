package cmd

import (
	"context"
	"fmt"

	"hmo-finder/config"
	"hmo-finder/scraper/collector"
	"hmo-finder/services"
	"hmo-finder/storage"
	"hmo-finder/utils"
)

// app is the wired pipeline shared by every command.
type app struct {
	cache    *storage.CacheStore
	acquirer *services.Acquirer
	archive  *storage.PostgresArchive
	closers  []func() error
	logger   *utils.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*app, error) {
	a := &app{logger: logger}

	persister, err := a.openPersister(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.cache = storage.NewCacheStore(persister, logger, storage.WithFlexibleMaxAge(cfg.FlexibleMaxAge))
	a.cache.Load(ctx)

	var opts []services.AcquirerOption

	if cfg.PostgresDSN != "" {
		archive, err := storage.NewPostgresArchive(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Warn("[cmd] Listing archive unavailable, continuing without it: %v", err)
		} else {
			a.archive = archive
			a.closers = append(a.closers, archive.Close)
			opts = append(opts, services.WithArchiver(archive))
		}
	}

	if cfg.RawDumpPath != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.RawDumpPath)
		if err != nil {
			logger.Warn("[cmd] Raw dump disabled: %v", err)
		} else {
			a.closers = append(a.closers, csvWriter.Close)
			opts = append(opts, services.WithRawRecorder(csvWriter))
		}
	}

	coll := collector.New(collector.Options{
		Command: cfg.CollectorCommand,
		Args:    cfg.CollectorArgs,
		Timeout: cfg.CollectorTimeout,
	}, logger)

	a.acquirer = services.NewAcquirer(services.AcquirerConfig{
		RateLimitWindow:     cfg.RateLimitWindow,
		CollectorAttempts:   cfg.CollectorAttempts,
		CollectorRatePerMin: cfg.CollectorRatePerMin,
		RenovationPerRoom:   cfg.RenovationPerRoom,
	}, coll, a.cache, services.NewNormalizer(logger), services.NewGenerator(cfg.FallbackSeed, logger), logger, opts...)

	return a, nil
}

func (a *app) openPersister(ctx context.Context, cfg *config.Config) (storage.Persister, error) {
	switch cfg.CacheBackend {
	case "", "file":
		a.logger.Debug("[cmd] Cache file %s", cfg.CacheFile)
		return storage.NewFilePersister(cfg.CacheFile), nil
	case "redis":
		client, err := storage.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return storage.NewRedisPersister(client, cfg.RedisKey), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want file or redis)", cfg.CacheBackend)
	}
}

// Close releases every optional backend in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("[cmd] Close failed: %v", err)
		}
	}
	a.closers = nil
}
