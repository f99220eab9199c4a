package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/cookoff-engine/internal/api"
	"github.com/terra-clan/cookoff-engine/internal/cache"
	"github.com/terra-clan/cookoff-engine/internal/challenge"
	"github.com/terra-clan/cookoff-engine/internal/config"
	"github.com/terra-clan/cookoff-engine/internal/discovery"
	"github.com/terra-clan/cookoff-engine/internal/health"
	"github.com/terra-clan/cookoff-engine/internal/models"
	"github.com/terra-clan/cookoff-engine/internal/ratelimit"
	"github.com/terra-clan/cookoff-engine/internal/rollover"
	"github.com/terra-clan/cookoff-engine/internal/storage"
	"github.com/terra-clan/cookoff-engine/internal/vocab"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting cookoff-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"in_memory", cfg.Database.InMemory(),
		"cache", cfg.Redis.Enabled,
	)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	repo, err := openRepository(initCtx, cfg.Database)
	if err != nil {
		slog.Error("failed to open repository", "error", err)
		os.Exit(1)
	}

	if err := bootstrapAdmin(initCtx, repo, cfg.Bootstrap); err != nil {
		slog.Error("failed to bootstrap admin client", "error", err)
		os.Exit(1)
	}

	registry := health.NewRegistry(3 * time.Second)
	registry.Register("database", health.CheckerFunc(repo.Ping))

	var resultCache cache.Cache = cache.NopCache{}
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(initCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		resultCache = rc
		registry.Register("cache", rc)
		slog.Info("result cache connected", "address", cfg.Redis.Address, "ttl", cfg.Redis.TTL)
	}

	vocabulary := vocab.NewLoader()
	if err := vocabulary.LoadFromDir(cfg.Vocabulary.Dir); err != nil {
		slog.Warn("failed to load vocabularies from dir", "dir", cfg.Vocabulary.Dir, "error", err)
	}

	service := challenge.NewService(repo, discovery.NewEngine(),
		challenge.WithCache(resultCache),
		challenge.WithTopN(cfg.Ranking.TopN),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Rollover.Enabled {
		rollover.NewWorker(service, cfg.Rollover.Interval).Start(ctx)
	}

	if cfg.Vocabulary.Watch {
		go func() {
			if err := vocabulary.Watch(ctx, cfg.Vocabulary.Dir); err != nil {
				slog.Warn("vocabulary watcher stopped", "dir", cfg.Vocabulary.Dir, "error", err)
			}
		}()
	}

	opts := []api.ServerOption{api.WithStreamInterval(cfg.Stream.Interval)}
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		addrLimiter := ratelimit.New(cfg.RateLimit.AddrRPS, cfg.RateLimit.AddrBurst)
		go sweepLimiter(ctx, limiter)
		go sweepLimiter(ctx, addrLimiter)
		opts = append(opts, api.WithRateLimiter(limiter), api.WithAddressRateLimiter(addrLimiter))
	}

	server := api.NewServer(cfg.Server, service, vocabulary, repo, registry, opts...)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// stop the rollover worker and watchers before draining requests
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := resultCache.Close(); err != nil {
		slog.Error("cache close error", "error", err)
	}
	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("cookoff-engine stopped")
}

// openRepository migrates and connects to PostgreSQL, or returns the
// in-memory repository for DATABASE_DSN=memory
func openRepository(ctx context.Context, cfg config.DatabaseConfig) (storage.Repository, error) {
	if cfg.InMemory() {
		slog.Warn("using in-memory repository, data will not survive a restart")
		return storage.NewMemoryRepository(), nil
	}

	slog.Info("running database migrations", "dir", cfg.MigrationsDir)
	if err := storage.MigrateFromDSN(ctx, cfg.DSN, cfg.MigrationsDir); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
		DSN:          cfg.DSN,
		MaxOpenConns: int32(cfg.MaxOpenConns),
		MaxIdleConns: int32(cfg.MaxIdleConns),
		MaxLifetime:  cfg.MaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("database connected successfully")
	return repo, nil
}

// bootstrapAdmin creates an all-permissions client when none exist yet.
// A generated key is logged once; it cannot be recovered later.
func bootstrapAdmin(ctx context.Context, repo storage.Repository, cfg config.BootstrapConfig) error {
	count, err := repo.CountClients(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	key := cfg.AdminKey
	generated := key == ""
	if generated {
		if key, err = models.NewAPIKey(); err != nil {
			return err
		}
	}

	client := &models.ApiClient{
		Name:        cfg.AdminName,
		ApiKey:      key,
		IsActive:    true,
		Permissions: []string{"*"},
	}
	if err := repo.CreateClient(ctx, client); err != nil {
		return err
	}

	if generated {
		slog.Warn("bootstrap admin client created; store this key, it is not shown again",
			"client", client.Name, "api_key", key)
	} else {
		slog.Info("bootstrap admin client created", "client", client.Name, "key_prefix", client.MaskedApiKey())
	}
	return nil
}

func sweepLimiter(ctx context.Context, limiter *ratelimit.KeyedRateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(); n > 0 {
				slog.Debug("rate limiter swept", "removed", n)
			}
		}
	}
}
