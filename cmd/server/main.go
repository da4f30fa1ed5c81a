package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lubricentro/backend/internal/cache"
	"lubricentro/backend/internal/config"
	"lubricentro/backend/internal/httpapi"
	"lubricentro/backend/internal/logging"
	"lubricentro/backend/internal/notify"
	"lubricentro/backend/internal/packages"
	"lubricentro/backend/internal/service"
	"lubricentro/backend/internal/store"
	"lubricentro/backend/internal/store/memory"
	pgstore "lubricentro/backend/internal/store/postgres"
	"lubricentro/backend/internal/xid"
)

func main() {
	loaded, envErr := config.LoadEnvFile(os.Getenv("ENV_FILE"))
	cfg := config.Load()

	logger, err := logging.Setup(cfg.LogMode, cfg.LogFile)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		logger.Warn("env file ignored", zap.Error(envErr))
	} else if loaded {
		logger.Info("env file loaded")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)

	repo, closeRepo, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback", zap.Error(err))
	}
	if closeRepo != nil {
		closers = append(closers, closeRepo)
	}

	packageCache, closeCache := openPackageCache(ctx, cfg, logger)
	if closeCache != nil {
		closers = append(closers, closeCache)
	}

	ids, err := xid.FromStrategy(cfg.IDStrategy, cfg.SnowflakeNode)
	if err != nil {
		logger.Fatal("id allocator", zap.Error(err))
	}

	builder := packages.NewBuilder(packageCache, time.Duration(cfg.PackageQuoteTTLSeconds)*time.Second, cfg.PackageMissingItemPolicy)
	svc := service.New(repo, builder, ids, notify.NewLogNotifier(logger), service.Options{PromoIdleDays: cfg.PromoIdleDays})
	api := httpapi.New(svc, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("lubricentro backend listening",
			zap.String("addr", cfg.Address()),
			zap.String("package_policy", builder.Policy()),
			zap.String("id_strategy", cfg.IDStrategy))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

// openStore picks postgres when DATABASE_URL is set and the seeded memory store otherwise.
func openStore(ctx context.Context, cfg config.Config) (store.Repository, func() error, error) {
	if cfg.DatabaseURL == "" {
		zap.L().Info("repository: in-memory")
		return memory.NewSeeded(), nil, nil
	}

	pg, err := pgstore.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}
	if err := pg.SeedDemo(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}
	zap.L().Info("repository: postgres")
	return pg, pg.Close, nil
}

// openPackageCache falls back to the noop cache when redis is unset or unreachable.
func openPackageCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (cache.PackageCache, func() error) {
	if cfg.RedisAddr == "" {
		logger.Info("cache: noop")
		return cache.NoopPackageCache{}, nil
	}

	redisCache := cache.NewRedisPackageCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisCache.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, using noop cache", zap.Error(err))
		_ = redisCache.Close()
		return cache.NoopPackageCache{}, nil
	}
	logger.Info("cache: redis")
	return redisCache, redisCache.Close
}
