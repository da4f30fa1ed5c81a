package main

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"lubricentro/backend/internal/cache"
	"lubricentro/backend/internal/config"
	"lubricentro/backend/internal/store/memory"
)

func TestOpenStoreWithoutDatabaseURLUsesSeededMemory(t *testing.T) {
	repo, closeFn, err := openStore(context.Background(), config.Config{})
	if err != nil {
		t.Fatalf("expected memory store, got %v", err)
	}
	if closeFn != nil {
		t.Fatalf("expected no closer for memory store")
	}
	if _, ok := repo.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", repo)
	}

	products, err := repo.ListProducts(context.Background())
	if err != nil || len(products) == 0 {
		t.Fatalf("expected seeded catalog, got %d products (err %v)", len(products), err)
	}
}

func TestOpenPackageCacheFallsBackToNoop(t *testing.T) {
	got, closeFn := openPackageCache(context.Background(), config.Config{}, zap.NewNop())
	if _, ok := got.(cache.NoopPackageCache); !ok || closeFn != nil {
		t.Fatalf("expected noop cache without redis address, got %T", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	got, closeFn = openPackageCache(ctx, config.Config{RedisAddr: "127.0.0.1:1"}, zap.NewNop())
	if _, ok := got.(cache.NoopPackageCache); !ok || closeFn != nil {
		t.Fatalf("expected noop cache for unreachable redis, got %T", got)
	}
}
