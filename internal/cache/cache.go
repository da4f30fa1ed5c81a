package cache

import (
	"context"
	"time"

	"lubricentro/backend/internal/domain"
)

// PackageCache stores built service packages keyed by quote fingerprint.
type PackageCache interface {
	Get(ctx context.Context, key string) ([]domain.ServicePackage, bool, error)
	Set(ctx context.Context, key string, value []domain.ServicePackage, ttl time.Duration) error
}

type NoopPackageCache struct{}

func (NoopPackageCache) Get(_ context.Context, _ string) ([]domain.ServicePackage, bool, error) {
	return nil, false, nil
}

func (NoopPackageCache) Set(_ context.Context, _ string, _ []domain.ServicePackage, _ time.Duration) error {
	return nil
}
