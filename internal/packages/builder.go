package packages

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"lubricentro/backend/internal/cache"
	"lubricentro/backend/internal/domain"
)

const (
	PolicyAllow  = "allow"
	PolicyReject = "reject"
)

// MissingItemError reports a tier that could not be filled under the reject policy.
type MissingItemError struct {
	Tier     string
	ItemType string
}

func (e *MissingItemError) Error() string {
	return fmt.Sprintf("no compatible %s available for %s package", e.ItemType, e.Tier)
}

type Builder struct {
	cache    cache.PackageCache
	cacheTTL time.Duration
	policy   string
}

func NewBuilder(cacheStore cache.PackageCache, cacheTTL time.Duration, policy string) *Builder {
	if cacheStore == nil {
		cacheStore = cache.NoopPackageCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	if policy != PolicyReject {
		policy = PolicyAllow
	}
	return &Builder{cache: cacheStore, cacheTTL: cacheTTL, policy: policy}
}

func (b *Builder) Policy() string {
	return b.policy
}

// Build returns the economic, standard and premium packages for the vehicle, consulting the cache first.
func (b *Builder) Build(ctx context.Context, service domain.Service, vehicle domain.Vehicle, catalog []domain.Product) ([]domain.ServicePackage, error) {
	key := buildCacheKey(service, vehicle, catalog, b.policy)
	if cached, ok, err := b.cache.Get(ctx, key); err == nil && ok && len(cached) == len(domain.QualityTiers) {
		return cached, nil
	} else if err != nil {
		zap.L().Warn("package cache read failed", zap.String("key", key), zap.Error(err))
	}

	built, err := Compose(service, vehicle, catalog, b.policy)
	if err != nil {
		return nil, err
	}
	if err := b.cache.Set(ctx, key, built, b.cacheTTL); err != nil {
		zap.L().Warn("package cache write failed", zap.String("key", key), zap.Error(err))
	}
	return built, nil
}

// Compose is the uncached package computation.
func Compose(service domain.Service, vehicle domain.Vehicle, catalog []domain.Product, policy string) ([]domain.ServicePackage, error) {
	fit := vehicle.CompatibilityKey()
	oils := compatible(catalog, domain.ProductTypeOil, fit)
	oilFilters := compatible(catalog, domain.ProductTypeOilFilter, fit)

	result := make([]domain.ServicePackage, 0, len(domain.QualityTiers))
	for _, tier := range domain.QualityTiers {
		pkg := domain.ServicePackage{
			Type:      tier,
			Oil:       pickTier(oils, tier, true),
			OilFilter: pickTier(oilFilters, tier, true),
			AirFilter: pickAirFilter(catalog, tier),
		}
		if policy == PolicyReject {
			if pkg.Oil == nil {
				return nil, &MissingItemError{Tier: tier, ItemType: domain.ProductTypeOil}
			}
			if pkg.OilFilter == nil {
				return nil, &MissingItemError{Tier: tier, ItemType: domain.ProductTypeOilFilter}
			}
		}
		pkg.Total = Total(service, pkg)
		result = append(result, pkg)
	}
	return result, nil
}

// Total is service price plus the price of every chosen product.
func Total(service domain.Service, pkg domain.ServicePackage) int64 {
	total := service.Price
	for _, item := range []*domain.Product{pkg.Oil, pkg.OilFilter, pkg.AirFilter} {
		if item != nil {
			total += item.Price
		}
	}
	return total
}

// Select returns the package of the given tier.
func Select(packages []domain.ServicePackage, tier string) (domain.ServicePackage, bool) {
	for _, pkg := range packages {
		if pkg.Type == tier {
			return pkg, true
		}
	}
	return domain.ServicePackage{}, false
}

func IsTier(tier string) bool {
	for _, known := range domain.QualityTiers {
		if tier == known {
			return true
		}
	}
	return false
}

func compatible(catalog []domain.Product, productType string, fit string) []domain.Product {
	matches := make([]domain.Product, 0, len(catalog))
	for _, p := range catalog {
		if p.Type != productType {
			continue
		}
		if len(p.Compatibility) == 0 || containsFold(p.Compatibility, fit) {
			matches = append(matches, p)
		}
	}
	return matches
}

func pickTier(candidates []domain.Product, tier string, fallback bool) *domain.Product {
	for i := range candidates {
		if candidates[i].Quality == tier {
			chosen := candidates[i]
			return &chosen
		}
	}
	if fallback && len(candidates) > 0 {
		chosen := candidates[0]
		return &chosen
	}
	return nil
}

func pickAirFilter(catalog []domain.Product, tier string) *domain.Product {
	airFilters := make([]domain.Product, 0, 4)
	for _, p := range catalog {
		if p.Type == domain.ProductTypeAirFilter {
			airFilters = append(airFilters, p)
		}
	}
	return pickTier(airFilters, tier, false)
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func buildCacheKey(service domain.Service, vehicle domain.Vehicle, catalog []domain.Product, policy string) string {
	parts := make([]string, 0, len(catalog)+3)
	parts = append(parts, fmt.Sprintf("%s:%d", service.ID, service.Price))
	parts = append(parts, strings.ToLower(vehicle.CompatibilityKey()))
	parts = append(parts, policy)
	for _, p := range catalog {
		if p.Type != domain.ProductTypeOil && p.Type != domain.ProductTypeOilFilter && p.Type != domain.ProductTypeAirFilter {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%s:%s:%d:%s", p.ID, p.Type, p.Quality, p.Price, strings.Join(p.Compatibility, ",")))
	}

	hash := sha1.Sum([]byte(strings.Join(parts, "|")))
	return "lubricentro:packages:" + hex.EncodeToString(hash[:])
}
