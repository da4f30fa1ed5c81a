package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"lubricentro/backend/internal/domain"
	"lubricentro/backend/internal/store"
)

var productTypes = []string{domain.ProductTypeOil, domain.ProductTypeOilFilter, domain.ProductTypeAirFilter, domain.ProductTypeOther}

var serviceTypes = []string{domain.ServiceTypeFull, domain.ServiceTypeOil, domain.ServiceTypeInspection}

// ListProducts returns the catalog, filtered by name, brand or type when query is set.
func (s *Service) ListProducts(ctx context.Context, query string) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return products, nil
	}
	return slices.DeleteFunc(products, func(p domain.Product) bool {
		return !containsFold(p.Name, query) && !containsFold(p.Brand, query) && !containsFold(p.Type, query)
	}), nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.Product) (domain.Product, error) {
	product, err := normalizeProduct(req)
	if err != nil {
		return domain.Product{}, err
	}
	if product.ID == "" {
		product.ID = s.ids.New("prd")
	} else if _, err := s.repo.GetProduct(ctx, product.ID); err == nil {
		return domain.Product{}, fmt.Errorf("%w: product %s already exists", store.ErrConflict, product.ID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Product{}, err
	}

	created, err := s.repo.SaveProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,price=%d,stock=%d", created.Name, created.Price, created.Stock))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	existing, err := s.repo.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.Brand != nil {
		updated.Brand = *req.Brand
	}
	if req.Type != nil {
		updated.Type = *req.Type
	}
	if req.Price != nil {
		updated.Price = *req.Price
	}
	if req.Stock != nil {
		updated.Stock = *req.Stock
	}
	if req.Quality != nil {
		updated.Quality = *req.Quality
	}
	if req.Compatibility != nil {
		updated.Compatibility = *req.Compatibility
	}

	updated, err = normalizeProduct(updated)
	if err != nil {
		return domain.Product{}, err
	}

	saved, err := s.repo.SaveProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", saved.ID, fmt.Sprintf("price=%d->%d,stock=%d->%d", existing.Price, saved.Price, existing.Stock, saved.Stock))
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "product_delete", "product", id, "")
	return nil
}

// AdjustPrices applies a percentage or fixed change to every listed product.
// New prices are rounded to whole units and never go below zero.
func (s *Service) AdjustPrices(ctx context.Context, req domain.BulkPriceAdjustmentRequest) ([]domain.Product, error) {
	ids := trimAll(req.ProductIDs)
	if len(ids) == 0 {
		return nil, validationf("at least one product is required")
	}
	if req.Mode != domain.PriceAdjustPercentage && req.Mode != domain.PriceAdjustFixed {
		return nil, validationf("mode must be percentage or fixed")
	}

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		product, err := s.repo.GetProduct(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", id, err)
		}
		products = append(products, *product)
	}

	updated := make([]domain.Product, 0, len(products))
	for _, product := range products {
		product.Price = adjustPrice(product.Price, req.Mode, req.Value)
		saved, err := s.repo.SaveProduct(ctx, product)
		if err != nil {
			return nil, err
		}
		updated = append(updated, *saved)
	}

	s.logAudit(ctx, "product_price_adjust", "product", strings.Join(ids, ","), fmt.Sprintf("mode=%s,value=%g", req.Mode, req.Value))
	return updated, nil
}

func adjustPrice(price int64, mode string, value float64) int64 {
	current := decimal.NewFromInt(price)
	var next decimal.Decimal
	if mode == domain.PriceAdjustPercentage {
		next = current.Mul(hundredPercent.Add(decimal.NewFromFloat(value))).Div(hundredPercent)
	} else {
		next = current.Add(decimal.NewFromFloat(value))
	}
	rounded := next.Round(0).IntPart()
	if rounded < 0 {
		return 0
	}
	return rounded
}

var hundredPercent = decimal.NewFromInt(100)

func normalizeProduct(p domain.Product) (domain.Product, error) {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Brand = strings.TrimSpace(p.Brand)
	p.Compatibility = trimAll(p.Compatibility)

	if p.Name == "" {
		return domain.Product{}, validationf("product name is required")
	}
	if !slices.Contains(productTypes, p.Type) {
		return domain.Product{}, validationf("unknown product type %q", p.Type)
	}
	if !slices.Contains(domain.QualityTiers, p.Quality) {
		return domain.Product{}, validationf("unknown quality %q", p.Quality)
	}
	if p.Price < 0 || p.Stock < 0 {
		return domain.Product{}, validationf("price and stock must not be negative")
	}
	return p, nil
}

func (s *Service) ListServices(ctx context.Context) ([]domain.Service, error) {
	return s.repo.ListServices(ctx)
}

func (s *Service) GetService(ctx context.Context, id string) (domain.Service, error) {
	svc, err := s.repo.GetService(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Service{}, err
	}
	return *svc, nil
}

func (s *Service) CreateService(ctx context.Context, req domain.Service) (domain.Service, error) {
	svc, err := normalizeService(req)
	if err != nil {
		return domain.Service{}, err
	}
	if svc.ID == "" {
		svc.ID = s.ids.New("svc")
	} else if _, err := s.repo.GetService(ctx, svc.ID); err == nil {
		return domain.Service{}, fmt.Errorf("%w: service %s already exists", store.ErrConflict, svc.ID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Service{}, err
	}

	created, err := s.repo.SaveService(ctx, svc)
	if err != nil {
		return domain.Service{}, err
	}
	s.logAudit(ctx, "service_create", "service", created.ID, fmt.Sprintf("name=%s,price=%d", created.Name, created.Price))
	return *created, nil
}

func (s *Service) UpdateService(ctx context.Context, id string, req domain.Service) (domain.Service, error) {
	existing, err := s.repo.GetService(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Service{}, err
	}
	req.ID = existing.ID
	svc, err := normalizeService(req)
	if err != nil {
		return domain.Service{}, err
	}

	saved, err := s.repo.SaveService(ctx, svc)
	if err != nil {
		return domain.Service{}, err
	}
	s.logAudit(ctx, "service_update", "service", saved.ID, fmt.Sprintf("price=%d->%d", existing.Price, saved.Price))
	return *saved, nil
}

func normalizeService(svc domain.Service) (domain.Service, error) {
	svc.ID = strings.TrimSpace(svc.ID)
	svc.Name = strings.TrimSpace(svc.Name)
	svc.Description = strings.TrimSpace(svc.Description)
	svc.Includes = trimAll(svc.Includes)

	if svc.Name == "" {
		return domain.Service{}, validationf("service name is required")
	}
	if !slices.Contains(serviceTypes, svc.Type) {
		return domain.Service{}, validationf("unknown service type %q", svc.Type)
	}
	if svc.Price < 0 || svc.Duration < 0 {
		return domain.Service{}, validationf("price and duration must not be negative")
	}
	return svc, nil
}
