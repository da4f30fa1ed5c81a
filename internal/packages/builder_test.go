package packages

import (
	"context"
	"errors"
	"testing"
	"time"

	"lubricentro/backend/internal/domain"
)

func testCatalog() []domain.Product {
	cars := []string{"Toyota Corolla", "Honda Civic"}
	return []domain.Product{
		{ID: "1", Name: "Shell Helix HX7 10W-40", Brand: "Shell", Type: domain.ProductTypeOil, Price: 8500, Quality: domain.QualityStandard, Compatibility: cars},
		{ID: "2", Name: "Mobil 1 5W-30", Brand: "Mobil", Type: domain.ProductTypeOil, Price: 12000, Quality: domain.QualityPremium, Compatibility: cars},
		{ID: "3", Name: "Castrol GTX 20W-50", Brand: "Castrol", Type: domain.ProductTypeOil, Price: 6500, Quality: domain.QualityEconomic, Compatibility: cars},
		{ID: "4", Name: "Filtro de Aceite Toyota", Brand: "Toyota", Type: domain.ProductTypeOilFilter, Price: 3500, Quality: domain.QualityPremium, Compatibility: []string{"Toyota Corolla"}},
		{ID: "5", Name: "Filtro de Aceite Mann", Brand: "Mann", Type: domain.ProductTypeOilFilter, Price: 2500, Quality: domain.QualityStandard, Compatibility: []string{"Toyota Corolla"}},
		{ID: "6", Name: "Filtro de Aceite Wega", Brand: "Wega", Type: domain.ProductTypeOilFilter, Price: 1800, Quality: domain.QualityEconomic, Compatibility: []string{"Toyota Corolla"}},
	}
}

var (
	oilChange = domain.Service{ID: "2", Name: "Cambio de Aceite", Price: 12000, Duration: 45, Type: domain.ServiceTypeOil}
	corolla   = domain.Vehicle{Brand: "Toyota", Model: "Corolla", Year: "2020", LicensePlate: "ABC123"}
)

func TestComposeCorollaPremiumScenario(t *testing.T) {
	built, err := Compose(oilChange, corolla, testCatalog(), PolicyAllow)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if len(built) != 3 {
		t.Fatalf("expected 3 packages, got %d", len(built))
	}
	for i, tier := range domain.QualityTiers {
		if built[i].Type != tier {
			t.Fatalf("expected tier %s at %d, got %s", tier, i, built[i].Type)
		}
	}

	premium, ok := Select(built, domain.QualityPremium)
	if !ok {
		t.Fatalf("expected premium package")
	}
	if premium.Oil == nil || premium.Oil.ID != "2" || premium.OilFilter == nil || premium.OilFilter.ID != "4" {
		t.Fatalf("expected Mobil 1 and Toyota filter, got %+v", premium)
	}
	if premium.AirFilter != nil {
		t.Fatalf("expected no air filter in catalog without air filters")
	}
	if premium.Total != 27500 {
		t.Fatalf("expected premium total 27500, got %d", premium.Total)
	}

	economic, _ := Select(built, domain.QualityEconomic)
	if economic.Total != 12000+6500+1800 {
		t.Fatalf("expected economic total 20300, got %d", economic.Total)
	}
}

func TestComposeTotalsAlwaysReconcile(t *testing.T) {
	catalog := append(testCatalog(),
		domain.Product{ID: "7", Type: domain.ProductTypeAirFilter, Price: 4100, Quality: domain.QualityStandard},
		domain.Product{ID: "8", Type: domain.ProductTypeOil, Price: 9900, Quality: domain.QualityPremium, Compatibility: []string{"Ford Focus"}},
	)
	vehicles := []domain.Vehicle{
		corolla,
		{Brand: "Honda", Model: "Civic"},
		{Brand: "Volkswagen", Model: "Golf"},
	}
	for _, vehicle := range vehicles {
		built, err := Compose(oilChange, vehicle, catalog, PolicyAllow)
		if err != nil {
			t.Fatalf("compose %s: %v", vehicle.CompatibilityKey(), err)
		}
		for _, pkg := range built {
			want := oilChange.Price
			if pkg.Oil != nil {
				want += pkg.Oil.Price
			}
			if pkg.OilFilter != nil {
				want += pkg.OilFilter.Price
			}
			if pkg.AirFilter != nil {
				want += pkg.AirFilter.Price
			}
			if pkg.Total != want {
				t.Fatalf("%s %s: expected total %d, got %d", vehicle.CompatibilityKey(), pkg.Type, want, pkg.Total)
			}
		}
	}
}

func TestComposeFallsBackToFirstCompatibleItem(t *testing.T) {
	civic := domain.Vehicle{Brand: "Honda", Model: "Civic"}
	catalog := []domain.Product{
		{ID: "a", Type: domain.ProductTypeOil, Price: 7000, Quality: domain.QualityStandard},
		{ID: "b", Type: domain.ProductTypeOilFilter, Price: 2000, Quality: domain.QualityStandard, Compatibility: []string{"Honda Civic"}},
		{ID: "c", Type: domain.ProductTypeOilFilter, Price: 2600, Quality: domain.QualityPremium, Compatibility: []string{"Toyota Corolla"}},
	}

	built, err := Compose(oilChange, civic, catalog, PolicyAllow)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	premium, _ := Select(built, domain.QualityPremium)
	if premium.Oil == nil || premium.Oil.ID != "a" {
		t.Fatalf("expected fallback oil a, got %+v", premium.Oil)
	}
	if premium.OilFilter == nil || premium.OilFilter.ID != "b" {
		t.Fatalf("expected compatible filter b instead of incompatible premium filter, got %+v", premium.OilFilter)
	}
}

func TestComposeAirFilterHasNoFallback(t *testing.T) {
	catalog := append(testCatalog(), domain.Product{ID: "9", Type: domain.ProductTypeAirFilter, Price: 3000, Quality: domain.QualityPremium, Compatibility: []string{"Ford Ka"}})

	built, err := Compose(oilChange, corolla, catalog, PolicyAllow)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	for _, pkg := range built {
		if pkg.Type == domain.QualityPremium {
			if pkg.AirFilter == nil || pkg.AirFilter.ID != "9" {
				t.Fatalf("expected premium air filter regardless of compatibility, got %+v", pkg.AirFilter)
			}
			continue
		}
		if pkg.AirFilter != nil {
			t.Fatalf("expected no air filter for %s", pkg.Type)
		}
	}
}

func TestComposeMissingItemPolicy(t *testing.T) {
	golf := domain.Vehicle{Brand: "Volkswagen", Model: "Golf"}

	built, err := Compose(oilChange, golf, testCatalog(), PolicyAllow)
	if err != nil {
		t.Fatalf("allow policy should not fail: %v", err)
	}
	for _, pkg := range built {
		if pkg.Oil != nil || pkg.OilFilter != nil {
			t.Fatalf("expected empty package for incompatible vehicle, got %+v", pkg)
		}
		if pkg.Total != oilChange.Price {
			t.Fatalf("expected total to equal service price, got %d", pkg.Total)
		}
	}

	_, err = Compose(oilChange, golf, testCatalog(), PolicyReject)
	var missing *MissingItemError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingItemError, got %v", err)
	}
	if missing.Tier != domain.QualityEconomic || missing.ItemType != domain.ProductTypeOil {
		t.Fatalf("unexpected missing item %+v", missing)
	}
}

type mapCache struct {
	entries map[string][]domain.ServicePackage
	gets    int
	sets    int
}

func (m *mapCache) Get(_ context.Context, key string) ([]domain.ServicePackage, bool, error) {
	m.gets++
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, value []domain.ServicePackage, _ time.Duration) error {
	m.sets++
	m.entries[key] = value
	return nil
}

func TestBuilderUsesCacheAndInvalidatesOnCatalogChange(t *testing.T) {
	store := &mapCache{entries: map[string][]domain.ServicePackage{}}
	builder := NewBuilder(store, time.Minute, PolicyAllow)
	catalog := testCatalog()

	first, err := builder.Build(context.Background(), oilChange, corolla, catalog)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := builder.Build(context.Background(), oilChange, corolla, catalog); err != nil {
		t.Fatalf("build cached: %v", err)
	}
	if store.sets != 1 {
		t.Fatalf("expected one cache write, got %d", store.sets)
	}

	catalog[1].Price = 13000
	repriced, err := builder.Build(context.Background(), oilChange, corolla, catalog)
	if err != nil {
		t.Fatalf("build repriced: %v", err)
	}
	if store.sets != 2 {
		t.Fatalf("expected price change to miss cache, got %d writes", store.sets)
	}
	if repriced[2].Total != first[2].Total+1000 {
		t.Fatalf("expected repriced premium total %d, got %d", first[2].Total+1000, repriced[2].Total)
	}
}
