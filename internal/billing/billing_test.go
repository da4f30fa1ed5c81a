package billing

import (
	"errors"
	"testing"

	"lubricentro/backend/internal/domain"
	"lubricentro/backend/internal/xid"
)

func billableOrder(status string) domain.ServiceOrder {
	oil := domain.Product{ID: "2", Price: 12000, Type: domain.ProductTypeOil}
	filter := domain.Product{ID: "4", Price: 3500, Type: domain.ProductTypeOilFilter}
	return domain.ServiceOrder{
		ID:      "order-1",
		Vehicle: domain.Vehicle{Brand: "Toyota", Model: "Corolla", LicensePlate: "ABC123"},
		Service: domain.Service{ID: "2", Name: "Cambio de Aceite", Price: 12000},
		ServicePackage: domain.ServicePackage{
			Type: domain.QualityPremium, Oil: &oil, OilFilter: &filter, Total: 27500,
		},
		Status:           status,
		AssignedEmployee: &domain.Employee{ID: "emp-1", Name: "Juan Pérez"},
	}
}

func TestComposeWithoutDiscount(t *testing.T) {
	extra := domain.Product{ID: "5", Price: 2500}
	sale, err := Compose(xid.NewSequence(), Input{
		Order:         billableOrder(domain.OrderStatusCompleted),
		Additional:    []Line{{Product: extra, Quantity: 2}},
		PaymentMethod: domain.PaymentCard,
	})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if sale.Total != 27500+5000 {
		t.Fatalf("expected total 32500, got %d", sale.Total)
	}
	if len(sale.Items) != 2 {
		t.Fatalf("expected service item plus one product item, got %d", len(sale.Items))
	}
	if sale.Items[0].ServiceID != "2" || sale.Items[0].Price != 12000 {
		t.Fatalf("expected service item priced at service price, got %+v", sale.Items[0])
	}
	if sale.Items[1].Subtotal != 5000 || sale.Items[1].Price != 2500 {
		t.Fatalf("unexpected product item %+v", sale.Items[1])
	}
	if sale.EmployeeID != "emp-1" || sale.ServiceOrderID != "order-1" || sale.Type != domain.ItemTypeService {
		t.Fatalf("unexpected sale references %+v", sale)
	}
	if sale.Status != domain.SaleStatusCompleted || sale.Vehicle == nil {
		t.Fatalf("expected completed sale with vehicle, got %+v", sale)
	}
}

func TestComposeFullDiscountIsFree(t *testing.T) {
	sale, err := Compose(xid.NewSequence(), Input{
		Order:           billableOrder(domain.OrderStatusInProgress),
		Additional:      []Line{{Product: domain.Product{ID: "6", Price: 1800}, Quantity: 3}},
		PaymentMethod:   domain.PaymentCash,
		DiscountPercent: 100,
	})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if sale.Total != 0 {
		t.Fatalf("expected total 0, got %d", sale.Total)
	}
	if sale.Discount != 100 {
		t.Fatalf("expected discount percent recorded, got %v", sale.Discount)
	}
}

func TestComposeRejectsNonBillableStatus(t *testing.T) {
	for _, status := range []string{domain.OrderStatusPending, domain.OrderStatusBilled} {
		_, err := Compose(xid.NewSequence(), Input{Order: billableOrder(status)})
		if !errors.Is(err, ErrNotBillable) {
			t.Fatalf("status %s: expected ErrNotBillable, got %v", status, err)
		}
	}
}

func TestComposeRejectsOutOfRangeDiscountAndQuantity(t *testing.T) {
	order := billableOrder(domain.OrderStatusCompleted)
	if _, err := Compose(xid.NewSequence(), Input{Order: order, DiscountPercent: 101}); !errors.Is(err, ErrDiscountRange) {
		t.Fatalf("expected ErrDiscountRange, got %v", err)
	}
	if _, err := Compose(xid.NewSequence(), Input{Order: order, DiscountPercent: -1}); !errors.Is(err, ErrDiscountRange) {
		t.Fatalf("expected ErrDiscountRange, got %v", err)
	}
	_, err := Compose(xid.NewSequence(), Input{Order: order, Additional: []Line{{Product: domain.Product{ID: "5"}, Quantity: 0}}})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestApplyDiscountRoundsHalfUp(t *testing.T) {
	if got := ApplyDiscount(27500, 10); got != 24750 {
		t.Fatalf("expected 24750, got %d", got)
	}
	if got := ApplyDiscount(1005, 50); got != 503 {
		t.Fatalf("expected 502.5 to round to 503, got %d", got)
	}
	if got := ApplyDiscount(999, 0); got != 999 {
		t.Fatalf("expected unchanged amount, got %d", got)
	}
}

func TestClampDiscount(t *testing.T) {
	if ClampDiscount(-5) != 0 || ClampDiscount(150) != 100 || ClampDiscount(12.5) != 12.5 {
		t.Fatalf("unexpected clamp results")
	}
}
