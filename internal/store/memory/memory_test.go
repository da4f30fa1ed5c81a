package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"lubricentro/backend/internal/domain"
	"lubricentro/backend/internal/store"
)

func TestVehicleLookupIsCaseInsensitive(t *testing.T) {
	s := NewSeeded()
	vehicle, err := s.GetVehicleByPlate(context.Background(), " abc123 ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if vehicle.Model != "Corolla" {
		t.Fatalf("expected Corolla, got %s", vehicle.Model)
	}

	_, err = s.CreateVehicle(context.Background(), domain.Vehicle{LicensePlate: "Xyz789", Brand: "Ford", Model: "Ka"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected duplicate plate conflict, got %v", err)
	}
}

func TestDecrementStockIsAllOrNothing(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	err := s.DecrementStock(ctx, map[string]int{"1": 2, "2": 999})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected insufficient stock validation error, got %v", err)
	}
	shell, _ := s.GetProduct(ctx, "1")
	if shell.Stock != 24 {
		t.Fatalf("expected stock untouched at 24, got %d", shell.Stock)
	}

	if err := s.DecrementStock(ctx, map[string]int{"1": 2, "2": 1}); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	shell, _ = s.GetProduct(ctx, "1")
	mobil, _ := s.GetProduct(ctx, "2")
	if shell.Stock != 22 || mobil.Stock != 14 {
		t.Fatalf("unexpected stock shell=%d mobil=%d", shell.Stock, mobil.Stock)
	}
}

func TestProductsKeepInsertionOrder(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	if _, err := s.SaveProduct(ctx, domain.Product{ID: "prd-9", Name: "Filtro de Aire", Type: domain.ProductTypeAirFilter, Price: 4000}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.SaveProduct(ctx, domain.Product{ID: "1", Name: "Aceite Sintético 5W-30", Type: domain.ProductTypeOil, Price: 9000}); err != nil {
		t.Fatalf("update: %v", err)
	}

	products, _ := s.ListProducts(ctx)
	if len(products) != 7 || products[0].ID != "1" || products[6].ID != "prd-9" {
		t.Fatalf("unexpected order %+v", products)
	}
	if products[0].Price != 9000 {
		t.Fatalf("expected updated price 9000, got %d", products[0].Price)
	}

	products[0].Compatibility[0] = "mutated"
	again, _ := s.GetProduct(ctx, "1")
	if again.Compatibility[0] == "mutated" {
		t.Fatalf("expected stored product to be isolated from callers")
	}
}

func TestSingleOpenRegister(t *testing.T) {
	s := New()
	ctx := context.Background()
	reg := domain.CashRegister{ID: "reg-1", Status: domain.RegisterStatusOpen, OpenedAt: time.Now().UTC(), InitialAmount: 10000, CurrentAmount: 10000}

	if _, err := s.CreateRegister(ctx, reg); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateRegister(ctx, domain.CashRegister{ID: "reg-2", Status: domain.RegisterStatusOpen}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict for second open register, got %v", err)
	}

	closedAt := time.Now().UTC()
	reg.Status = domain.RegisterStatusClosed
	reg.ClosedAt = &closedAt
	if _, err := s.SaveRegister(ctx, reg, 0); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.GetOpenRegister(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no open register, got %v", err)
	}
	if _, err := s.SaveRegister(ctx, reg, 0); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected closed register to be immutable, got %v", err)
	}
}

func TestUpdateOrderChecksExpectedStatus(t *testing.T) {
	s := New()
	ctx := context.Background()
	order := domain.ServiceOrder{ID: "order-1", Status: domain.OrderStatusPending}
	if _, err := s.CreateOrder(ctx, order); err != nil {
		t.Fatalf("create: %v", err)
	}

	order.Status = domain.OrderStatusInProgress
	if _, err := s.UpdateOrder(ctx, order, domain.OrderStatusCompleted); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected stale status to be rejected, got %v", err)
	}
	if _, err := s.UpdateOrder(ctx, order, domain.OrderStatusPending); err != nil {
		t.Fatalf("update: %v", err)
	}

	pending, _ := s.ListOrders(ctx, domain.OrderStatusPending)
	active, _ := s.ListOrders(ctx, domain.OrderStatusInProgress)
	if len(pending) != 0 || len(active) != 1 {
		t.Fatalf("expected order to move to in_progress, pending=%d active=%d", len(pending), len(active))
	}
}

func TestSaveRegisterRejectsStaleSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.CreateRegister(ctx, domain.CashRegister{ID: "reg-1", Status: domain.RegisterStatusOpen, InitialAmount: 1000, CurrentAmount: 1000}); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, _ := s.GetOpenRegister(ctx)
	second, _ := s.GetOpenRegister(ctx)

	first.Transactions = append(first.Transactions, domain.CashTransaction{ID: "t1", Type: domain.CashIncome, Amount: 500, PaymentMethod: domain.PaymentCash})
	first.CurrentAmount = 1500
	if _, err := s.SaveRegister(ctx, *first, 0); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second.Transactions = append(second.Transactions, domain.CashTransaction{ID: "t2", Type: domain.CashIncome, Amount: 700, PaymentMethod: domain.PaymentCard})
	second.CurrentAmount = 1700
	if _, err := s.SaveRegister(ctx, *second, 0); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict for register saved from a stale snapshot, got %v", err)
	}

	stored, _ := s.GetRegister(ctx, "reg-1")
	if len(stored.Transactions) != 1 || stored.Transactions[0].ID != "t1" || stored.CurrentAmount != 1500 {
		t.Fatalf("expected only the first booking to survive, got %+v", stored)
	}
}

func TestCommitSaleIsAllOrNothing(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	order := domain.ServiceOrder{ID: "order-1", Status: domain.OrderStatusCompleted}
	if _, err := s.CreateOrder(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	billed := order
	billed.Status = domain.OrderStatusBilled
	sale := domain.Sale{ID: "sale-1", Items: []domain.SaleItem{{ID: "item-1", ProductID: "1", Quantity: 3}}, ServiceOrderID: "order-1"}

	_, err := s.CommitSale(ctx, store.SaleCommit{Sale: sale, Stock: map[string]int{"1": 3}, Order: &billed, OrderFrom: domain.OrderStatusInProgress})
	if !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected stale order status to be rejected, got %v", err)
	}
	_, err = s.CommitSale(ctx, store.SaleCommit{Sale: sale, Stock: map[string]int{"1": 999}, Order: &billed, OrderFrom: domain.OrderStatusCompleted})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	shell, _ := s.GetProduct(ctx, "1")
	stored, _ := s.GetOrder(ctx, "order-1")
	if shell.Stock != 24 || stored.Status != domain.OrderStatusCompleted {
		t.Fatalf("expected failed commits to leave state untouched, stock=%d status=%s", shell.Stock, stored.Status)
	}
	if _, err := s.GetSale(ctx, "sale-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no sale after failed commits, got %v", err)
	}

	if _, err := s.CommitSale(ctx, store.SaleCommit{Sale: sale, Stock: map[string]int{"1": 3}, Order: &billed, OrderFrom: domain.OrderStatusCompleted}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	shell, _ = s.GetProduct(ctx, "1")
	stored, _ = s.GetOrder(ctx, "order-1")
	if shell.Stock != 21 || stored.Status != domain.OrderStatusBilled {
		t.Fatalf("expected stock 21 and billed order, got stock=%d status=%s", shell.Stock, stored.Status)
	}
}
