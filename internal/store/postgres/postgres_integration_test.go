package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"lubricentro/backend/internal/domain"
	"lubricentro/backend/internal/store"
)

func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	databaseURL := os.Getenv("LUBRICENTRO_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set LUBRICENTRO_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := s.SeedDemo(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestSeededCatalogAndPlateLookup(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	vehicle, err := s.GetVehicleByPlate(ctx, "abc123")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if vehicle.Model != "Corolla" {
		t.Fatalf("expected Corolla, got %s", vehicle.Model)
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) < 6 || products[0].ID != "1" {
		t.Fatalf("expected seeded catalog in insertion order, got %+v", products)
	}
}

func TestOrderStatusGuard(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	orderID := fmt.Sprintf("order-it-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM service_orders WHERE id = $1`, orderID)
	})

	order := domain.ServiceOrder{
		ID:             orderID,
		Status:         domain.OrderStatusPending,
		Vehicle:        domain.Vehicle{LicensePlate: "ABC123", Brand: "Toyota", Model: "Corolla"},
		Service:        domain.Service{ID: "1", Name: "Service Completo", Price: 25000},
		ServicePackage: domain.ServicePackage{Type: domain.QualityPremium, Total: 27500},
	}
	if _, err := s.CreateOrder(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	order.Status = domain.OrderStatusInProgress
	if _, err := s.UpdateOrder(ctx, order, domain.OrderStatusCompleted); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if _, err := s.UpdateOrder(ctx, order, domain.OrderStatusPending); err != nil {
		t.Fatalf("start order: %v", err)
	}

	stored, err := s.GetOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.Status != domain.OrderStatusInProgress || stored.ServicePackage.Total != 27500 {
		t.Fatalf("unexpected stored order %+v", stored)
	}
}

func TestRegisterLifecycle(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	if _, err := s.GetOpenRegister(ctx); err == nil {
		t.Skip("database already has an open register")
	}

	regID := fmt.Sprintf("reg-it-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cash_transactions WHERE register_id = $1`, regID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cash_registers WHERE id = $1`, regID)
	})

	reg := domain.CashRegister{ID: regID, Status: domain.RegisterStatusOpen, OpenedAt: time.Now().UTC(), InitialAmount: 10000, CurrentAmount: 10000}
	if _, err := s.CreateRegister(ctx, reg); err != nil {
		t.Fatalf("create register: %v", err)
	}
	if _, err := s.CreateRegister(ctx, domain.CashRegister{ID: regID + "-b", Status: domain.RegisterStatusOpen, OpenedAt: time.Now().UTC()}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict for second open register, got %v", err)
	}

	stale := reg
	reg.Transactions = append(reg.Transactions, domain.CashTransaction{
		ID: regID + "-tx1", Timestamp: time.Now().UTC(), Type: domain.CashIncome, Amount: 5000, PaymentMethod: domain.PaymentCash,
	})
	reg.CurrentAmount = 15000
	if _, err := s.SaveRegister(ctx, reg, 0); err != nil {
		t.Fatalf("save register: %v", err)
	}

	stale.Transactions = append(stale.Transactions, domain.CashTransaction{
		ID: regID + "-tx2", Timestamp: time.Now().UTC(), Type: domain.CashExpense, Amount: 100, PaymentMethod: domain.PaymentCash,
	})
	stale.CurrentAmount = 9900
	if _, err := s.SaveRegister(ctx, stale, 0); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected stale register save to conflict, got %v", err)
	}

	closedAt := time.Now().UTC()
	reg.Status = domain.RegisterStatusClosed
	reg.ClosedAt = &closedAt
	if _, err := s.SaveRegister(ctx, reg, 1); err != nil {
		t.Fatalf("close register: %v", err)
	}
	if _, err := s.SaveRegister(ctx, reg, 1); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected closed register to be immutable, got %v", err)
	}

	stored, err := s.GetRegister(ctx, regID)
	if err != nil {
		t.Fatalf("get register: %v", err)
	}
	if stored.CurrentAmount != 15000 || len(stored.Transactions) != 1 {
		t.Fatalf("unexpected stored register %+v", stored)
	}
}
