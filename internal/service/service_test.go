package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lubricentro/backend/internal/cart"
	"lubricentro/backend/internal/domain"
	"lubricentro/backend/internal/packages"
	"lubricentro/backend/internal/store"
	"lubricentro/backend/internal/store/memory"
	"lubricentro/backend/internal/xid"
)

type recordingNotifier struct {
	sent []string
}

func (n *recordingNotifier) Send(_ context.Context, customer domain.Customer, _ string) error {
	n.sent = append(n.sent, customer.ID)
	return nil
}

func newTestService() (*Service, *recordingNotifier) {
	notifier := &recordingNotifier{}
	repo := memory.NewSeeded()
	builder := packages.NewBuilder(nil, 0, packages.PolicyAllow)
	return New(repo, builder, xid.NewSequence(), notifier, Options{}), notifier
}

func TestQuotePackagesForCorolla(t *testing.T) {
	svc, _ := newTestService()

	quote, err := svc.QuotePackages(context.Background(), domain.PackageQuoteRequest{ServiceID: "2", LicensePlate: "abc123"})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if len(quote.Packages) != 3 {
		t.Fatalf("expected 3 packages, got %d", len(quote.Packages))
	}

	want := map[string]int64{
		domain.QualityEconomic: 12000 + 6500 + 1800,
		domain.QualityStandard: 12000 + 8500 + 2500,
		domain.QualityPremium:  12000 + 12000 + 3500,
	}
	for _, pkg := range quote.Packages {
		if pkg.Total != want[pkg.Type] {
			t.Fatalf("expected %s total %d, got %d", pkg.Type, want[pkg.Type], pkg.Total)
		}
	}
}

func TestQuotePackagesUnknownPlate(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.QuotePackages(context.Background(), domain.PackageQuoteRequest{ServiceID: "2", LicensePlate: "NOPE01"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRejectPolicyFailsWhenNoOilFits(t *testing.T) {
	repo := memory.NewSeeded()
	builder := packages.NewBuilder(nil, 0, packages.PolicyReject)
	svc := New(repo, builder, xid.NewSequence(), &recordingNotifier{}, Options{})

	_, err := svc.QuotePackages(context.Background(), domain.PackageQuoteRequest{ServiceID: "2", LicensePlate: "XYZ789"})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for Golf under reject policy, got %v", err)
	}
}

func TestOrderLifecycleAndBilling(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.OpenRegister(ctx, domain.CashRegisterOpenRequest{InitialAmount: 10000}); err != nil {
		t.Fatalf("open register failed: %v", err)
	}

	order, err := svc.CreateOrder(ctx, domain.ServiceOrderCreateRequest{
		LicensePlate: "ABC123",
		ServiceID:    "2",
		PackageType:  domain.QualityPremium,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Status != domain.OrderStatusPending || order.ServicePackage.Total != 27500 {
		t.Fatalf("unexpected order %+v", order)
	}

	if _, err := svc.BillOrder(ctx, order.ID, domain.BillingRequest{PaymentMethod: domain.PaymentCash}); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected pending order to be unbillable, got %v", err)
	}
	if _, err := svc.CompleteOrder(ctx, order.ID); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected pending order to be uncompletable, got %v", err)
	}

	started, err := svc.StartOrder(ctx, order.ID, domain.ServiceOrderStartRequest{EmployeeID: "emp-1"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.StartTime == nil || started.AssignedEmployee == nil || started.AssignedEmployee.ID != "emp-1" {
		t.Fatalf("expected start time and assigned employee, got %+v", started)
	}
	if _, err := svc.CompleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	resp, err := svc.BillOrder(ctx, order.ID, domain.BillingRequest{
		AdditionalProducts: []domain.BillingLine{{ProductID: "3", Quantity: 1}},
		PaymentMethod:      domain.PaymentCard,
		DiscountPercent:    10,
	})
	if err != nil {
		t.Fatalf("bill failed: %v", err)
	}
	if resp.Sale.Total != 30600 {
		t.Fatalf("expected total 30600, got %d", resp.Sale.Total)
	}
	if len(resp.Sale.Items) != 2 || resp.Sale.Items[0].Price != 12000 {
		t.Fatalf("expected service item priced at service price, got %+v", resp.Sale.Items)
	}
	if resp.Sale.EmployeeID != "emp-1" || resp.Sale.CustomerID != "cus-1" {
		t.Fatalf("expected employee and customer on sale, got %+v", resp.Sale)
	}
	if resp.ServiceOrder.Status != domain.OrderStatusBilled {
		t.Fatalf("expected billed order, got %s", resp.ServiceOrder.Status)
	}

	if _, err := svc.BillOrder(ctx, order.ID, domain.BillingRequest{PaymentMethod: domain.PaymentCash}); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected second billing to fail, got %v", err)
	}

	reg, err := svc.CurrentRegister(ctx)
	if err != nil {
		t.Fatalf("current register failed: %v", err)
	}
	if reg.CurrentAmount != 40600 || len(reg.Transactions) != 1 || reg.Transactions[0].SaleID != resp.Sale.ID {
		t.Fatalf("expected sale booked as income, got %+v", reg)
	}

	addon, _ := svc.GetProduct(ctx, "3")
	if addon.Stock != 29 {
		t.Fatalf("expected add-on stock 29, got %d", addon.Stock)
	}

	eligible, err := svc.EligibleCustomers(ctx)
	if err != nil {
		t.Fatalf("eligible failed: %v", err)
	}
	for _, c := range eligible {
		if c.ID == "cus-1" {
			t.Fatalf("expected billed customer to leave the idle list")
		}
	}
}

func TestBillOrderUnknownAddOn(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, domain.ServiceOrderCreateRequest{LicensePlate: "ABC123", ServiceID: "1", PackageType: domain.QualityEconomic})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := svc.StartOrder(ctx, order.ID, domain.ServiceOrderStartRequest{}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	_, err = svc.BillOrder(ctx, order.ID, domain.BillingRequest{
		AdditionalProducts: []domain.BillingLine{{ProductID: "missing", Quantity: 1}},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for unknown add-on, got %v", err)
	}

	_, err = svc.BillOrder(ctx, order.ID, domain.BillingRequest{DiscountPercent: 150})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected discount range validation, got %v", err)
	}

	stored, _ := svc.GetOrder(ctx, order.ID)
	if stored.Status != domain.OrderStatusInProgress {
		t.Fatalf("expected failed billing to leave order in progress, got %s", stored.Status)
	}
}

func TestCheckoutDecrementsStockAndBooksIncome(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.OpenRegister(ctx, domain.CashRegisterOpenRequest{InitialAmount: 0}); err != nil {
		t.Fatalf("open register failed: %v", err)
	}

	sale, err := svc.Checkout(ctx, domain.SaleCheckoutRequest{
		Lines: []domain.CartLine{
			{ItemID: "1", Type: domain.ItemTypeProduct, Quantity: 2, FinalPrice: 8000},
			{ItemID: "2", Type: domain.ItemTypeService, Quantity: 1},
		},
		CustomerID:    "cus-2",
		PaymentMethod: domain.PaymentTransfer,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if sale.Total != 28000 || sale.Type != domain.ItemTypeProduct {
		t.Fatalf("unexpected sale %+v", sale)
	}
	if sale.Discount != 3.45 {
		t.Fatalf("expected discount 3.45%%, got %v", sale.Discount)
	}
	if sale.Vehicle == nil || sale.Vehicle.LicensePlate != "XYZ789" {
		t.Fatalf("expected customer vehicle on sale, got %+v", sale.Vehicle)
	}

	shell, _ := svc.GetProduct(ctx, "1")
	if shell.Stock != 22 {
		t.Fatalf("expected stock 22, got %d", shell.Stock)
	}

	reg, _ := svc.CurrentRegister(ctx)
	if reg.CurrentAmount != 28000 {
		t.Fatalf("expected register balance 28000, got %d", reg.CurrentAmount)
	}
}

func TestCheckoutRejectsBadCarts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []domain.SaleCheckoutRequest{
		{},
		{Lines: []domain.CartLine{{ItemID: "1", Quantity: 999}}},
		{Lines: []domain.CartLine{{ItemID: "1", Quantity: 1, FinalPrice: 9000}}},
		{Lines: []domain.CartLine{{ItemID: "1", Quantity: 1}}, PaymentMethod: "crypto"},
	}
	for i, req := range cases {
		if _, err := svc.Checkout(ctx, req); !errors.Is(err, store.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}

	shell, _ := svc.GetProduct(ctx, "1")
	if shell.Stock != 24 {
		t.Fatalf("expected stock untouched, got %d", shell.Stock)
	}
}

func TestQuoteCartTotals(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.QuoteCart(context.Background(), domain.CartQuoteRequest{Lines: []domain.CartLine{
		{ItemID: "2", Quantity: 1, FinalPrice: 10000},
		{ItemID: "5", Quantity: 3},
	}})
	if err != nil {
		t.Fatalf("quote cart failed: %v", err)
	}
	totals := resp.Totals
	if totals.ListTotal != 19500 || totals.FinalTotal != 17500 || totals.Discount != 2000 {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if totals.ListTotal-totals.Discount != totals.FinalTotal {
		t.Fatalf("expected totals to reconcile")
	}
}

func TestRegisterLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordTransaction(ctx, domain.CashTransactionRequest{Type: domain.CashIncome, Amount: 100})
	if !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected closed register error, got %v", err)
	}
	if _, err := svc.OpenRegister(ctx, domain.CashRegisterOpenRequest{InitialAmount: -1}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected negative initial amount to fail, got %v", err)
	}

	if _, err := svc.OpenRegister(ctx, domain.CashRegisterOpenRequest{InitialAmount: 5000}); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := svc.OpenRegister(ctx, domain.CashRegisterOpenRequest{InitialAmount: 5000}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected second open to conflict, got %v", err)
	}

	if _, err := svc.RecordTransaction(ctx, domain.CashTransactionRequest{Type: domain.CashIncome, Amount: 2000, PaymentMethod: domain.PaymentCard}); err != nil {
		t.Fatalf("income failed: %v", err)
	}
	reg, err := svc.RecordTransaction(ctx, domain.CashTransactionRequest{Type: domain.CashExpense, Amount: 500, Description: "insumos"})
	if err != nil {
		t.Fatalf("expense failed: %v", err)
	}
	if reg.CurrentAmount != 6500 {
		t.Fatalf("expected balance 6500, got %d", reg.CurrentAmount)
	}
	if _, err := svc.RecordTransaction(ctx, domain.CashTransactionRequest{Type: domain.CashIncome, Amount: 0}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected zero amount to fail, got %v", err)
	}

	report, err := svc.CloseRegister(ctx)
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if report.Status != domain.RegisterStatusClosed || report.TotalIncome != 2000 || report.TotalExpense != 500 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.ByMethod) != 3 || report.ByMethod[1].PaymentMethod != domain.PaymentCard || report.ByMethod[1].Income != 2000 {
		t.Fatalf("unexpected per-method summary %+v", report.ByMethod)
	}

	if _, err := svc.RecordTransaction(ctx, domain.CashTransactionRequest{Type: domain.CashIncome, Amount: 100}); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected closed register to reject transactions, got %v", err)
	}
	if _, err := svc.CloseRegister(ctx); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected second close to fail, got %v", err)
	}

	again, err := svc.RegisterReport(ctx, report.RegisterID)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if again.CurrentAmount != 6500 {
		t.Fatalf("expected stored balance 6500, got %d", again.CurrentAmount)
	}
}

func TestPromotionEligibility(t *testing.T) {
	svc, notifier := newTestService()
	ctx := context.Background()

	eligible, err := svc.EligibleCustomers(ctx)
	if err != nil {
		t.Fatalf("eligible failed: %v", err)
	}
	if len(eligible) != 1 || eligible[0].ID != "cus-1" {
		t.Fatalf("expected only cus-1 to be eligible, got %+v", eligible)
	}

	if _, err := svc.SendPromotion(ctx, domain.PromotionSendRequest{Message: "20% off", CustomerIDs: []string{"cus-2"}}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected recent customer to be rejected, got %v", err)
	}
	if _, err := svc.SendPromotion(ctx, domain.PromotionSendRequest{Message: " ", CustomerIDs: []string{"cus-1"}}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected empty message to be rejected, got %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("expected nothing sent before a valid promotion, got %v", notifier.sent)
	}

	promo, err := svc.SendPromotion(ctx, domain.PromotionSendRequest{Message: "20% off", CustomerIDs: []string{"cus-1"}})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if len(promo.CustomerIDs) != 1 || promo.IdleDays != 90 {
		t.Fatalf("unexpected promotion %+v", promo)
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != "cus-1" {
		t.Fatalf("expected one delivery to cus-1, got %v", notifier.sent)
	}
}

func TestAdjustPricesRoundsAndFloors(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	updated, err := svc.AdjustPrices(ctx, domain.BulkPriceAdjustmentRequest{ProductIDs: []string{"1", "5"}, Mode: domain.PriceAdjustPercentage, Value: 10})
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if updated[0].Price != 9350 || updated[1].Price != 2750 {
		t.Fatalf("unexpected prices %d %d", updated[0].Price, updated[1].Price)
	}

	updated, err = svc.AdjustPrices(ctx, domain.BulkPriceAdjustmentRequest{ProductIDs: []string{"6"}, Mode: domain.PriceAdjustFixed, Value: -5000})
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if updated[0].Price != 0 {
		t.Fatalf("expected price floored at 0, got %d", updated[0].Price)
	}

	if _, err := svc.AdjustPrices(ctx, domain.BulkPriceAdjustmentRequest{ProductIDs: []string{"1", "ghost"}, Mode: domain.PriceAdjustFixed, Value: 1}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected unknown product to fail, got %v", err)
	}
	shell, _ := svc.GetProduct(ctx, "1")
	if shell.Price != 9350 {
		t.Fatalf("expected failed batch to leave prices alone, got %d", shell.Price)
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, domain.Product{Name: "Filtro de Aire", Type: "spark", Quality: domain.QualityStandard})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected unknown type to fail, got %v", err)
	}
	_, err = svc.CreateProduct(ctx, domain.Product{ID: "1", Name: "Duplicado", Type: domain.ProductTypeOil, Quality: domain.QualityStandard})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected duplicate id conflict, got %v", err)
	}

	created, err := svc.CreateProduct(ctx, domain.Product{Name: " Filtro de Aire ", Brand: "Fram", Type: domain.ProductTypeAirFilter, Quality: domain.QualityPremium, Price: 4200, Stock: 5})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == "" || created.Name != "Filtro de Aire" {
		t.Fatalf("unexpected product %+v", created)
	}

	quote, err := svc.QuotePackages(ctx, domain.PackageQuoteRequest{ServiceID: "2", LicensePlate: "ABC123"})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	premium, _ := packages.Select(quote.Packages, domain.QualityPremium)
	if premium.AirFilter == nil || premium.Total != 27500+4200 {
		t.Fatalf("expected new air filter in premium package, got %+v", premium)
	}
}

func TestEmployeeScheduleValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateEmployee(ctx, domain.Employee{Name: "Pedro", Position: "Ayudante", Schedule: domain.Schedule{Start: "18:00", End: "09:00"}})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected inverted schedule to fail, got %v", err)
	}

	created, err := svc.CreateEmployee(ctx, domain.Employee{Name: "Pedro", Position: "Ayudante", Schedule: domain.Schedule{Start: "09:00", End: "18:00"}})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Status != domain.StatusActive {
		t.Fatalf("expected default active status, got %s", created.Status)
	}

	found, err := svc.ListEmployees(ctx, "ayud")
	if err != nil || len(found) != 1 {
		t.Fatalf("expected search by position to find one, got %d (%v)", len(found), err)
	}
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, domain.UserCreateRequest{Username: "caja", Name: "Caja", Role: domain.RoleEmployee, Password: "short"}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected short password to fail, got %v", err)
	}

	user, err := svc.CreateUser(ctx, domain.UserCreateRequest{Username: " Caja ", Name: "Caja", Role: domain.RoleEmployee, Password: "caja-segura-1"})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if user.Username != "caja" || !user.Active {
		t.Fatalf("unexpected user %+v", user)
	}

	accounts, _ := svc.repo.ListUsers(ctx)
	for _, account := range accounts {
		if account.Username != "caja" {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("caja-segura-1")) != nil {
			t.Fatalf("expected stored bcrypt hash to match password")
		}
		return
	}
	t.Fatalf("expected created user to be stored")
}

func TestAuditLogRecordsActor(t *testing.T) {
	svc, _ := newTestService()
	ctx := WithActor(context.Background(), domain.Actor{Username: "maria", Role: domain.RoleManager})

	if _, err := svc.UpdateCompany(ctx, domain.Company{Name: "Lubricentro Norte"}); err != nil {
		t.Fatalf("update company failed: %v", err)
	}

	logs, err := svc.ListAuditLogs(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("list audit failed: %v", err)
	}
	if len(logs) == 0 || logs[0].Actor != "maria" || logs[0].Action != "company_update" {
		t.Fatalf("expected audit entry by maria, got %+v", logs)
	}
}

func TestSearchAcrossEntities(t *testing.T) {
	svc, _ := newTestService()

	results, err := svc.Search(context.Background(), "corolla")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Type != domain.SearchKindVehicle || results[0].ID != "ABC123" {
		t.Fatalf("unexpected results %+v", results)
	}

	results, _ = svc.Search(context.Background(), "lucía")
	if len(results) != 1 || results[0].Type != domain.SearchKindCustomer {
		t.Fatalf("expected customer match, got %+v", results)
	}
}

// staleOrderRepo serves a snapshot of an order taken before it was billed elsewhere.
type staleOrderRepo struct {
	*memory.Store
	snapshot domain.ServiceOrder
}

func (r *staleOrderRepo) GetOrder(_ context.Context, id string) (*domain.ServiceOrder, error) {
	if id != r.snapshot.ID {
		return nil, store.ErrNotFound
	}
	order := r.snapshot
	return &order, nil
}

func TestConcurrentBillingTakesStockOnce(t *testing.T) {
	repo := memory.NewSeeded()
	builder := packages.NewBuilder(nil, 0, packages.PolicyAllow)
	svc := New(repo, builder, xid.NewSequence(), &recordingNotifier{}, Options{})
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, domain.ServiceOrderCreateRequest{LicensePlate: "ABC123", ServiceID: "1", PackageType: domain.QualityEconomic})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := svc.StartOrder(ctx, order.ID, domain.ServiceOrderStartRequest{}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	snapshot, _ := repo.GetOrder(ctx, order.ID)

	req := domain.BillingRequest{AdditionalProducts: []domain.BillingLine{{ProductID: "1", Quantity: 3}}}
	if _, err := svc.BillOrder(ctx, order.ID, req); err != nil {
		t.Fatalf("bill failed: %v", err)
	}

	late := New(&staleOrderRepo{Store: repo, snapshot: *snapshot}, builder, xid.NewSequence(), &recordingNotifier{}, Options{})
	if _, err := late.BillOrder(ctx, order.ID, req); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected billing from a stale order to fail, got %v", err)
	}

	shell, _ := repo.GetProduct(ctx, "1")
	if shell.Stock != 21 {
		t.Fatalf("expected stock taken once (21), got %d", shell.Stock)
	}
	sales, _ := repo.ListSales(ctx, time.Time{}, time.Now().Add(time.Hour))
	if len(sales) != 1 {
		t.Fatalf("expected exactly one sale, got %d", len(sales))
	}
}

func TestFailedBillingLeavesStockAndSalesUntouched(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, domain.ServiceOrderCreateRequest{LicensePlate: "ABC123", ServiceID: "1", PackageType: domain.QualityEconomic})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := svc.StartOrder(ctx, order.ID, domain.ServiceOrderStartRequest{}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	_, err = svc.BillOrder(ctx, order.ID, domain.BillingRequest{AdditionalProducts: []domain.BillingLine{
		{ProductID: "1", Quantity: 3},
		{ProductID: "2", Quantity: 999},
	}})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	shell, _ := svc.GetProduct(ctx, "1")
	stored, _ := svc.GetOrder(ctx, order.ID)
	if shell.Stock != 24 || stored.Status != domain.OrderStatusInProgress {
		t.Fatalf("expected stock 24 and order in progress, got stock=%d status=%s", shell.Stock, stored.Status)
	}
	sales, _ := svc.ListSales(ctx, "")
	if len(sales) != 0 {
		t.Fatalf("expected no sale, got %d", len(sales))
	}
}

// racingRegisterRepo books a competing transaction right before the first save lands.
type racingRegisterRepo struct {
	*memory.Store
	raced bool
}

func (r *racingRegisterRepo) SaveRegister(ctx context.Context, register domain.CashRegister, expected int) (*domain.CashRegister, error) {
	if !r.raced {
		r.raced = true
		current, err := r.Store.GetOpenRegister(ctx)
		if err != nil {
			return nil, err
		}
		n := len(current.Transactions)
		current.Transactions = append(current.Transactions, domain.CashTransaction{ID: "ctx-rival", Type: domain.CashExpense, Amount: 100, PaymentMethod: domain.PaymentCash})
		current.CurrentAmount -= 100
		if _, err := r.Store.SaveRegister(ctx, *current, n); err != nil {
			return nil, err
		}
	}
	return r.Store.SaveRegister(ctx, register, expected)
}

func TestSaleBookingSurvivesConcurrentRegisterUpdate(t *testing.T) {
	repo := &racingRegisterRepo{Store: memory.NewSeeded()}
	svc := New(repo, packages.NewBuilder(nil, 0, packages.PolicyAllow), xid.NewSequence(), &recordingNotifier{}, Options{})
	ctx := context.Background()

	if _, err := repo.Store.CreateRegister(ctx, domain.CashRegister{ID: "reg-1", Status: domain.RegisterStatusOpen, InitialAmount: 1000, CurrentAmount: 1000}); err != nil {
		t.Fatalf("open register failed: %v", err)
	}

	sale, err := svc.Checkout(ctx, domain.SaleCheckoutRequest{Lines: []domain.CartLine{{ItemID: "1", Quantity: 1}}})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	reg, _ := svc.CurrentRegister(ctx)
	if len(reg.Transactions) != 2 {
		t.Fatalf("expected rival and sale transactions, got %+v", reg.Transactions)
	}
	if reg.Transactions[0].ID != "ctx-rival" || reg.Transactions[1].SaleID != sale.ID {
		t.Fatalf("expected both bookings kept in order, got %+v", reg.Transactions)
	}
	if reg.CurrentAmount != 1000-100+sale.Total {
		t.Fatalf("expected balance %d, got %d", 1000-100+sale.Total, reg.CurrentAmount)
	}
}

func TestRecordTransactionRejectsStaleRegister(t *testing.T) {
	repo := &racingRegisterRepo{Store: memory.NewSeeded()}
	svc := New(repo, packages.NewBuilder(nil, 0, packages.PolicyAllow), xid.NewSequence(), &recordingNotifier{}, Options{})
	ctx := context.Background()

	if _, err := repo.Store.CreateRegister(ctx, domain.CashRegister{ID: "reg-1", Status: domain.RegisterStatusOpen, InitialAmount: 1000, CurrentAmount: 1000}); err != nil {
		t.Fatalf("open register failed: %v", err)
	}

	_, err := svc.RecordTransaction(ctx, domain.CashTransactionRequest{Type: domain.CashIncome, Amount: 500, Description: "propina"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict when the register changed underneath, got %v", err)
	}
	reg, _ := svc.CurrentRegister(ctx)
	if len(reg.Transactions) != 1 || reg.CurrentAmount != 900 {
		t.Fatalf("expected only the rival transaction stored, got %+v", reg)
	}
}

func TestCheckoutMergesRepeatedItems(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	resp, err := svc.QuoteCart(ctx, domain.CartQuoteRequest{Lines: []domain.CartLine{
		{ItemID: "1", Quantity: 2},
		{ItemID: "5", Quantity: 1},
		{ItemID: "1", Quantity: 3},
	}})
	if err != nil {
		t.Fatalf("quote cart failed: %v", err)
	}
	if len(resp.Lines) != 2 || resp.Lines[0].ItemID != "1" || resp.Lines[0].Quantity != 5 {
		t.Fatalf("expected repeated item merged into one line of 5, got %+v", resp.Lines)
	}

	if _, err := svc.Checkout(ctx, domain.SaleCheckoutRequest{Lines: []domain.CartLine{
		{ItemID: "1", Quantity: 1, FinalPrice: 8000},
		{ItemID: "1", Quantity: 1, FinalPrice: 7000},
	}}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected conflicting prices for one item to be rejected, got %v", err)
	}

	sale, err := svc.Checkout(ctx, domain.SaleCheckoutRequest{Lines: []domain.CartLine{
		{ItemID: "1", Quantity: 2},
		{ItemID: "1", Quantity: 1},
	}})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if len(sale.Items) != 1 || sale.Items[0].Quantity != 3 {
		t.Fatalf("expected one sale item of 3, got %+v", sale.Items)
	}
	shell, _ := svc.GetProduct(ctx, "1")
	if shell.Stock != 21 {
		t.Fatalf("expected stock 21, got %d", shell.Stock)
	}
}

func TestClassifyUnknownCartLineAsNotFound(t *testing.T) {
	var c cart.Cart
	err := classify(c.SetFinalPrice("missing", 100))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type failingNotifier struct{}

func (failingNotifier) Send(context.Context, domain.Customer, string) error {
	return errors.New("smtp down")
}

func TestPromotionUndeliverableIsConflict(t *testing.T) {
	svc := New(memory.NewSeeded(), packages.NewBuilder(nil, 0, packages.PolicyAllow), xid.NewSequence(), failingNotifier{}, Options{})
	ctx := context.Background()

	_, err := svc.SendPromotion(ctx, domain.PromotionSendRequest{Message: "20% off", CustomerIDs: []string{"cus-1"}})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict when no recipient got the promotion, got %v", err)
	}
	promos, _ := svc.ListPromotions(ctx)
	if len(promos) != 0 {
		t.Fatalf("expected undelivered promotion not to be stored, got %+v", promos)
	}
}
