package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"lubricentro/backend/internal/billing"
	"lubricentro/backend/internal/domain"
	"lubricentro/backend/internal/ledger"
	"lubricentro/backend/internal/packages"
	"lubricentro/backend/internal/store"
)

func (s *Service) LookupVehicle(ctx context.Context, plate string) (domain.Vehicle, error) {
	plate = normalizePlate(plate)
	if plate == "" {
		return domain.Vehicle{}, validationf("license plate is required")
	}
	vehicle, err := s.repo.GetVehicleByPlate(ctx, plate)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Vehicle{}, fmt.Errorf("%w: vehicle %s", store.ErrNotFound, plate)
		}
		return domain.Vehicle{}, err
	}
	return *vehicle, nil
}

func (s *Service) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return s.repo.ListVehicles(ctx)
}

func (s *Service) RegisterVehicle(ctx context.Context, req domain.Vehicle) (domain.Vehicle, error) {
	vehicle := domain.Vehicle{
		LicensePlate: normalizePlate(req.LicensePlate),
		Brand:        strings.TrimSpace(req.Brand),
		Model:        strings.TrimSpace(req.Model),
		Year:         strings.TrimSpace(req.Year),
		EngineType:   strings.TrimSpace(req.EngineType),
		OilType:      strings.TrimSpace(req.OilType),
	}
	if vehicle.LicensePlate == "" || vehicle.Brand == "" || vehicle.Model == "" {
		return domain.Vehicle{}, validationf("license plate, brand and model are required")
	}

	created, err := s.repo.CreateVehicle(ctx, vehicle)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Vehicle{}, fmt.Errorf("%w: vehicle %s already registered", store.ErrConflict, vehicle.LicensePlate)
		}
		return domain.Vehicle{}, err
	}

	s.logAudit(ctx, "vehicle_register", "vehicle", created.LicensePlate, created.CompatibilityKey())
	return *created, nil
}

// QuotePackages builds the three tiered packages for a service on a registered vehicle.
func (s *Service) QuotePackages(ctx context.Context, req domain.PackageQuoteRequest) (domain.PackageQuote, error) {
	svc, vehicle, packs, err := s.buildPackages(ctx, req.ServiceID, req.LicensePlate)
	if err != nil {
		return domain.PackageQuote{}, err
	}
	return domain.PackageQuote{Service: svc, Vehicle: vehicle, Packages: packs}, nil
}

func (s *Service) buildPackages(ctx context.Context, serviceID string, plate string) (domain.Service, domain.Vehicle, []domain.ServicePackage, error) {
	svc, err := s.repo.GetService(ctx, strings.TrimSpace(serviceID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Service{}, domain.Vehicle{}, nil, fmt.Errorf("%w: service %s", store.ErrNotFound, serviceID)
		}
		return domain.Service{}, domain.Vehicle{}, nil, err
	}
	vehicle, err := s.LookupVehicle(ctx, plate)
	if err != nil {
		return domain.Service{}, domain.Vehicle{}, nil, err
	}
	catalog, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.Service{}, domain.Vehicle{}, nil, err
	}

	packs, err := s.builder.Build(ctx, *svc, vehicle, catalog)
	if err != nil {
		return domain.Service{}, domain.Vehicle{}, nil, classify(err)
	}
	return *svc, vehicle, packs, nil
}

// CreateOrder opens a pending order for the chosen tier. The package is rebuilt from
// the current catalog so clients cannot submit their own prices.
func (s *Service) CreateOrder(ctx context.Context, req domain.ServiceOrderCreateRequest) (domain.ServiceOrder, error) {
	tier := strings.TrimSpace(req.PackageType)
	if !packages.IsTier(tier) {
		return domain.ServiceOrder{}, validationf("package type must be economic, standard or premium")
	}

	svc, vehicle, packs, err := s.buildPackages(ctx, req.ServiceID, req.LicensePlate)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	pkg, ok := packages.Select(packs, tier)
	if !ok {
		return domain.ServiceOrder{}, validationf("package %s unavailable", tier)
	}

	order := domain.ServiceOrder{
		ID:             s.ids.New("order"),
		Vehicle:        vehicle,
		Service:        svc,
		ServicePackage: pkg,
		Status:         domain.OrderStatusPending,
		Notes:          strings.TrimSpace(req.Notes),
		CreatedAt:      s.now(),
	}
	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return domain.ServiceOrder{}, err
	}

	s.logAudit(ctx, "order_create", "service_order", created.ID, fmt.Sprintf("plate=%s,service=%s,tier=%s,total=%d", vehicle.LicensePlate, svc.ID, tier, pkg.Total))
	return *created, nil
}

var orderStatuses = []string{domain.OrderStatusPending, domain.OrderStatusInProgress, domain.OrderStatusCompleted, domain.OrderStatusBilled}

func (s *Service) ListOrders(ctx context.Context, status string) ([]domain.ServiceOrder, error) {
	status = strings.TrimSpace(status)
	if status != "" {
		known := false
		for _, candidate := range orderStatuses {
			if candidate == status {
				known = true
				break
			}
		}
		if !known {
			return nil, validationf("unknown order status %q", status)
		}
	}
	return s.repo.ListOrders(ctx, status)
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.ServiceOrder, error) {
	order, err := s.repo.GetOrder(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	return *order, nil
}

// StartOrder moves a pending order into the workshop, optionally assigning a mechanic.
func (s *Service) StartOrder(ctx context.Context, id string, req domain.ServiceOrderStartRequest) (domain.ServiceOrder, error) {
	order, err := s.repo.GetOrder(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	if order.Status != domain.OrderStatusPending {
		return domain.ServiceOrder{}, fmt.Errorf("%w: cannot start order in status %s", store.ErrInvalidState, order.Status)
	}

	if employeeID := strings.TrimSpace(req.EmployeeID); employeeID != "" {
		employee, err := s.repo.GetEmployee(ctx, employeeID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.ServiceOrder{}, fmt.Errorf("%w: employee %s", store.ErrNotFound, employeeID)
			}
			return domain.ServiceOrder{}, err
		}
		if employee.Status != domain.StatusActive {
			return domain.ServiceOrder{}, validationf("employee %s is not active", employeeID)
		}
		order.AssignedEmployee = employee
	}

	started := s.now()
	order.Status = domain.OrderStatusInProgress
	order.StartTime = &started

	saved, err := s.repo.UpdateOrder(ctx, *order, domain.OrderStatusPending)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	s.logAudit(ctx, "order_start", "service_order", saved.ID, "")
	return *saved, nil
}

func (s *Service) CompleteOrder(ctx context.Context, id string) (domain.ServiceOrder, error) {
	order, err := s.repo.GetOrder(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	if order.Status != domain.OrderStatusInProgress {
		return domain.ServiceOrder{}, fmt.Errorf("%w: cannot complete order in status %s", store.ErrInvalidState, order.Status)
	}

	finished := s.now()
	order.Status = domain.OrderStatusCompleted
	order.EndTime = &finished

	saved, err := s.repo.UpdateOrder(ctx, *order, domain.OrderStatusInProgress)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	s.logAudit(ctx, "order_complete", "service_order", saved.ID, "")
	return *saved, nil
}

// BillOrder turns a started or finished order into a completed sale and marks it billed.
func (s *Service) BillOrder(ctx context.Context, id string, req domain.BillingRequest) (domain.BillingResponse, error) {
	order, err := s.repo.GetOrder(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.BillingResponse{}, err
	}
	if !billing.Billable(order.Status) {
		return domain.BillingResponse{}, fmt.Errorf("%w: cannot bill order in status %s", store.ErrInvalidState, order.Status)
	}

	method := defaultString(strings.TrimSpace(req.PaymentMethod), domain.PaymentCash)
	if !ledger.ValidPaymentMethod(method) {
		return domain.BillingResponse{}, classify(fmt.Errorf("%w: %q", ledger.ErrInvalidPayMethod, method))
	}

	lines := make([]billing.Line, 0, len(req.AdditionalProducts))
	stock := make(map[string]int, len(req.AdditionalProducts))
	for _, extra := range req.AdditionalProducts {
		productID := strings.TrimSpace(extra.ProductID)
		product, err := s.repo.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.BillingResponse{}, fmt.Errorf("%w: product %s", store.ErrNotFound, productID)
			}
			return domain.BillingResponse{}, err
		}
		lines = append(lines, billing.Line{Product: *product, Quantity: extra.Quantity})
		if extra.Quantity > 0 {
			stock[product.ID] += extra.Quantity
		}
	}

	sale, err := billing.Compose(s.ids, billing.Input{
		Order:           *order,
		Additional:      lines,
		PaymentMethod:   method,
		DiscountPercent: req.DiscountPercent,
		Date:            s.now(),
	})
	if err != nil {
		return domain.BillingResponse{}, classify(err)
	}
	if customer, ok := s.customerByPlate(ctx, order.Vehicle.LicensePlate); ok {
		sale.CustomerID = customer.ID
	}

	previous := order.Status
	billed := *order
	billed.Status = domain.OrderStatusBilled
	if billed.EndTime == nil {
		finished := sale.Date
		billed.EndTime = &finished
	}
	created, err := s.repo.CommitSale(ctx, store.SaleCommit{Sale: sale, Stock: stock, Order: &billed, OrderFrom: previous})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrValidation):
			return domain.BillingResponse{}, validationf("insufficient stock for additional products")
		case errors.Is(err, store.ErrInvalidState):
			return domain.BillingResponse{}, fmt.Errorf("%w: order %s changed while billing", store.ErrInvalidState, billed.ID)
		}
		return domain.BillingResponse{}, err
	}

	s.recordSaleIncome(ctx, *created, fmt.Sprintf("%s %s", order.Service.Name, order.Vehicle.LicensePlate))
	s.touchCustomerService(ctx, order.Vehicle.LicensePlate, created.Date)
	s.logAudit(ctx, "order_bill", "service_order", billed.ID, fmt.Sprintf("sale=%s,total=%d,discount=%g", created.ID, created.Total, created.Discount))

	return domain.BillingResponse{Sale: *created, ServiceOrder: billed}, nil
}

func (s *Service) customerByPlate(ctx context.Context, plate string) (domain.Customer, bool) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		zap.L().Warn("failed to list customers", zap.Error(err))
		return domain.Customer{}, false
	}
	plate = normalizePlate(plate)
	for _, c := range customers {
		if normalizePlate(c.Vehicle.LicensePlate) == plate {
			return c, true
		}
	}
	return domain.Customer{}, false
}

// touchCustomerService refreshes the last service date that drives promotion eligibility.
func (s *Service) touchCustomerService(ctx context.Context, plate string, at time.Time) {
	customer, ok := s.customerByPlate(ctx, plate)
	if !ok {
		return
	}
	customer.LastServiceDate = at
	if _, err := s.repo.SaveCustomer(ctx, customer); err != nil {
		zap.L().Warn("failed to update customer service date", zap.String("customer_id", customer.ID), zap.Error(err))
	}
}
