package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"lubricentro/backend/internal/cart"
	"lubricentro/backend/internal/domain"
	"lubricentro/backend/internal/ledger"
	"lubricentro/backend/internal/store"
)

// QuoteCart prices the requested lines against the catalog and returns the totals.
func (s *Service) QuoteCart(ctx context.Context, req domain.CartQuoteRequest) (domain.CartQuoteResponse, error) {
	c, err := s.buildCart(ctx, req.Lines)
	if err != nil {
		return domain.CartQuoteResponse{}, err
	}
	return domain.CartQuoteResponse{Lines: c.Lines(), Totals: c.Totals()}, nil
}

// buildCart resolves list prices from the catalog. A final price of zero means the
// list price; any other value must lie within [0, list price]. Repeated items are
// merged by summing quantities.
func (s *Service) buildCart(ctx context.Context, lines []domain.CartLine) (*cart.Cart, error) {
	if len(lines) == 0 {
		return nil, validationf("cart is empty")
	}

	c := &cart.Cart{}
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, validationf("quantity for %s must be at least 1", line.ItemID)
		}
		item, err := s.resolveCartItem(ctx, line)
		if err != nil {
			return nil, err
		}
		if existing, exists := c.Line(item.ID); exists {
			if line.FinalPrice > 0 && line.FinalPrice != existing.FinalPrice {
				return nil, validationf("item %s listed twice with different prices", item.ID)
			}
			c.SetQuantity(item.ID, existing.Quantity+line.Quantity)
			continue
		}

		c.Add(item)
		c.SetQuantity(item.ID, line.Quantity)
		if line.FinalPrice > 0 {
			if err := c.SetFinalPrice(item.ID, line.FinalPrice); err != nil {
				return nil, classify(fmt.Errorf("item %s: %w", item.ID, err))
			}
		}
	}
	return c, nil
}

func (s *Service) resolveCartItem(ctx context.Context, line domain.CartLine) (cart.Item, error) {
	id := strings.TrimSpace(line.ItemID)
	switch defaultString(line.Type, domain.ItemTypeProduct) {
	case domain.ItemTypeProduct:
		product, err := s.repo.GetProduct(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return cart.Item{}, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
			}
			return cart.Item{}, err
		}
		return cart.Item{ID: product.ID, Type: domain.ItemTypeProduct, Price: product.Price}, nil
	case domain.ItemTypeService:
		svc, err := s.repo.GetService(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return cart.Item{}, fmt.Errorf("%w: service %s", store.ErrNotFound, id)
			}
			return cart.Item{}, err
		}
		return cart.Item{ID: svc.ID, Type: domain.ItemTypeService, Price: svc.Price}, nil
	default:
		return cart.Item{}, validationf("unknown item type %q", line.Type)
	}
}

// Checkout turns a counter cart into a completed product sale, taking the sold
// units out of stock and booking the income in the open register.
func (s *Service) Checkout(ctx context.Context, req domain.SaleCheckoutRequest) (domain.Sale, error) {
	method := defaultString(strings.TrimSpace(req.PaymentMethod), domain.PaymentCash)
	if !ledger.ValidPaymentMethod(method) {
		return domain.Sale{}, classify(fmt.Errorf("%w: %q", ledger.ErrInvalidPayMethod, method))
	}

	c, err := s.buildCart(ctx, req.Lines)
	if err != nil {
		return domain.Sale{}, err
	}

	var vehicle *domain.Vehicle
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID != "" {
		customer, err := s.repo.GetCustomer(ctx, customerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Sale{}, fmt.Errorf("%w: customer %s", store.ErrNotFound, customerID)
			}
			return domain.Sale{}, err
		}
		v := customer.Vehicle
		vehicle = &v
	}
	employeeID := strings.TrimSpace(req.EmployeeID)
	if employeeID != "" {
		if _, err := s.repo.GetEmployee(ctx, employeeID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Sale{}, fmt.Errorf("%w: employee %s", store.ErrNotFound, employeeID)
			}
			return domain.Sale{}, err
		}
	}

	lines := c.Lines()
	items := make([]domain.SaleItem, 0, len(lines))
	stock := make(map[string]int, len(lines))
	for _, line := range lines {
		item := domain.SaleItem{
			ID:       s.ids.New("item"),
			Quantity: line.Quantity,
			Price:    line.FinalPrice,
			Subtotal: line.FinalPrice * int64(line.Quantity),
		}
		if line.Type == domain.ItemTypeService {
			item.ServiceID = line.ItemID
		} else {
			item.ProductID = line.ItemID
			stock[line.ItemID] += line.Quantity
		}
		items = append(items, item)
	}

	totals := c.Totals()
	sale := domain.Sale{
		ID:            s.ids.New("sale"),
		Date:          s.now(),
		Items:         items,
		Total:         totals.FinalTotal,
		Discount:      discountPercent(totals),
		EmployeeID:    employeeID,
		Type:          domain.ItemTypeProduct,
		Vehicle:       vehicle,
		PaymentMethod: method,
		CustomerID:    customerID,
		Status:        domain.SaleStatusCompleted,
	}

	created, err := s.repo.CommitSale(ctx, store.SaleCommit{Sale: sale, Stock: stock})
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			return domain.Sale{}, validationf("insufficient stock")
		}
		return domain.Sale{}, err
	}

	s.recordSaleIncome(ctx, *created, fmt.Sprintf("Venta %s", created.ID))
	s.logAudit(ctx, "sale_checkout", "sale", created.ID, fmt.Sprintf("items=%d,total=%d,method=%s", len(created.Items), created.Total, created.PaymentMethod))
	return *created, nil
}

// discountPercent expresses the cart discount as a percent of the list total, two decimals.
func discountPercent(totals domain.CartTotals) float64 {
	if totals.ListTotal <= 0 || totals.Discount <= 0 {
		return 0
	}
	percent, _ := decimal.NewFromInt(totals.Discount).
		Mul(hundredPercent).
		Div(decimal.NewFromInt(totals.ListTotal)).
		Round(2).
		Float64()
	return percent
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

// ListSales returns the sales of one UTC day, today when date is empty.
func (s *Service) ListSales(ctx context.Context, date string) ([]domain.Sale, error) {
	from := startOfDay(s.now())
	if strings.TrimSpace(date) != "" {
		day, err := parseDay(date)
		if err != nil {
			return nil, err
		}
		from = day
	}
	return s.repo.ListSales(ctx, from, from.Add(24*time.Hour))
}
