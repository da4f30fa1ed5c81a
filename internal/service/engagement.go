package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"lubricentro/backend/internal/domain"
	"lubricentro/backend/internal/store"
)

// EligibleCustomers lists customers whose last service is at least the idle threshold old.
func (s *Service) EligibleCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := s.promoCutoff()
	return slices.DeleteFunc(customers, func(c domain.Customer) bool {
		return c.LastServiceDate.After(cutoff)
	}), nil
}

func (s *Service) promoCutoff() time.Time {
	return s.now().AddDate(0, 0, -s.promoIdleDays)
}

// SendPromotion delivers the message to every recipient and stores the campaign.
// All recipients must exist and be eligible before anything is sent.
func (s *Service) SendPromotion(ctx context.Context, req domain.PromotionSendRequest) (domain.Promotion, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return domain.Promotion{}, validationf("message is required")
	}
	ids := trimAll(req.CustomerIDs)
	if len(ids) == 0 {
		return domain.Promotion{}, validationf("at least one recipient is required")
	}

	cutoff := s.promoCutoff()
	recipients := make([]domain.Customer, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		customer, err := s.repo.GetCustomer(ctx, id)
		if err != nil {
			return domain.Promotion{}, errNotFoundAs(err, "customer", id)
		}
		if customer.LastServiceDate.After(cutoff) {
			return domain.Promotion{}, validationf("customer %s had a service in the last %d days", id, s.promoIdleDays)
		}
		recipients = append(recipients, *customer)
	}

	sent := make([]string, 0, len(recipients))
	for _, customer := range recipients {
		if err := s.notifier.Send(ctx, customer, message); err != nil {
			zap.L().Warn("promotion delivery failed", zap.String("customer_id", customer.ID), zap.Error(err))
			continue
		}
		sent = append(sent, customer.ID)
	}
	if len(sent) == 0 {
		return domain.Promotion{}, fmt.Errorf("%w: promotion could not be delivered to any recipient", store.ErrConflict)
	}

	created, err := s.repo.CreatePromotion(ctx, domain.Promotion{
		ID:          s.ids.New("promo"),
		Message:     message,
		CustomerIDs: sent,
		IdleDays:    s.promoIdleDays,
		SentAt:      s.now(),
	})
	if err != nil {
		return domain.Promotion{}, err
	}
	s.logAudit(ctx, "promotion_send", "promotion", created.ID, fmt.Sprintf("recipients=%d", len(sent)))
	return *created, nil
}

func (s *Service) ListPromotions(ctx context.Context) ([]domain.Promotion, error) {
	return s.repo.ListPromotions(ctx)
}

// ListCourses returns the training catalog, optionally limited to one level.
func (s *Service) ListCourses(ctx context.Context, level string) ([]domain.Course, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	level = strings.TrimSpace(level)
	if level == "" {
		return courses, nil
	}
	return slices.DeleteFunc(courses, func(c domain.Course) bool {
		return !strings.EqualFold(c.Level, level)
	}), nil
}

// Dashboard summarizes today's activity.
func (s *Service) Dashboard(ctx context.Context) (domain.DashboardMetrics, error) {
	from := startOfDay(s.now())
	sales, err := s.repo.ListSales(ctx, from, from.Add(24*time.Hour))
	if err != nil {
		return domain.DashboardMetrics{}, err
	}
	metrics := domain.DashboardMetrics{
		Date:           from.Format("2006-01-02"),
		RegisterStatus: domain.RegisterStatusClosed,
	}
	for _, sale := range sales {
		if sale.Status != domain.SaleStatusCompleted {
			continue
		}
		metrics.SalesCount++
		metrics.SalesTotal += sale.Total
	}
	if metrics.SalesCount > 0 {
		metrics.AverageTicket = metrics.SalesTotal / int64(metrics.SalesCount)
	}

	pending, err := s.repo.ListOrders(ctx, domain.OrderStatusPending)
	if err != nil {
		return domain.DashboardMetrics{}, err
	}
	active, err := s.repo.ListOrders(ctx, domain.OrderStatusInProgress)
	if err != nil {
		return domain.DashboardMetrics{}, err
	}
	metrics.PendingOrders = len(pending)
	metrics.ActiveOrders = len(active)

	if reg, err := s.repo.GetOpenRegister(ctx); err == nil {
		metrics.RegisterStatus = reg.Status
		metrics.RegisterBalance = reg.CurrentAmount
	} else if balance, ok := s.lastClosedBalance(ctx); ok {
		metrics.RegisterBalance = balance
	}
	return metrics, nil
}

func (s *Service) lastClosedBalance(ctx context.Context) (int64, bool) {
	registers, err := s.repo.ListRegisters(ctx, 1)
	if err != nil || len(registers) == 0 {
		return 0, false
	}
	return registers[0].CurrentAmount, true
}

// Search looks across customers, vehicles and service orders.
func (s *Service) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}

	results := make([]domain.SearchResult, 0, 16)

	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range customers {
		if containsFold(c.Name, query) {
			results = append(results, domain.SearchResult{
				ID:       c.ID,
				Type:     domain.SearchKindCustomer,
				Title:    c.Name,
				Subtitle: c.Vehicle.LicensePlate,
			})
		}
	}

	vehicles, err := s.repo.ListVehicles(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range vehicles {
		if containsFold(v.LicensePlate, query) || containsFold(v.CompatibilityKey(), query) {
			results = append(results, domain.SearchResult{
				ID:       v.LicensePlate,
				Type:     domain.SearchKindVehicle,
				Title:    v.LicensePlate,
				Subtitle: strings.TrimSpace(v.CompatibilityKey() + " " + v.Year),
			})
		}
	}

	orders, err := s.repo.ListOrders(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if containsFold(o.Service.Name, query) || containsFold(o.ID, query) {
			results = append(results, domain.SearchResult{
				ID:       o.ID,
				Type:     domain.SearchKindService,
				Title:    o.Service.Name,
				Subtitle: o.Vehicle.LicensePlate + " · " + o.Status,
			})
		}
	}
	return results, nil
}
