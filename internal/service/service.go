package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"lubricentro/backend/internal/billing"
	"lubricentro/backend/internal/cart"
	"lubricentro/backend/internal/domain"
	"lubricentro/backend/internal/ledger"
	"lubricentro/backend/internal/notify"
	"lubricentro/backend/internal/packages"
	"lubricentro/backend/internal/store"
	"lubricentro/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const defaultPromoIdleDays = 90

type Options struct {
	PromoIdleDays int
	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

type Service struct {
	repo          store.Repository
	builder       *packages.Builder
	ids           xid.Allocator
	notifier      notify.Notifier
	promoIdleDays int
	now           func() time.Time
}

func New(repo store.Repository, builder *packages.Builder, ids xid.Allocator, notifier notify.Notifier, opts Options) *Service {
	if builder == nil {
		builder = packages.NewBuilder(nil, 0, packages.PolicyAllow)
	}
	if ids == nil {
		ids = xid.UUIDAllocator{}
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(zap.L())
	}
	if opts.PromoIdleDays < 1 {
		opts.PromoIdleDays = defaultPromoIdleDays
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		repo:          repo,
		builder:       builder,
		ids:           ids,
		notifier:      notifier,
		promoIdleDays: opts.PromoIdleDays,
		now:           opts.Now,
	}
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	if strings.TrimSpace(date) == "" {
		now := s.now()
		return s.repo.ListAuditLogs(ctx, now.Add(-24*time.Hour), now.Add(time.Second), limit)
	}

	from, err := parseDay(date)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAuditLogs(ctx, from, from.Add(24*time.Hour), limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Username == "" {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:         s.ids.New("audit"),
		Actor:      actor.Username,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  s.now(),
	}); err != nil {
		zap.L().Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("entity", entityType+"/"+entityID),
			zap.Error(err))
	}
}

// saveRegisterAttempts bounds how often a sale booking reloads the register after losing a race.
const saveRegisterAttempts = 3

// recordSaleIncome books a completed sale into the open register. Sales made while
// the register is closed are kept but not booked.
func (s *Service) recordSaleIncome(ctx context.Context, sale domain.Sale, description string) {
	if sale.Total <= 0 {
		return
	}
	txID := s.ids.New("ctx")

	for attempt := 1; attempt <= saveRegisterAttempts; attempt++ {
		reg, err := s.repo.GetOpenRegister(ctx)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				zap.L().Info("no open cash register, sale not booked", zap.String("sale_id", sale.ID))
				return
			}
			zap.L().Warn("failed to load open cash register", zap.String("sale_id", sale.ID), zap.Error(err))
			return
		}

		expected := len(reg.Transactions)
		if err := ledger.Record(reg, domain.CashTransaction{
			ID:            txID,
			Timestamp:     sale.Date,
			Type:          domain.CashIncome,
			Amount:        sale.Total,
			Description:   description,
			PaymentMethod: sale.PaymentMethod,
			SaleID:        sale.ID,
		}); err != nil {
			zap.L().Warn("failed to book sale", zap.String("sale_id", sale.ID), zap.Error(err))
			return
		}

		_, err = s.repo.SaveRegister(ctx, *reg, expected)
		if err == nil {
			return
		}
		if !errors.Is(err, store.ErrConflict) {
			zap.L().Warn("failed to save cash register", zap.String("register_id", reg.ID), zap.Error(err))
			return
		}
		zap.L().Debug("cash register changed concurrently, retrying", zap.String("register_id", reg.ID), zap.Int("attempt", attempt))
	}
	zap.L().Warn("sale not booked after concurrent register updates", zap.String("sale_id", sale.ID))
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrValidation, fmt.Sprintf(format, args...))
}

// classify maps errors from the pure domain packages onto the store error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var missing *packages.MissingItemError
	switch {
	case errors.Is(err, billing.ErrNotBillable), errors.Is(err, ledger.ErrRegisterClosed):
		return fmt.Errorf("%w: %v", store.ErrInvalidState, err)
	case errors.Is(err, billing.ErrDiscountRange),
		errors.Is(err, billing.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidInitial),
		errors.Is(err, ledger.ErrInvalidTxType),
		errors.Is(err, ledger.ErrInvalidPayMethod),
		errors.Is(err, cart.ErrInvalidPrice),
		errors.As(err, &missing):
		return fmt.Errorf("%w: %v", store.ErrValidation, err)
	case errors.Is(err, cart.ErrUnknownLine):
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	return err
}

func parseDay(date string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, validationf("date must be YYYY-MM-DD")
	}
	return parsed.UTC(), nil
}

func startOfDay(at time.Time) time.Time {
	at = at.UTC()
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
}

func containsFold(haystack string, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

func defaultString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
