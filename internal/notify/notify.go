package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"lubricentro/backend/internal/domain"
)

// Notifier delivers a message to a customer.
type Notifier interface {
	Send(ctx context.Context, customer domain.Customer, message string) error
}

// LogNotifier records outgoing messages in the log instead of delivering them.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.L()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) Send(_ context.Context, customer domain.Customer, message string) error {
	n.logger.Info("customer message",
		zap.String("customer_id", customer.ID),
		zap.String("phone", maskPhone(customer.Phone)),
		zap.Int("length", len(message)),
	)
	return nil
}

func maskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
