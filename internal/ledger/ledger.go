package ledger

import (
	"errors"
	"fmt"
	"time"

	"lubricentro/backend/internal/domain"
)

var (
	ErrRegisterClosed   = errors.New("cash register is closed")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidInitial   = errors.New("initial amount must not be negative")
	ErrInvalidTxType    = errors.New("transaction type must be income or expense")
	ErrInvalidPayMethod = errors.New("payment method must be cash, card or transfer")
)

// Open starts a register holding the initial float.
func Open(id string, initialAmount int64, at time.Time) (domain.CashRegister, error) {
	if initialAmount < 0 {
		return domain.CashRegister{}, ErrInvalidInitial
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return domain.CashRegister{
		ID:            id,
		Status:        domain.RegisterStatusOpen,
		OpenedAt:      at,
		InitialAmount: initialAmount,
		CurrentAmount: initialAmount,
		Transactions:  []domain.CashTransaction{},
	}, nil
}

func ValidPaymentMethod(method string) bool {
	for _, known := range domain.PaymentMethods {
		if method == known {
			return true
		}
	}
	return false
}

// Record appends tx and moves the running balance. Closed registers are immutable.
func Record(reg *domain.CashRegister, tx domain.CashTransaction) error {
	if reg.Status != domain.RegisterStatusOpen {
		return ErrRegisterClosed
	}
	if tx.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !ValidPaymentMethod(tx.PaymentMethod) {
		return fmt.Errorf("%w: %q", ErrInvalidPayMethod, tx.PaymentMethod)
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	switch tx.Type {
	case domain.CashIncome:
		reg.CurrentAmount += tx.Amount
	case domain.CashExpense:
		reg.CurrentAmount -= tx.Amount
	default:
		return ErrInvalidTxType
	}
	reg.Transactions = append(reg.Transactions, tx)
	return nil
}

func Close(reg *domain.CashRegister, at time.Time) error {
	if reg.Status != domain.RegisterStatusOpen {
		return ErrRegisterClosed
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	reg.Status = domain.RegisterStatusClosed
	reg.ClosedAt = &at
	return nil
}

// Summarize groups transactions by payment method. Every known method is listed, even when idle.
func Summarize(reg domain.CashRegister) domain.ClosingReport {
	byMethod := make(map[string]*domain.PaymentMethodSummary, len(domain.PaymentMethods))
	ordered := make([]string, 0, len(domain.PaymentMethods))
	for _, method := range domain.PaymentMethods {
		byMethod[method] = &domain.PaymentMethodSummary{PaymentMethod: method}
		ordered = append(ordered, method)
	}

	report := domain.ClosingReport{
		RegisterID:    reg.ID,
		Status:        reg.Status,
		OpenedAt:      reg.OpenedAt,
		ClosedAt:      reg.ClosedAt,
		InitialAmount: reg.InitialAmount,
		CurrentAmount: reg.CurrentAmount,
		Transactions:  append([]domain.CashTransaction(nil), reg.Transactions...),
	}
	for _, tx := range reg.Transactions {
		summary, ok := byMethod[tx.PaymentMethod]
		if !ok {
			summary = &domain.PaymentMethodSummary{PaymentMethod: tx.PaymentMethod}
			byMethod[tx.PaymentMethod] = summary
			ordered = append(ordered, tx.PaymentMethod)
		}
		summary.Transactions++
		if tx.Type == domain.CashIncome {
			summary.Income += tx.Amount
			report.TotalIncome += tx.Amount
		} else {
			summary.Expense += tx.Amount
			report.TotalExpense += tx.Amount
		}
	}

	report.ByMethod = make([]domain.PaymentMethodSummary, 0, len(ordered))
	for _, method := range ordered {
		report.ByMethod = append(report.ByMethod, *byMethod[method])
	}
	return report
}
