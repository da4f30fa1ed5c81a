package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lubricentro/backend/internal/domain"
	"lubricentro/backend/internal/ledger"
	"lubricentro/backend/internal/store"
)

func (s *Service) OpenRegister(ctx context.Context, req domain.CashRegisterOpenRequest) (domain.CashRegister, error) {
	reg, err := ledger.Open(s.ids.New("reg"), req.InitialAmount, s.now())
	if err != nil {
		return domain.CashRegister{}, classify(err)
	}

	created, err := s.repo.CreateRegister(ctx, reg)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.CashRegister{}, fmt.Errorf("%w: a cash register is already open", store.ErrConflict)
		}
		return domain.CashRegister{}, err
	}

	s.logAudit(ctx, "register_open", "cash_register", created.ID, fmt.Sprintf("initial=%d", created.InitialAmount))
	return *created, nil
}

func (s *Service) CurrentRegister(ctx context.Context) (domain.CashRegister, error) {
	reg, err := s.repo.GetOpenRegister(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CashRegister{}, fmt.Errorf("%w: no open cash register", store.ErrNotFound)
		}
		return domain.CashRegister{}, err
	}
	return *reg, nil
}

// RecordTransaction books a manual income or expense in the open register.
func (s *Service) RecordTransaction(ctx context.Context, req domain.CashTransactionRequest) (domain.CashRegister, error) {
	reg, err := s.repo.GetOpenRegister(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CashRegister{}, fmt.Errorf("%w: cash register is closed", store.ErrInvalidState)
		}
		return domain.CashRegister{}, err
	}

	tx := domain.CashTransaction{
		ID:            s.ids.New("ctx"),
		Timestamp:     s.now(),
		Type:          strings.TrimSpace(req.Type),
		Amount:        req.Amount,
		Description:   strings.TrimSpace(req.Description),
		PaymentMethod: defaultString(strings.TrimSpace(req.PaymentMethod), domain.PaymentCash),
	}
	expected := len(reg.Transactions)
	if err := ledger.Record(reg, tx); err != nil {
		return domain.CashRegister{}, classify(err)
	}

	saved, err := s.repo.SaveRegister(ctx, *reg, expected)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.CashRegister{}, fmt.Errorf("%w: cash register changed, retry the transaction", store.ErrConflict)
		}
		return domain.CashRegister{}, err
	}

	s.logAudit(ctx, "register_"+tx.Type, "cash_register", saved.ID, fmt.Sprintf("amount=%d,method=%s", tx.Amount, tx.PaymentMethod))
	return *saved, nil
}

// CloseRegister finalizes the open register and returns its closing report.
func (s *Service) CloseRegister(ctx context.Context) (domain.ClosingReport, error) {
	reg, err := s.repo.GetOpenRegister(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ClosingReport{}, fmt.Errorf("%w: cash register is not open", store.ErrInvalidState)
		}
		return domain.ClosingReport{}, err
	}

	if err := ledger.Close(reg, s.now()); err != nil {
		return domain.ClosingReport{}, classify(err)
	}
	saved, err := s.repo.SaveRegister(ctx, *reg, len(reg.Transactions))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.ClosingReport{}, fmt.Errorf("%w: cash register changed, close it again", store.ErrConflict)
		}
		return domain.ClosingReport{}, err
	}

	report := ledger.Summarize(*saved)
	s.logAudit(ctx, "register_close", "cash_register", saved.ID, fmt.Sprintf("final=%d,income=%d,expense=%d", report.CurrentAmount, report.TotalIncome, report.TotalExpense))
	return report, nil
}

func (s *Service) RegisterReport(ctx context.Context, id string) (domain.ClosingReport, error) {
	reg, err := s.repo.GetRegister(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.ClosingReport{}, err
	}
	return ledger.Summarize(*reg), nil
}

func (s *Service) ListRegisters(ctx context.Context, limit int) ([]domain.CashRegister, error) {
	if limit < 1 {
		limit = 30
	}
	return s.repo.ListRegisters(ctx, limit)
}
