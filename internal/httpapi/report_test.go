package httpapi

import (
	"strings"
	"testing"
	"time"

	"lubricentro/backend/internal/domain"
)

func sampleClosingReport() domain.ClosingReport {
	opened := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	closed := opened.Add(10 * time.Hour)
	return domain.ClosingReport{
		RegisterID:    "reg-1",
		Status:        domain.RegisterStatusClosed,
		OpenedAt:      opened,
		ClosedAt:      &closed,
		InitialAmount: 1000,
		CurrentAmount: 28700,
		TotalIncome:   28000,
		TotalExpense:  300,
		ByMethod: []domain.PaymentMethodSummary{
			{PaymentMethod: domain.PaymentCash, Income: 8000, Expense: 300, Transactions: 2},
			{PaymentMethod: domain.PaymentCard, Income: 20000, Transactions: 1},
			{PaymentMethod: domain.PaymentTransfer},
		},
		Transactions: []domain.CashTransaction{
			{ID: "ctx-1", Timestamp: opened.Add(time.Hour), Type: domain.CashIncome, Amount: 8000, PaymentMethod: domain.PaymentCash, Description: "Venta sale-1"},
			{ID: "ctx-2", Timestamp: opened.Add(2 * time.Hour), Type: domain.CashIncome, Amount: 20000, PaymentMethod: domain.PaymentCard, Description: "Cambio de aceite ABC123"},
			{ID: "ctx-3", Timestamp: opened.Add(3 * time.Hour), Type: domain.CashExpense, Amount: 300, PaymentMethod: domain.PaymentCash, Description: "<script>alert(1)</script>"},
		},
	}
}

func TestClosingReportToCSV(t *testing.T) {
	body, err := closingReportToCSV(sampleClosingReport())
	if err != nil {
		t.Fatalf("csv: %v", err)
	}

	rows := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(rows) != 5 {
		t.Fatalf("expected header, 3 methods and total, got %d rows: %q", len(rows), rows)
	}
	if rows[1] != "cash,8000,300,2" {
		t.Fatalf("unexpected cash row %q", rows[1])
	}
	if rows[4] != "total,28000,300,3" {
		t.Fatalf("unexpected total row %q", rows[4])
	}
}

func TestClosingReportHTMLEscapesDescriptions(t *testing.T) {
	html := closingReportToPrintableHTML(sampleClosingReport())

	if strings.Contains(html, "<script>") {
		t.Fatalf("expected transaction descriptions to be escaped")
	}
	if !strings.Contains(html, "Cierre: 2024-03-01 18:00") {
		t.Fatalf("expected closing time in report")
	}
	if !strings.Contains(html, "Cambio de aceite ABC123") {
		t.Fatalf("expected transaction rows in report")
	}
}
