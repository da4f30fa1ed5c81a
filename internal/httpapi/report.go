package httpapi

import (
	"bytes"
	"html/template"

	"github.com/gocarina/gocsv"

	"lubricentro/backend/internal/domain"
)

// closingReportToCSV writes one row per payment method followed by a total row.
func closingReportToCSV(report domain.ClosingReport) ([]byte, error) {
	rows := make([]domain.PaymentMethodSummary, 0, len(report.ByMethod)+1)
	rows = append(rows, report.ByMethod...)
	rows = append(rows, domain.PaymentMethodSummary{
		PaymentMethod: "total",
		Income:        report.TotalIncome,
		Expense:       report.TotalExpense,
		Transactions:  len(report.Transactions),
	})
	return gocsv.MarshalBytes(&rows)
}

var closingReportHTMLTmpl = template.Must(template.New("closing-report").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Cierre de caja {{.RegisterID}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    h2, h3 { margin-bottom: 4px; }
  </style>
</head>
<body>
  <h2>Cierre de caja {{.RegisterID}}</h2>
  <p>Apertura: {{.OpenedAt.Format "2006-01-02 15:04"}}{{if .ClosedAt}} | Cierre: {{.ClosedAt.Format "2006-01-02 15:04"}}{{end}} | Estado: {{.Status}}</p>
  <p>Monto inicial: {{.InitialAmount}} | Ingresos: {{.TotalIncome}} | Egresos: {{.TotalExpense}} | Monto final: {{.CurrentAmount}}</p>

  <h3>Por medio de pago</h3>
  <table>
    <thead><tr><th>Medio</th><th>Ingresos</th><th>Egresos</th><th>Movimientos</th></tr></thead>
    <tbody>{{range .ByMethod}}<tr><td>{{.PaymentMethod}}</td><td style="text-align:right;">{{.Income}}</td><td style="text-align:right;">{{.Expense}}</td><td style="text-align:right;">{{.Transactions}}</td></tr>{{end}}</tbody>
  </table>

  <h3>Movimientos</h3>
  <table>
    <thead><tr><th>Hora</th><th>Tipo</th><th>Medio</th><th>Monto</th><th>Descripción</th></tr></thead>
    <tbody>{{range .Transactions}}<tr><td>{{.Timestamp.Format "15:04"}}</td><td>{{.Type}}</td><td>{{.PaymentMethod}}</td><td style="text-align:right;">{{.Amount}}</td><td>{{.Description}}</td></tr>{{end}}</tbody>
  </table>
</body>
</html>
`))

func closingReportToPrintableHTML(report domain.ClosingReport) string {
	var buf bytes.Buffer
	if err := closingReportHTMLTmpl.Execute(&buf, report); err != nil {
		return "<!doctype html><html><body><p>Report rendering error.</p></body></html>"
	}
	return buf.String()
}
