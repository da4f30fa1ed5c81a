package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lubricentro/backend/internal/domain"
	"lubricentro/backend/internal/xid"
)

var (
	ErrNotBillable     = errors.New("service order is not billable")
	ErrDiscountRange   = errors.New("discount percent must be between 0 and 100")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Line is an additional product billed on top of the service package.
type Line struct {
	Product  domain.Product
	Quantity int
}

type Input struct {
	Order           domain.ServiceOrder
	Additional      []Line
	PaymentMethod   string
	DiscountPercent float64
	Date            time.Time
}

var hundred = decimal.NewFromInt(100)

func Billable(status string) bool {
	return status == domain.OrderStatusInProgress || status == domain.OrderStatusCompleted
}

// ClampDiscount bounds a user-entered percent to [0, 100].
func ClampDiscount(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// ApplyDiscount returns amount reduced by percent, rounded half away from zero to whole units.
func ApplyDiscount(amount int64, percent float64) int64 {
	factor := hundred.Sub(decimal.NewFromFloat(percent)).Div(hundred)
	return decimal.NewFromInt(amount).Mul(factor).Round(0).IntPart()
}

// Compose turns a billable service order plus add-on products into a completed sale.
func Compose(ids xid.Allocator, in Input) (domain.Sale, error) {
	if !Billable(in.Order.Status) {
		return domain.Sale{}, fmt.Errorf("%w: status %s", ErrNotBillable, in.Order.Status)
	}
	if in.DiscountPercent < 0 || in.DiscountPercent > 100 {
		return domain.Sale{}, ErrDiscountRange
	}

	items := make([]domain.SaleItem, 0, len(in.Additional)+1)
	items = append(items, domain.SaleItem{
		ID:        ids.New("item"),
		ServiceID: in.Order.Service.ID,
		Quantity:  1,
		Price:     in.Order.Service.Price,
		Subtotal:  in.Order.Service.Price,
	})

	additional := int64(0)
	for _, line := range in.Additional {
		if line.Quantity < 1 {
			return domain.Sale{}, fmt.Errorf("%w: product %s", ErrInvalidQuantity, line.Product.ID)
		}
		subtotal := line.Product.Price * int64(line.Quantity)
		additional += subtotal
		items = append(items, domain.SaleItem{
			ID:        ids.New("item"),
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			Price:     line.Product.Price,
			Subtotal:  subtotal,
		})
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	vehicle := in.Order.Vehicle
	employeeID := ""
	if in.Order.AssignedEmployee != nil {
		employeeID = in.Order.AssignedEmployee.ID
	}

	return domain.Sale{
		ID:             ids.New("sale"),
		Date:           date,
		Items:          items,
		Total:          ApplyDiscount(in.Order.ServicePackage.Total+additional, in.DiscountPercent),
		Discount:       in.DiscountPercent,
		EmployeeID:     employeeID,
		Type:           domain.ItemTypeService,
		Vehicle:        &vehicle,
		PaymentMethod:  in.PaymentMethod,
		ServiceOrderID: in.Order.ID,
		Status:         domain.SaleStatusCompleted,
	}, nil
}
