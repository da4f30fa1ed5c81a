package cart

import (
	"errors"
	"testing"

	"lubricentro/backend/internal/domain"
)

var (
	mobil  = Item{ID: "2", Type: domain.ItemTypeProduct, Price: 12000}
	filter = Item{ID: "4", Type: domain.ItemTypeProduct, Price: 3500}
)

func TestAddIncrementsExistingLineWithoutTouchingPrices(t *testing.T) {
	var c Cart
	c.Add(mobil)
	if err := c.SetFinalPrice(mobil.ID, 11000); err != nil {
		t.Fatalf("set final price: %v", err)
	}
	c.Add(mobil)

	line, ok := c.Line(mobil.ID)
	if !ok {
		t.Fatalf("expected line for %s", mobil.ID)
	}
	if line.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", line.Quantity)
	}
	if line.ListPrice != 12000 || line.FinalPrice != 11000 {
		t.Fatalf("expected prices untouched, got list=%d final=%d", line.ListPrice, line.FinalPrice)
	}

	c.Add(filter)
	lines := c.Lines()
	if len(lines) != 2 || lines[1].ItemID != filter.ID || lines[1].Quantity != 1 {
		t.Fatalf("expected new line appended with quantity 1, got %+v", lines)
	}
	if lines[1].ListPrice != lines[1].FinalPrice {
		t.Fatalf("expected final price to start at list price")
	}
}

func TestSetQuantity(t *testing.T) {
	var c Cart
	c.Add(mobil)
	c.Add(filter)

	c.SetQuantity(mobil.ID, 4)
	if line, _ := c.Line(mobil.ID); line.Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", line.Quantity)
	}

	c.SetQuantity(mobil.ID, 0)
	if _, ok := c.Line(mobil.ID); ok {
		t.Fatalf("expected quantity 0 to remove line")
	}

	c.SetQuantity(filter.ID, -3)
	if !c.Empty() {
		t.Fatalf("expected negative quantity to remove line, got %+v", c.Lines())
	}
}

func TestTotalsReconcile(t *testing.T) {
	var c Cart
	check := func(step string) {
		t.Helper()
		totals := c.Totals()
		if totals.ListTotal-totals.Discount != totals.FinalTotal {
			t.Fatalf("%s: list %d - discount %d != final %d", step, totals.ListTotal, totals.Discount, totals.FinalTotal)
		}
		if totals.FinalTotal < 0 {
			t.Fatalf("%s: negative final total %d", step, totals.FinalTotal)
		}
	}

	check("empty")
	c.Add(mobil)
	c.Add(mobil)
	check("two oils")
	c.Add(filter)
	if err := c.SetFinalPrice(filter.ID, 3000); err != nil {
		t.Fatalf("set final price: %v", err)
	}
	check("discounted filter")

	totals := c.Totals()
	if totals.ListTotal != 27500 || totals.FinalTotal != 27000 || totals.Discount != 500 {
		t.Fatalf("unexpected totals %+v", totals)
	}

	c.SetQuantity(mobil.ID, 0)
	check("after removal")
	c.Remove(filter.ID)
	check("after remove")
	if c.Totals() != (domain.CartTotals{}) {
		t.Fatalf("expected zero totals for empty cart, got %+v", c.Totals())
	}
}

func TestSetFinalPriceBounds(t *testing.T) {
	var c Cart
	c.Add(filter)
	if err := c.SetFinalPrice(filter.ID, -1); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice for negative price, got %v", err)
	}
	if err := c.SetFinalPrice(filter.ID, 3501); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice above list price, got %v", err)
	}
	if err := c.SetFinalPrice(filter.ID, 0); err != nil {
		t.Fatalf("expected zero price allowed, got %v", err)
	}
}

func TestSetFinalPriceUnknownLine(t *testing.T) {
	var c Cart
	c.Add(filter)
	if err := c.SetFinalPrice(mobil.ID, 100); !errors.Is(err, ErrUnknownLine) {
		t.Fatalf("expected ErrUnknownLine for an item not in the cart, got %v", err)
	}
	if line, _ := c.Line(filter.ID); line.FinalPrice != filter.Price {
		t.Fatalf("expected other lines untouched, got %+v", line)
	}
}

func TestFromLinesDropsEmptyLines(t *testing.T) {
	c := FromLines([]domain.CartLine{
		{ItemID: "1", Quantity: 2, ListPrice: 8500, FinalPrice: 8500},
		{ItemID: "2", Quantity: 0, ListPrice: 12000, FinalPrice: 12000},
	})
	if len(c.Lines()) != 1 {
		t.Fatalf("expected one line, got %+v", c.Lines())
	}
}
