package cart

import (
	"errors"

	"lubricentro/backend/internal/domain"
)

var (
	ErrInvalidPrice = errors.New("final price must be between 0 and list price")
	ErrUnknownLine  = errors.New("item is not in the cart")
)

// Item is a catalog entry that can be placed in a cart.
type Item struct {
	ID    string
	Type  string
	Price int64
}

// Cart keeps lines in insertion order. The zero value is an empty cart.
type Cart struct {
	lines []domain.CartLine
}

func FromLines(lines []domain.CartLine) *Cart {
	c := &Cart{lines: make([]domain.CartLine, 0, len(lines))}
	for _, line := range lines {
		if line.Quantity < 1 {
			continue
		}
		c.lines = append(c.lines, line)
	}
	return c
}

// Add bumps the quantity of an existing line or appends a new one at list price.
func (c *Cart) Add(item Item) {
	if i := c.index(item.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, domain.CartLine{
		ItemID:     item.ID,
		Type:       item.Type,
		Quantity:   1,
		ListPrice:  item.Price,
		FinalPrice: item.Price,
	})
}

func (c *Cart) Remove(id string) {
	if i := c.index(id); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// SetQuantity removes the line when n < 1.
func (c *Cart) SetQuantity(id string, n int) {
	if n < 1 {
		c.Remove(id)
		return
	}
	if i := c.index(id); i >= 0 {
		c.lines[i].Quantity = n
	}
}

func (c *Cart) SetFinalPrice(id string, price int64) error {
	i := c.index(id)
	if i < 0 {
		return ErrUnknownLine
	}
	if price < 0 || price > c.lines[i].ListPrice {
		return ErrInvalidPrice
	}
	c.lines[i].FinalPrice = price
	return nil
}

func (c *Cart) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Line(id string) (domain.CartLine, bool) {
	if i := c.index(id); i >= 0 {
		return c.lines[i], true
	}
	return domain.CartLine{}, false
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Totals() domain.CartTotals {
	var totals domain.CartTotals
	for _, line := range c.lines {
		qty := int64(line.Quantity)
		totals.ListTotal += line.ListPrice * qty
		totals.FinalTotal += line.FinalPrice * qty
	}
	totals.Discount = totals.ListTotal - totals.FinalTotal
	return totals
}

func (c *Cart) index(id string) int {
	for i := range c.lines {
		if c.lines[i].ItemID == id {
			return i
		}
	}
	return -1
}
