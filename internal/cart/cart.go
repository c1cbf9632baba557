// Package cart holds a shopper's pending selection and purchase history.
package cart

import (
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"EcoFinds/internal/catalog"
)

var ErrAlreadyInCart = errors.New("already in cart")

// Cart is an insertion-ordered set of products keyed by id. The zero
// value is an empty cart. Not safe for concurrent use.
type Cart struct {
	items []catalog.Product
}

// Add appends p unless a product with the same id is present, in which
// case the cart is left unchanged and ErrAlreadyInCart is returned.
func (c *Cart) Add(p catalog.Product) error {
	if c.Contains(p.ID) {
		return ErrAlreadyInCart
	}
	c.items = append(c.items, p)
	return nil
}

// Remove drops id and reports whether it was present.
func (c *Cart) Remove(id string) bool {
	i := slices.IndexFunc(c.items, func(p catalog.Product) bool { return p.ID == id })
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	return true
}

func (c *Cart) Contains(id string) bool {
	return slices.ContainsFunc(c.items, func(p catalog.Product) bool { return p.ID == id })
}

func (c *Cart) Len() int { return len(c.items) }

// Items returns a copy of the cart contents in insertion order.
func (c *Cart) Items() []catalog.Product {
	return slices.Clone(c.items)
}

func (c *Cart) Total() decimal.Decimal {
	return sum(c.items)
}

// History is the append-only purchase record.
type History struct {
	items []catalog.Product
}

func (h *History) Len() int { return len(h.items) }

func (h *History) Items() []catalog.Product {
	return slices.Clone(h.items)
}

// Recent returns up to n of the latest purchases, newest first.
func (h *History) Recent(n int) []catalog.Product {
	out := make([]catalog.Product, 0, min(n, len(h.items)))
	for i := len(h.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.items[i])
	}
	return out
}

type Receipt struct {
	Count int               `json:"count"`
	Total decimal.Decimal   `json:"total"`
	Items []catalog.Product `json:"items"`
	At    time.Time         `json:"at"`
}

// Checkout moves every cart item, in cart order, into h and empties c.
// An empty cart yields an empty receipt. Callers serialize access to c
// and h, so no partial state is observable.
func Checkout(c *Cart, h *History, at time.Time) Receipt {
	items := c.items
	c.items = nil

	h.items = append(h.items, items...)

	if items == nil {
		items = []catalog.Product{}
	}
	return Receipt{
		Count: len(items),
		Total: sum(items),
		Items: items,
		At:    at,
	}
}

func sum(ps []catalog.Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range ps {
		total = total.Add(p.Price)
	}
	return total
}
