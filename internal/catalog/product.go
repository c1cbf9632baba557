package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("product not found")
	ErrDuplicateID = errors.New("product id already exists")
	ErrNotOwner    = errors.New("product owned by another user")
)

type Category string

const (
	Clothing    Category = "Clothing"
	Electronics Category = "Electronics"
	Furniture   Category = "Furniture"
	Sports      Category = "Sports"
	Books       Category = "Books"
	HomeGarden  Category = "Home & Garden"

	// All is a filter value only; no product carries it.
	All Category = "All"
)

// Categories lists listable categories in display order.
var Categories = []Category{Clothing, Electronics, Furniture, Sports, Books, HomeGarden}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory returns the listable category named s.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c.Valid()
}

type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Image       string          `json:"image"`
	OwnerID     string          `json:"user_id"`
	CreatedAt   time.Time       `json:"created_at"`
}
