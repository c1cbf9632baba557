// Package listing validates seller input and turns it into catalog
// products.
package listing

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"EcoFinds/internal/catalog"
)

const (
	TitleMin       = 1
	TitleMax       = 100
	DescriptionMin = 10
	DescriptionMax = 500
)

var (
	PriceMin = decimal.RequireFromString("0.01")
	PriceMax = decimal.RequireFromString("10000")
)

// Input is a listing submission or edit. Image is optional.
type Input struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
}

// ValidationError maps field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid listing: " + strings.Join(parts, "; ")
}

// Normalize trims surrounding whitespace from the text fields.
func (in Input) Normalize() Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Image = strings.TrimSpace(in.Image)
	return in
}

// Validate checks every field and reports all violations at once.
func (in Input) Validate() error {
	in = in.Normalize()
	errs := map[string]string{}

	switch n := utf8.RuneCountInString(in.Title); {
	case n < TitleMin:
		errs["title"] = "Product title is required"
	case n > TitleMax:
		errs["title"] = fmt.Sprintf("Title must be at most %d characters", TitleMax)
	}

	switch n := utf8.RuneCountInString(in.Description); {
	case n < DescriptionMin:
		errs["description"] = fmt.Sprintf("Description must be at least %d characters", DescriptionMin)
	case n > DescriptionMax:
		errs["description"] = fmt.Sprintf("Description must be at most %d characters", DescriptionMax)
	}

	if in.Category == "" {
		errs["category"] = "Category is required"
	} else if _, ok := catalog.ParseCategory(in.Category); !ok {
		errs["category"] = "Unknown category"
	}

	switch {
	case in.Price.LessThan(PriceMin):
		errs["price"] = "Price must be at least $" + PriceMin.StringFixed(2)
	case in.Price.GreaterThan(PriceMax):
		errs["price"] = "Price must be at most $" + PriceMax.StringFixed(2)
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
