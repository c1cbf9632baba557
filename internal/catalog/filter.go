package catalog

import "strings"

// Filter narrows a catalog listing. Zero value matches everything.
type Filter struct {
	// Query matches title or description, case-insensitively.
	Query string
	// Category is an exact match; empty or All bypasses it.
	Category Category
	// OwnerID restricts to one seller's listings.
	OwnerID string
}

func (f Filter) normalized() Filter {
	f.Query = strings.TrimSpace(f.Query)
	if f.Category == All {
		f.Category = ""
	}
	return f
}

func (f Filter) Match(p Product) bool {
	f = f.normalized()

	if f.OwnerID != "" && p.OwnerID != f.OwnerID {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}
