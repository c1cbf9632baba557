package session

import (
	"errors"
	"fmt"

	"EcoFinds/internal/catalog"
)

type Page string

const (
	PageAuth          Page = "auth"
	PageHome          Page = "home"
	PageProductDetail Page = "product-detail"
	PageCart          Page = "cart"
	PageAddProduct    Page = "add-product"
	PageUserDashboard Page = "user-dashboard"
	PageMyListings    Page = "my-listings"
)

var (
	ErrInvalidTransition = errors.New("invalid page transition")
	ErrNoSelection       = errors.New("no product selected")
	ErrUnknownPage       = errors.New("unknown page")
)

// ParsePage accepts any page name, including auth and home.
func ParsePage(s string) (Page, error) {
	switch p := Page(s); p {
	case PageAuth, PageHome, PageProductDetail, PageCart, PageAddProduct, PageUserDashboard, PageMyListings:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPage, s)
}

// Nav is the page state machine:
//
//	auth -> home -> {product-detail, cart, add-product, user-dashboard, my-listings} -> home
//
// The zero value is at auth.
type Nav struct {
	page     Page
	selected *catalog.Product
}

func (n *Nav) Page() Page {
	if n.page == "" {
		return PageAuth
	}
	return n.page
}

// Selected is the product shown on product-detail, nil elsewhere.
func (n *Nav) Selected() *catalog.Product {
	if n.selected == nil {
		return nil
	}
	p := *n.selected
	return &p
}

func (n *Nav) Authenticate() error {
	if n.Page() != PageAuth {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, n.Page(), PageHome)
	}
	n.page = PageHome
	return nil
}

// Enter moves from home to one of the leaf pages. product-detail needs
// selected.
func (n *Nav) Enter(to Page, selected *catalog.Product) error {
	if n.Page() != PageHome {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, n.Page(), to)
	}

	switch to {
	case PageProductDetail:
		if selected == nil {
			return ErrNoSelection
		}
		p := *selected
		n.selected = &p
	case PageCart, PageAddProduct, PageUserDashboard, PageMyListings:
		n.selected = nil
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, n.Page(), to)
	}

	n.page = to
	return nil
}

// Back returns to home from any page but auth. It is a no-op on home.
func (n *Nav) Back() error {
	if n.Page() == PageAuth {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, PageAuth, PageHome)
	}
	n.page = PageHome
	n.selected = nil
	return nil
}

// leave goes back to home if the machine is currently on from.
func (n *Nav) leave(from Page) {
	if n.Page() == from {
		_ = n.Back()
	}
}
