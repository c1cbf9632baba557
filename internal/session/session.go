// Package session holds one signed-in shopper's marketplace state: the
// cart, purchase history and page navigation, on top of the shared
// catalog. All mutations go through Session methods.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"EcoFinds/internal/cart"
	"EcoFinds/internal/catalog"
	"EcoFinds/internal/listing"
)

const recentLimit = 3

var ErrForbidden = errors.New("forbidden")

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Deps are shared by every session.
type Deps struct {
	Catalog catalog.Store
	Minter  *listing.Minter
	Metrics *Metrics
	Log     *zap.Logger
	Now     func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Minter == nil {
		d.Minter = listing.NewMinter()
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics(nil)
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

type Session struct {
	id   string
	user User
	deps Deps

	mu      sync.Mutex
	nav     Nav
	cart    cart.Cart
	history cart.History
}

// New returns a session for u positioned at the auth page.
func New(u User, deps Deps) *Session {
	return &Session{
		id:   "s_" + uuid.NewString(),
		user: u,
		deps: deps.withDefaults(),
	}
}

func (s *Session) ID() string { return s.id }
func (s *Session) User() User { return s.user }

func (s *Session) log() *zap.Logger {
	return s.deps.Log.With(zap.String("session_id", s.id), zap.String("user_id", s.user.ID))
}

// ListProducts returns the catalog, newest first, narrowed by f.
func (s *Session) ListProducts(ctx context.Context, f catalog.Filter) ([]catalog.Product, error) {
	return s.deps.Catalog.List(ctx, f)
}

func (s *Session) Product(ctx context.Context, id string) (catalog.Product, error) {
	p, ok, err := s.deps.Catalog.Get(ctx, id)
	if err != nil {
		return catalog.Product{}, err
	}
	if !ok {
		return catalog.Product{}, fmt.Errorf("%w: %s", catalog.ErrNotFound, id)
	}
	return p, nil
}

// SubmitListing validates in and lists a new product owned by the
// session user. Nothing is stored when validation fails.
func (s *Session) SubmitListing(ctx context.Context, in listing.Input) (catalog.Product, error) {
	p, err := s.deps.Minter.Mint(in, s.user.ID)
	if err != nil {
		return catalog.Product{}, err
	}
	if err := s.deps.Catalog.Insert(ctx, p); err != nil {
		return catalog.Product{}, fmt.Errorf("insert listing: %w", err)
	}

	s.mu.Lock()
	s.nav.leave(PageAddProduct)
	s.mu.Unlock()

	s.deps.Metrics.ListingsCreated.Inc()
	s.log().Info("listing created", zap.String("product_id", p.ID), zap.String("category", string(p.Category)))
	return p, nil
}

// EditListing replaces the editable fields of one of the user's
// listings, keeping its id, position and creation date.
func (s *Session) EditListing(ctx context.Context, id string, in listing.Input) (catalog.Product, error) {
	existing, err := s.Product(ctx, id)
	if err != nil {
		return catalog.Product{}, err
	}
	if existing.OwnerID != s.user.ID {
		return catalog.Product{}, ErrForbidden
	}

	updated, err := listing.Apply(existing, in)
	if err != nil {
		return catalog.Product{}, err
	}
	if err := s.deps.Catalog.Replace(ctx, updated); err != nil {
		return catalog.Product{}, ownership(err)
	}

	s.deps.Metrics.ListingsEdited.Inc()
	s.log().Info("listing edited", zap.String("product_id", id))
	return updated, nil
}

// DeleteListing removes one of the user's listings from the catalog, and
// with it from the user's listings.
func (s *Session) DeleteListing(ctx context.Context, id string) error {
	if err := s.deps.Catalog.Delete(ctx, id, s.user.ID); err != nil {
		return ownership(err)
	}

	s.deps.Metrics.ListingsDeleted.Inc()
	s.log().Info("listing deleted", zap.String("product_id", id))
	return nil
}

// UserListings is the part of the catalog the session user owns.
func (s *Session) UserListings(ctx context.Context) ([]catalog.Product, error) {
	return s.deps.Catalog.List(ctx, catalog.Filter{OwnerID: s.user.ID})
}

// AddToCart puts a catalog product in the cart. cart.ErrAlreadyInCart
// leaves the cart unchanged.
func (s *Session) AddToCart(ctx context.Context, productID string) (catalog.Product, error) {
	p, err := s.Product(ctx, productID)
	if err != nil {
		return catalog.Product{}, err
	}

	s.mu.Lock()
	err = s.cart.Add(p)
	s.mu.Unlock()

	if err != nil {
		s.deps.Metrics.CartRejections.Inc()
		return catalog.Product{}, err
	}
	s.deps.Metrics.CartAdditions.Inc()
	return p, nil
}

// RemoveFromCart reports whether id was in the cart.
func (s *Session) RemoveFromCart(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Remove(id)
}

type CartView struct {
	Items []catalog.Product `json:"items"`
	Count int               `json:"count"`
	Total decimal.Decimal   `json:"total"`
}

func (s *Session) Cart() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CartView{Items: s.cart.Items(), Count: s.cart.Len(), Total: s.cart.Total()}
}

func (s *Session) CartTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

// Checkout moves the whole cart into the purchase history. An empty
// cart checks out to an empty receipt.
func (s *Session) Checkout() cart.Receipt {
	s.mu.Lock()
	r := cart.Checkout(&s.cart, &s.history, s.deps.Now())
	s.nav.leave(PageCart)
	s.mu.Unlock()

	s.deps.Metrics.Checkouts.Inc()
	s.deps.Metrics.CheckoutItems.Add(float64(r.Count))
	s.log().Info("checkout", zap.Int("items", r.Count), zap.String("total", r.Total.StringFixed(2)))
	return r
}

func (s *Session) Purchases() []catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Items()
}

type Dashboard struct {
	User            User              `json:"user"`
	TotalListings   int               `json:"total_listings"`
	TotalPurchases  int               `json:"total_purchases"`
	RecentListings  []catalog.Product `json:"recent_listings"`
	RecentPurchases []catalog.Product `json:"recent_purchases"`
}

func (s *Session) Dashboard(ctx context.Context) (Dashboard, error) {
	listings, err := s.UserListings(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	s.mu.Lock()
	purchases, recent := s.history.Len(), s.history.Recent(recentLimit)
	s.mu.Unlock()

	return Dashboard{
		User:            s.user,
		TotalListings:   len(listings),
		TotalPurchases:  purchases,
		RecentListings:  listings[:min(recentLimit, len(listings))],
		RecentPurchases: recent,
	}, nil
}

type NavView struct {
	Page      Page             `json:"page"`
	Product   *catalog.Product `json:"product,omitempty"`
	InCart    bool             `json:"in_cart"`
	CartCount int              `json:"cart_count"`
}

func (s *Session) Nav() NavView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navViewLocked()
}

// Navigate enters page from home. product-detail needs the id of a
// catalog product.
func (s *Session) Navigate(ctx context.Context, page Page, productID string) (NavView, error) {
	var selected *catalog.Product
	if page == PageProductDetail {
		if productID == "" {
			return NavView{}, ErrNoSelection
		}
		p, err := s.Product(ctx, productID)
		if err != nil {
			return NavView{}, err
		}
		selected = &p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.nav.Enter(page, selected); err != nil {
		return NavView{}, err
	}
	return s.navViewLocked(), nil
}

func (s *Session) Back() (NavView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.nav.Back(); err != nil {
		return NavView{}, err
	}
	return s.navViewLocked(), nil
}

func (s *Session) authenticate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Authenticate()
}

func (s *Session) navViewLocked() NavView {
	v := NavView{Page: s.nav.Page(), Product: s.nav.Selected(), CartCount: s.cart.Len()}
	if v.Product != nil {
		v.InCart = s.cart.Contains(v.Product.ID)
	}
	return v
}

func ownership(err error) error {
	if errors.Is(err, catalog.ErrNotOwner) {
		return ErrForbidden
	}
	return err
}
