package listing

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"EcoFinds/internal/catalog"
)

const PlaceholderImage = "/placeholder.svg"

// Minter builds products from validated input. IDs are ULIDs, so they
// sort by creation time and stay distinct within one millisecond.
type Minter struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewMinter() *Minter {
	return &Minter{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Mint validates in and returns a new product owned by ownerID.
func (m *Minter) Mint(in Input, ownerID string) (catalog.Product, error) {
	if err := in.Validate(); err != nil {
		return catalog.Product{}, err
	}
	in = in.Normalize()

	m.mu.Lock()
	now := m.now()
	id, err := ulid.New(ulid.Timestamp(now), m.entropy)
	m.mu.Unlock()
	if err != nil {
		return catalog.Product{}, err
	}

	image := in.Image
	if image == "" {
		image = PlaceholderImage
	}

	return catalog.Product{
		ID:          id.String(),
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Category:    catalog.Category(in.Category),
		Image:       image,
		OwnerID:     ownerID,
		CreatedAt:   now.Truncate(24 * time.Hour),
	}, nil
}

// Apply validates in and returns existing with its editable fields
// replaced. Identity, owner, creation date and (unless given) image are
// kept.
func Apply(existing catalog.Product, in Input) (catalog.Product, error) {
	if err := in.Validate(); err != nil {
		return catalog.Product{}, err
	}
	in = in.Normalize()

	existing.Title = in.Title
	existing.Description = in.Description
	existing.Price = in.Price
	existing.Category = catalog.Category(in.Category)
	if in.Image != "" {
		existing.Image = in.Image
	}
	return existing, nil
}
