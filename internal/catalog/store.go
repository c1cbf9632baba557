package catalog

import "context"

// Store holds the shared catalog, newest listing first.
type Store interface {
	Ping(ctx context.Context) error

	List(ctx context.Context, f Filter) ([]Product, error)
	Get(ctx context.Context, id string) (Product, bool, error)

	// Insert makes p the newest product. ErrDuplicateID if p.ID exists.
	Insert(ctx context.Context, p Product) error
	// Replace swaps the stored product with p.ID in place, keeping its
	// position. ErrNotFound or ErrNotOwner when p.OwnerID differs.
	Replace(ctx context.Context, p Product) error
	// Delete removes id if ownerID owns it. ErrNotFound or ErrNotOwner.
	Delete(ctx context.Context, id, ownerID string) error
}
