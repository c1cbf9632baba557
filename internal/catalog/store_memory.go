package catalog

import (
	"context"
	"slices"
	"sync"
)

// MemStore keeps the catalog in process memory.
type MemStore struct {
	mu    sync.RWMutex
	items []Product // newest first
}

// NewMemStore seeds the store with products, already ordered newest
// first. Seed data is trusted and is not validated.
func NewMemStore(seed []Product) *MemStore {
	s := &MemStore{items: make([]Product, 0, len(seed))}
	seen := make(map[string]struct{}, len(seed))
	for _, p := range seed {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		s.items = append(s.items, p)
	}
	return s
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) List(_ context.Context, f Filter) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.items))
	for _, p := range s.items {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemStore) Get(_ context.Context, id string) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.index(id); i >= 0 {
		return s.items[i], true, nil
	}
	return Product{}, false, nil
}

func (s *MemStore) Insert(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(p.ID) >= 0 {
		return ErrDuplicateID
	}
	s.items = slices.Insert(s.items, 0, p)
	return nil
}

func (s *MemStore) Replace(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(p.ID)
	if i < 0 {
		return ErrNotFound
	}
	if s.items[i].OwnerID != p.OwnerID {
		return ErrNotOwner
	}
	s.items[i] = p
	return nil
}

func (s *MemStore) Delete(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	if s.items[i].OwnerID != ownerID {
		return ErrNotOwner
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *MemStore) index(id string) int {
	return slices.IndexFunc(s.items, func(p Product) bool { return p.ID == id })
}
