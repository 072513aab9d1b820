package catalog

import (
	"context"
	"sync"
)

type MemStore struct {
	mu       sync.RWMutex
	products []Product
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) List(ctx context.Context, f Filter) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f.apply(s.products), nil
}

func (s *MemStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p, true, nil
		}
	}
	return Product{}, false, nil
}

func (s *MemStore) Create(ctx context.Context, np NewProduct) (Product, error) {
	if err := validateNew(np); err != nil {
		return Product{}, err
	}

	// The next id is read before the append lock is taken; two concurrent
	// creates can compute the same id. Last-writer-wins, same as the rest
	// of the store.
	p := Product{
		ID:          s.nextID(),
		Name:        np.Name,
		Price:       np.Price,
		Category:    np.Category,
		Image:       np.Image,
		Description: np.Description,
	}

	s.mu.Lock()
	s.products = append(s.products, p)
	s.mu.Unlock()

	return p, nil
}

func (s *MemStore) Update(ctx context.Context, id int64, patch ProductPatch) (Product, error) {
	if err := validatePatch(patch); err != nil {
		return Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID == id {
			applyPatch(&s.products[i], patch)
			return s.products[i], nil
		}
	}
	return Product{}, ErrNotFound
}

func (s *MemStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) nextID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max int64
	for _, p := range s.products {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}

// snapshot returns a copy of the catalog in storage order.
func (s *MemStore) snapshot() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// seed replaces the catalog contents wholesale.
func (s *MemStore) seed(products []Product) {
	s.mu.Lock()
	s.products = products
	s.mu.Unlock()
}
