package catalog

import (
	"context"
	"errors"
	"math"
	"strings"
)

type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
}

// NewProduct carries the fields of a product to be created.
type NewProduct struct {
	Name        string
	Price       float64
	Category    string
	Image       string
	Description string
}

// ProductPatch carries a partial update; nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	Price       *float64
	Category    *string
	Image       *string
	Description *string
}

var ErrNotFound = errors.New("product not found")

type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// StorageError wraps a failed durability write. The in-memory mutation is
// not rolled back on this path, so the caller sees "uncertain state", not
// "mutation failed".
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "persist catalog: " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

type Store interface {
	Ping(ctx context.Context) error
	List(ctx context.Context, f Filter) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, bool, error)
	Create(ctx context.Context, np NewProduct) (Product, error)
	Update(ctx context.Context, id int64, patch ProductPatch) (Product, error)
	Delete(ctx context.Context, id int64) error
}

func validateNew(np NewProduct) error {
	if strings.TrimSpace(np.Name) == "" {
		return &ValidationError{Reason: "Valid name and price are required"}
	}
	if !validPrice(np.Price) {
		return &ValidationError{Reason: "Valid name and price are required"}
	}
	return nil
}

func validatePatch(patch ProductPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return &ValidationError{Reason: "Invalid name"}
	}
	if patch.Price != nil && !validPrice(*patch.Price) {
		return &ValidationError{Reason: "Invalid price"}
	}
	return nil
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0
}

func applyPatch(p *Product, patch ProductPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
}
