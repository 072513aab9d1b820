// Package cart keeps one cart per session as (productId, quantity) pairs
// and prices them against the live catalog on every read.
package cart

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ShopFront/internal/catalog"
)

type Line struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type PricedLine struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   catalog.Product `json:"product"`
	Subtotal  float64         `json:"subtotal"`
}

type View struct {
	Items []PricedLine `json:"items"`
	Total float64      `json:"total"`
}

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrInvalidQuantity  = errors.New("quantity must be > 0")
	ErrNegativeQuantity = errors.New("quantity cannot be negative")
	ErrItemNotInCart    = errors.New("item not in cart")
)

// Service owns every session's cart. Carts are created lazily on first
// access and swept once they sit idle past the session TTL.
type Service struct {
	catalog catalog.Store
	ttl     time.Duration

	mu    sync.RWMutex
	carts map[string]*cartState
}

type cartState struct {
	lines    []Line
	lastSeen time.Time
}

func NewService(store catalog.Store, ttl time.Duration) *Service {
	return &Service{
		catalog: store,
		ttl:     ttl,
		carts:   make(map[string]*cartState),
	}
}

// maxQuantity bounds a line's quantity to what fits in an int; converting
// a larger float would wrap negative.
const maxQuantity = float64(math.MaxInt)

// Add accumulates qty onto an existing line or appends a new one. The
// product is resolved first, so a missing product wins over a bad quantity.
func (s *Service) Add(ctx context.Context, session string, productID int64, qty float64) error {
	p, ok, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}
	if qty <= 0 || qty >= maxQuantity || qty != math.Trunc(qty) {
		return ErrInvalidQuantity
	}

	c := s.getOrCreate(session)

	s.mu.Lock()
	defer s.mu.Unlock()

	q := int(qty)
	for i := range c.lines {
		if c.lines[i].ProductID == p.ID {
			if c.lines[i].Quantity > math.MaxInt-q {
				return ErrInvalidQuantity
			}
			c.lines[i].Quantity += q
			return nil
		}
	}
	c.lines = append(c.lines, Line{ProductID: p.ID, Quantity: q})
	return nil
}

// SetQuantity replaces a line's quantity outright; zero removes the line.
func (s *Service) SetQuantity(session string, productID int64, qty float64) error {
	if qty < 0 {
		return ErrNegativeQuantity
	}

	c := s.getOrCreate(session)

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrItemNotInCart
	}

	if qty == 0 {
		c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
		return nil
	}
	if qty >= maxQuantity || qty != math.Trunc(qty) {
		return ErrInvalidQuantity
	}
	c.lines[idx].Quantity = int(qty)
	return nil
}

func (s *Service) Remove(session string, productID int64) error {
	c := s.getOrCreate(session)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return ErrItemNotInCart
}

// View joins every line against the catalog. Lines whose product no longer
// exists are omitted from the view but stay in the stored cart. Subtotals
// are rounded to 2 decimals half away from zero, per line, then summed.
func (s *Service) View(ctx context.Context, session string) (View, error) {
	lines := s.Lines(session)

	items := make([]PricedLine, 0, len(lines))
	total := decimal.Zero

	for _, ln := range lines {
		p, ok, err := s.catalog.Get(ctx, ln.ProductID)
		if err != nil {
			return View{}, err
		}
		if !ok {
			continue
		}

		sub := decimal.NewFromFloat(p.Price).
			Mul(decimal.NewFromInt(int64(ln.Quantity))).
			Round(2)
		subF, _ := sub.Float64()

		items = append(items, PricedLine{
			ProductID: ln.ProductID,
			Quantity:  ln.Quantity,
			Product:   p,
			Subtotal:  subF,
		})
		total = total.Add(sub)
	}

	totalF, _ := total.Round(2).Float64()
	return View{Items: items, Total: totalF}, nil
}

// Lines returns a copy of the stored cart, dead lines included.
func (s *Service) Lines(session string) []Line {
	c := s.getOrCreate(session)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (s *Service) getOrCreate(session string) *cartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.carts[session]
	if c == nil {
		c = &cartState{}
		s.carts[session] = c
	}
	c.lastSeen = time.Now()
	return c
}

// StartJanitor sweeps idle carts in the background until the returned stop
// function is called. A non-positive TTL disables expiry.
func (s *Service) StartJanitor(interval time.Duration) (stop func()) {
	if s.ttl <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				s.sweep(time.Now().Add(-s.ttl))
			}
		}
	}()
	return func() { close(done) }
}

func (s *Service) sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.carts {
		if c.lastSeen.Before(cutoff) {
			delete(s.carts, id)
		}
	}
}
