package cart

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ShopFront/internal/session"
	"ShopFront/pkg/kit"
)

type Server struct {
	Carts *Service
	Log   *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.view)
	r.Post("/", s.add)
	r.Patch("/{id}", s.setQuantity)
	r.Delete("/{id}", s.remove)

	return r
}

// The cart payload is deliberately loose: product ids and quantities may
// arrive as numbers or numeric strings, matching the public API contract.
type addReq struct {
	ProductID any `json:"productId"`
	Quantity  any `json:"quantity"`
}

type setQuantityReq struct {
	Quantity any `json:"quantity"`
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) {
	sid, ok := session.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return
	}

	v, err := s.Carts.View(r.Context(), sid)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("cart view failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, v)
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	sid, ok := session.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return
	}

	var req addReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	pid, ok := toID(req.ProductID)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
		return
	}

	// Quantity defaults to 1 when unspecified or non-numeric.
	qty := 1.0
	if q, numeric := toNum(req.Quantity); numeric {
		qty = q
	}

	if err := s.Carts.Add(r.Context(), sid, pid, qty); err != nil {
		s.writeCartError(w, r, err)
		return
	}
	kit.WriteMessage(w, http.StatusCreated, "Added to cart")
}

func (s *Server) setQuantity(w http.ResponseWriter, r *http.Request) {
	sid, ok := session.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return
	}

	pid, ok := toID(chi.URLParam(r, "id"))
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "Item not in cart", nil)
		return
	}

	var req setQuantityReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	qty, numeric := toNum(req.Quantity)
	if !numeric {
		kit.WriteError(w, r, http.StatusBadRequest, "Quantity required", nil)
		return
	}

	if err := s.Carts.SetQuantity(sid, pid, qty); err != nil {
		s.writeCartError(w, r, err)
		return
	}

	if qty == 0 {
		kit.WriteMessage(w, http.StatusOK, "Removed from cart")
		return
	}
	kit.WriteMessage(w, http.StatusOK, "Quantity updated")
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	sid, ok := session.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return
	}

	pid, ok := toID(chi.URLParam(r, "id"))
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "Item not in cart", nil)
		return
	}

	if err := s.Carts.Remove(sid, pid); err != nil {
		s.writeCartError(w, r, err)
		return
	}
	kit.WriteMessage(w, http.StatusOK, "Removed from cart")
}

func (s *Server) writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
	case errors.Is(err, ErrInvalidQuantity):
		kit.WriteError(w, r, http.StatusBadRequest, "Quantity must be > 0", nil)
	case errors.Is(err, ErrNegativeQuantity):
		kit.WriteError(w, r, http.StatusBadRequest, "Quantity cannot be negative", nil)
	case errors.Is(err, ErrItemNotInCart):
		kit.WriteError(w, r, http.StatusNotFound, "Item not in cart", nil)
	default:
		if s.Log != nil {
			s.Log.Error("cart operation failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

// toNum coerces a decoded JSON value to a finite float64.
func toNum(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toID coerces a decoded JSON value or path segment to an integral id.
func toID(v any) (int64, bool) {
	f, ok := toNum(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}
