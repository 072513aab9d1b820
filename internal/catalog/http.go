package catalog

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"ShopFront/pkg/kit"
)

type Server struct {
	Store Store
	Log   *zap.Logger

	validate *validator.Validate
}

func NewServer(store Store, log *zap.Logger) *Server {
	return &Server{
		Store:    store,
		Log:      log,
		validate: validator.New(),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Post("/", s.create)
	r.Get("/{id}", s.get)
	r.Patch("/{id}", s.update)
	r.Delete("/{id}", s.del)

	return r
}

type createReq struct {
	Name        string   `json:"name" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
}

type updateReq struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Category    *string  `json:"category"`
	Image       *string  `json:"image"`
	Description *string  `json:"description"`
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := Filter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		MinPrice: parseNum(q.Get("minPrice")),
		MaxPrice: parseNum(q.Get("maxPrice")),
		Sort:     q.Get("sort"),
	}

	products, err := s.Store.List(r.Context(), f)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("list products failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
		return
	}

	p, found, err := s.Store.Get(r.Context(), id)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("get product failed", zap.Error(err), zap.Int64("id", id))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "Valid name and price are required", nil)
		return
	}

	p, err := s.Store.Create(r.Context(), NewProduct{
		Name:        req.Name,
		Price:       *req.Price,
		Category:    req.Category,
		Image:       req.Image,
		Description: req.Description,
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
		return
	}

	var req updateReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "Invalid price", nil)
		return
	}

	p, err := s.Store.Update(r.Context(), id, ProductPatch{
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
		Description: req.Description,
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) del(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
		return
	}

	if err := s.Store.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	kit.WriteMessage(w, http.StatusOK, "Deleted")
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	var serr *StorageError

	switch {
	case errors.As(err, &verr):
		kit.WriteError(w, r, http.StatusBadRequest, verr.Reason, nil)
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
	case errors.As(err, &serr):
		if s.Log != nil {
			s.Log.Error("persist catalog failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "Failed to persist product", nil)
	default:
		if s.Log != nil {
			s.Log.Error("catalog store failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}

// parseNum mirrors the loose query coercion of the public API: a value
// that does not parse as a finite number imposes no constraint.
func parseNum(raw string) *float64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
