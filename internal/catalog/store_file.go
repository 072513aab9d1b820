package catalog

import (
	"context"
	"encoding/json"
	"os"

	"go.uber.org/zap"
)

// FileStore keeps the catalog in memory and rewrites the whole collection
// to a JSON file synchronously on every mutation. A failed write surfaces
// a StorageError but does not roll back the in-memory mutation.
type FileStore struct {
	mem  *MemStore
	path string
	log  *zap.Logger
}

func NewFileStore(path string, log *zap.Logger) *FileStore {
	s := &FileStore{mem: NewMemStore(), path: path, log: log}
	s.load()
	return s
}

func (s *FileStore) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) && s.log != nil {
			s.log.Warn("load catalog failed", zap.Error(err), zap.String("path", s.path))
		}
		return
	}

	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		if s.log != nil {
			s.log.Warn("parse catalog failed", zap.Error(err), zap.String("path", s.path))
		}
		return
	}
	s.mem.seed(products)
}

func (s *FileStore) persist() error {
	raw, err := json.MarshalIndent(s.mem.snapshot(), "", "\t")
	if err != nil {
		return &StorageError{Err: err}
	}
	if err := os.WriteFile(s.path, append(raw, '\n'), 0o644); err != nil {
		return &StorageError{Err: err}
	}
	return nil
}

func (s *FileStore) Ping(ctx context.Context) error { return nil }

func (s *FileStore) List(ctx context.Context, f Filter) ([]Product, error) {
	return s.mem.List(ctx, f)
}

func (s *FileStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	return s.mem.Get(ctx, id)
}

func (s *FileStore) Create(ctx context.Context, np NewProduct) (Product, error) {
	p, err := s.mem.Create(ctx, np)
	if err != nil {
		return Product{}, err
	}
	return p, s.persist()
}

func (s *FileStore) Update(ctx context.Context, id int64, patch ProductPatch) (Product, error) {
	p, err := s.mem.Update(ctx, id, patch)
	if err != nil {
		return Product{}, err
	}
	return p, s.persist()
}

func (s *FileStore) Delete(ctx context.Context, id int64) error {
	if err := s.mem.Delete(ctx, id); err != nil {
		return err
	}
	return s.persist()
}
