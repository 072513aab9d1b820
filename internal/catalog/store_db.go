package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

// List loads the full catalog and filters in memory so that search,
// category and sort semantics match the other stores exactly. Ids are
// assigned max+1, so id order is insertion order.
func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Product, error) {
	all, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	return f.apply(all), nil
}

func (s *PostgresStore) listAll(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, price, category, image, description
			FROM products
			ORDER BY id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			var p Product
			if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.Image, &p.Description); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, &StorageError{Err: err}
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, name, price, category, image, description
			FROM products
			WHERE id = $1
		`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.Image, &p.Description)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, &StorageError{Err: err}
	}
	return p, true, nil
}

func (s *PostgresStore) Create(ctx context.Context, np NewProduct) (Product, error) {
	if err := validateNew(np); err != nil {
		return Product{}, err
	}

	// Max is read in a separate statement, matching the non-atomic id
	// assignment of the file store.
	var next int64
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(id), 0) + 1 FROM products
		`).Scan(&next)
	})
	if err != nil {
		return Product{}, &StorageError{Err: err}
	}

	p := Product{
		ID:          next,
		Name:        np.Name,
		Price:       np.Price,
		Category:    np.Category,
		Image:       np.Image,
		Description: np.Description,
	}

	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO products (id, name, price, category, image, description)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, p.ID, p.Name, p.Price, p.Category, p.Image, p.Description)
		return err
	})
	if err != nil {
		return Product{}, &StorageError{Err: err}
	}
	return p, nil
}

func (s *PostgresStore) Update(ctx context.Context, id int64, patch ProductPatch) (Product, error) {
	if err := validatePatch(patch); err != nil {
		return Product{}, err
	}

	p, ok, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if !ok {
		return Product{}, ErrNotFound
	}

	applyPatch(&p, patch)

	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			UPDATE products
			SET name = $2, price = $3, category = $4, image = $5, description = $6
			WHERE id = $1
		`, p.ID, p.Name, p.Price, p.Category, p.Image, p.Description)
		return err
	})
	if err != nil {
		return Product{}, &StorageError{Err: err}
	}
	return p, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return &StorageError{Err: err}
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
