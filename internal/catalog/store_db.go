package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	seq         BIGSERIAL,
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	price       NUMERIC(10, 2) NOT NULL CHECK (price >= 0),
	category    TEXT NOT NULL,
	image       TEXT NOT NULL DEFAULT '',
	owner_id    TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS products_owner_idx ON products (owner_id);
`

const selectColumns = `id, title, description, price, category, image, owner_id, created_at`

// PostgresStore keeps the catalog in a products table. Newest-first is
// insertion order, tracked by the seq column.
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

// EnsureSchema creates the products table if it is missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, schema)
		return err
	})
}

// SeedIfEmpty loads seed (ordered newest first) into an empty table and
// reports whether it did.
func (s *PostgresStore) SeedIfEmpty(ctx context.Context, seed []Product) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM products`).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (`+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	// Oldest first so the highest seq is the newest product.
	for i := len(seed) - 1; i >= 0; i-- {
		p := seed[i]
		if _, err := stmt.ExecContext(ctx, p.ID, p.Title, p.Description, p.Price,
			string(p.Category), p.Image, p.OwnerID, p.CreatedAt); err != nil {
			return false, fmt.Errorf("seed %s: %w", p.ID, err)
		}
	}

	return true, tx.Commit()
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Product, error) {
	f = f.normalized()
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+selectColumns+`
			FROM products
			WHERE ($1 = '' OR strpos(lower(title), lower($1)) > 0 OR strpos(lower(description), lower($1)) > 0)
			  AND ($2 = '' OR category = $2)
			  AND ($3 = '' OR owner_id = $3)
			ORDER BY seq DESC
		`, f.Query, string(f.Category), f.OwnerID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Product, bool, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		p, err = scanProduct(s.db.QueryRowContext(ctx, `
			SELECT `+selectColumns+`
			FROM products
			WHERE id = $1
		`, id))
		return err
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

func (s *PostgresStore) Insert(ctx context.Context, p Product) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO products (`+selectColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, p.ID, p.Title, p.Description, p.Price, string(p.Category), p.Image, p.OwnerID, p.CreatedAt)

		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return err
	})
}

func (s *PostgresStore) Replace(ctx context.Context, p Product) error {
	return s.ownedWrite(ctx, p.ID, p.OwnerID, `
		UPDATE products
		SET title = $3, description = $4, price = $5, category = $6, image = $7
		WHERE id = $1 AND owner_id = $2
	`, p.Title, p.Description, p.Price, string(p.Category), p.Image)
}

func (s *PostgresStore) Delete(ctx context.Context, id, ownerID string) error {
	return s.ownedWrite(ctx, id, ownerID, `
		DELETE FROM products
		WHERE id = $1 AND owner_id = $2
	`)
}

// ownedWrite runs q (with id and ownerID as $1 and $2) and, if nothing
// matched, tells a missing product apart from a foreign one.
func (s *PostgresStore) ownedWrite(ctx context.Context, id, ownerID, q string, args ...any) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx, q, append([]any{id, ownerID}, args...)...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return ErrNotOwner
			}
			return ErrNotFound
		}
		return tx.Commit()
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p   Product
		cat string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &cat, &p.Image, &p.OwnerID, &p.CreatedAt); err != nil {
		return Product{}, err
	}
	p.Category = Category(cat)
	return p, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}
