// Package customers persists customer profiles keyed by their messaging
// identity (phone number).
package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Profile is one customer record. Bookings and sessions reference it by
// identity; they never own it.
type Profile struct {
	Identity  string
	Name      string
	CreatedAt time.Time
}

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence helpers for customer profiles.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("customers: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting mocks for tests.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

// Upsert stores or renames the profile for an identity.
func (r *Repository) Upsert(ctx context.Context, identity, name string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO customers (identity, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (identity) DO UPDATE SET name = EXCLUDED.name
	`, identity, name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("customers: upsert %s: %w", identity, err)
	}
	return nil
}

// Get returns the profile for an identity, or nil when none exists.
func (r *Repository) Get(ctx context.Context, identity string) (*Profile, error) {
	var p Profile
	err := r.db.QueryRow(ctx, `
		SELECT identity, name, created_at FROM customers WHERE identity = $1
	`, identity).Scan(&p.Identity, &p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("customers: load %s: %w", identity, err)
	}
	return &p, nil
}
