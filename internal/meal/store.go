package meal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store defines the interface for meal data operations.
type Store interface {
	Save(ctx context.Context, m *Meal) error
	Get(ctx context.Context, id string) (*Meal, error)
	List(ctx context.Context) ([]*Meal, error)
	Delete(ctx context.Context, id string) error
}

const schema = `
CREATE TABLE IF NOT EXISTS meals (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	photo_path TEXT NOT NULL DEFAULT '',
	rating INTEGER NOT NULL CHECK (rating BETWEEN 0 AND 5),
	location TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

const selectColumns = "SELECT id, name, photo_path, rating, location, created_at, updated_at FROM meals"

// PostgresStore implements Store for PostgreSQL.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresStore connects to dataSourceName and creates the meals table if needed.
func NewPostgresStore(dataSourceName string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := NewStore(db)
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing connection without touching the schema.
func NewStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Migrate creates the meals table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create meals table: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Save inserts m or updates the existing row with the same ID.
func (s *PostgresStore) Save(ctx context.Context, m *Meal) error {
	if err := m.Validate(); err != nil {
		return err
	}

	now := s.now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO meals (id, name, photo_path, rating, location, created_at, updated_at)
		VALUES (:id, :name, :photo_path, :rating, :location, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET name = :name, photo_path = :photo_path, rating = :rating, location = :location, updated_at = :updated_at`,
		m,
	)
	if err != nil {
		return fmt.Errorf("failed to save meal: %w", err)
	}
	return nil
}

// Get returns the meal with the given ID, or nil when there is none.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Meal, error) {
	var m Meal
	err := s.db.GetContext(ctx, &m, selectColumns+" WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	return &m, nil
}

// List returns all meals, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]*Meal, error) {
	meals := []*Meal{}
	if err := s.db.SelectContext(ctx, &meals, selectColumns+" ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	return meals, nil
}

// Delete removes the meal with the given ID. It returns ErrNotFound when no row matched.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM meals WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
