package store

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestStore wraps a Store with test cleanup functionality.
type TestStore struct {
	*Store
	pool *pgxpool.Pool
}

// NewTestStore creates a new Store connected to the test database named by
// the TEST_DATABASE_URL environment variable. Tests are skipped when the
// variable is unset so the suite can run without Postgres.
func NewTestStore(t *testing.T) *TestStore {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping store tests")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("failed to ping test database: %v", err)
	}

	store := NewStore(pool)
	if err := store.EnsureSchema(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("failed to ensure schema: %v", err)
	}

	return &TestStore{
		Store: store,
		pool:  pool,
	}
}

// Close closes the database connection pool.
func (ts *TestStore) Close() {
	ts.pool.Close()
}

// Cleanup removes all data from the confirmations table.
func (ts *TestStore) Cleanup(t *testing.T) {
	t.Helper()

	_, err := ts.pool.Exec(context.Background(), "TRUNCATE TABLE confirmations")
	if err != nil {
		t.Fatalf("failed to clean up test data: %v", err)
	}
}
