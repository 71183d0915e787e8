//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers Postgres instance with the
// reference schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// schema holds everything the stores need: the dedupe table with its
// trigram indexes, the postal gazetteer, and the per-country bounding boxes.
const schema = `
CREATE EXTENSION IF NOT EXISTS pg_trgm;

CREATE TABLE orders (
	order_id       TEXT PRIMARY KEY,
	email          TEXT NOT NULL DEFAULT '',
	full_name      TEXT NOT NULL,
	phone          TEXT NOT NULL DEFAULT '',
	line1          TEXT NOT NULL DEFAULT '',
	city           TEXT NOT NULL DEFAULT '',
	postal_code    TEXT NOT NULL DEFAULT '',
	country        TEXT NOT NULL DEFAULT '',
	total_amount   NUMERIC NOT NULL DEFAULT 0,
	payment_method TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX orders_full_name_trgm ON orders USING gin (full_name gin_trgm_ops);
CREATE INDEX orders_address_trgm ON orders USING gin (concat_ws(' ', line1, city, postal_code, country) gin_trgm_ops);

CREATE TABLE gazetteer (
	country     TEXT NOT NULL,
	postal_code TEXT NOT NULL,
	city        TEXT NOT NULL,
	admin1      TEXT NOT NULL DEFAULT '',
	admin2      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX gazetteer_lookup ON gazetteer (country, postal_code);

CREATE TABLE country_bounds (
	country TEXT PRIMARY KEY,
	min_lat DOUBLE PRECISION NOT NULL,
	max_lat DOUBLE PRECISION NOT NULL,
	min_lng DOUBLE PRECISION NOT NULL,
	max_lng DOUBLE PRECISION NOT NULL
);
`

// NewPostgresContainer starts a Postgres container, applies the schema, and
// returns an open connection pool.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("vigil_test"),
		tcpostgres.WithUsername("vigil"),
		tcpostgres.WithPassword("vigil"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateTables empties the named tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE %s", strings.Join(tables, ", ")))
	return err
}
