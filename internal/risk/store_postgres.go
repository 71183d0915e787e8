package risk

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"vigil/internal/address"
)

// PostgresStore keeps evaluated orders in PostgreSQL and runs the fuzzy
// lookups on pg_trgm's similarity(). The orders table needs the pg_trgm
// extension and GIN trigram indexes on full_name and the address concat.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) MatchCustomers(ctx context.Context, email, fullName string, threshold float64, limit int) ([]DedupeMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id,
		       CASE WHEN lower(email) = lower($1) AND $1 <> '' THEN 1.0
		            ELSE similarity(full_name, $2) END AS sim,
		       CASE WHEN lower(email) = lower($1) AND $1 <> '' THEN 'exact_email'
		            ELSE 'name_trigram' END AS match_type
		FROM orders
		WHERE (lower(email) = lower($1) AND $1 <> '')
		   OR similarity(full_name, $2) >= $3
		ORDER BY sim DESC, order_id
		LIMIT $4`,
		email, fullName, threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("match customers: %w", err)
	}
	return scanMatches(rows)
}

func (s *PostgresStore) MatchAddresses(ctx context.Context, in address.Input, threshold float64, limit int) ([]DedupeMatch, error) {
	concat := strings.TrimSpace(strings.Join([]string{in.Line1, in.City, in.PostalCode, in.Country}, " "))

	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id,
		       CASE WHEN lower(postal_code) = lower($1) AND lower(city) = lower($2) AND lower(country) = lower($3) AND $1 <> '' THEN 1.0
		            ELSE similarity(concat_ws(' ', line1, city, postal_code, country), $4) END AS sim,
		       CASE WHEN lower(postal_code) = lower($1) AND lower(city) = lower($2) AND lower(country) = lower($3) AND $1 <> '' THEN 'exact_postal'
		            ELSE 'address_trigram' END AS match_type
		FROM orders
		WHERE (lower(postal_code) = lower($1) AND lower(city) = lower($2) AND lower(country) = lower($3) AND $1 <> '')
		   OR similarity(concat_ws(' ', line1, city, postal_code, country), $4) >= $5
		ORDER BY sim DESC, order_id
		LIMIT $6`,
		in.PostalCode, in.City, in.Country, concat, threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("match addresses: %w", err)
	}
	return scanMatches(rows)
}

func (s *PostgresStore) OrderExists(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE order_id = $1)`, orderID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("order exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) InsertOrder(ctx context.Context, rec OrderRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (order_id, email, full_name, phone, line1, city, postal_code, country, total_amount, payment_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (order_id) DO NOTHING`,
		rec.OrderID, rec.Email, rec.FullName, rec.Phone, rec.Line1, rec.City,
		rec.PostalCode, rec.Country, rec.TotalAmount, rec.PaymentMethod, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func scanMatches(rows *sql.Rows) ([]DedupeMatch, error) {
	defer rows.Close()

	var matches []DedupeMatch
	for rows.Next() {
		var m DedupeMatch
		if err := rows.Scan(&m.RecordID, &m.Similarity, &m.MatchType); err != nil {
			return nil, fmt.Errorf("scan dedupe match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dedupe matches: %w", err)
	}
	return matches, nil
}
