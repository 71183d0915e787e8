package address

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// PostgresGazetteer reads the postal reference table.
type PostgresGazetteer struct {
	db *sql.DB
}

func NewPostgresGazetteer(db *sql.DB) *PostgresGazetteer {
	return &PostgresGazetteer{db: db}
}

func (g *PostgresGazetteer) Match(ctx context.Context, country, postalCode string, names ...string) (bool, error) {
	if len(names) == 0 {
		return false, nil
	}

	lowered := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			lowered = append(lowered, strings.ToLower(n))
		}
	}
	if len(lowered) == 0 {
		return false, nil
	}

	var exists bool
	row := g.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM gazetteer
			WHERE country = upper($1)
			  AND lower(postal_code) = lower($2)
			  AND (lower(city) = ANY($3) OR lower(admin1) = ANY($3) OR lower(admin2) = ANY($3))
		)`,
		country, postalCode, pq.Array(lowered),
	)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("gazetteer match: %w", err)
	}
	return exists, nil
}

// PostgresBounds reads country bounding boxes.
type PostgresBounds struct {
	db *sql.DB
}

func NewPostgresBounds(db *sql.DB) *PostgresBounds {
	return &PostgresBounds{db: db}
}

func (b *PostgresBounds) Bounds(ctx context.Context, country string) (BoundingBox, bool, error) {
	var box BoundingBox
	err := b.db.QueryRowContext(ctx, `
		SELECT min_lat, max_lat, min_lng, max_lng
		FROM country_bounds
		WHERE country = upper($1)`,
		country,
	).Scan(&box.MinLat, &box.MaxLat, &box.MinLng, &box.MaxLng)
	if errors.Is(err, sql.ErrNoRows) {
		return BoundingBox{}, false, nil
	}
	if err != nil {
		return BoundingBox{}, false, fmt.Errorf("country bounds: %w", err)
	}
	return box, true, nil
}
