package risk

import (
	"context"
	"time"

	"vigil/internal/address"
)

// Thresholds and limits for the fuzzy dedupe queries. The trigram cutoffs
// differ because short person names match spuriously at levels that long
// concatenated addresses do not.
const (
	customerSimilarityThreshold = 0.3
	addressSimilarityThreshold  = 0.6
	dedupeLimit                 = 3
)

// OrderRecord is what gets persisted for every evaluated order, feeding
// future dedupe lookups.
type OrderRecord struct {
	OrderID       string
	Email         string
	FullName      string
	Phone         string
	Line1         string
	City          string
	PostalCode    string
	Country       string
	TotalAmount   float64
	PaymentMethod string
	CreatedAt     time.Time
}

// Store is the reference database behind the evaluator: fuzzy lookups over
// past customers and addresses, the duplicate-order check, and one
// idempotent insert.
type Store interface {
	// MatchCustomers finds past customers by exact email or name trigram
	// similarity above the threshold, best matches first, at most limit.
	MatchCustomers(ctx context.Context, email, fullName string, threshold float64, limit int) ([]DedupeMatch, error)

	// MatchAddresses finds past addresses by exact postal/city/country or
	// trigram similarity of the concatenated address above the threshold.
	MatchAddresses(ctx context.Context, in address.Input, threshold float64, limit int) ([]DedupeMatch, error)

	// OrderExists reports whether the order identifier was seen before.
	OrderExists(ctx context.Context, orderID string) (bool, error)

	// InsertOrder records the order, silently keeping the first write when
	// the identifier already exists.
	InsertOrder(ctx context.Context, rec OrderRecord) error
}
