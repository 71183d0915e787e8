package risk

import (
	"context"
	"sort"
	"strings"
	"sync"

	"vigil/internal/address"
	pkgstrings "vigil/pkg/platform/strings"
)

// MemoryStore is the in-process reference store. It mirrors the Postgres
// store's matching semantics with the pure-Go trigram implementation, so
// tests exercise the same decision paths.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]OrderRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]OrderRecord)}
}

func (s *MemoryStore) MatchCustomers(_ context.Context, email, fullName string, threshold float64, limit int) ([]DedupeMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []DedupeMatch
	for id, rec := range s.orders {
		if email != "" && strings.EqualFold(rec.Email, email) {
			matches = append(matches, DedupeMatch{RecordID: id, Similarity: 1, MatchType: "exact_email"})
			continue
		}
		if fullName == "" || rec.FullName == "" {
			continue
		}
		if sim := pkgstrings.TrigramSimilarity(rec.FullName, fullName); sim >= threshold {
			matches = append(matches, DedupeMatch{RecordID: id, Similarity: sim, MatchType: "name_trigram"})
		}
	}
	return top(matches, limit), nil
}

func (s *MemoryStore) MatchAddresses(_ context.Context, in address.Input, threshold float64, limit int) ([]DedupeMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := addressKey(in.Line1, in.City, in.PostalCode, in.Country)

	var matches []DedupeMatch
	for id, rec := range s.orders {
		if in.PostalCode != "" &&
			strings.EqualFold(rec.PostalCode, in.PostalCode) &&
			strings.EqualFold(rec.City, in.City) &&
			strings.EqualFold(rec.Country, in.Country) {
			matches = append(matches, DedupeMatch{RecordID: id, Similarity: 1, MatchType: "exact_postal"})
			continue
		}
		candidate := addressKey(rec.Line1, rec.City, rec.PostalCode, rec.Country)
		if sim := pkgstrings.TrigramSimilarity(candidate, query); sim >= threshold {
			matches = append(matches, DedupeMatch{RecordID: id, Similarity: sim, MatchType: "address_trigram"})
		}
	}
	return top(matches, limit), nil
}

func (s *MemoryStore) OrderExists(_ context.Context, orderID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.orders[orderID]
	return ok, nil
}

func (s *MemoryStore) InsertOrder(_ context.Context, rec OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[rec.OrderID]; ok {
		return nil
	}
	s.orders[rec.OrderID] = rec
	return nil
}

func addressKey(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// top sorts by similarity descending (record id as tiebreaker for
// determinism) and truncates.
func top(matches []DedupeMatch, limit int) []DedupeMatch {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].RecordID < matches[j].RecordID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
