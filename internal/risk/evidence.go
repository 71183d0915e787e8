package risk

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	addr "vigil/internal/address"
	"vigil/internal/email"
	"vigil/internal/phone"
)

// Evidence is everything the evaluator gathers before scoring. Fields stay
// nil/zero when a source had nothing to say or failed; failures degrade the
// score inputs instead of aborting the evaluation.
type Evidence struct {
	CustomerMatches []DedupeMatch
	AddressMatches  []DedupeMatch
	Email           *email.Result
	Phone           *phone.Result
	Address         *addr.Result
	DuplicateOrder  bool
	FetchedAt       time.Time
}

// gatherEvidence fans the sub-calls out in parallel under one shared
// timeout. The calls have no ordering dependency on each other, but all of
// them complete (or time out) before scoring starts.
func (s *Service) gatherEvidence(ctx context.Context, req EvaluateRequest) *Evidence {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EvidenceTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	evidence := &Evidence{FetchedAt: time.Now()}

	g.Go(func() error {
		start := time.Now()
		matches, err := s.store.MatchCustomers(ctx, req.Customer.Email, req.Customer.FullName, customerSimilarityThreshold, dedupeLimit)
		s.metrics.ObserveEvidenceLatency("customer_dedupe", time.Since(start))

		if err != nil {
			s.logger.WarnContext(ctx, "customer dedupe failed", "error", err)
			return nil
		}
		evidence.CustomerMatches = matches
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		matches, err := s.store.MatchAddresses(ctx, req.ShippingAddress, addressSimilarityThreshold, dedupeLimit)
		s.metrics.ObserveEvidenceLatency("address_dedupe", time.Since(start))

		if err != nil {
			s.logger.WarnContext(ctx, "address dedupe failed", "error", err)
			return nil
		}
		evidence.AddressMatches = matches
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		result, err := s.addresses.Validate(ctx, req.ShippingAddress)
		s.metrics.ObserveEvidenceLatency("address_validate", time.Since(start))

		if err != nil {
			s.logger.WarnContext(ctx, "address validation failed", "error", err)
			return nil
		}
		evidence.Address = &result
		return nil
	})

	if req.Customer.Email != "" {
		g.Go(func() error {
			start := time.Now()
			result, err := s.emails.Validate(ctx, req.Customer.Email)
			s.metrics.ObserveEvidenceLatency("email_validate", time.Since(start))

			if err != nil {
				s.logger.WarnContext(ctx, "email validation failed", "error", err)
				return nil
			}
			evidence.Email = &result
			return nil
		})
	}

	if req.Customer.Phone != "" {
		g.Go(func() error {
			start := time.Now()
			result, err := s.phones.Validate(ctx, req.Customer.Phone, req.Customer.Country, false)
			s.metrics.ObserveEvidenceLatency("phone_validate", time.Since(start))

			if err != nil {
				s.logger.WarnContext(ctx, "phone validation failed", "error", err)
				return nil
			}
			evidence.Phone = &result
			return nil
		})
	}

	g.Go(func() error {
		start := time.Now()
		exists, err := s.store.OrderExists(ctx, req.Order.OrderID)
		s.metrics.ObserveEvidenceLatency("order_dedupe", time.Since(start))

		if err != nil {
			s.logger.WarnContext(ctx, "duplicate order check failed", "error", err)
			return nil
		}
		evidence.DuplicateOrder = exists
		return nil
	})

	// Sub-failures already degraded in place, so Wait only reports
	// context-level trouble.
	_ = g.Wait()
	return evidence
}
