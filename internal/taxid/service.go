// Package taxid validates tax identifiers with per-jurisdiction checksum
// algorithms. EU VAT numbers skip local checksums and are confirmed against
// the government registry, shielded by a circuit breaker.
package taxid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/google/uuid"

	"vigil/internal/platform/config"
	"vigil/internal/validation"
	audit "vigil/pkg/platform/audit"
	"vigil/pkg/platform/circuit"
	"vigil/pkg/platform/sentinel"
)

const namespace = "taxid"

var vatFormatRe = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{2,12}$`)

type Service struct {
	store   *validation.Store
	checker VATChecker
	breaker *circuit.Breaker
	emitter audit.Emitter
	logger  *slog.Logger
	cfg     config.TaxIDConfig
	cacheTTL config.CacheConfig
}

// NewService wires the validator. When cfg.VIESDown is set, the real VAT
// checker is replaced with one that always reports an outage, so the
// degraded path can be exercised per instance.
func NewService(store *validation.Store, checker VATChecker, emitter audit.Emitter, logger *slog.Logger, cfg config.TaxIDConfig, cacheCfg config.CacheConfig) *Service {
	if cfg.VIESDown {
		checker = DownChecker()
	}
	return &Service{
		store:    store,
		checker:  checker,
		breaker:  circuit.New("vies", circuit.WithFailureThreshold(3)),
		emitter:  emitter,
		logger:   logger,
		cfg:      cfg,
		cacheTTL: cacheCfg,
	}
}

// Validate dispatches on the declared kind. Checksum kinds are pure and
// total; EU VAT may touch the network. An unknown kind resolves without any
// network access.
func (s *Service) Validate(ctx context.Context, kindStr, value string) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "taxid validator panic", "panic", fmt.Sprint(r))
			result = Result{Kind: ParseKind(kindStr)}
			result.RequestID = uuid.NewString()
			result.AddReason(validation.ReasonServerError)
			result.Finalize()
			err = nil
		}
	}()

	kind := ParseKind(kindStr)
	normalized := strip(value)

	if kind == KindUnsupported {
		r := s.newResult(kind, normalized)
		r.AddReason(ReasonUnsupportedType)
		r.Finalize()
		return r, nil
	}

	fp, err := validation.Fingerprint(namespace, struct {
		Kind  Kind   `json:"kind"`
		Value string `json:"value"`
	}{Kind: kind, Value: normalized})
	if err != nil {
		return Result{}, err
	}

	res, _, err := validation.GetOrComputeJSON(ctx, s.store, namespace, fp, s.cacheTTL.ResultTTL,
		func(ctx context.Context) (Result, error) {
			if kind == KindEUVAT {
				return s.checkEUVAT(ctx, normalized)
			}
			return s.checkLocal(kind, normalized), nil
		},
	)
	if err != nil {
		// A registry outage is degraded, not failed, and the degraded
		// answer is never cached.
		if errors.Is(err, sentinel.ErrUnavailable) {
			r := s.newResult(KindEUVAT, normalized)
			r.CountryCode = vatCountry(normalized)
			r.AddReason(ReasonVATUnavailable)
			r.Finalize()
			return r, nil
		}
		return Result{}, err
	}
	return res, nil
}

func (s *Service) newResult(kind Kind, normalized string) Result {
	r := Result{Kind: kind, Normalized: normalized}
	r.RequestID = uuid.NewString()
	r.TTLSeconds = int(s.cacheTTL.ResultTTL.Seconds())
	return r
}

func (s *Service) checkLocal(kind Kind, normalized string) Result {
	r := s.newResult(kind, normalized)

	check, ok := checks[kind]
	if !ok {
		r.AddReason(ReasonUnsupportedType)
		r.Finalize()
		return r
	}

	if code := check(normalized); code != "" {
		r.AddReason(code)
	} else {
		r.Valid = true
	}
	r.Finalize()
	return r
}

func (s *Service) checkEUVAT(ctx context.Context, normalized string) (Result, error) {
	r := s.newResult(KindEUVAT, normalized)

	if !vatFormatRe.MatchString(normalized) {
		r.AddReason(ReasonInvalidFormat)
		r.Finalize()
		return r, nil
	}
	r.CountryCode = vatCountry(normalized)

	if s.breaker.IsOpen() {
		return Result{}, fmt.Errorf("vies circuit open: %w", sentinel.ErrUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.VIESTimeout)
	defer cancel()

	valid, err := s.checker.CheckVAT(callCtx, r.CountryCode, normalized[2:])
	if err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "vies circuit opened", "error", err)
			s.emit(ctx, audit.EventVATCircuitOpened, r.RequestID)
		}
		return Result{}, fmt.Errorf("vat check: %w", err)
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "vies circuit closed")
		s.emit(ctx, audit.EventVATCircuitClosed, r.RequestID)
	}

	if valid {
		r.Valid = true
	} else {
		r.AddReason(ReasonInvalidChecksum)
	}
	r.Finalize()
	return r, nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, requestID string) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, audit.Event{
		Action:    string(action),
		Subject:   "vies",
		RequestID: requestID,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err)
	}
}

func vatCountry(normalized string) string {
	if len(normalized) < 2 {
		return ""
	}
	return normalized[:2]
}
