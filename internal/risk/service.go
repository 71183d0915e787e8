// Package risk evaluates orders for fraud: fuzzy dedupe against past
// orders, the field validators, and static business rules reduce to one
// weighted score and an approve/hold/block action.
package risk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	addr "vigil/internal/address"
	"vigil/internal/email"
	"vigil/internal/phone"
	"vigil/internal/platform/config"
	"vigil/internal/risk/metrics"
	audit "vigil/pkg/platform/audit"
)

// The validator surfaces the evaluator needs. The concrete services
// satisfy these; tests plug in canned results.
type (
	EmailValidator interface {
		Validate(ctx context.Context, rawEmail string) (email.Result, error)
	}
	PhoneValidator interface {
		Validate(ctx context.Context, rawNumber, countryHint string, sendOTP bool) (phone.Result, error)
	}
	AddressValidator interface {
		Validate(ctx context.Context, in addr.Input) (addr.Result, error)
	}
)

type Service struct {
	store     Store
	emails    EmailValidator
	phones    PhoneValidator
	addresses AddressValidator
	emitter   audit.Emitter
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	logger    *slog.Logger
	cfg       config.RiskConfig
}

func NewService(
	store Store,
	emails EmailValidator,
	phones PhoneValidator,
	addresses AddressValidator,
	emitter audit.Emitter,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg config.RiskConfig,
) *Service {
	return &Service{
		store:     store,
		emails:    emails,
		phones:    phones,
		addresses: addresses,
		emitter:   emitter,
		metrics:   m,
		tracer:    otel.Tracer("vigil/risk"),
		logger:    logger,
		cfg:       cfg,
	}
}

// Evaluate assesses one order. It always returns a well-formed assessment:
// an internal failure yields action=hold with the server-error reason, so
// the caller fails safe rather than open.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (assessment Assessment) {
	requestID := uuid.NewString()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "risk evaluation panic",
				"order_id", req.Order.OrderID,
				"panic", fmt.Sprint(r),
			)
			assessment = Assessment{
				RequestID:       requestID,
				OrderID:         req.Order.OrderID,
				Action:          ActionHold,
				Tags:            []string{},
				ReasonCodes:     []string{string(ReasonServerError)},
				CustomerMatches: []DedupeMatch{},
				AddressMatches:  []DedupeMatch{},
			}
		}
		s.metrics.IncrementOutcome(string(assessment.Action))
		s.metrics.ObserveScore(assessment.RiskScore)
		s.metrics.ObserveEvaluateLatency(time.Since(start))
	}()

	ctx, span := s.tracer.Start(ctx, "risk.Evaluate",
		trace.WithAttributes(attribute.String("order.id", req.Order.OrderID)),
	)
	defer span.End()

	evidence := s.gatherEvidence(ctx, req)
	signals := s.extractSignals(req, evidence)
	score, tags, reasons := Score(signals)
	action := ActionFor(score, s.cfg.HoldThreshold, s.cfg.BlockThreshold)

	span.SetAttributes(
		attribute.Int("risk.score", score),
		attribute.String("risk.action", string(action)),
	)

	assessment = Assessment{
		RequestID:       requestID,
		OrderID:         req.Order.OrderID,
		RiskScore:       score,
		Action:          action,
		Tags:            tags,
		ReasonCodes:     reasons,
		CustomerMatches: orEmpty(evidence.CustomerMatches),
		AddressMatches:  orEmpty(evidence.AddressMatches),
	}

	s.persistOrder(ctx, req)
	s.emitDecision(ctx, assessment)

	s.logger.InfoContext(ctx, "order evaluated",
		"order_id", req.Order.OrderID,
		"risk_score", score,
		"action", string(action),
		"tags", tags,
	)
	return assessment
}

// extractSignals reduces the gathered evidence and the order's static
// attributes to scoring inputs. A validator that produced nothing (absent
// field, degraded call) contributes no signal.
func (s *Service) extractSignals(req EvaluateRequest, evidence *Evidence) Signals {
	signals := Signals{
		CustomerDuplicate: len(evidence.CustomerMatches) > 0,
		AddressDuplicate:  len(evidence.AddressMatches) > 0,
		DuplicateOrder:    evidence.DuplicateOrder,
		CashOnDelivery:    req.Order.PaymentMethod == "cod",
		HighValue:         req.Order.TotalAmount >= s.cfg.HighValueThreshold,
	}
	if evidence.Address != nil {
		signals.POBox = evidence.Address.POBox
		signals.PostalMismatch = !evidence.Address.PostalCityMatch
	}
	if evidence.Email != nil {
		signals.InvalidEmail = !evidence.Email.Valid
	}
	if evidence.Phone != nil {
		signals.InvalidPhone = !evidence.Phone.Valid
	}
	return signals
}

// persistOrder records the order for future dedupe regardless of the
// decision. The insert is idempotent, so re-evaluations are harmless.
func (s *Service) persistOrder(ctx context.Context, req EvaluateRequest) {
	rec := OrderRecord{
		OrderID:       req.Order.OrderID,
		Email:         req.Customer.Email,
		FullName:      req.Customer.FullName,
		Phone:         req.Customer.Phone,
		Line1:         req.ShippingAddress.Line1,
		City:          req.ShippingAddress.City,
		PostalCode:    req.ShippingAddress.PostalCode,
		Country:       req.ShippingAddress.Country,
		TotalAmount:   req.Order.TotalAmount,
		PaymentMethod: req.Order.PaymentMethod,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.InsertOrder(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "order insert failed", "order_id", rec.OrderID, "error", err)
	}
}

func (s *Service) emitDecision(ctx context.Context, a Assessment) {
	if s.emitter == nil {
		return
	}
	err := s.emitter.Emit(ctx, audit.Event{
		Action:    string(audit.EventOrderEvaluated),
		Subject:   a.OrderID,
		RequestID: a.RequestID,
		Decision:  string(a.Action),
		Score:     a.RiskScore,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "order_id", a.OrderID, "error", err)
	}
}

func orEmpty(matches []DedupeMatch) []DedupeMatch {
	if matches == nil {
		return []DedupeMatch{}
	}
	return matches
}
