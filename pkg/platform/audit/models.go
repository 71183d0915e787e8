// Package audit defines the audit event model for the validation engine.
// Validators and the risk evaluator emit events; stores and sinks fan them
// out. Keep the model transport-agnostic so the same event can land in
// memory (tests), Postgres, or Kafka.
package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose, which
// drives retention and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance, such
	// as risk decisions on orders. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine validation activity. Short
	// retention, may be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event captures one validation or decision action.
type Event struct {
	ID        string
	Category  EventCategory
	Timestamp time.Time
	// Action is one of the AuditEvent constants.
	Action string
	// Subject identifies what was evaluated: an order ID, a fingerprint,
	// a domain. Never a raw identity value.
	Subject string
	// RequestID correlates the event with the originating request.
	RequestID string
	Decision  string
	Reason    string
	Score     int
}

// AuditEvent enumerates the actions this engine emits.
type AuditEvent string

const (
	EventOrderEvaluated     AuditEvent = "order_evaluated"
	EventValidationComputed AuditEvent = "validation_computed"
	EventOTPDispatched      AuditEvent = "otp_dispatched"
	EventVATCircuitOpened   AuditEvent = "vat_circuit_opened"
	EventVATCircuitClosed   AuditEvent = "vat_circuit_closed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventOrderEvaluated:     CategoryCompliance,
	EventValidationComputed: CategoryOperations,
	EventOTPDispatched:      CategoryOperations,
	EventVATCircuitOpened:   CategoryOperations,
	EventVATCircuitClosed:   CategoryOperations,
}

// Category resolves the event's routing category; unknown actions are
// treated as operations so they are never silently dropped.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is the narrow interface services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
