package risk

import (
	"vigil/internal/address"
	"vigil/internal/validation"
)

const (
	ReasonCustomerDuplicate validation.ReasonCode = "risk.customer_duplicate"
	ReasonAddressDuplicate  validation.ReasonCode = "risk.address_duplicate"
	ReasonPOBox             validation.ReasonCode = "risk.po_box"
	ReasonPostalMismatch    validation.ReasonCode = "risk.postal_mismatch"
	ReasonInvalidEmail      validation.ReasonCode = "risk.invalid_email"
	ReasonInvalidPhone      validation.ReasonCode = "risk.invalid_phone"
	ReasonDuplicateOrder    validation.ReasonCode = "risk.duplicate_order"
	ReasonCashOnDelivery    validation.ReasonCode = "risk.cash_on_delivery"
	ReasonHighValue         validation.ReasonCode = "risk.high_value"
	ReasonServerError       validation.ReasonCode = "risk.server_error"
)

// Action is the decision on an evaluated order. It is derived from the
// clamped risk score alone, never set independently.
type Action string

const (
	ActionApprove Action = "approve"
	ActionHold    Action = "hold"
	ActionBlock   Action = "block"
)

// Order is the commerce side of an evaluation request.
type Order struct {
	OrderID       string  `json:"order_id"`
	TotalAmount   float64 `json:"total_amount"`
	Currency      string  `json:"currency,omitempty"`
	PaymentMethod string  `json:"payment_method"`
}

// Customer carries the contact fields the validators inspect.
type Customer struct {
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Country  string `json:"country,omitempty"`
}

// EvaluateRequest is one order to assess.
type EvaluateRequest struct {
	Order           Order         `json:"order"`
	Customer        Customer      `json:"customer"`
	ShippingAddress address.Input `json:"shipping_address"`
}

// DedupeMatch is one fuzzy hit against the reference store. Read-only once
// computed.
type DedupeMatch struct {
	RecordID   string  `json:"record_id"`
	Similarity float64 `json:"similarity"`
	MatchType  string  `json:"match_type"`
}

// Assessment is the evaluation outcome. risk_score is clamped to [0,100].
type Assessment struct {
	RequestID       string        `json:"request_id"`
	OrderID         string        `json:"order_id"`
	RiskScore       int           `json:"risk_score"`
	Action          Action        `json:"action"`
	Tags            []string      `json:"tags"`
	ReasonCodes     []string      `json:"reason_codes"`
	CustomerMatches []DedupeMatch `json:"customer_matches"`
	AddressMatches  []DedupeMatch `json:"address_matches"`
}
