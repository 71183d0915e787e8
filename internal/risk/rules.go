package risk

import "vigil/internal/validation"

// Signals are the boolean facts extracted from the gathered evidence.
// Scoring is a pure function of this struct, no I/O and no side effects.
type Signals struct {
	CustomerDuplicate bool
	AddressDuplicate  bool
	POBox             bool
	PostalMismatch    bool
	InvalidEmail      bool
	InvalidPhone      bool
	DuplicateOrder    bool
	CashOnDelivery    bool
	HighValue         bool
}

type signalRule struct {
	triggered func(Signals) bool
	points    int
	tag       string
	reason    validation.ReasonCode
}

// signalRules fixes both the weights and the order in which tags and
// reason codes appear on the assessment.
var signalRules = []signalRule{
	{func(s Signals) bool { return s.CustomerDuplicate }, 20, "customer_duplicate", ReasonCustomerDuplicate},
	{func(s Signals) bool { return s.AddressDuplicate }, 15, "address_duplicate", ReasonAddressDuplicate},
	{func(s Signals) bool { return s.POBox }, 30, "po_box", ReasonPOBox},
	{func(s Signals) bool { return s.PostalMismatch }, 10, "postal_mismatch", ReasonPostalMismatch},
	{func(s Signals) bool { return s.InvalidEmail }, 25, "invalid_email", ReasonInvalidEmail},
	{func(s Signals) bool { return s.InvalidPhone }, 25, "invalid_phone", ReasonInvalidPhone},
	{func(s Signals) bool { return s.DuplicateOrder }, 50, "duplicate_order", ReasonDuplicateOrder},
	{func(s Signals) bool { return s.CashOnDelivery }, 20, "cod", ReasonCashOnDelivery},
	{func(s Signals) bool { return s.HighValue }, 15, "high_value", ReasonHighValue},
}

// Score sums the fixed weight of every triggered signal and clamps the
// total to [0,100]. Tags and reason codes come back in rule order.
func Score(s Signals) (score int, tags []string, reasons []string) {
	tags = []string{}
	reasons = []string{}
	for _, rule := range signalRules {
		if !rule.triggered(s) {
			continue
		}
		score += rule.points
		tags = append(tags, rule.tag)
		reasons = append(reasons, string(rule.reason))
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score, tags, reasons
}

// ActionFor maps the clamped score onto a decision. Monotonic by
// construction: a higher score never yields a softer action.
func ActionFor(score, holdThreshold, blockThreshold int) Action {
	switch {
	case score > blockThreshold:
		return ActionBlock
	case score > holdThreshold:
		return ActionHold
	default:
		return ActionApprove
	}
}
