// Package validation holds the contract shared by every validator: reason
// codes, the result envelope, fingerprinting, and the read-through result
// cache. Validators embed Result in their own result types and append
// reason codes in evaluation order.
package validation

import (
	pkgstrings "vigil/pkg/platform/strings"
)

// ReasonCode is a stable, namespaced string of the form "domain.condition"
// (e.g. "address.po_box"). The vocabulary is append-only: a code is never
// reused for a different meaning.
type ReasonCode string

// Codes shared across validators. Validator-specific codes live next to
// their validator.
const (
	// ReasonServerError reports an unexpected failure inside a validator.
	// The caller still receives a well-formed result.
	ReasonServerError ReasonCode = "server_error"
)

// Result is the common portion of every validation result. reason_codes is
// an ordered set: order reflects evaluation order, not severity, and
// valid=false implies it is non-empty.
type Result struct {
	RequestID   string   `json:"request_id"`
	Valid       bool     `json:"valid"`
	ReasonCodes []string `json:"reason_codes"`
	TTLSeconds  int      `json:"ttl_seconds"`
}

// AddReason appends a reason code, keeping first-seen order.
func (r *Result) AddReason(code ReasonCode) {
	r.ReasonCodes = append(r.ReasonCodes, string(code))
}

// HasReason reports whether the code was recorded.
func (r *Result) HasReason(code ReasonCode) bool {
	for _, c := range r.ReasonCodes {
		if c == string(code) {
			return true
		}
	}
	return false
}

// Finalize enforces the result invariants: reason codes are deduped
// preserving order, the slice is never nil (the JSON contract is an empty
// array, not null), and an invalid result without an explanation gets the
// generic server-error code rather than violating the contract.
func (r *Result) Finalize() {
	r.ReasonCodes = pkgstrings.DedupeAndTrim(r.ReasonCodes)
	if r.ReasonCodes == nil {
		r.ReasonCodes = []string{}
	}
	if !r.Valid && len(r.ReasonCodes) == 0 {
		r.AddReason(ReasonServerError)
	}
}
