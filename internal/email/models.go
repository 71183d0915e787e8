package email

import "vigil/internal/validation"

const (
	ReasonInvalidFormat    validation.ReasonCode = "email.invalid_format"
	ReasonMXNotFound       validation.ReasonCode = "email.mx_not_found"
	ReasonDNSTimeout       validation.ReasonCode = "email.dns_timeout"
	ReasonDisposableDomain validation.ReasonCode = "email.disposable_domain"
)

// DisposableSet names the cache set holding known disposable domains.
const DisposableSet = "email:disposable"

// Result is the email validation outcome. valid requires a wellformed
// address, a resolvable domain, and a non-disposable domain.
type Result struct {
	validation.Result
	NormalizedEmail string `json:"normalized_email"`
	Domain          string `json:"domain"`
	MXFound         bool   `json:"mx_found"`
	Disposable      bool   `json:"disposable"`
}

// domainFacts are the per-domain observations shared by every address at
// the same domain. They are cached under their own key with a longer TTL
// than the per-address result.
type domainFacts struct {
	Domain     string `json:"domain"`
	MXFound    bool   `json:"mx_found"`
	DNSTimeout bool   `json:"dns_timeout"`
	Disposable bool   `json:"disposable"`
}
