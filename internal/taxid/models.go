package taxid

import "vigil/internal/validation"

const (
	ReasonInvalidFormat     validation.ReasonCode = "taxid.invalid_format"
	ReasonInvalidChecksum   validation.ReasonCode = "taxid.invalid_checksum"
	ReasonUnsupportedType   validation.ReasonCode = "taxid.unsupported_type"
	ReasonVATUnavailable    validation.ReasonCode = "taxid.vat_service_unavailable"
)

// Result is the tax-identifier validation outcome.
type Result struct {
	validation.Result
	Kind       Kind   `json:"kind"`
	Normalized string `json:"normalized"`
	// CountryCode is set for EU VAT numbers only.
	CountryCode string `json:"country_code,omitempty"`
}
