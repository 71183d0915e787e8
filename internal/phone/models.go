package phone

import "vigil/internal/validation"

const (
	ReasonInvalidFormat validation.ReasonCode = "phone.invalid_format"
	ReasonInvalidNumber validation.ReasonCode = "phone.invalid_number"
	ReasonOTPSendFailed validation.ReasonCode = "phone.otp_send_failed"
)

// Result is the phone validation outcome. E164 is set only when the number
// parsed; VerificationHandle only when an OTP dispatch was requested and
// succeeded.
type Result struct {
	validation.Result
	E164               string `json:"e164,omitempty"`
	Country            string `json:"country,omitempty"`
	VerificationHandle string `json:"verification_handle,omitempty"`
}

// VerifyOutcome is the answer to an OTP check.
type VerifyOutcome struct {
	RequestID string `json:"request_id"`
	Approved  bool   `json:"approved"`
}
