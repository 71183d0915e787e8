package http

import (
	"strings"

	"vigil/internal/address"
	"vigil/internal/risk"
	dErrors "vigil/pkg/domain-errors"
)

type emailRequest struct {
	Email string `json:"email"`
}

func (r *emailRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	return nil
}

type phoneRequest struct {
	Phone   string `json:"phone"`
	Country string `json:"country,omitempty"`
	SendOTP bool   `json:"send_otp,omitempty"`
}

func (r *phoneRequest) Validate() error {
	if strings.TrimSpace(r.Phone) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "phone is required")
	}
	return nil
}

type phoneVerifyRequest struct {
	Handle string `json:"verification_handle"`
	Code   string `json:"code"`
}

func (r *phoneVerifyRequest) Validate() error {
	if r.Handle == "" || r.Code == "" {
		return dErrors.New(dErrors.CodeBadRequest, "verification_handle and code are required")
	}
	return nil
}

type taxIDRequest struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func (r *taxIDRequest) Validate() error {
	if strings.TrimSpace(r.Kind) == "" || strings.TrimSpace(r.Value) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "kind and value are required")
	}
	return nil
}

type addressRequest struct {
	address.Input
}

func (r *addressRequest) Validate() error {
	if strings.TrimSpace(r.Line1) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "line1 is required")
	}
	if len(strings.TrimSpace(r.Country)) != 2 {
		return dErrors.New(dErrors.CodeBadRequest, "country must be an ISO-2 code")
	}
	return nil
}

type evaluateRequest struct {
	risk.EvaluateRequest
}

func (r *evaluateRequest) Validate() error {
	if strings.TrimSpace(r.Order.OrderID) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "order.order_id is required")
	}
	if strings.TrimSpace(r.Customer.FullName) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "customer.full_name is required")
	}
	if strings.TrimSpace(r.ShippingAddress.Line1) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "shipping_address.line1 is required")
	}
	return nil
}
