// Package phone validates phone numbers against the international numbering
// plan and optionally verifies possession through a one-time passcode.
package phone

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"

	"vigil/internal/platform/config"
	"vigil/internal/validation"
	"vigil/pkg/platform/audit"
)

const namespace = "phone"

type Service struct {
	store     *validation.Store
	messenger Messenger
	emitter   audit.Emitter
	logger    *slog.Logger
	cfg       config.PhoneConfig
	cacheTTL  config.CacheConfig
}

func NewService(store *validation.Store, messenger Messenger, emitter audit.Emitter, logger *slog.Logger, cfg config.PhoneConfig, cacheCfg config.CacheConfig) *Service {
	return &Service{
		store:     store,
		messenger: messenger,
		emitter:   emitter,
		logger:    logger,
		cfg:       cfg,
		cacheTTL:  cacheCfg,
	}
}

// Validate parses the number against an optional ISO-2 country hint. When
// sendOTP is set and the number parsed, a passcode is dispatched; dispatch
// failure is a reason code, not a validation failure.
func (s *Service) Validate(ctx context.Context, rawNumber, countryHint string, sendOTP bool) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "phone validator panic", "panic", fmt.Sprint(r))
			result = Result{}
			result.RequestID = uuid.NewString()
			result.AddReason(validation.ReasonServerError)
			result.Finalize()
			err = nil
		}
	}()

	number := strings.TrimSpace(rawNumber)
	hint := strings.ToUpper(strings.TrimSpace(countryHint))
	if hint == "" {
		hint = strings.ToUpper(s.cfg.DefaultRegion)
	}

	// OTP dispatch is a side effect, so only the pure parse result is
	// cacheable. Requests without dispatch go through the cache; requests
	// with dispatch always compute.
	if !sendOTP {
		fp, err := validation.Fingerprint(namespace, struct {
			Number string `json:"number"`
			Hint   string `json:"hint"`
		}{Number: number, Hint: hint})
		if err != nil {
			return Result{}, err
		}

		res, _, err := validation.GetOrComputeJSON(ctx, s.store, namespace, fp, s.cacheTTL.ResultTTL,
			func(ctx context.Context) (Result, error) {
				return s.parse(number, hint), nil
			},
		)
		if err != nil {
			return Result{}, err
		}
		return res, nil
	}

	res := s.parse(number, hint)
	if res.Valid {
		handle, sendErr := s.messenger.SendOTP(ctx, res.E164)
		if sendErr != nil {
			s.logger.WarnContext(ctx, "otp dispatch failed", "error", sendErr)
			res.AddReason(ReasonOTPSendFailed)
			res.Finalize()
		} else {
			res.VerificationHandle = handle
			s.emitDispatched(ctx, res.RequestID)
		}
	}
	return res, nil
}

func (s *Service) emitDispatched(ctx context.Context, requestID string) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, audit.Event{
		Action:    string(audit.EventOTPDispatched),
		Subject:   "otp",
		RequestID: requestID,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(audit.EventOTPDispatched), "error", err)
	}
}

// CheckOTP confirms a previously dispatched passcode.
func (s *Service) CheckOTP(ctx context.Context, handle, code string) (VerifyOutcome, error) {
	approved, err := s.messenger.CheckOTP(ctx, handle, code)
	if err != nil {
		return VerifyOutcome{}, err
	}
	return VerifyOutcome{RequestID: uuid.NewString(), Approved: approved}, nil
}

func (s *Service) parse(number, hint string) Result {
	r := Result{}
	r.RequestID = uuid.NewString()
	r.TTLSeconds = int(s.cacheTTL.ResultTTL.Seconds())

	if number == "" {
		r.AddReason(ReasonInvalidFormat)
		r.Finalize()
		return r
	}

	parsed, err := phonenumbers.Parse(number, hint)
	if err != nil {
		r.AddReason(ReasonInvalidFormat)
		r.Finalize()
		return r
	}

	if !phonenumbers.IsValidNumber(parsed) {
		r.AddReason(ReasonInvalidNumber)
		r.Finalize()
		return r
	}

	r.Valid = true
	r.E164 = phonenumbers.Format(parsed, phonenumbers.E164)
	r.Country = phonenumbers.GetRegionCodeForNumber(parsed)
	r.Finalize()
	return r
}
