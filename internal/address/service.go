// Package address validates postal addresses: normalization, P.O.-box
// detection, postal-code cross-reference, confidence-weighted geocoding,
// country-bounds check, and the final deliverability decision.
package address

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"vigil/internal/address/geocode"
	"vigil/internal/platform/config"
	"vigil/internal/validation"
)

const namespace = "address"

// Geocoder is the resolved chain the service consults. *geocode.Cascade
// satisfies it; tests plug in fixed answers.
type Geocoder interface {
	Geocode(ctx context.Context, query string) *geocode.Candidate
}

type Service struct {
	store     *validation.Store
	parser    Parser
	gazetteer Gazetteer
	bounds    BoundsStore
	geocoder  Geocoder
	logger    *slog.Logger
	cfg       config.AddressConfig
	cacheTTL  config.CacheConfig
}

func NewService(
	store *validation.Store,
	parser Parser,
	gazetteer Gazetteer,
	bounds BoundsStore,
	geocoder Geocoder,
	logger *slog.Logger,
	cfg config.AddressConfig,
	cacheCfg config.CacheConfig,
) *Service {
	return &Service{
		store:     store,
		parser:    parser,
		gazetteer: gazetteer,
		bounds:    bounds,
		geocoder:  geocoder,
		logger:    logger,
		cfg:       cfg,
		cacheTTL:  cacheCfg,
	}
}

// NewCascade assembles the provider chain from configuration: paid primary
// when configured, then the free provider, then the secondary fallback when
// enabled.
func NewCascade(logger *slog.Logger, cfg config.AddressConfig) *geocode.Cascade {
	return geocode.NewCascade(logger,
		geocode.NewPrimaryProvider(cfg.PrimaryGeocoderURL, cfg.PrimaryGeocoderKey, cfg.PrimaryConfidence, cfg.GeocoderClientHeader, cfg.GeocoderTimeout),
		geocode.NewFreeProvider(cfg.FreeGeocoderURL, cfg.FreeConfidence, cfg.GeocoderClientHeader, cfg.GeocoderTimeout),
		geocode.NewFallbackProvider(cfg.FallbackGeocoderURL, cfg.FallbackGeocoderKey, cfg.FallbackEnabled, cfg.FallbackConfidence, cfg.GeocoderClientHeader, cfg.GeocoderTimeout),
	)
}

// Validate runs the full pipeline. Geocode failures, postal mismatches, and
// out-of-bounds hits append advisory reason codes; only the decision step
// determines validity.
func (s *Service) Validate(ctx context.Context, in Input) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "address validator panic", "panic", fmt.Sprint(r))
			result = Result{Normalized: clean(in)}
			result.RequestID = uuid.NewString()
			result.AddReason(validation.ReasonServerError)
			result.Finalize()
			err = nil
		}
	}()

	normalized, parserFailed := Normalize(ctx, s.parser, in)

	fp, err := validation.Fingerprint(namespace, normalized)
	if err != nil {
		return Result{}, err
	}

	res, _, err := validation.GetOrComputeJSON(ctx, s.store, namespace, fp, s.cacheTTL.ResultTTL,
		func(ctx context.Context) (Result, error) {
			return s.compute(ctx, normalized, parserFailed), nil
		},
	)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (s *Service) compute(ctx context.Context, normalized Input, parserFailed bool) Result {
	r := Result{Normalized: normalized}
	r.RequestID = uuid.NewString()
	r.TTLSeconds = int(s.cacheTTL.ResultTTL.Seconds())

	if parserFailed {
		r.AddReason(ReasonParserFailed)
	}

	r.POBox = IsPOBox(normalized.Line1, normalized.Line2)
	if r.POBox {
		r.AddReason(ReasonPOBox)
	}

	r.PostalCityMatch = s.postalCityMatch(ctx, normalized)
	if !r.PostalCityMatch {
		r.AddReason(ReasonPostalCityMismatch)
	}

	candidate := s.geocoder.Geocode(ctx, normalized.OneLine())
	if candidate == nil {
		r.AddReason(ReasonGeocodeFailed)
	} else {
		r.Geocode = &GeoCandidate{
			Lat:        candidate.Lat,
			Lng:        candidate.Lng,
			Confidence: candidate.Confidence,
			Source:     candidate.Source,
		}
	}

	inBounds := s.inBounds(ctx, normalized.Country, r.Geocode)
	if !inBounds {
		r.AddReason(ReasonOutOfBounds)
	}

	highConfidence := r.Geocode != nil && r.Geocode.Confidence >= s.cfg.HighConfidence

	// A high-confidence geocode overrides a gazetteer mismatch: reference
	// tables go stale faster than the paid geocoders do. The mismatch code
	// stays on the result as an advisory.
	r.Valid = (r.PostalCityMatch || highConfidence) && inBounds
	r.Deliverable = r.Valid && !r.POBox
	r.Finalize()
	return r
}

// postalCityMatch consults the gazetteer. Store failure degrades to no
// match rather than failing validation.
func (s *Service) postalCityMatch(ctx context.Context, in Input) bool {
	if s.gazetteer == nil || in.PostalCode == "" {
		return false
	}
	ok, err := s.gazetteer.Match(ctx, in.Country, in.PostalCode, in.City, in.Admin1, in.Admin2)
	if err != nil {
		s.logger.WarnContext(ctx, "gazetteer lookup failed", "error", err)
		return false
	}
	return ok
}

// inBounds verifies the geocoded point against the claimed country's
// envelope. With no coordinates or no known envelope there is nothing to
// contradict, so bounds are not violated.
func (s *Service) inBounds(ctx context.Context, country string, candidate *GeoCandidate) bool {
	if candidate == nil || s.bounds == nil {
		return true
	}
	box, ok, err := s.bounds.Bounds(ctx, country)
	if err != nil {
		s.logger.WarnContext(ctx, "bounds lookup failed", "country", country, "error", err)
		return true
	}
	if !ok {
		return true
	}
	return box.Contains(candidate.Lat, candidate.Lng)
}
