// Package geocode resolves address strings to coordinates through a chain
// of HTTP providers. Each provider stamps its hit with a fixed confidence
// weight so the caller can compare answers across sources.
package geocode

import (
	"context"
	"log/slog"
)

// Candidate is one provider's answer.
type Candidate struct {
	Lat        float64
	Lng        float64
	Confidence float64
	Source     string
}

// Provider is a single geocoding backend.
type Provider interface {
	Name() string
	// Available reports whether the provider is configured at all.
	Available() bool
	// Geocode resolves the query. A nil Candidate with nil error means the
	// provider answered but found nothing.
	Geocode(ctx context.Context, query string) (*Candidate, error)
}

// Cascade tries providers in order and returns the first hit. Provider
// errors are soft: log and move on to the next provider.
type Cascade struct {
	providers []Provider
	logger    *slog.Logger
}

func NewCascade(logger *slog.Logger, providers ...Provider) *Cascade {
	return &Cascade{providers: providers, logger: logger}
}

// Geocode returns the first candidate in chain order, or nil when every
// provider missed or failed.
func (c *Cascade) Geocode(ctx context.Context, query string) *Candidate {
	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		candidate, err := p.Geocode(ctx, query)
		if err != nil {
			c.logger.WarnContext(ctx, "geocode provider failed, trying next",
				"provider", p.Name(),
				"error", err,
			)
			continue
		}
		if candidate != nil {
			return candidate
		}
	}
	return nil
}
