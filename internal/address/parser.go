package address

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	dErrors "vigil/pkg/domain-errors"
)

// Parser splits a freeform address string into labeled components. It is
// best-effort: callers fall back to their original input when it fails.
type Parser interface {
	Parse(ctx context.Context, freeform string) (map[string]string, error)
}

// HTTPParser calls a libpostal-style parsing service that returns an array
// of {label, value} pairs.
type HTTPParser struct {
	baseURL string
	client  *http.Client
}

func NewHTTPParser(baseURL string, timeout time.Duration) *HTTPParser {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPParser{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPParser) Parse(ctx context.Context, freeform string) (map[string]string, error) {
	u := p.baseURL + "?address=" + url.QueryEscape(freeform)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := p.client.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "address parser unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("address parser returned %d", res.StatusCode))
	}

	var pairs []struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(res.Body).Decode(&pairs); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "address parser response malformed")
	}

	components := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		label := strings.ToLower(pair.Label)
		// Repeated labels (two road tokens) concatenate in order.
		if existing, ok := components[label]; ok {
			components[label] = existing + " " + pair.Value
		} else {
			components[label] = pair.Value
		}
	}
	return components, nil
}
