package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	dErrors "vigil/pkg/domain-errors"
)

// httpGet performs a provider request with the descriptive client
// identifier header every provider is required to send.
func httpGet(ctx context.Context, client *http.Client, clientHeader, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", clientHeader)

	res, err := client.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "geocoder unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("geocoder returned %d", res.StatusCode))
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// PrimaryProvider is the paid first-choice geocoder. It is only in the
// chain when both URL and key are configured, and its hits carry the
// highest fixed confidence.
type PrimaryProvider struct {
	baseURL      string
	apiKey       string
	confidence   float64
	clientHeader string
	client       *http.Client
}

func NewPrimaryProvider(baseURL, apiKey string, confidence float64, clientHeader string, timeout time.Duration) *PrimaryProvider {
	return &PrimaryProvider{
		baseURL:      baseURL,
		apiKey:       apiKey,
		confidence:   confidence,
		clientHeader: clientHeader,
		client:       &http.Client{Timeout: timeout},
	}
}

func (p *PrimaryProvider) Name() string { return "primary" }

func (p *PrimaryProvider) Available() bool { return p.baseURL != "" && p.apiKey != "" }

func (p *PrimaryProvider) Geocode(ctx context.Context, query string) (*Candidate, error) {
	q := url.Values{"q": {query}, "key": {p.apiKey}, "limit": {"1"}}

	var resp struct {
		Results []struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"results"`
	}
	if err := httpGet(ctx, p.client, p.clientHeader, p.baseURL+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &Candidate{
		Lat:        resp.Results[0].Lat,
		Lng:        resp.Results[0].Lng,
		Confidence: p.confidence,
		Source:     p.Name(),
	}, nil
}

// FreeProvider is the keyless community geocoder (Nominatim-style API:
// coordinates arrive as strings). Lowest fixed confidence.
type FreeProvider struct {
	baseURL      string
	confidence   float64
	clientHeader string
	client       *http.Client
}

func NewFreeProvider(baseURL string, confidence float64, clientHeader string, timeout time.Duration) *FreeProvider {
	return &FreeProvider{
		baseURL:      baseURL,
		confidence:   confidence,
		clientHeader: clientHeader,
		client:       &http.Client{Timeout: timeout},
	}
}

func (p *FreeProvider) Name() string { return "free" }

func (p *FreeProvider) Available() bool { return p.baseURL != "" }

func (p *FreeProvider) Geocode(ctx context.Context, query string) (*Candidate, error) {
	q := url.Values{"q": {query}, "format": {"json"}, "limit": {"1"}}

	var resp []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := httpGet(ctx, p.client, p.clientHeader, p.baseURL+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(resp[0].Lat, 64)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "free geocoder returned bad latitude")
	}
	lng, err := strconv.ParseFloat(resp[0].Lon, 64)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "free geocoder returned bad longitude")
	}
	return &Candidate{
		Lat:        lat,
		Lng:        lng,
		Confidence: p.confidence,
		Source:     p.Name(),
	}, nil
}

// FallbackProvider is the secondary paid geocoder, consulted last. Its
// confidence is calibrated by the precision the provider reports: a
// rooftop match outranks a street match outranks a locality match.
type FallbackProvider struct {
	baseURL      string
	apiKey       string
	enabled      bool
	confidence   map[string]float64
	clientHeader string
	client       *http.Client
}

func NewFallbackProvider(baseURL, apiKey string, enabled bool, confidence map[string]float64, clientHeader string, timeout time.Duration) *FallbackProvider {
	return &FallbackProvider{
		baseURL:      baseURL,
		apiKey:       apiKey,
		enabled:      enabled,
		confidence:   confidence,
		clientHeader: clientHeader,
		client:       &http.Client{Timeout: timeout},
	}
}

func (p *FallbackProvider) Name() string { return "fallback" }

func (p *FallbackProvider) Available() bool {
	return p.enabled && p.baseURL != "" && p.apiKey != ""
}

func (p *FallbackProvider) Geocode(ctx context.Context, query string) (*Candidate, error) {
	q := url.Values{"address": {query}, "key": {p.apiKey}}

	var resp struct {
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
			Precision string `json:"precision"`
		} `json:"results"`
	}
	if err := httpGet(ctx, p.client, p.clientHeader, p.baseURL+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	first := resp.Results[0]
	confidence, ok := p.confidence[first.Precision]
	if !ok {
		confidence = p.confidence["locality"]
	}
	return &Candidate{
		Lat:        first.Geometry.Location.Lat,
		Lng:        first.Geometry.Location.Lng,
		Confidence: confidence,
		Source:     p.Name(),
	}, nil
}
