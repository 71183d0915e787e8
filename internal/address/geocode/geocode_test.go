package geocode

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name      string
	available bool
	candidate *Candidate
	err       error
	calls     int
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return s.available }
func (s *stubProvider) Geocode(context.Context, string) (*Candidate, error) {
	s.calls++
	return s.candidate, s.err
}

func TestCascade(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	t.Run("first hit wins", func(t *testing.T) {
		first := &stubProvider{name: "primary", available: true, candidate: &Candidate{Lat: 1, Lng: 2, Confidence: 0.95, Source: "primary"}}
		second := &stubProvider{name: "free", available: true, candidate: &Candidate{Lat: 9, Lng: 9, Confidence: 0.70, Source: "free"}}

		got := NewCascade(logger, first, second).Geocode(ctx, "somewhere")

		require.NotNil(t, got)
		assert.Equal(t, "primary", got.Source)
		assert.Zero(t, second.calls)
	})

	t.Run("skips unavailable and failing providers", func(t *testing.T) {
		unconfigured := &stubProvider{name: "primary", available: false}
		broken := &stubProvider{name: "free", available: true, err: assert.AnError}
		last := &stubProvider{name: "fallback", available: true, candidate: &Candidate{Lat: 1, Lng: 2, Confidence: 0.75, Source: "fallback"}}

		got := NewCascade(logger, unconfigured, broken, last).Geocode(ctx, "somewhere")

		require.NotNil(t, got)
		assert.Equal(t, "fallback", got.Source)
		assert.Zero(t, unconfigured.calls)
		assert.Equal(t, 1, broken.calls)
	})

	t.Run("all miss yields nil", func(t *testing.T) {
		miss := &stubProvider{name: "free", available: true}

		got := NewCascade(logger, miss).Geocode(ctx, "nowhere")

		assert.Nil(t, got)
	})
}

func TestFreeProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("parses string coordinates and sends client header", func(t *testing.T) {
		var gotAgent string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAgent = r.Header.Get("User-Agent")
			_, _ = w.Write([]byte(`[{"lat":"52.5200","lon":"13.4050"}]`))
		}))
		defer srv.Close()

		p := NewFreeProvider(srv.URL, 0.70, "vigil-validation-engine/1.0", time.Second)

		got, err := p.Geocode(ctx, "Berlin")
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.InDelta(t, 52.52, got.Lat, 0.001)
		assert.InDelta(t, 13.405, got.Lng, 0.001)
		assert.Equal(t, 0.70, got.Confidence)
		assert.Equal(t, "free", got.Source)
		assert.Equal(t, "vigil-validation-engine/1.0", gotAgent)
	})

	t.Run("empty result is a miss, not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		p := NewFreeProvider(srv.URL, 0.70, "test", time.Second)

		got, err := p.Geocode(ctx, "nowhere")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("server error is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		p := NewFreeProvider(srv.URL, 0.70, "test", time.Second)

		_, err := p.Geocode(ctx, "anywhere")
		require.Error(t, err)
	})
}

func TestFallbackProvider(t *testing.T) {
	ctx := context.Background()

	confidence := map[string]float64{"rooftop": 0.90, "street": 0.75, "locality": 0.60}

	newServer := func(precision string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"results":[{"geometry":{"location":{"lat":40.7,"lng":-74.0}},"precision":"` + precision + `"}]}`))
		}))
	}

	t.Run("confidence calibrated by precision", func(t *testing.T) {
		for precision, want := range confidence {
			srv := newServer(precision)
			p := NewFallbackProvider(srv.URL, "key", true, confidence, "test", time.Second)

			got, err := p.Geocode(ctx, "somewhere")
			srv.Close()
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, want, got.Confidence, precision)
		}
	})

	t.Run("unknown precision gets the locality weight", func(t *testing.T) {
		srv := newServer("plonkish")
		defer srv.Close()

		p := NewFallbackProvider(srv.URL, "key", true, confidence, "test", time.Second)

		got, err := p.Geocode(ctx, "somewhere")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 0.60, got.Confidence)
	})

	t.Run("disabled provider is unavailable", func(t *testing.T) {
		p := NewFallbackProvider("http://example.test", "key", false, confidence, "test", time.Second)
		assert.False(t, p.Available())
	})
}

func TestPrimaryProviderAvailability(t *testing.T) {
	assert.False(t, NewPrimaryProvider("", "", 0.95, "test", time.Second).Available())
	assert.False(t, NewPrimaryProvider("http://example.test", "", 0.95, "test", time.Second).Available())
	assert.True(t, NewPrimaryProvider("http://example.test", "key", 0.95, "test", time.Second).Available())
}
