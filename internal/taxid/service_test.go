package taxid

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/platform/config"
	"vigil/internal/validation"
	"vigil/pkg/platform/sentinel"
)

type fakeVAT struct {
	valid map[string]bool // "DE"+number -> valid
	calls int
	down  bool
}

func (f *fakeVAT) CheckVAT(_ context.Context, countryCode, number string) (bool, error) {
	f.calls++
	if f.down {
		return false, sentinel.ErrUnavailable
	}
	return f.valid[countryCode+number], nil
}

func newTestService(t *testing.T, checker VATChecker, viesDown bool) *Service {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	store := validation.NewStore(validation.NewMemoryCache(), logger, nil, time.Second)

	cfg := config.TaxIDConfig{VIESTimeout: time.Second, VIESDown: viesDown}
	cacheCfg := config.CacheConfig{ResultTTL: time.Hour}

	return NewService(store, checker, nil, logger, cfg, cacheCfg)
}

func TestChecksumValidators(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &fakeVAT{}, false)

	cases := []struct {
		name    string
		kind    string
		value   string
		valid   bool
		reasons []string
	}{
		{"cpf valid", "cpf", "123.456.789-09", true, nil},
		{"cpf bad checksum", "cpf", "123.456.789-00", false, []string{string(ReasonInvalidChecksum)}},
		{"cpf wrong length", "cpf", "123.456.789", false, []string{string(ReasonInvalidFormat)}},
		{"cpf all identical", "cpf", "111.111.111-11", false, []string{string(ReasonInvalidFormat)}},
		{"cnpj valid", "CNPJ", "11.222.333/0001-81", true, nil},
		{"cnpj all identical", "cnpj", "11.111.111/1111-11", false, []string{string(ReasonInvalidFormat)}},
		{"cnpj bad checksum", "cnpj", "11.222.333/0001-82", false, []string{string(ReasonInvalidChecksum)}},
		{"cuit valid", "cuit", "20-12345678-6", true, nil},
		{"cuit bad checksum", "cuit", "20-12345678-7", false, []string{string(ReasonInvalidChecksum)}},
		{"rut valid", "rut", "12.345.678-5", true, nil},
		{"rut valid with K verifier", "rut", "20.347.878-K", true, nil},
		{"rut bad checksum", "rut", "12.345.678-4", false, []string{string(ReasonInvalidChecksum)}},
		{"nif valid", "nif", "12345678Z", true, nil},
		{"nif bad letter", "nif", "12345678A", false, []string{string(ReasonInvalidChecksum)}},
		{"nif too short", "nif", "1234567Z", false, []string{string(ReasonInvalidFormat)}},
		{"ein valid", "ein", "12-3456789", true, nil},
		{"ein wrong length", "ein", "12-34567", false, []string{string(ReasonInvalidFormat)}},
		{"unknown kind", "ssn", "123-45-6789", false, []string{string(ReasonUnsupportedType)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.Validate(ctx, tc.kind, tc.value)
			require.NoError(t, err)

			assert.Equal(t, tc.valid, res.Valid)
			if tc.reasons == nil {
				assert.Empty(t, res.ReasonCodes)
			} else {
				assert.Equal(t, tc.reasons, res.ReasonCodes)
			}
		})
	}
}

func TestChecksumTotality(t *testing.T) {
	// Every input yields either a valid result with no reasons or an
	// invalid one with exactly one format or checksum reason.
	ctx := context.Background()
	svc := newTestService(t, &fakeVAT{}, false)

	inputs := []string{"", "x", "123", "123.456.789-09", "abcdefghijk", "999999999999999", "11111111111", "12345678Z"}
	kinds := []string{"cpf", "cnpj", "cuit", "rut", "nif", "ein"}

	for _, kind := range kinds {
		for _, input := range inputs {
			res, err := svc.Validate(ctx, kind, input)
			require.NoError(t, err)

			if res.Valid {
				assert.Empty(t, res.ReasonCodes, "%s %q", kind, input)
			} else {
				require.Len(t, res.ReasonCodes, 1, "%s %q", kind, input)
				assert.Contains(t,
					[]string{string(ReasonInvalidFormat), string(ReasonInvalidChecksum)},
					res.ReasonCodes[0], "%s %q", kind, input)
			}
		}
	}
}

func TestEUVAT(t *testing.T) {
	ctx := context.Background()

	t.Run("valid number", func(t *testing.T) {
		checker := &fakeVAT{valid: map[string]bool{"DE123456789": true}}
		svc := newTestService(t, checker, false)

		res, err := svc.Validate(ctx, "eu_vat", "DE 123 456 789")
		require.NoError(t, err)

		assert.True(t, res.Valid)
		assert.Equal(t, "DE", res.CountryCode)
		assert.Equal(t, "DE123456789", res.Normalized)
	})

	t.Run("registry says invalid", func(t *testing.T) {
		svc := newTestService(t, &fakeVAT{}, false)

		res, err := svc.Validate(ctx, "vat", "DE123456789")
		require.NoError(t, err)

		assert.False(t, res.Valid)
		assert.Equal(t, []string{string(ReasonInvalidChecksum)}, res.ReasonCodes)
	})

	t.Run("bad format skips the registry", func(t *testing.T) {
		checker := &fakeVAT{}
		svc := newTestService(t, checker, false)

		res, err := svc.Validate(ctx, "eu_vat", "D1")
		require.NoError(t, err)

		assert.False(t, res.Valid)
		assert.Equal(t, []string{string(ReasonInvalidFormat)}, res.ReasonCodes)
		assert.Zero(t, checker.calls)
	})

	t.Run("outage degrades without caching", func(t *testing.T) {
		checker := &fakeVAT{down: true}
		svc := newTestService(t, checker, false)

		res, err := svc.Validate(ctx, "eu_vat", "FR40303265045")
		require.NoError(t, err)

		assert.False(t, res.Valid)
		assert.Equal(t, []string{string(ReasonVATUnavailable)}, res.ReasonCodes)

		// Recovery must be observable on the next call: nothing was cached.
		checker.down = false
		checker.valid = map[string]bool{"FR40303265045": true}
		res, err = svc.Validate(ctx, "eu_vat", "FR40303265045")
		require.NoError(t, err)
		assert.True(t, res.Valid)
	})

	t.Run("injected down flag simulates outage", func(t *testing.T) {
		checker := &fakeVAT{valid: map[string]bool{"DE123456789": true}}
		svc := newTestService(t, checker, true)

		res, err := svc.Validate(ctx, "eu_vat", "DE123456789")
		require.NoError(t, err)

		assert.False(t, res.Valid)
		assert.Equal(t, []string{string(ReasonVATUnavailable)}, res.ReasonCodes)
		assert.Zero(t, checker.calls)
	})

	t.Run("circuit opens after repeated failures", func(t *testing.T) {
		checker := &fakeVAT{down: true}
		svc := newTestService(t, checker, false)

		for range 3 {
			_, err := svc.Validate(ctx, "eu_vat", "IT12345670017")
			require.NoError(t, err)
		}
		require.True(t, svc.breaker.IsOpen())

		calls := checker.calls
		_, err := svc.Validate(ctx, "eu_vat", "IT12345670017")
		require.NoError(t, err)
		assert.Equal(t, calls, checker.calls)
	})
}
