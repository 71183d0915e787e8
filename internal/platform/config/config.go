// Package config builds runtime configuration from environment variables so
// main stays lean. Product tuning values (confidence weights, thresholds,
// TTLs) live here as injected fields rather than package globals, so tests
// can run variants in parallel without cross-contamination.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full server configuration.
type Config struct {
	Addr     string
	Env      string
	LogLevel string

	PostgresDSN string
	Redis       RedisConfig
	Kafka       KafkaConfig

	Cache   CacheConfig
	Email   EmailConfig
	Phone   PhoneConfig
	TaxID   TaxIDConfig
	Address AddressConfig
	Risk    RiskConfig
}

// RedisConfig configures the shared cache client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit event sink. Empty brokers disable Kafka
// and audit events stay in the in-process store.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// CacheConfig holds fingerprint-cache TTLs.
type CacheConfig struct {
	ResultTTL time.Duration
	// DomainTTL applies to domain-level email facts, which are shared by
	// many addresses and therefore cached longer than per-address results.
	DomainTTL time.Duration
	// WriteTimeout bounds the detached cache write-back.
	WriteTimeout time.Duration
}

// EmailConfig configures the email validator.
type EmailConfig struct {
	// DNSTimeout bounds each resolver step. Kept short: a slow resolver
	// degrades to mx_found=false rather than stalling the request.
	DNSTimeout time.Duration
}

// PhoneConfig configures the phone validator and OTP messenger.
type PhoneConfig struct {
	DefaultRegion string
	OTPBaseURL    string
	OTPAPIKey     string
	OTPTimeout    time.Duration
}

// TaxIDConfig configures the tax-identifier validator.
type TaxIDConfig struct {
	VIESURL     string
	VIESTimeout time.Duration
	// VIESDown simulates a government-service outage. Injected here, not a
	// process-wide switch, so parallel tests stay independent.
	VIESDown bool
}

// AddressConfig configures the address validator.
type AddressConfig struct {
	ParserURL     string
	ParserTimeout time.Duration

	PrimaryGeocoderURL   string
	PrimaryGeocoderKey   string
	FreeGeocoderURL      string
	FallbackGeocoderURL  string
	FallbackGeocoderKey  string
	FallbackEnabled      bool
	GeocoderTimeout      time.Duration
	GeocoderClientHeader string

	// Tuning values, not algorithmic necessities.
	HighConfidence     float64
	PrimaryConfidence  float64
	FreeConfidence     float64
	FallbackConfidence map[string]float64
}

// RiskConfig holds the order-risk thresholds.
type RiskConfig struct {
	HoldThreshold      int
	BlockThreshold     int
	HighValueThreshold float64
	EvidenceTimeout    time.Duration
}

// FromEnv builds the configuration, applying defaults for anything unset.
func FromEnv() Config {
	return Config{
		Addr:        getenv("VIGIL_ADDR", ":8080"),
		Env:         getenv("VIGIL_ENV", "dev"),
		LogLevel:    getenv("VIGIL_LOG_LEVEL", "info"),
		PostgresDSN: os.Getenv("VIGIL_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("VIGIL_REDIS_URL"),
			PoolSize:     getint("VIGIL_REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("VIGIL_REDIS_MIN_IDLE", 2),
			DialTimeout:  getdur("VIGIL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getdur("VIGIL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getdur("VIGIL_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    split(os.Getenv("VIGIL_KAFKA_BROKERS")),
			AuditTopic: getenv("VIGIL_AUDIT_TOPIC", "vigil.audit"),
		},
		Cache: CacheConfig{
			ResultTTL:    getdur("VIGIL_CACHE_RESULT_TTL", time.Hour),
			DomainTTL:    getdur("VIGIL_CACHE_DOMAIN_TTL", 24*time.Hour),
			WriteTimeout: getdur("VIGIL_CACHE_WRITE_TIMEOUT", 2*time.Second),
		},
		Email: EmailConfig{
			DNSTimeout: getdur("VIGIL_EMAIL_DNS_TIMEOUT", 1200*time.Millisecond),
		},
		Phone: PhoneConfig{
			DefaultRegion: getenv("VIGIL_PHONE_DEFAULT_REGION", ""),
			OTPBaseURL:    os.Getenv("VIGIL_OTP_BASE_URL"),
			OTPAPIKey:     os.Getenv("VIGIL_OTP_API_KEY"),
			OTPTimeout:    getdur("VIGIL_OTP_TIMEOUT", 10*time.Second),
		},
		TaxID: TaxIDConfig{
			VIESURL:     getenv("VIGIL_VIES_URL", "https://ec.europa.eu/taxation_customs/vies/services/checkVatService"),
			VIESTimeout: getdur("VIGIL_VIES_TIMEOUT", 10*time.Second),
			VIESDown:    getbool("VIGIL_VIES_DOWN", false),
		},
		Address: AddressConfig{
			ParserURL:            os.Getenv("VIGIL_ADDRESS_PARSER_URL"),
			ParserTimeout:        getdur("VIGIL_ADDRESS_PARSER_TIMEOUT", 5*time.Second),
			PrimaryGeocoderURL:   os.Getenv("VIGIL_GEOCODER_PRIMARY_URL"),
			PrimaryGeocoderKey:   os.Getenv("VIGIL_GEOCODER_PRIMARY_KEY"),
			FreeGeocoderURL:      getenv("VIGIL_GEOCODER_FREE_URL", "https://nominatim.openstreetmap.org/search"),
			FallbackGeocoderURL:  os.Getenv("VIGIL_GEOCODER_FALLBACK_URL"),
			FallbackGeocoderKey:  os.Getenv("VIGIL_GEOCODER_FALLBACK_KEY"),
			FallbackEnabled:      getbool("VIGIL_GEOCODER_FALLBACK_ENABLED", false),
			GeocoderTimeout:      getdur("VIGIL_GEOCODER_TIMEOUT", 8*time.Second),
			GeocoderClientHeader: getenv("VIGIL_GEOCODER_CLIENT_HEADER", "vigil-validation-engine/1.0"),
			HighConfidence:       getfloat("VIGIL_GEOCODE_HIGH_CONFIDENCE", 0.85),
			PrimaryConfidence:    getfloat("VIGIL_GEOCODE_PRIMARY_CONFIDENCE", 0.95),
			FreeConfidence:       getfloat("VIGIL_GEOCODE_FREE_CONFIDENCE", 0.70),
			FallbackConfidence: map[string]float64{
				"rooftop":  0.90,
				"street":   0.75,
				"locality": 0.60,
			},
		},
		Risk: RiskConfig{
			HoldThreshold:      getint("VIGIL_RISK_HOLD_THRESHOLD", 40),
			BlockThreshold:     getint("VIGIL_RISK_BLOCK_THRESHOLD", 70),
			HighValueThreshold: getfloat("VIGIL_RISK_HIGH_VALUE", 1000),
			EvidenceTimeout:    getdur("VIGIL_RISK_EVIDENCE_TIMEOUT", 15*time.Second),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getfloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getdur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func split(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
