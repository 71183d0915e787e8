// Package email validates email addresses: syntax, domain resolution, and
// disposable-domain detection. Domain facts are cached per domain because
// many addresses share one.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"

	"vigil/internal/platform/config"
	"vigil/internal/validation"
)

const namespace = "email"

// localPartRe covers the unquoted local-part grammar that real providers
// accept. Quoted local parts are rejected.
var localPartRe = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+$`)

var domainRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)

// Resolver is the DNS surface the validator needs. *net.Resolver satisfies
// it; tests substitute a fake.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupHost(ctx context.Context, name string) ([]string, error)
}

type Service struct {
	store    *validation.Store
	resolver Resolver
	logger   *slog.Logger
	cfg      config.EmailConfig
	cacheCfg config.CacheConfig
}

func NewService(store *validation.Store, resolver Resolver, logger *slog.Logger, cfg config.EmailConfig, cacheCfg config.CacheConfig) *Service {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Service{
		store:    store,
		resolver: resolver,
		logger:   logger,
		cfg:      cfg,
		cacheCfg: cacheCfg,
	}
}

// Validate runs the full pipeline for one address. Provider trouble (DNS
// timeouts, cache outages) degrades the result; the returned error is
// reserved for systemic failures, and even those yield a safe fallback.
func (s *Service) Validate(ctx context.Context, rawEmail string) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "email validator panic", "panic", fmt.Sprint(r))
			result = Result{}
			result.RequestID = uuid.NewString()
			result.Valid = false
			result.AddReason(validation.ReasonServerError)
			result.Finalize()
			err = nil
		}
	}()

	normalized, domain, formatOK := normalize(rawEmail)

	fp, err := validation.Fingerprint(namespace, struct {
		Email string `json:"email"`
	}{Email: normalized})
	if err != nil {
		return Result{}, err
	}

	res, _, err := validation.GetOrComputeJSON(ctx, s.store, namespace, fp, s.cacheCfg.ResultTTL,
		func(ctx context.Context) (Result, error) {
			return s.compute(ctx, normalized, domain, formatOK), nil
		},
	)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (s *Service) compute(ctx context.Context, normalized, domain string, formatOK bool) Result {
	r := Result{
		NormalizedEmail: normalized,
		Domain:          domain,
	}
	r.RequestID = uuid.NewString()
	r.TTLSeconds = int(s.cacheCfg.ResultTTL.Seconds())

	if !formatOK {
		r.AddReason(ReasonInvalidFormat)
		r.Finalize()
		return r
	}

	facts := s.domainFacts(ctx, domain)
	r.MXFound = facts.MXFound
	r.Disposable = facts.Disposable

	if !facts.MXFound {
		if facts.DNSTimeout {
			r.AddReason(ReasonDNSTimeout)
		} else {
			r.AddReason(ReasonMXNotFound)
		}
	}
	if facts.Disposable {
		r.AddReason(ReasonDisposableDomain)
	}

	r.Valid = facts.MXFound && !facts.Disposable
	r.Finalize()
	return r
}

// domainFacts resolves and caches per-domain observations. A cache failure
// here just recomputes; DNS trouble is recorded in the facts themselves.
func (s *Service) domainFacts(ctx context.Context, domain string) domainFacts {
	key := namespace + ":domain:" + domain
	facts, _, err := validation.GetOrComputeJSON(ctx, s.store, namespace, key, s.cacheCfg.DomainTTL,
		func(ctx context.Context) (domainFacts, error) {
			return s.lookupDomain(ctx, domain), nil
		},
	)
	if err != nil {
		s.logger.WarnContext(ctx, "domain facts lookup failed", "domain", domain, "error", err)
		return s.lookupDomain(ctx, domain)
	}
	return facts
}

func (s *Service) lookupDomain(ctx context.Context, domain string) domainFacts {
	facts := domainFacts{Domain: domain}

	dnsCtx, cancel := context.WithTimeout(ctx, s.cfg.DNSTimeout)
	defer cancel()

	mx, err := s.resolver.LookupMX(dnsCtx, domain)
	switch {
	case err == nil && len(mx) > 0:
		facts.MXFound = true
	case isDNSTimeout(err):
		facts.DNSTimeout = true
	default:
		// No MX records; a plain address record still accepts mail.
		hosts, herr := s.resolver.LookupHost(dnsCtx, domain)
		if herr == nil && len(hosts) > 0 {
			facts.MXFound = true
		} else if isDNSTimeout(herr) {
			facts.DNSTimeout = true
		}
	}

	facts.Disposable = s.isDisposable(ctx, domain)
	return facts
}

// isDisposable checks the domain and its registrable parent so that
// subdomain tricks (a.b.mailinator.com) still match the listed domain.
func (s *Service) isDisposable(ctx context.Context, domain string) bool {
	cache := s.store.Cache()
	if cache == nil {
		return false
	}

	candidates := []string{domain}
	if parent, err := publicsuffix.EffectiveTLDPlusOne(domain); err == nil && parent != domain {
		candidates = append(candidates, parent)
	}

	for _, c := range candidates {
		ok, err := cache.IsMember(ctx, DisposableSet, c)
		if err != nil {
			s.logger.WarnContext(ctx, "disposable set lookup failed", "domain", c, "error", err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

func isDNSTimeout(err error) bool {
	if err == nil {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsTimeout {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// normalize trims the input and converts the domain to its ASCII form via
// IDNA. The local part is preserved case-sensitively; the domain is
// case-folded. Returns the normalized address, the domain, and whether the
// address is syntactically acceptable.
func normalize(raw string) (normalized, domain string, ok bool) {
	trimmed := strings.TrimSpace(raw)

	at := strings.LastIndexByte(trimmed, '@')
	if at <= 0 || at == len(trimmed)-1 {
		return trimmed, "", false
	}

	local := trimmed[:at]
	domain = strings.ToLower(trimmed[at+1:])

	if ascii, err := idna.Lookup.ToASCII(domain); err == nil {
		domain = ascii
	}
	normalized = local + "@" + domain

	if len(local) > 64 || len(normalized) > 254 {
		return normalized, domain, false
	}
	if !localPartRe.MatchString(local) || strings.Contains(local, "..") ||
		strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return normalized, domain, false
	}
	if !domainRe.MatchString(domain) {
		return normalized, domain, false
	}
	return normalized, domain, true
}
