package op

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/muhlemmer/httpforwarded"
	"golang.org/x/exp/slog"
	"golang.org/x/text/language"
)

var (
	ErrInvalidIssuerPath        = errors.New("no fragments or query allowed for issuer")
	ErrInvalidIssuerNoIssuer    = errors.New("missing issuer")
	ErrInvalidIssuerURL         = errors.New("invalid url for issuer")
	ErrInvalidIssuerMissingHost = errors.New("host for issuer missing")
	ErrInvalidIssuerHTTPS       = errors.New("scheme for issuer must be `https`")
)

const (
	DefaultCodeLifetime              = time.Minute
	DefaultAccessTokenLifetime       = time.Hour
	DefaultIDTokenLifetime           = time.Hour
	DefaultRefreshTokenLifetime      = 30 * 24 * time.Hour
	DefaultAuthRequestLifetime       = 30 * time.Minute
	DefaultSessionLifetime           = 8 * time.Hour
	DefaultRequestObjectFetchTimeout = 5 * time.Second
	DefaultSweepInterval             = time.Minute
)

// Config holds the server wide settings of the Provider.
// Zero durations are replaced by their defaults.
type Config struct {
	// CryptoKey seals opaque tokens and session cookies.
	CryptoKey [32]byte

	CodeLifetime         time.Duration
	AccessTokenLifetime  time.Duration
	IDTokenLifetime      time.Duration
	RefreshTokenLifetime time.Duration
	AuthRequestLifetime  time.Duration
	SessionLifetime      time.Duration

	// RefreshTokenRotation issues a new refresh token on every
	// refresh and revokes the presented one.
	RefreshTokenRotation bool

	RequestObjectSupported    bool
	RequestURISupported       bool
	RequestObjectFetchTimeout time.Duration
	// RequestURIBlockList holds glob patterns of request_uri values
	// which are never fetched.
	RequestURIBlockList []string

	CodeMethodS256      bool
	DynamicRegistration bool
	SupportedUILocales  []language.Tag

	SweepInterval time.Duration
	// GrantRetention keeps expired grants around for reuse detection.
	// A redeemed grant is kept beyond it while one of its tokens is active.
	GrantRetention time.Duration
}

func (c *Config) withDefaults() *Config {
	cfg := *c
	setDefault(&cfg.CodeLifetime, DefaultCodeLifetime)
	setDefault(&cfg.AccessTokenLifetime, DefaultAccessTokenLifetime)
	setDefault(&cfg.IDTokenLifetime, DefaultIDTokenLifetime)
	setDefault(&cfg.RefreshTokenLifetime, DefaultRefreshTokenLifetime)
	setDefault(&cfg.AuthRequestLifetime, DefaultAuthRequestLifetime)
	setDefault(&cfg.SessionLifetime, DefaultSessionLifetime)
	setDefault(&cfg.RequestObjectFetchTimeout, DefaultRequestObjectFetchTimeout)
	setDefault(&cfg.SweepInterval, DefaultSweepInterval)
	return &cfg
}

func setDefault(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}

type IssuerFromRequest func(r *http.Request) string

// StaticIssuer returns the same issuer for every request.
func StaticIssuer(issuer string) func(bool) (IssuerFromRequest, error) {
	return func(allowInsecure bool) (IssuerFromRequest, error) {
		if err := ValidateIssuer(issuer, allowInsecure); err != nil {
			return nil, err
		}
		return func(_ *http.Request) string {
			return issuer
		}, nil
	}
}

// IssuerFromHost builds the issuer from the Host of the request and the path.
func IssuerFromHost(path string) func(bool) (IssuerFromRequest, error) {
	return issuerFromRequest(path, func(r *http.Request) (string, string) {
		return schemeOf(r), r.Host
	})
}

// IssuerFromForwardedOrHost is like IssuerFromHost, but prefers
// the proto and host of a Forwarded header set by a reverse proxy.
func IssuerFromForwardedOrHost(path string) func(bool) (IssuerFromRequest, error) {
	return issuerFromRequest(path, func(r *http.Request) (string, string) {
		scheme, host := schemeOf(r), r.Host
		fwd, err := httpforwarded.ParseFromRequest(r)
		if err != nil {
			slog.WarnContext(r.Context(), "failed to parse forwarded header", "error", err)
			return scheme, host
		}
		if values := fwd["proto"]; len(values) > 0 {
			scheme = values[0]
		}
		if values := fwd["host"]; len(values) > 0 {
			host = values[0]
		}
		return scheme, host
	})
}

func issuerFromRequest(path string, schemeAndHost func(*http.Request) (string, string)) func(bool) (IssuerFromRequest, error) {
	return func(allowInsecure bool) (IssuerFromRequest, error) {
		issuerPath, err := url.Parse(path)
		if err != nil {
			return nil, ErrInvalidIssuerURL
		}
		if err := ValidateIssuerPath(issuerPath); err != nil {
			return nil, err
		}
		return func(r *http.Request) string {
			scheme, host := schemeAndHost(r)
			return dynamicIssuer(scheme, host, path)
		}, nil
	}
}

func schemeOf(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func dynamicIssuer(scheme, host, path string) string {
	if len(path) > 0 && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return scheme + "://" + host + path
}

func ValidateIssuer(issuer string, allowInsecure bool) error {
	if issuer == "" {
		return ErrInvalidIssuerNoIssuer
	}
	u, err := url.Parse(issuer)
	if err != nil {
		return ErrInvalidIssuerURL
	}
	if u.Host == "" {
		return ErrInvalidIssuerMissingHost
	}
	if u.Scheme != "https" {
		if !devLocalAllowed(u, allowInsecure) {
			return ErrInvalidIssuerHTTPS
		}
	}
	return ValidateIssuerPath(u)
}

func devLocalAllowed(url *url.URL, allowInsecure bool) bool {
	if !allowInsecure {
		return false
	}
	return url.Scheme == "http"
}

func ValidateIssuerPath(issuer *url.URL) error {
	if issuer.Fragment != "" || len(issuer.Query()) > 0 {
		return ErrInvalidIssuerPath
	}
	return nil
}
