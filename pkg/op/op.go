package op

import (
	"crypto/sha256"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/zitadel/schema"
	"golang.org/x/exp/slog"

	"github.com/zitadel/authserver/internal/otel"
	httphelper "github.com/zitadel/authserver/pkg/http"
	"github.com/zitadel/authserver/pkg/oidc"
)

const (
	healthEndpoint               = "/healthz"
	readinessEndpoint            = "/ready"
	metricsEndpoint              = "/metrics"
	authCallbackPathSuffix       = "/callback"
	defaultAuthorizationEndpoint = "authorize"
	defaultTokenEndpoint         = "oauth/token"
	defaultUserinfoEndpoint      = "userinfo"
	defaultRevocationEndpoint    = "oauth/revoke"
	defaultIntrospectEndpoint    = "oauth/introspect"
	defaultKeysEndpoint          = "keys"
	defaultRegistrationEndpoint  = "register"

	sessionCookieName = "authserver_session"
)

var (
	DefaultEndpoints = &Endpoints{
		Authorization: NewEndpoint(defaultAuthorizationEndpoint),
		Token:         NewEndpoint(defaultTokenEndpoint),
		Userinfo:      NewEndpoint(defaultUserinfoEndpoint),
		Revocation:    NewEndpoint(defaultRevocationEndpoint),
		Introspection: NewEndpoint(defaultIntrospectEndpoint),
		JwksURI:       NewEndpoint(defaultKeysEndpoint),
		Registration:  NewEndpoint(defaultRegistrationEndpoint),
	}

	defaultCORSOptions = cors.Options{
		AllowCredentials: true,
		AllowedHeaders: []string{
			"Origin",
			"Accept",
			"Accept-Language",
			"Authorization",
			"Content-Type",
			"X-Requested-With",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
		},
		ExposedHeaders: []string{
			"Location",
			"Content-Length",
		},
		AllowOriginFunc: func(_ string) bool {
			return true
		},
	}
)

var tracer = otel.Tracer("github.com/zitadel/authserver/pkg/op")

type Endpoints struct {
	Authorization *Endpoint
	Token         *Endpoint
	Userinfo      *Endpoint
	Revocation    *Endpoint
	Introspection *Endpoint
	JwksURI       *Endpoint
	Registration  *Endpoint
}

// OpenIDProvider is the surface the login UI and the command depend on.
type OpenIDProvider interface {
	Storage() Storage
	Decoder() httphelper.Decoder
	Encoder() httphelper.Encoder
	Crypto() Crypto
	Probes() []ProbesFn
	HttpHandler() http.Handler
	AuthCallbackURL(issuer, authReqID string) string
	CompleteLogin(w http.ResponseWriter, r *http.Request, authReqID string, session *Session, consented bool) error
	DenyLogin(w http.ResponseWriter, r *http.Request, authReqID string)
}

var _ OpenIDProvider = (*Provider)(nil)

type HttpInterceptor func(http.Handler) http.Handler

func CreateRouter(o *Provider, interceptors ...HttpInterceptor) chi.Router {
	router := chi.NewRouter()
	router.Use(cors.New(o.corsOptions).Handler)
	router.Use(o.LogMiddleware())
	router.Use(intercept(o.issuer, interceptors...))
	router.HandleFunc(healthEndpoint, healthHandler)
	router.HandleFunc(readinessEndpoint, readyHandler(o.Probes()))
	router.Handle(metricsEndpoint, promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))
	router.Get(oidc.DiscoveryEndpoint, o.Discover)
	router.HandleFunc(o.endpoints.Authorization.Relative(), o.Authorize)
	router.Get(authCallbackPath(o), o.AuthorizeCallback)
	router.Post(o.endpoints.Token.Relative(), o.Exchange)
	router.HandleFunc(o.endpoints.Userinfo.Relative(), o.Userinfo)
	router.Post(o.endpoints.Revocation.Relative(), o.Revoke)
	router.Post(o.endpoints.Introspection.Relative(), o.Introspect)
	router.Get(o.endpoints.JwksURI.Relative(), o.Keys)
	if o.config.DynamicRegistration {
		router.Post(o.endpoints.Registration.Relative(), o.Register)
		router.Get(o.endpoints.Registration.Relative()+"/{client_id}", o.ReadClient)
	}
	return router
}

// intercept wraps the handler in the interceptors, the first one
// outermost, behind the issuer resolution.
func intercept(issuer IssuerFromRequest, interceptors ...HttpInterceptor) func(handler http.Handler) http.Handler {
	withIssuer := issuerMiddleware(issuer)
	return func(handler http.Handler) http.Handler {
		for i := len(interceptors) - 1; i >= 0; i-- {
			handler = interceptors[i](handler)
		}
		return withIssuer(handler)
	}
}

// AuthCallbackURL builds the url the login UI redirects to
// after the end-user authenticated.
func (o *Provider) AuthCallbackURL(issuer, authReqID string) string {
	return o.endpoints.Authorization.Absolute(issuer) + authCallbackPathSuffix + "?id=" + authReqID
}

func authCallbackPath(o *Provider) string {
	return o.endpoints.Authorization.Relative() + authCallbackPathSuffix
}

// NewOpenIDProvider creates a provider for a single, static issuer.
func NewOpenIDProvider(issuer string, config *Config, storage Storage, opOpts ...Option) (*Provider, error) {
	return newProvider(config, storage, StaticIssuer(issuer), opOpts...)
}

// NewDynamicOpenIDProvider creates a provider which derives
// the issuer from the host of each request.
func NewDynamicOpenIDProvider(path string, config *Config, storage Storage, opOpts ...Option) (*Provider, error) {
	return newProvider(config, storage, IssuerFromHost(path), opOpts...)
}

func newProvider(config *Config, storage Storage, issuer func(bool) (IssuerFromRequest, error), opOpts ...Option) (_ *Provider, err error) {
	if config == nil {
		return nil, errors.New("config must not be nil")
	}
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}
	o := &Provider{
		config:      config.withDefaults(),
		storage:     storage,
		endpoints:   DefaultEndpoints,
		corsOptions: defaultCORSOptions,
		httpClient:  httphelper.DefaultHTTPClient,
		now:         time.Now,
	}

	for _, optFunc := range opOpts {
		if err := optFunc(o); err != nil {
			return nil, err
		}
	}

	o.issuer, err = issuer(o.insecure)
	if err != nil {
		return nil, err
	}
	o.logger = newLogger(o.logger)

	if o.gatherer == nil {
		registry := prometheus.NewRegistry()
		o.registerer, o.gatherer = registry, registry
	}
	o.metrics = NewMetrics(o.registerer)

	o.decoder = schema.NewDecoder()
	o.decoder.IgnoreUnknownKeys(true)
	o.encoder = schema.NewEncoder()

	o.crypto, err = NewAESCrypto(o.config.CryptoKey)
	if err != nil {
		return nil, err
	}
	o.assertions, err = newAssertionCache(assertionCacheSize)
	if err != nil {
		return nil, err
	}
	hashKey := sha256.Sum256(append([]byte("session"), o.config.CryptoKey[:]...))
	cookieOpts := []httphelper.CookieOption{
		httphelper.CookiesLifetime(o.config.SessionLifetime),
	}
	if o.insecure {
		cookieOpts = append(cookieOpts, httphelper.CookiesInsecure())
	}
	o.cookies = httphelper.NewCookies(hashKey[:], o.config.CryptoKey[:], cookieOpts...)

	o.httpHandler = CreateRouter(o, o.interceptors...)
	return o, nil
}

type Provider struct {
	config       *Config
	issuer       IssuerFromRequest
	insecure     bool
	endpoints    *Endpoints
	storage      Storage
	crypto       Crypto
	cookies      *httphelper.Cookies
	httpHandler  http.Handler
	decoder      *schema.Decoder
	encoder      *schema.Encoder
	interceptors []HttpInterceptor
	corsOptions  cors.Options
	logger       *slog.Logger
	metrics      *Metrics
	registerer   prometheus.Registerer
	gatherer     prometheus.Gatherer
	httpClient   *http.Client
	assertions   *assertionCache
	now          func() time.Time
}

func (o *Provider) IssuerFromRequest(r *http.Request) string {
	return o.issuer(r)
}

func (o *Provider) Insecure() bool {
	return o.insecure
}

func (o *Provider) Config() Config {
	return *o.config
}

func (o *Provider) Endpoints() Endpoints {
	return *o.endpoints
}

func (o *Provider) Storage() Storage {
	return o.storage
}

func (o *Provider) Decoder() httphelper.Decoder {
	return o.decoder
}

func (o *Provider) Encoder() httphelper.Encoder {
	return o.encoder
}

func (o *Provider) Crypto() Crypto {
	return o.crypto
}

func (o *Provider) Metrics() *Metrics {
	return o.metrics
}

func (o *Provider) Probes() []ProbesFn {
	return []ProbesFn{
		ReadyStorage(o.storage),
	}
}

func (o *Provider) HttpHandler() http.Handler {
	return o.httpHandler
}

// Sweeper returns a sweeper for the storage of the provider.
func (o *Provider) Sweeper() *Sweeper {
	return NewSweeper(o.storage, o.config.SweepInterval, o.config.GrantRetention,
		WithSweeperLogger(o.logger), WithSweeperMetrics(o.metrics), WithSweeperClock(o.now))
}

type Option func(o *Provider) error

// WithAllowInsecure allows the use of http (instead of https) for issuers.
// This is not recommended for production use and violates the OIDC specification.
func WithAllowInsecure() Option {
	return func(o *Provider) error {
		o.insecure = true
		return nil
	}
}

func WithCustomAuthEndpoint(endpoint *Endpoint) Option {
	return withCustomEndpoint(endpoint, func(e *Endpoints) { e.Authorization = endpoint })
}

func WithCustomTokenEndpoint(endpoint *Endpoint) Option {
	return withCustomEndpoint(endpoint, func(e *Endpoints) { e.Token = endpoint })
}

func WithCustomUserinfoEndpoint(endpoint *Endpoint) Option {
	return withCustomEndpoint(endpoint, func(e *Endpoints) { e.Userinfo = endpoint })
}

func WithCustomRevocationEndpoint(endpoint *Endpoint) Option {
	return withCustomEndpoint(endpoint, func(e *Endpoints) { e.Revocation = endpoint })
}

func WithCustomIntrospectionEndpoint(endpoint *Endpoint) Option {
	return withCustomEndpoint(endpoint, func(e *Endpoints) { e.Introspection = endpoint })
}

func WithCustomKeysEndpoint(endpoint *Endpoint) Option {
	return withCustomEndpoint(endpoint, func(e *Endpoints) { e.JwksURI = endpoint })
}

func WithCustomRegistrationEndpoint(endpoint *Endpoint) Option {
	return withCustomEndpoint(endpoint, func(e *Endpoints) { e.Registration = endpoint })
}

func withCustomEndpoint(endpoint *Endpoint, set func(*Endpoints)) Option {
	return func(o *Provider) error {
		if err := endpoint.Validate(); err != nil {
			return err
		}
		endpoints := *o.endpoints
		set(&endpoints)
		o.endpoints = &endpoints
		return nil
	}
}

func WithHttpInterceptors(interceptors ...HttpInterceptor) Option {
	return func(o *Provider) error {
		o.interceptors = append(o.interceptors, interceptors...)
		return nil
	}
}

func WithCORSOptions(opts *cors.Options) Option {
	return func(o *Provider) error {
		o.corsOptions = *opts
		return nil
	}
}

// WithLogger lets a logger other than slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Provider) error {
		o.logger = logger
		return nil
	}
}

// WithHTTPClient sets the client used to fetch request_uri and jwks_uri.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Provider) error {
		o.httpClient = client
		return nil
	}
}

// WithMetricsRegistry registers the metrics of the provider on the registry
// and serves it on /metrics.
func WithMetricsRegistry(registry *prometheus.Registry) Option {
	return func(o *Provider) error {
		o.registerer, o.gatherer = registry, registry
		return nil
	}
}

// WithClock replaces time.Now, used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(o *Provider) error {
		o.now = now
		return nil
	}
}
