package op

import (
	"context"
	"net/http"

	jose "github.com/go-jose/go-jose/v4"

	httphelper "github.com/zitadel/authserver/pkg/http"
	"github.com/zitadel/authserver/pkg/oidc"
)

var DefaultSupportedScopes = []string{
	oidc.ScopeOpenID,
	oidc.ScopeProfile,
	oidc.ScopeEmail,
	oidc.ScopePhone,
	oidc.ScopeAddress,
	oidc.ScopeOfflineAccess,
}

// Discover serves the OpenID Provider Metadata of the issuer of the request.
func (o *Provider) Discover(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Discover")
	defer span.End()

	httphelper.MarshalJSON(w, o.CreateDiscoveryConfig(ctx, IssuerFromContext(ctx)))
}

func (o *Provider) CreateDiscoveryConfig(ctx context.Context, issuer string) *oidc.DiscoveryConfiguration {
	signingAlgs := o.supportedSigningAlgs(ctx)
	config := &oidc.DiscoveryConfiguration{
		Issuer:                issuer,
		AuthorizationEndpoint: o.endpoints.Authorization.Absolute(issuer),
		TokenEndpoint:         o.endpoints.Token.Absolute(issuer),
		UserinfoEndpoint:      o.endpoints.Userinfo.Absolute(issuer),
		RevocationEndpoint:    o.endpoints.Revocation.Absolute(issuer),
		IntrospectionEndpoint: o.endpoints.Introspection.Absolute(issuer),
		JwksURI:               o.endpoints.JwksURI.Absolute(issuer),

		ScopesSupported:        DefaultSupportedScopes,
		ResponseTypesSupported: ResponseTypes(),
		ResponseModesSupported: []string{string(oidc.ResponseModeQuery), string(oidc.ResponseModeFragment)},
		GrantTypesSupported: []oidc.GrantType{
			oidc.GrantTypeCode,
			oidc.GrantTypeImplicit,
			oidc.GrantTypeRefreshToken,
			oidc.GrantTypePassword,
			oidc.GrantTypeClientCredentials,
		},
		SubjectTypesSupported:  []string{"public"},
		ClaimsSupported:        SupportedClaims(),
		ClaimTypesSupported:    []string{"normal"},
		DisplayValuesSupported: []oidc.Display{oidc.DisplayPage, oidc.DisplayPopup, oidc.DisplayTouch, oidc.DisplayWAP},
		UILocalesSupported:     o.uiLocales(),
		CodeChallengeMethods:   o.codeChallengeMethods(),

		IDTokenSigningAlgValuesSupported:  withHMAC(signingAlgs),
		UserinfoSigningAlgValuesSupported: withHMAC(signingAlgs),

		TokenEndpointAuthMethodsSupported:          oidc.AllAuthMethods,
		TokenEndpointAuthSigningAlgValuesSupported: SupportedClientSigningAlgs[1:],
		RevocationEndpointAuthMethodsSupported:     oidc.AllAuthMethods,
		IntrospectionEndpointAuthMethodsSupported:  oidc.AllAuthMethods,

		ClaimsParameterSupported:      true,
		RequestParameterSupported:     o.config.RequestObjectSupported,
		RequestURIParameterSupported:  o.config.RequestURISupported,
		RequireRequestURIRegistration: true,
	}
	if o.config.RequestObjectSupported || o.config.RequestURISupported {
		config.RequestObjectSigningAlgValuesSupported = SupportedClientSigningAlgs
		config.RequestObjectEncryptionAlgValuesSupported = keyAlgorithmNames(requestObjectKeyAlgorithms)
		config.RequestObjectEncryptionEncValuesSupported = contentEncryptionNames(requestObjectContentEncryption)
	}
	if o.config.DynamicRegistration {
		config.RegistrationEndpoint = o.endpoints.Registration.Absolute(issuer)
	}
	return config
}

func ResponseTypes() []string {
	return []string{
		string(oidc.ResponseTypeCode),
		string(oidc.ResponseTypeIDTokenOnly),
		string(oidc.ResponseTypeToken),
		string(oidc.ResponseTypeIDToken),
		string(oidc.ResponseTypeCodeIDToken),
		string(oidc.ResponseTypeCodeToken),
		string(oidc.ResponseTypeCodeIDTokenToken),
	}
}

func SupportedClaims() []string {
	claims := []string{
		"sub", "aud", "exp", "iat", "iss", "auth_time", "nonce", "acr", "amr",
		"c_hash", "at_hash", "azp",
	}
	for _, scope := range DefaultSupportedScopes {
		claims = append(claims, oidc.ClaimsForScope(scope)...)
	}
	return claims
}

func (o *Provider) codeChallengeMethods() []oidc.CodeChallengeMethod {
	methods := []oidc.CodeChallengeMethod{oidc.CodeChallengeMethodPlain}
	if o.config.CodeMethodS256 {
		methods = append(methods, oidc.CodeChallengeMethodS256)
	}
	return methods
}

func (o *Provider) uiLocales() []string {
	locales := make([]string, len(o.config.SupportedUILocales))
	for i, tag := range o.config.SupportedUILocales {
		locales[i] = tag.String()
	}
	return locales
}

// withHMAC appends the algorithms signed with the client secret.
func withHMAC(algs []string) []string {
	return append(append([]string{}, algs...), string(jose.HS256), string(jose.HS384), string(jose.HS512))
}

func keyAlgorithmNames(algs []jose.KeyAlgorithm) []string {
	names := make([]string, len(algs))
	for i, alg := range algs {
		names[i] = string(alg)
	}
	return names
}

func contentEncryptionNames(encs []jose.ContentEncryption) []string {
	names := make([]string, len(encs))
	for i, enc := range encs {
		names[i] = string(enc)
	}
	return names
}
