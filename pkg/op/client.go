package op

import (
	"time"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/zitadel/authserver/pkg/oidc"
)

const (
	ApplicationTypeWeb ApplicationType = iota
	ApplicationTypeNative
)

type ApplicationType int

func (a ApplicationType) String() string {
	switch a {
	case ApplicationTypeNative:
		return oidc.ApplicationTypeNative
	default:
		return oidc.ApplicationTypeWeb
	}
}

// ApplicationTypeFromString maps the registration metadata value,
// an empty value defaults to web.
func ApplicationTypeFromString(s string) (ApplicationType, bool) {
	switch s {
	case "", oidc.ApplicationTypeWeb:
		return ApplicationTypeWeb, true
	case oidc.ApplicationTypeNative:
		return ApplicationTypeNative, true
	default:
		return ApplicationTypeWeb, false
	}
}

const (
	AccessTokenTypeBearer AccessTokenType = iota
	AccessTokenTypeJWT
)

type AccessTokenType int

// Client is the registration of a relying party, as seen by the
// authorization core. It is read only, registration and updates
// happen through the ClientRegistry implementation.
type Client interface {
	GetID() string
	// SharedSecret is used for client_secret_* authentication and as HMAC key.
	SharedSecret() string
	RedirectURIs() []string
	ApplicationType() ApplicationType
	AuthMethod() oidc.AuthMethod
	// ResponseTypes are the registered response_type combinations.
	ResponseTypes() []oidc.ResponseType
	GrantTypes() []oidc.GrantType
	LoginURL(string) string
	AccessTokenType() AccessTokenType
	IDTokenLifetime() time.Duration
	// RequestObjectSigningAlg is the registered request_object_signing_alg,
	// "none" for unsigned request objects or empty if any supported alg is accepted.
	RequestObjectSigningAlg() string
	IDTokenSignedResponseAlg() string
	UserinfoSignedResponseAlg() string
	// JWKS are the statically registered keys of the client, if any.
	JWKS() *jose.JSONWebKeySet
	JWKSURI() string
	RequestURIs() []string
	IsScopeAllowed(scope string) bool
	// Trusted clients are not asked for consent.
	Trusted() bool
	ClockSkew() time.Duration
}

func ContainsResponseType(types []oidc.ResponseType, responseType oidc.ResponseType) bool {
	for _, t := range types {
		if t.Equal(responseType) {
			return true
		}
	}
	return false
}

func ContainsGrantType(types []oidc.GrantType, grantType oidc.GrantType) bool {
	for _, t := range types {
		if t == grantType {
			return true
		}
	}
	return false
}

func IsConfidentialType(c Client) bool {
	return c.AuthMethod() != oidc.AuthMethodNone
}

// IDTokenSigningAlg returns the algorithm the client's id_tokens are signed with.
func IDTokenSigningAlg(c Client) jose.SignatureAlgorithm {
	if alg := c.IDTokenSignedResponseAlg(); alg != "" {
		return jose.SignatureAlgorithm(alg)
	}
	return DefaultSignatureAlgorithm
}
