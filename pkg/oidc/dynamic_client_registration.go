package oidc

import (
	jose "github.com/go-jose/go-jose/v4"
)

const (
	ApplicationTypeWeb    = "web"
	ApplicationTypeNative = "native"
)

// ClientMetadata implements https://openid.net/specs/openid-connect-registration-1_0.html#ClientMetadata
// and https://www.rfc-editor.org/rfc/rfc7591#section-2.
//
// The Client Metadata values are used in two ways:
//
//   - as input values to registration requests (ClientRegistrationRequest), and
//   - as output values in registration responses and read responses (ClientInformationResponse).
type ClientMetadata struct {
	// RedirectURIs is an array of redirection URI strings for use in redirect-based flows
	// such as the authorization code and implicit flows.
	RedirectURIs []string `json:"redirect_uris"`

	// TokenEndpointAuthMethod is the requested authentication method for the
	// token endpoint. If omitted, the default is "client_secret_basic".
	TokenEndpointAuthMethod AuthMethod `json:"token_endpoint_auth_method,omitempty"`

	// GrantTypes is an array of OAuth 2.0 grant type strings that the client can use at
	// the token endpoint. If omitted, the default is ["authorization_code"].
	GrantTypes []GrantType `json:"grant_types,omitempty"`

	// ResponseTypes is an array of the OAuth 2.0 response_type values
	// (space separated combinations) the client can use at the authorization endpoint.
	// If omitted, the default is ["code"].
	ResponseTypes []ResponseType `json:"response_types,omitempty"`

	// ApplicationType is "web" or "native". If omitted, the default is "web".
	ApplicationType string `json:"application_type,omitempty"`

	ClientName string   `json:"client_name,omitempty"`
	ClientURI  string   `json:"client_uri,omitempty"`
	LogoURI    string   `json:"logo_uri,omitempty"`
	Scope      string   `json:"scope,omitempty"`
	Contacts   []string `json:"contacts,omitempty"`

	// JWKSURI and JWKS are mutually exclusive.
	JWKSURI string              `json:"jwks_uri,omitempty"`
	JWKS    *jose.JSONWebKeySet `json:"jwks,omitempty"`

	IDTokenSignedResponseAlg    string `json:"id_token_signed_response_alg,omitempty"`
	UserinfoSignedResponseAlg   string `json:"userinfo_signed_response_alg,omitempty"`
	RequestObjectSigningAlg     string `json:"request_object_signing_alg,omitempty"`
	TokenEndpointAuthSigningAlg string `json:"token_endpoint_auth_signing_alg,omitempty"`

	DefaultMaxAge     *uint    `json:"default_max_age,omitempty"`
	RequireAuthTime   bool     `json:"require_auth_time,omitempty"`
	DefaultACRValues  []string `json:"default_acr_values,omitempty"`
	RequestURIs       []string `json:"request_uris,omitempty"`
	PostLogoutURIs    []string `json:"post_logout_redirect_uris,omitempty"`
	AccessTokenFormat string   `json:"access_token_type,omitempty"`
}

type ClientRegistrationRequest struct {
	ClientMetadata
}

// ClientInformationResponse is returned by the registration
// endpoint and by the client read endpoint.
type ClientInformationResponse struct {
	ClientID                string `json:"client_id"`
	ClientSecret            string `json:"client_secret,omitempty"`
	ClientIDIssuedAt        Time   `json:"client_id_issued_at,omitempty"`
	ClientSecretExpiresAt   Time   `json:"client_secret_expires_at"`
	RegistrationAccessToken string `json:"registration_access_token,omitempty"`
	RegistrationClientURI   string `json:"registration_client_uri,omitempty"`
	ClientMetadata
}
