package oidc

const (
	DiscoveryEndpoint = "/.well-known/openid-configuration"
)

// DiscoveryConfiguration according to:
// https://openid.net/specs/openid-connect-discovery-1_0.html#ProviderMetadata
type DiscoveryConfiguration struct {
	// Issuer is the identifier of the OP and is used in the tokens as `iss` claim.
	Issuer string `json:"issuer,omitempty"`

	AuthorizationEndpoint string `json:"authorization_endpoint,omitempty"`
	TokenEndpoint         string `json:"token_endpoint,omitempty"`
	UserinfoEndpoint      string `json:"userinfo_endpoint,omitempty"`
	RevocationEndpoint    string `json:"revocation_endpoint,omitempty"`
	IntrospectionEndpoint string `json:"introspection_endpoint,omitempty"`
	RegistrationEndpoint  string `json:"registration_endpoint,omitempty"`
	JwksURI               string `json:"jwks_uri,omitempty"`

	ScopesSupported        []string              `json:"scopes_supported,omitempty"`
	ResponseTypesSupported []string              `json:"response_types_supported,omitempty"`
	ResponseModesSupported []string              `json:"response_modes_supported,omitempty"`
	GrantTypesSupported    []GrantType           `json:"grant_types_supported,omitempty"`
	ACRValuesSupported     []string              `json:"acr_values_supported,omitempty"`
	SubjectTypesSupported  []string              `json:"subject_types_supported,omitempty"`
	ClaimsSupported        []string              `json:"claims_supported,omitempty"`
	ClaimTypesSupported    []string              `json:"claim_types_supported,omitempty"`
	DisplayValuesSupported []Display             `json:"display_values_supported,omitempty"`
	UILocalesSupported     []string              `json:"ui_locales_supported,omitempty"`
	CodeChallengeMethods   []CodeChallengeMethod `json:"code_challenge_methods_supported,omitempty"`

	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported,omitempty"`
	UserinfoSigningAlgValuesSupported []string `json:"userinfo_signing_alg_values_supported,omitempty"`

	RequestObjectSigningAlgValuesSupported    []string `json:"request_object_signing_alg_values_supported,omitempty"`
	RequestObjectEncryptionAlgValuesSupported []string `json:"request_object_encryption_alg_values_supported,omitempty"`
	RequestObjectEncryptionEncValuesSupported []string `json:"request_object_encryption_enc_values_supported,omitempty"`

	TokenEndpointAuthMethodsSupported          []AuthMethod `json:"token_endpoint_auth_methods_supported,omitempty"`
	TokenEndpointAuthSigningAlgValuesSupported []string     `json:"token_endpoint_auth_signing_alg_values_supported,omitempty"`
	RevocationEndpointAuthMethodsSupported     []AuthMethod `json:"revocation_endpoint_auth_methods_supported,omitempty"`
	IntrospectionEndpointAuthMethodsSupported  []AuthMethod `json:"introspection_endpoint_auth_methods_supported,omitempty"`

	ClaimsParameterSupported      bool `json:"claims_parameter_supported"`
	RequestParameterSupported     bool `json:"request_parameter_supported"`
	RequestURIParameterSupported  bool `json:"request_uri_parameter_supported"`
	RequireRequestURIRegistration bool `json:"require_request_uri_registration"`
}
