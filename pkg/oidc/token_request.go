package oidc

const (
	// GrantTypeCode defines the grant_type `authorization_code` used for the Token Request in the Authorization Code Flow
	GrantTypeCode GrantType = "authorization_code"

	// GrantTypeRefreshToken defines the grant_type `refresh_token` used for the Token Request in the Refresh Token Flow
	GrantTypeRefreshToken GrantType = "refresh_token"

	// GrantTypePassword defines the grant_type `password` of the Resource Owner Password Credentials Grant
	GrantTypePassword GrantType = "password"

	// GrantTypeClientCredentials defines the grant_type `client_credentials` used for the Token Request in the Client Credentials Token Flow
	GrantTypeClientCredentials GrantType = "client_credentials"

	// GrantTypeImplicit defines the grant type `implicit` used for implicit flows that skip the generation and exchange of an Authorization Code
	GrantTypeImplicit GrantType = "implicit"

	// ClientAssertionTypeJWTAssertion defines the client_assertion_type `urn:ietf:params:oauth:client-assertion-type:jwt-bearer`
	// used for the OAuth JWT Profile Client Authentication
	ClientAssertionTypeJWTAssertion = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
)

var AllGrantTypes = []GrantType{
	GrantTypeCode, GrantTypeRefreshToken, GrantTypePassword,
	GrantTypeClientCredentials, GrantTypeImplicit,
}

type GrantType string

const (
	AuthMethodBasic         AuthMethod = "client_secret_basic"
	AuthMethodPost          AuthMethod = "client_secret_post"
	AuthMethodSecretJWT     AuthMethod = "client_secret_jwt"
	AuthMethodPrivateKeyJWT AuthMethod = "private_key_jwt"
	AuthMethodNone          AuthMethod = "none"
)

var AllAuthMethods = []AuthMethod{
	AuthMethodBasic, AuthMethodPost, AuthMethodSecretJWT,
	AuthMethodPrivateKeyJWT, AuthMethodNone,
}

type AuthMethod string

type TokenRequest interface {
	// GrantType GrantType `schema:"grant_type"`
	GrantType() GrantType
}

// ClientCredentials holds every way a client may authenticate
// on the token and revocation endpoints.
type ClientCredentials struct {
	ClientID            string `schema:"client_id"`
	ClientSecret        string `schema:"client_secret"`
	ClientAssertion     string `schema:"client_assertion"`
	ClientAssertionType string `schema:"client_assertion_type"`
}

type AccessTokenRequest struct {
	Code         string `schema:"code"`
	RedirectURI  string `schema:"redirect_uri"`
	CodeVerifier string `schema:"code_verifier"`
}

func (a *AccessTokenRequest) GrantType() GrantType {
	return GrantTypeCode
}

type RefreshTokenRequest struct {
	RefreshToken string              `schema:"refresh_token"`
	Scopes       SpaceDelimitedArray `schema:"scope"`
}

func (a *RefreshTokenRequest) GrantType() GrantType {
	return GrantTypeRefreshToken
}

type PasswordGrantRequest struct {
	Username string              `schema:"username"`
	Password string              `schema:"password"`
	Scopes   SpaceDelimitedArray `schema:"scope"`
}

func (p *PasswordGrantRequest) GrantType() GrantType {
	return GrantTypePassword
}

type ClientCredentialsRequest struct {
	Scopes SpaceDelimitedArray `schema:"scope"`
}

func (c *ClientCredentialsRequest) GrantType() GrantType {
	return GrantTypeClientCredentials
}

// RevocationRequest according to:
// https://datatracker.ietf.org/doc/html/rfc7009#section-2.1
type RevocationRequest struct {
	Token         string `schema:"token"`
	TokenTypeHint string `schema:"token_type_hint"`
}

// JWTTokenRequest holds the claims of a client assertion
// (client_secret_jwt and private_key_jwt authentication).
type JWTTokenRequest struct {
	Issuer    string   `json:"iss"`
	Subject   string   `json:"sub"`
	Audience  Audience `json:"aud"`
	IssuedAt  Time     `json:"iat"`
	ExpiresAt Time     `json:"exp"`
	JWTID     string   `json:"jti,omitempty"`
}
