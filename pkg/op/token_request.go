package op

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"net/url"

	httphelper "github.com/zitadel/authserver/pkg/http"
	"github.com/zitadel/authserver/pkg/oidc"
)

// Exchange performs a token exchange appropriate for the grant type
func (o *Provider) Exchange(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Exchange")
	defer span.End()
	r = r.WithContext(ctx)

	if err := r.ParseForm(); err != nil {
		RequestError(w, r, oidc.ErrInvalidRequest().WithDescription("error parsing form").WithParent(err), o.Logger(ctx))
		return
	}
	grantType := oidc.GrantType(r.PostForm.Get("grant_type"))
	switch grantType {
	case oidc.GrantTypeCode, oidc.GrantTypeRefreshToken, oidc.GrantTypePassword, oidc.GrantTypeClientCredentials:
	case "":
		RequestError(w, r, oidc.ErrInvalidRequest().WithDescription("grant_type missing"), o.Logger(ctx))
		return
	default:
		RequestError(w, r, oidc.ErrUnsupportedGrantType().WithDescription("%s not supported", grantType), o.Logger(ctx))
		return
	}

	client, err := o.AuthenticateClient(r)
	if err != nil {
		RequestError(w, r, err, o.Logger(ctx))
		return
	}
	ctx = o.logCtxWithClient(ctx, client.GetID())
	r = r.WithContext(ctx)
	if !ContainsGrantType(client.GrantTypes(), grantType) {
		RequestError(w, r, oidc.ErrUnauthorizedClient().WithDescription("grant_type %s is not allowed for the client", grantType), o.Logger(ctx))
		return
	}

	var resp *oidc.AccessTokenResponse
	switch grantType {
	case oidc.GrantTypeCode:
		resp, err = o.CodeExchange(r, client)
	case oidc.GrantTypeRefreshToken:
		resp, err = o.RefreshTokenExchange(r, client)
	case oidc.GrantTypePassword:
		resp, err = o.PasswordExchange(r, client)
	case oidc.GrantTypeClientCredentials:
		resp, err = o.ClientCredentialsExchange(r, client)
	}
	if err != nil {
		RequestError(w, r, err, o.Logger(ctx))
		return
	}
	writeTokenResponse(w, resp)
}

func writeTokenResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	httphelper.MarshalJSON(w, resp)
}

// parseTokenRequest decodes the form of a token request into request.
func (o *Provider) parseTokenRequest(r *http.Request, request any) error {
	if err := r.ParseForm(); err != nil {
		return oidc.ErrInvalidRequest().WithDescription("error parsing form").WithParent(err)
	}
	if err := o.decoder.Decode(request, r.PostForm); err != nil {
		return oidc.ErrInvalidRequest().WithDescription("error decoding form").WithParent(err)
	}
	return nil
}

// AuthenticateClient detects the authentication method the client used on
// the token or revocation endpoint and verifies it. The method must be the
// token_endpoint_auth_method the client registered.
func (o *Provider) AuthenticateClient(r *http.Request) (Client, error) {
	ctx, span := tracer.Start(r.Context(), "AuthenticateClient")
	defer span.End()

	creds := new(oidc.ClientCredentials)
	if err := o.parseTokenRequest(r, creds); err != nil {
		return nil, err
	}
	method, clientID, secret, err := detectAuthMethod(r, creds)
	if err != nil {
		return nil, err
	}
	if clientID == "" {
		return nil, oidc.ErrInvalidClient().WithDescription("client authentication is missing")
	}
	client, err := o.clientByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.AuthMethod() != method {
		return nil, oidc.ErrInvalidClient().WithDescription("client must authenticate with %s", client.AuthMethod())
	}
	switch method {
	case oidc.AuthMethodBasic, oidc.AuthMethodPost:
		registered := client.SharedSecret()
		if registered == "" || subtle.ConstantTimeCompare([]byte(registered), []byte(secret)) != 1 {
			return nil, oidc.ErrInvalidClient().WithDescription("invalid client_id / client_secret")
		}
	case oidc.AuthMethodSecretJWT, oidc.AuthMethodPrivateKeyJWT:
		if err = o.verifyClientAssertion(ctx, client, creds.ClientAssertion); err != nil {
			return nil, err
		}
	}
	return client, nil
}

// detectAuthMethod returns the method and client_id of the presented credentials.
// More than one method in the same request is refused.
func detectAuthMethod(r *http.Request, creds *oidc.ClientCredentials) (method oidc.AuthMethod, clientID, secret string, err error) {
	if basicID, basicSecret, ok := r.BasicAuth(); ok {
		if creds.ClientSecret != "" || creds.ClientAssertion != "" {
			return "", "", "", oidc.ErrInvalidRequest().WithDescription("multiple client authentication methods used")
		}
		if clientID, err = url.QueryUnescape(basicID); err != nil {
			return "", "", "", oidc.ErrInvalidClient().WithDescription("invalid basic auth header").WithParent(err)
		}
		if secret, err = url.QueryUnescape(basicSecret); err != nil {
			return "", "", "", oidc.ErrInvalidClient().WithDescription("invalid basic auth header").WithParent(err)
		}
		if creds.ClientID != "" && creds.ClientID != clientID {
			return "", "", "", oidc.ErrInvalidClient().WithDescription("client_id does not match the basic auth header")
		}
		return oidc.AuthMethodBasic, clientID, secret, nil
	}
	if creds.ClientAssertion != "" {
		if creds.ClientSecret != "" {
			return "", "", "", oidc.ErrInvalidRequest().WithDescription("multiple client authentication methods used")
		}
		if creds.ClientAssertionType != oidc.ClientAssertionTypeJWTAssertion {
			return "", "", "", oidc.ErrInvalidClient().WithDescription("client_assertion_type %s is not supported", creds.ClientAssertionType)
		}
		header, err := oidc.ParseHeader(creds.ClientAssertion)
		if err != nil {
			return "", "", "", oidc.ErrInvalidClient().WithDescription("client_assertion is malformed").WithParent(err)
		}
		claims := new(oidc.JWTTokenRequest)
		if _, err = oidc.ParseToken(creds.ClientAssertion, claims); err != nil {
			return "", "", "", oidc.ErrInvalidClient().WithDescription("client_assertion is malformed").WithParent(err)
		}
		if creds.ClientID != "" && creds.ClientID != claims.Issuer {
			return "", "", "", oidc.ErrInvalidClient().WithDescription("client_id does not match the client_assertion")
		}
		switch family := signatureFamilyOf(header.Algorithm); {
		case family == familyHMAC:
			method = oidc.AuthMethodSecretJWT
		case family.isAsymmetric():
			method = oidc.AuthMethodPrivateKeyJWT
		default:
			return "", "", "", oidc.ErrInvalidClient().WithDescription("client_assertion algorithm %s is not allowed", header.Algorithm)
		}
		return method, claims.Issuer, "", nil
	}
	if creds.ClientSecret != "" {
		return oidc.AuthMethodPost, creds.ClientID, creds.ClientSecret, nil
	}
	return oidc.AuthMethodNone, creds.ClientID, "", nil
}

// verifyClientAssertion verifies a client_secret_jwt or private_key_jwt assertion (RFC 7523).
// The jti of an accepted assertion is rejected until the assertion expires.
func (o *Provider) verifyClientAssertion(ctx context.Context, client Client, assertion string) error {
	header, err := oidc.ParseHeader(assertion)
	if err != nil {
		return oidc.ErrInvalidClient().WithDescription("client_assertion is malformed").WithParent(err)
	}
	payload, err := o.verifyClientJWS(ctx, client, assertion, header)
	if err != nil {
		return oidc.ErrInvalidClient().WithDescription("client_assertion signature is invalid").WithParent(err)
	}
	claims := new(oidc.JWTTokenRequest)
	if err = json.Unmarshal(payload, claims); err != nil {
		return oidc.ErrInvalidClient().WithDescription("client_assertion is malformed").WithParent(err)
	}
	if claims.Issuer != client.GetID() || claims.Subject != client.GetID() {
		return oidc.ErrInvalidClient().WithDescription("iss and sub of the client_assertion must be the client_id")
	}
	issuer := IssuerFromContext(ctx)
	if !claims.Audience.Contains(issuer) && !claims.Audience.Contains(o.endpoints.Token.Absolute(issuer)) {
		return oidc.ErrInvalidClient().WithDescription("aud of the client_assertion must contain the issuer")
	}
	if claims.ExpiresAt == 0 {
		return oidc.ErrInvalidClient().WithDescription("client_assertion has no exp")
	}
	now := o.now()
	if err = oidc.CheckExpiration(claims.ExpiresAt, client.ClockSkew(), now); err != nil {
		return oidc.ErrInvalidClient().WithDescription("client_assertion has expired").WithParent(err)
	}
	if err = oidc.CheckIssuedAt(claims.IssuedAt, client.ClockSkew(), now); err != nil {
		return oidc.ErrInvalidClient().WithDescription("client_assertion iat is invalid").WithParent(err)
	}
	if claims.JWTID == "" {
		return oidc.ErrInvalidClient().WithDescription("client_assertion has no jti")
	}
	if !o.assertions.use(client.GetID(), claims.JWTID, claims.ExpiresAt.AsTime().Add(client.ClockSkew()), now) {
		return oidc.ErrInvalidClient().WithDescription("client_assertion has already been used")
	}
	return nil
}

// AuthorizeCodeChallenge authorizes a client by validating the code_verifier against the previously sent
// code_challenge of the auth request (PKCE)
func AuthorizeCodeChallenge(codeVerifier string, challenge *oidc.CodeChallenge) error {
	if challenge == nil {
		if codeVerifier != "" {
			return oidc.ErrInvalidRequest().WithDescription("code_verifier unexpectedly provided")
		}
		return nil
	}
	if codeVerifier == "" {
		return oidc.ErrInvalidRequest().WithDescription("code_verifier required")
	}
	if !oidc.VerifyCodeChallenge(challenge, codeVerifier) {
		return oidc.ErrInvalidGrant().WithDescription("invalid code_verifier")
	}
	return nil
}
