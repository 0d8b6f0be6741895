package op

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"

	"github.com/zitadel/authserver/pkg/oidc"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access_token"
	TokenTypeRefresh TokenType = "refresh_token"
	TokenTypeID      TokenType = "id_token"
)

// Token is the server side record of an issued token.
type Token struct {
	ID string `json:"id"`
	// GrantID links the token to the authorization code it was minted from,
	// directly or through refreshes. Empty for grants without a code.
	GrantID   string    `json:"grant_id,omitempty"`
	Type      TokenType `json:"type"`
	ClientID  string    `json:"client_id"`
	Subject   string    `json:"subject"`
	Scopes    []string  `json:"scopes"`
	Audience  []string  `json:"audience"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	// SigningAlg of id_tokens and JWT access tokens.
	SigningAlg string `json:"signing_alg,omitempty"`
	// RefreshTokenID is the refresh token this token was minted with.
	RefreshTokenID string              `json:"refresh_token_id,omitempty"`
	AuthTime       time.Time           `json:"auth_time,omitempty"`
	AMR            []string            `json:"amr,omitempty"`
	ACR            string              `json:"acr,omitempty"`
	Claims         *oidc.ClaimsRequest `json:"claims,omitempty"`
}

func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Active is true for tokens which are neither revoked nor expired.
func (t *Token) Active(now time.Time) bool {
	return !t.Revoked && !t.Expired(now)
}

// tokenRequest is what tokens are minted for, taken
// from a grant, a refresh token or a direct token request.
type tokenRequest struct {
	grantID  string
	clientID string
	subject  string
	scopes   []string
	nonce    string
	authTime time.Time
	amr      []string
	acr      string
	claims   *oidc.ClaimsRequest
}

func (r *tokenRequest) hasScope(scope string) bool {
	for _, s := range r.scopes {
		if s == scope {
			return true
		}
	}
	return false
}

type issueOptions struct {
	accessToken  bool
	refreshToken bool
	idToken      bool
	// code is hashed into the c_hash of the id_token.
	code string
	// parentRefresh is the refresh token the tokens are minted with.
	parentRefresh string
	// minted collects the ids of the stored tokens, if set.
	minted *[]string
}

// createTokens mints and stores the tokens opts asks for.
func (o *Provider) createTokens(ctx context.Context, client Client, req *tokenRequest, opts issueOptions) (*oidc.AccessTokenResponse, error) {
	ctx, span := tracer.Start(ctx, "createTokens")
	defer span.End()

	now := o.now()
	resp := &oidc.AccessTokenResponse{
		Scope: req.scopes,
	}
	if opts.accessToken {
		value, err := o.createAccessToken(ctx, client, req, opts, now)
		if err != nil {
			return nil, err
		}
		resp.AccessToken = value
		resp.TokenType = oidc.BearerToken
		resp.ExpiresIn = uint64(o.config.AccessTokenLifetime / time.Second)
	}
	if opts.refreshToken {
		value, err := o.createRefreshToken(ctx, req, opts, now)
		if err != nil {
			return nil, err
		}
		resp.RefreshToken = value
	}
	if opts.idToken {
		value, err := o.createIDToken(ctx, client, req, resp.AccessToken, opts, now)
		if err != nil {
			return nil, err
		}
		resp.IDToken = value
	}
	return resp, nil
}

// saveToken stores the token record and reports it to opts.minted.
func (o *Provider) saveToken(ctx context.Context, token *Token, opts issueOptions) error {
	if err := o.storage.SaveToken(ctx, token); err != nil {
		return oidc.ErrServerError().WithParent(err)
	}
	if opts.minted != nil {
		*opts.minted = append(*opts.minted, token.ID)
	}
	o.metrics.tokenIssued(token.Type)
	return nil
}

func (o *Provider) createAccessToken(ctx context.Context, client Client, req *tokenRequest, opts issueOptions, now time.Time) (string, error) {
	token := &Token{
		ID:             uuid.NewString(),
		GrantID:        req.grantID,
		Type:           TokenTypeAccess,
		ClientID:       req.clientID,
		Subject:        req.subject,
		Scopes:         req.scopes,
		Audience:       []string{req.clientID},
		IssuedAt:       now,
		ExpiresAt:      now.Add(o.config.AccessTokenLifetime),
		RefreshTokenID: opts.parentRefresh,
		AuthTime:       req.authTime,
		AMR:            req.amr,
		ACR:            req.acr,
		Claims:         req.claims,
	}
	var value string
	var err error
	if client.AccessTokenType() == AccessTokenTypeJWT {
		token.SigningAlg = string(DefaultSignatureAlgorithm)
		claims := oidc.NewAccessTokenClaims(IssuerFromContext(ctx), req.subject, token.Audience, token.ExpiresAt, token.ID, req.clientID)
		claims.IssuedAt = oidc.FromTime(now)
		claims.NotBefore = oidc.FromTime(now)
		claims.Scopes = req.scopes
		value, err = o.signJWT(ctx, client, DefaultSignatureAlgorithm, claims)
	} else {
		value, err = sealToken(o.crypto, token.ID, req.subject)
	}
	if err != nil {
		return "", oidc.ErrServerError().WithParent(err)
	}
	if err = o.saveToken(ctx, token, opts); err != nil {
		return "", err
	}
	return value, nil
}

func (o *Provider) createRefreshToken(ctx context.Context, req *tokenRequest, opts issueOptions, now time.Time) (string, error) {
	token := &Token{
		ID:             uuid.NewString(),
		GrantID:        req.grantID,
		Type:           TokenTypeRefresh,
		ClientID:       req.clientID,
		Subject:        req.subject,
		Scopes:         req.scopes,
		Audience:       []string{req.clientID},
		IssuedAt:       now,
		ExpiresAt:      now.Add(o.config.RefreshTokenLifetime),
		RefreshTokenID: opts.parentRefresh,
		AuthTime:       req.authTime,
		AMR:            req.amr,
		ACR:            req.acr,
		Claims:         req.claims,
	}
	value, err := sealToken(o.crypto, token.ID, req.subject)
	if err != nil {
		return "", oidc.ErrServerError().WithParent(err)
	}
	if err = o.saveToken(ctx, token, opts); err != nil {
		return "", err
	}
	return value, nil
}

// createIDToken signs an id_token with the algorithm the client registered.
// at_hash and c_hash are set when accessToken or opts.code are passed.
func (o *Provider) createIDToken(ctx context.Context, client Client, req *tokenRequest, accessToken string, opts issueOptions, now time.Time) (string, error) {
	ctx, span := tracer.Start(ctx, "createIDToken")
	defer span.End()

	alg := IDTokenSigningAlg(client)
	lifetime := client.IDTokenLifetime()
	if lifetime <= 0 {
		lifetime = o.config.IDTokenLifetime
	}
	claims := oidc.NewIDTokenClaims(IssuerFromContext(ctx), req.subject, []string{req.clientID}, now.Add(lifetime), time.Time{}, req.nonce, "", req.amr, req.clientID)
	claims.IssuedAt = oidc.FromTime(now)

	var requested map[string]*oidc.ClaimRequest
	if req.claims != nil {
		requested = req.claims.IDToken
	}
	if _, ok := requested["auth_time"]; ok {
		claims.AuthTime = oidc.FromTime(req.authTime)
	}
	if _, ok := requested["acr"]; ok {
		claims.AuthenticationContextClassReference = req.acr
	}
	if accessToken != "" {
		hash, err := oidc.ClaimHash(accessToken, alg)
		if err != nil {
			return "", oidc.ErrServerError().WithParent(err)
		}
		claims.SetAccessTokenHash(hash)
	}
	if opts.code != "" {
		hash, err := oidc.ClaimHash(opts.code, alg)
		if err != nil {
			return "", oidc.ErrServerError().WithParent(err)
		}
		claims.SetCodeHash(hash)
	}

	// without an access token the userinfo endpoint can not be
	// used, so the scope claims are released in the id_token
	names := requestedClaimNames(nil, requested)
	if accessToken == "" {
		names = requestedClaimNames(req.scopes, requested)
	}
	if len(names) > 0 {
		userClaims, err := o.userClaims(ctx, req.subject, names)
		if err != nil {
			return "", err
		}
		for k := range userClaims {
			if _, reserved := reservedIDTokenClaims[k]; reserved {
				delete(userClaims, k)
			}
		}
		claims.Claims = userClaims
	}

	token, err := o.signJWT(ctx, client, alg, claims)
	if err != nil {
		return "", oidc.ErrServerError().WithParent(err)
	}
	record := &Token{
		ID:         uuid.NewString(),
		GrantID:    req.grantID,
		Type:       TokenTypeID,
		ClientID:   req.clientID,
		Subject:    req.subject,
		Scopes:     req.scopes,
		Audience:   claims.Audience,
		IssuedAt:   now,
		ExpiresAt:  claims.Expiration.AsTime(),
		SigningAlg: string(alg),
		AuthTime:   req.authTime,
		AMR:        req.amr,
		ACR:        req.acr,
	}
	if err = o.saveToken(ctx, record, opts); err != nil {
		return "", err
	}
	return token, nil
}

// reservedIDTokenClaims are never taken from the user store.
var reservedIDTokenClaims = map[string]struct{}{
	"iss": {}, "sub": {}, "aud": {}, "exp": {}, "iat": {}, "nbf": {},
	"auth_time": {}, "nonce": {}, "acr": {}, "amr": {}, "azp": {},
	"at_hash": {}, "c_hash": {}, "client_id": {}, "jti": {}, "sid": {},
}

// requestedClaimNames returns the claims the scopes grant,
// followed by the members of the claims request.
func requestedClaimNames(scopes []string, requested map[string]*oidc.ClaimRequest) []string {
	var names []string
	for _, scope := range scopes {
		names = append(names, oidc.ClaimsForScope(scope)...)
	}
	for name := range requested {
		names = append(names, name)
	}
	return names
}

// userClaims resolves the named claims of the subject. Claims the user
// store does not know are omitted, even when requested as essential.
func (o *Provider) userClaims(ctx context.Context, subject string, names []string) (map[string]any, error) {
	info, err := o.storage.UserInfo(ctx, subject)
	if err != nil {
		return nil, oidc.ErrServerError().WithParent(err)
	}
	all, err := info.ClaimsMap()
	if err != nil {
		return nil, oidc.ErrServerError().WithParent(err)
	}
	released := make(map[string]any, len(names))
	for _, name := range names {
		if v, ok := all[name]; ok {
			released[name] = v
		}
	}
	return released, nil
}

// tokenByValue opens an opaque access or refresh token and loads its record.
func (o *Provider) tokenByValue(ctx context.Context, value string) (*Token, error) {
	tokenID, subject, err := openToken(o.crypto, value)
	if err != nil {
		return nil, err
	}
	token, err := o.storage.TokenByID(ctx, tokenID)
	if err != nil {
		return nil, oidc.ErrInvalidToken().WithDescription("token is invalid").WithParent(err)
	}
	if token.Subject != subject {
		return nil, oidc.ErrInvalidToken().WithDescription("token is invalid")
	}
	return token, nil
}

// verifyServerJWS verifies a JWS signed with one of the server keys.
// Signature failures are returned as invalid_token.
func (o *Provider) verifyServerJWS(ctx context.Context, value string, header *oidc.JOSEHeader) ([]byte, error) {
	keySet, err := o.keySet(ctx)
	if err != nil {
		return nil, oidc.ErrServerError().WithParent(err)
	}
	key, err := oidc.FindMatchingKey(header.KeyID, oidc.KeyUseSignature, header.Algorithm, keySet.Keys...)
	if err != nil {
		return nil, oidc.ErrInvalidToken().WithDescription("token is invalid").WithParent(err)
	}
	jws, err := jose.ParseSigned(value, []jose.SignatureAlgorithm{jose.SignatureAlgorithm(header.Algorithm)})
	if err != nil {
		return nil, oidc.ErrInvalidToken().WithDescription("token is malformed").WithParent(err)
	}
	payload, err := jws.Verify(key.Key)
	if err != nil {
		return nil, oidc.ErrInvalidToken().WithDescription("token is invalid").WithParent(err)
	}
	return payload, nil
}

// accessTokenByValue loads the record of an opaque or JWT access token.
// JWT access tokens must carry a valid signature of one of the server keys.
func (o *Provider) accessTokenByValue(ctx context.Context, value string) (*Token, error) {
	if strings.Count(value, ".") != 2 {
		return o.tokenByValue(ctx, value)
	}
	header, err := oidc.ParseHeader(value)
	if err != nil {
		return nil, oidc.ErrInvalidToken().WithDescription("token is malformed").WithParent(err)
	}
	payload, err := o.verifyServerJWS(ctx, value, header)
	if err != nil {
		return nil, err
	}
	claims := new(oidc.AccessTokenClaims)
	if err = json.Unmarshal(payload, claims); err != nil {
		return nil, oidc.ErrInvalidToken().WithDescription("token is malformed").WithParent(err)
	}
	if err = oidc.CheckIssuer(claims.Issuer, IssuerFromContext(ctx)); err != nil {
		return nil, oidc.ErrInvalidToken().WithDescription("token is invalid").WithParent(err)
	}
	token, err := o.storage.TokenByID(ctx, claims.JWTID)
	if err != nil {
		return nil, oidc.ErrInvalidToken().WithDescription("token is invalid").WithParent(err)
	}
	if token.Subject != claims.Subject {
		return nil, oidc.ErrInvalidToken().WithDescription("token is invalid")
	}
	return token, nil
}
