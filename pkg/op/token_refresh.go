package op

import (
	"context"
	"net/http"
	"slices"

	"github.com/zitadel/authserver/pkg/oidc"
)

// RefreshTokenExchange handles the OAuth 2.0 refresh_token grant of an
// authenticated client and exchanges the refresh_token for new tokens.
func (o *Provider) RefreshTokenExchange(r *http.Request, client Client) (*oidc.AccessTokenResponse, error) {
	ctx, span := tracer.Start(r.Context(), "RefreshTokenExchange")
	defer span.End()

	tokenReq := new(oidc.RefreshTokenRequest)
	if err := o.parseTokenRequest(r, tokenReq); err != nil {
		return nil, err
	}
	if tokenReq.RefreshToken == "" {
		return nil, oidc.ErrInvalidRequest().WithDescription("refresh_token missing")
	}
	refresh, err := o.refreshTokenByValue(ctx, client, tokenReq.RefreshToken)
	if err != nil {
		return nil, err
	}
	scopes, narrowed, err := ValidateRefreshTokenScopes(tokenReq.Scopes, refresh.Scopes)
	if err != nil {
		return nil, err
	}
	req := &tokenRequest{
		grantID:  refresh.GrantID,
		clientID: refresh.ClientID,
		subject:  refresh.Subject,
		scopes:   scopes,
		authTime: refresh.AuthTime,
		amr:      refresh.AMR,
		acr:      refresh.ACR,
		claims:   refresh.Claims,
	}

	if narrowed {
		resp, err := o.createTokens(ctx, client, req, issueOptions{
			accessToken:   true,
			parentRefresh: refresh.ID,
		})
		if err != nil {
			return nil, err
		}
		return &oidc.AccessTokenResponse{
			AccessToken: resp.AccessToken,
			TokenType:   resp.TokenType,
			Scope:       resp.Scope,
		}, nil
	}

	opts := issueOptions{
		accessToken:   true,
		refreshToken:  o.config.RefreshTokenRotation,
		idToken:       req.hasScope(oidc.ScopeOpenID),
		parentRefresh: refresh.ID,
	}
	if !o.config.RefreshTokenRotation {
		return o.createTokens(ctx, client, req, opts)
	}
	return o.rotateRefreshToken(ctx, client, req, refresh, opts)
}

// rotateRefreshToken mints the new tokens before it revokes the presented
// refresh token, so a failure leaves the client with a working one.
// Of two concurrent rotations only the one which revokes it keeps
// its tokens.
func (o *Provider) rotateRefreshToken(ctx context.Context, client Client, req *tokenRequest, refresh *Token, opts issueOptions) (*oidc.AccessTokenResponse, error) {
	var minted []string
	opts.minted = &minted
	resp, err := o.createTokens(ctx, client, req, opts)
	if err != nil {
		o.revokeMinted(ctx, minted)
		return nil, err
	}
	revoked, err := o.storage.RevokeToken(ctx, refresh.ID)
	if err != nil {
		o.revokeMinted(ctx, minted)
		return nil, oidc.ErrServerError().WithParent(err)
	}
	if !revoked {
		o.revokeMinted(ctx, minted)
		return nil, oidc.ErrInvalidGrant().WithDescription("refresh_token has expired or was revoked")
	}
	return resp, nil
}

// revokeMinted revokes tokens which were stored for a response
// that is never sent.
func (o *Provider) revokeMinted(ctx context.Context, ids []string) {
	for _, id := range ids {
		if _, err := o.storage.RevokeToken(ctx, id); err != nil {
			o.Logger(ctx).ErrorContext(ctx, "revoke unsent token", "token_id", id, "error", err)
		}
	}
}

// refreshTokenByValue returns the active refresh token of the client.
func (o *Provider) refreshTokenByValue(ctx context.Context, client Client, value string) (*Token, error) {
	refresh, err := o.tokenByValue(ctx, value)
	if err != nil {
		return nil, oidc.ErrInvalidGrant().WithDescription("refresh_token is invalid").WithParent(err)
	}
	if refresh.Type != TokenTypeRefresh {
		return nil, oidc.ErrInvalidGrant().WithDescription("refresh_token is invalid")
	}
	if refresh.ClientID != client.GetID() {
		return nil, oidc.ErrInvalidGrant().WithDescription("refresh_token was issued to another client")
	}
	if !refresh.Active(o.now()) {
		return nil, oidc.ErrInvalidGrant().WithDescription("refresh_token has expired or was revoked")
	}
	return refresh, nil
}

// ValidateRefreshTokenScopes validates that the requested scope is a subset of the original scope.
// An empty request keeps the original scope. narrowed reports a strict subset.
func ValidateRefreshTokenScopes(requested, original []string) (scopes []string, narrowed bool, err error) {
	if len(requested) == 0 {
		return original, false, nil
	}
	for _, scope := range requested {
		if !slices.Contains(original, scope) {
			return nil, false, oidc.ErrInvalidScope().WithDescription("scope %s was not granted", scope)
		}
	}
	for _, scope := range original {
		if !slices.Contains(requested, scope) {
			return requested, true, nil
		}
	}
	return requested, false, nil
}
