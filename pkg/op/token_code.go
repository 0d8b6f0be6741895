package op

import (
	"errors"
	"net/http"

	"github.com/zitadel/authserver/pkg/oidc"
)

// CodeExchange handles the OAuth 2.0 authorization_code grant of an
// authenticated client and exchanges the code for tokens.
func (o *Provider) CodeExchange(r *http.Request, client Client) (*oidc.AccessTokenResponse, error) {
	ctx, span := tracer.Start(r.Context(), "CodeExchange")
	defer span.End()

	tokenReq := new(oidc.AccessTokenRequest)
	if err := o.parseTokenRequest(r, tokenReq); err != nil {
		return nil, err
	}
	if tokenReq.Code == "" {
		return nil, oidc.ErrInvalidRequest().WithDescription("code missing")
	}
	grant, err := o.storage.GrantByCode(ctx, tokenReq.Code)
	if errors.Is(err, ErrNotFound) {
		o.metrics.redemption(redemptionRejected)
		return nil, oidc.ErrInvalidGrant().WithDescription("code is invalid").WithParent(err)
	}
	if err != nil {
		return nil, oidc.DefaultToServerError(err, "unable to retrieve code")
	}
	if grant.ClientID != client.GetID() {
		o.metrics.redemption(redemptionRejected)
		return nil, oidc.ErrInvalidGrant().WithDescription("code was issued to another client")
	}
	if err = o.redeemGrant(ctx, grant); err != nil {
		return nil, err
	}
	// the code is spent from here on, even if the request is rejected
	if err = checkCodeRedirectURI(client, grant, tokenReq.RedirectURI); err != nil {
		o.metrics.redemption(redemptionRejected)
		return nil, err
	}
	if err = AuthorizeCodeChallenge(tokenReq.CodeVerifier, grant.GetCodeChallenge()); err != nil {
		o.metrics.redemption(redemptionRejected)
		return nil, err
	}

	req := grant.tokenRequest()
	resp, err := o.createTokens(ctx, client, req, issueOptions{
		accessToken:  true,
		refreshToken: req.hasScope(oidc.ScopeOfflineAccess) || ContainsGrantType(client.GrantTypes(), oidc.GrantTypeRefreshToken),
		idToken:      req.hasScope(oidc.ScopeOpenID),
	})
	if err != nil {
		return nil, err
	}
	if err = o.confirmRedemption(ctx, grant); err != nil {
		return nil, err
	}
	o.metrics.redemption(redemptionSuccess)
	return resp, nil
}

// checkCodeRedirectURI requires the redirect_uri of the authorization request.
// It may only be omitted by clients with a single registered redirect_uri.
func checkCodeRedirectURI(client Client, grant *Grant, redirectURI string) error {
	if redirectURI == "" {
		if len(client.RedirectURIs()) == 1 {
			return nil
		}
		return oidc.ErrInvalidRequest().WithDescription("redirect_uri missing")
	}
	if redirectURI != grant.RedirectURI {
		return oidc.ErrInvalidGrant().WithDescription("redirect_uri does not correspond")
	}
	return nil
}
