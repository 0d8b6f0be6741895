package op

import (
	"errors"
	"net/http"
	"time"

	"github.com/zitadel/authserver/pkg/oidc"
)

const amrPassword = "pwd"

// PasswordExchange handles the OAuth 2.0 resource owner password credentials grant.
func (o *Provider) PasswordExchange(r *http.Request, client Client) (*oidc.AccessTokenResponse, error) {
	ctx, span := tracer.Start(r.Context(), "PasswordExchange")
	defer span.End()

	tokenReq := new(oidc.PasswordGrantRequest)
	if err := o.parseTokenRequest(r, tokenReq); err != nil {
		return nil, err
	}
	if tokenReq.Username == "" || tokenReq.Password == "" {
		return nil, oidc.ErrInvalidRequest().WithDescription("username and password are required")
	}
	scopes, err := ValidateAuthReqScopes(client, tokenReq.Scopes, "")
	if err != nil {
		return nil, err
	}
	subject, err := o.storage.CheckUsernamePassword(ctx, tokenReq.Username, tokenReq.Password)
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrNotFound) {
		return nil, oidc.ErrInvalidGrant().WithDescription("invalid username or password")
	}
	if err != nil {
		return nil, oidc.ErrServerError().WithParent(err)
	}
	req := &tokenRequest{
		clientID: client.GetID(),
		subject:  subject,
		scopes:   scopes,
		authTime: o.now().Truncate(time.Second),
		amr:      []string{amrPassword},
	}
	return o.createTokens(ctx, client, req, issueOptions{
		accessToken:  true,
		refreshToken: req.hasScope(oidc.ScopeOfflineAccess) && ContainsGrantType(client.GrantTypes(), oidc.GrantTypeRefreshToken),
		idToken:      req.hasScope(oidc.ScopeOpenID),
	})
}
