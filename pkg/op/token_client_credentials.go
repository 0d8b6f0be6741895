package op

import (
	"net/http"

	"github.com/zitadel/authserver/pkg/oidc"
)

// ClientCredentialsExchange handles the OAuth 2.0 client_credentials grant.
// The client is the subject of the access token, no id_token or refresh_token is issued.
func (o *Provider) ClientCredentialsExchange(r *http.Request, client Client) (*oidc.AccessTokenResponse, error) {
	ctx, span := tracer.Start(r.Context(), "ClientCredentialsExchange")
	defer span.End()

	if !IsConfidentialType(client) {
		return nil, oidc.ErrUnauthorizedClient().WithDescription("client_credentials requires client authentication")
	}
	tokenReq := new(oidc.ClientCredentialsRequest)
	if err := o.parseTokenRequest(r, tokenReq); err != nil {
		return nil, err
	}
	scopes := make([]string, 0, len(tokenReq.Scopes))
	for _, scope := range tokenReq.Scopes {
		if scope == oidc.ScopeOpenID || scope == oidc.ScopeOfflineAccess {
			continue
		}
		if !client.IsScopeAllowed(scope) {
			return nil, oidc.ErrInvalidScope().WithDescription("scope %s is not allowed", scope)
		}
		scopes = append(scopes, scope)
	}
	req := &tokenRequest{
		clientID: client.GetID(),
		subject:  client.GetID(),
		scopes:   scopes,
	}
	return o.createTokens(ctx, client, req, issueOptions{accessToken: true})
}
