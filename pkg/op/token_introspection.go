package op

import (
	"errors"
	"net/http"
	"slices"

	"github.com/zitadel/authserver/pkg/oidc"
)

// Introspect implements the token introspection endpoint (RFC 7662).
// The caller must be the client the token was issued to or one of its
// audiences. Any other token, including revoked and expired ones,
// is reported as inactive.
func (o *Provider) Introspect(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Introspect")
	defer span.End()
	r = r.WithContext(ctx)

	client, err := o.AuthenticateClient(r)
	if err != nil {
		RequestError(w, r, err, o.Logger(ctx))
		return
	}
	ctx = o.logCtxWithClient(ctx, client.GetID())
	r = r.WithContext(ctx)

	req := new(oidc.IntrospectionRequest)
	if err = o.parseTokenRequest(r, req); err != nil {
		RequestError(w, r, err, o.Logger(ctx))
		return
	}
	if req.Token == "" {
		RequestError(w, r, oidc.ErrInvalidRequest().WithDescription("token missing"), o.Logger(ctx))
		return
	}

	inactive := &oidc.IntrospectionResponse{}
	token, err := o.accessTokenByValue(ctx, req.Token)
	if err != nil {
		var oidcErr *oidc.Error
		if errors.As(err, &oidcErr) && oidcErr.ErrorType == oidc.InvalidToken {
			o.Logger(ctx).DebugContext(ctx, "introspection of unknown token", "error", err)
			writeTokenResponse(w, inactive)
			return
		}
		RequestError(w, r, err, o.Logger(ctx))
		return
	}
	if token.Type == TokenTypeID || !token.Active(o.now()) {
		writeTokenResponse(w, inactive)
		return
	}
	if token.ClientID != client.GetID() && !slices.Contains(token.Audience, client.GetID()) {
		o.Logger(ctx).WarnContext(ctx, "introspection of a token of another client", "token_client_id", token.ClientID)
		writeTokenResponse(w, inactive)
		return
	}

	resp := &oidc.IntrospectionResponse{
		Active:     true,
		Scope:      token.Scopes,
		ClientID:   token.ClientID,
		Expiration: oidc.FromTime(token.ExpiresAt),
		IssuedAt:   oidc.FromTime(token.IssuedAt),
		Subject:    token.Subject,
		Audience:   token.Audience,
		Issuer:     IssuerFromContext(ctx),
		JWTID:      token.ID,
	}
	if token.Type == TokenTypeAccess {
		resp.TokenType = oidc.BearerToken
	} else {
		resp.TokenType = string(token.Type)
	}
	writeTokenResponse(w, resp)
}
