package op

import (
	"errors"
	"net/http"

	"github.com/zitadel/authserver/pkg/oidc"
)

// Revoke implements the token revocation endpoint (RFC 7009).
// Revoking a refresh token revokes every token of its grant.
// Unknown tokens and tokens of other clients are answered with 200.
func (o *Provider) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Revoke")
	defer span.End()
	r = r.WithContext(ctx)

	client, err := o.AuthenticateClient(r)
	if err != nil {
		RequestError(w, r, err, o.Logger(ctx))
		return
	}
	ctx = o.logCtxWithClient(ctx, client.GetID())
	r = r.WithContext(ctx)

	req := new(oidc.RevocationRequest)
	if err = o.parseTokenRequest(r, req); err != nil {
		RequestError(w, r, err, o.Logger(ctx))
		return
	}
	if req.Token == "" {
		RequestError(w, r, oidc.ErrInvalidRequest().WithDescription("token missing"), o.Logger(ctx))
		return
	}
	switch TokenType(req.TokenTypeHint) {
	case "", TokenTypeAccess, TokenTypeRefresh:
	default:
		RequestError(w, r, oidc.ErrUnsupportedTokenType().WithDescription("token_type_hint %s is not supported", req.TokenTypeHint), o.Logger(ctx))
		return
	}

	token, err := o.accessTokenByValue(ctx, req.Token)
	if err != nil {
		var oidcErr *oidc.Error
		if errors.As(err, &oidcErr) && oidcErr.ErrorType == oidc.InvalidToken {
			o.Logger(ctx).DebugContext(ctx, "revocation of unknown token", "error", err)
			w.WriteHeader(http.StatusOK)
			return
		}
		RequestError(w, r, err, o.Logger(ctx))
		return
	}
	if token.ClientID != client.GetID() {
		o.Logger(ctx).WarnContext(ctx, "revocation of a token of another client", "token_client_id", token.ClientID)
		w.WriteHeader(http.StatusOK)
		return
	}

	if token.Type == TokenTypeRefresh && token.GrantID != "" {
		n, err := o.storage.RevokeTokensByGrant(ctx, token.GrantID)
		if err != nil {
			RequestError(w, r, oidc.ErrServerError().WithParent(err), o.Logger(ctx))
			return
		}
		o.Logger(ctx).InfoContext(ctx, "refresh token revoked", "grant_id", token.GrantID, "revoked_tokens", n)
	} else if _, err = o.storage.RevokeToken(ctx, token.ID); err != nil {
		RequestError(w, r, oidc.ErrServerError().WithParent(err), o.Logger(ctx))
		return
	}
	w.WriteHeader(http.StatusOK)
}
