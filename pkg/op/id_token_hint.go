package op

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/zitadel/authserver/pkg/oidc"
)

// verifyIDTokenHint checks that the id_token_hint was issued by this server
// to the client and returns its claims. An expired hint is still accepted.
func (o *Provider) verifyIDTokenHint(ctx context.Context, client Client, hint string) (*oidc.IDTokenClaims, error) {
	ctx, span := tracer.Start(ctx, "verifyIDTokenHint")
	defer span.End()

	invalid := func(err error) error {
		return oidc.ErrInvalidRequest().WithDescription("id_token_hint is invalid").WithParent(err)
	}
	header, err := oidc.ParseHeader(hint)
	if err != nil {
		return nil, invalid(err)
	}
	var payload []byte
	switch signatureFamilyOf(header.Algorithm) {
	case familyNone, familyUnknown:
		return nil, invalid(oidc.ErrSignatureUnsupportedAlg)
	case familyHMAC:
		payload, err = o.verifyClientJWS(ctx, client, hint, header)
	default:
		payload, err = o.verifyServerJWS(ctx, hint, header)
	}
	if err != nil {
		if errors.Is(err, oidc.ErrServerError()) {
			return nil, err
		}
		return nil, invalid(err)
	}
	claims := new(oidc.IDTokenClaims)
	if err = json.Unmarshal(payload, claims); err != nil {
		return nil, invalid(err)
	}
	if err = oidc.CheckIssuer(claims.Issuer, IssuerFromContext(ctx)); err != nil {
		return nil, invalid(err)
	}
	if err = oidc.CheckAudience(claims.Audience, client.GetID()); err != nil {
		return nil, invalid(err)
	}
	if err = oidc.CheckSubject(claims.Subject); err != nil {
		return nil, invalid(err)
	}
	return claims, nil
}
