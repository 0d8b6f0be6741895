package op

import (
	"context"
	"errors"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/zitadel/authserver/pkg/crypto"
	httphelper "github.com/zitadel/authserver/pkg/http"
	"github.com/zitadel/authserver/pkg/oidc"
)

// signatureFamily selects how a JWS of a client is verified.
type signatureFamily int

const (
	familyUnknown signatureFamily = iota
	familyNone
	familyHMAC
	familyRSA
	familyRSAPSS
	familyEC
	familyEdDSA
)

func signatureFamilyOf(alg string) signatureFamily {
	switch jose.SignatureAlgorithm(alg) {
	case crypto.NoneAlgorithm:
		return familyNone
	case jose.HS256, jose.HS384, jose.HS512:
		return familyHMAC
	case jose.RS256, jose.RS384, jose.RS512:
		return familyRSA
	case jose.PS256, jose.PS384, jose.PS512:
		return familyRSAPSS
	case jose.ES256, jose.ES384, jose.ES512:
		return familyEC
	case jose.EdDSA:
		return familyEdDSA
	default:
		return familyUnknown
	}
}

// isAsymmetric is true for families verified with a public key of the client.
func (f signatureFamily) isAsymmetric() bool {
	return f == familyRSA || f == familyRSAPSS || f == familyEC || f == familyEdDSA
}

// SupportedClientSigningAlgs are the algorithms accepted
// for request objects and client assertions.
var SupportedClientSigningAlgs = []string{
	string(crypto.NoneAlgorithm),
	string(jose.HS256), string(jose.HS384), string(jose.HS512),
	string(jose.RS256), string(jose.RS384), string(jose.RS512),
	string(jose.PS256), string(jose.PS384), string(jose.PS512),
	string(jose.ES256), string(jose.ES384), string(jose.ES512),
	string(jose.EdDSA),
}

var ErrClientKeysMissing = errors.New("client has no keys registered")

// verifyClientJWS verifies the compact JWS signed by the client
// with the algorithm of its header and returns the payload.
func (o *Provider) verifyClientJWS(ctx context.Context, client Client, token string, header *oidc.JOSEHeader) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "verifyClientJWS")
	defer span.End()

	alg := header.Algorithm
	family := signatureFamilyOf(alg)
	switch family {
	case familyUnknown:
		return nil, fmt.Errorf("%w: %s", oidc.ErrSignatureUnsupportedAlg, alg)
	case familyNone:
		payload, err := crypto.ParseUnsecured(token)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", oidc.ErrSignatureInvalid, err)
		}
		return payload, nil
	}

	jws, err := jose.ParseSigned(token, []jose.SignatureAlgorithm{jose.SignatureAlgorithm(alg)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", oidc.ErrParse, err)
	}
	if len(jws.Signatures) == 0 {
		return nil, oidc.ErrSignatureMissing
	}
	if len(jws.Signatures) > 1 {
		return nil, oidc.ErrSignatureMultiple
	}

	var verificationKey any
	if family == familyHMAC {
		secret := client.SharedSecret()
		if secret == "" {
			return nil, fmt.Errorf("%w: client has no secret", oidc.ErrSignatureInvalid)
		}
		verificationKey = []byte(secret)
	} else {
		keys, err := o.clientKeys(ctx, client)
		if err != nil {
			return nil, err
		}
		key, err := oidc.FindMatchingKey(header.KeyID, oidc.KeyUseSignature, alg, keys...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", oidc.ErrSignatureInvalid, err)
		}
		verificationKey = key.Key
	}
	payload, err := jws.Verify(verificationKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", oidc.ErrSignatureInvalid, err)
	}
	return payload, nil
}

// clientKeys returns the statically registered keys of the client,
// or fetches them from its jwks_uri.
func (o *Provider) clientKeys(ctx context.Context, client Client) ([]jose.JSONWebKey, error) {
	if set := client.JWKS(); set != nil && len(set.Keys) > 0 {
		return set.Keys, nil
	}
	uri := client.JWKSURI()
	if uri == "" {
		return nil, ErrClientKeysMissing
	}
	ctx, cancel := context.WithTimeout(ctx, o.config.RequestObjectFetchTimeout)
	defer cancel()
	set := new(jose.JSONWebKeySet)
	if err := httphelper.GetJSON(ctx, o.httpClient, uri, set); err != nil {
		return nil, fmt.Errorf("unable to fetch client keys: %w", err)
	}
	return set.Keys, nil
}
