package op

import (
	"context"
	"errors"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/zitadel/authserver/pkg/crypto"
)

// DefaultSignatureAlgorithm signs id_tokens of clients
// which did not register an algorithm, and JWT access tokens.
const DefaultSignatureAlgorithm = jose.RS256

var ErrSignerCreationFailed = errors.New("signer creation failed")

func SignerFromKey(key SigningKey) (jose.Signer, error) {
	signer, err := jose.NewSigner(jose.SigningKey{
		Algorithm: key.SignatureAlgorithm(),
		Key: &jose.JSONWebKey{
			Key:   key.Key(),
			KeyID: key.ID(),
		},
	}, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignerCreationFailed, err)
	}
	return signer, nil
}

// signingKey returns the first server key for the algorithm.
func (o *Provider) signingKey(ctx context.Context, alg jose.SignatureAlgorithm) (SigningKey, error) {
	keys, err := o.storage.SigningKeys(ctx)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if key.SignatureAlgorithm() == alg {
			return key, nil
		}
	}
	return nil, fmt.Errorf("no signing key for algorithm %s", alg)
}

// signJWT signs the claims for the client with the algorithm.
// HMAC algorithms use the client secret, none produces an unsecured JWT.
func (o *Provider) signJWT(ctx context.Context, client Client, alg jose.SignatureAlgorithm, claims any) (string, error) {
	var signer jose.Signer
	switch signatureFamilyOf(string(alg)) {
	case familyNone:
		return crypto.Unsecured(claims)
	case familyHMAC:
		secret := client.SharedSecret()
		if secret == "" {
			return "", fmt.Errorf("client %s has no secret for %s", client.GetID(), alg)
		}
		var err error
		signer, err = jose.NewSigner(jose.SigningKey{Algorithm: alg, Key: []byte(secret)}, (&jose.SignerOptions{}).WithType("JWT"))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSignerCreationFailed, err)
		}
	case familyUnknown:
		return "", fmt.Errorf("%w: %s", jose.ErrUnsupportedAlgorithm, alg)
	default:
		key, err := o.signingKey(ctx, alg)
		if err != nil {
			return "", err
		}
		signer, err = SignerFromKey(key)
		if err != nil {
			return "", err
		}
	}
	return crypto.Sign(claims, signer)
}

// supportedSigningAlgs returns the algorithms the server holds keys for.
func (o *Provider) supportedSigningAlgs(ctx context.Context) []string {
	keys, err := o.storage.SigningKeys(ctx)
	if err != nil {
		o.Logger(ctx).WarnContext(ctx, "signing keys", "error", err)
		return []string{string(DefaultSignatureAlgorithm)}
	}
	algs := make([]string, 0, len(keys))
	seen := make(map[jose.SignatureAlgorithm]bool, len(keys))
	for _, key := range keys {
		if alg := key.SignatureAlgorithm(); !seen[alg] {
			seen[alg] = true
			algs = append(algs, string(alg))
		}
	}
	return algs
}
