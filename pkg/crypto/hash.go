package crypto

import (
	gocrypto "crypto"
	"crypto/sha256"
	_ "crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
)

// NoneAlgorithm is the `alg` of unsecured JWTs.
const NoneAlgorithm jose.SignatureAlgorithm = "none"

var ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// EdDSA is only available on ed25519 in Go and go-jose, which hashes with SHA-512.
var algorithmHashes = map[jose.SignatureAlgorithm]gocrypto.Hash{
	NoneAlgorithm: gocrypto.SHA256,
	jose.HS256:    gocrypto.SHA256,
	jose.RS256:    gocrypto.SHA256,
	jose.PS256:    gocrypto.SHA256,
	jose.ES256:    gocrypto.SHA256,
	jose.HS384:    gocrypto.SHA384,
	jose.RS384:    gocrypto.SHA384,
	jose.PS384:    gocrypto.SHA384,
	jose.ES384:    gocrypto.SHA384,
	jose.HS512:    gocrypto.SHA512,
	jose.RS512:    gocrypto.SHA512,
	jose.PS512:    gocrypto.SHA512,
	jose.ES512:    gocrypto.SHA512,
	jose.EdDSA:    gocrypto.SHA512,
}

// HashFor returns the hash function a JWS algorithm digests with.
func HashFor(alg jose.SignatureAlgorithm) (gocrypto.Hash, error) {
	h, ok := algorithmHashes[alg]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
	return h, nil
}

// LeftHalfHash is the base64url encoded left-most half of the digest of
// value, as used by at_hash and c_hash.
func LeftHalfHash(alg jose.SignatureAlgorithm, value string) (string, error) {
	h, err := HashFor(alg)
	if err != nil {
		return "", err
	}
	digest := h.New()
	digest.Write([]byte(value))
	sum := digest.Sum(nil)
	return base64.RawURLEncoding.EncodeToString(sum[:len(sum)/2]), nil
}

// S256 is the base64url encoded SHA-256 digest of value.
func S256(value string) string {
	sum := sha256.Sum256([]byte(value))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
