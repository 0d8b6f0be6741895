package oidc

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	jose "github.com/go-jose/go-jose/v4"
)

const (
	KeyUseSignature  = "sig"
	KeyUseEncryption = "enc"
)

var (
	ErrKeyMultiple = errors.New("multiple possible keys match")
	ErrKeyNone     = errors.New("no possible keys matches")
)

// FindMatchingKey selects the key of a set which verifies a JWS with the
// given kid and alg. Keys published for another use or another algorithm,
// or holding the wrong key type, are skipped. A kid match wins; without
// a kid on either side the remaining candidate must be unique.
func FindMatchingKey(keyID, use, alg string, keys ...jose.JSONWebKey) (jose.JSONWebKey, error) {
	var candidates []jose.JSONWebKey
	for _, k := range keys {
		if !usableFor(k, use, alg) {
			continue
		}
		if keyID != "" && k.KeyID == keyID {
			return k, nil
		}
		if keyID == "" || k.KeyID == "" {
			candidates = append(candidates, k)
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return jose.JSONWebKey{}, fmt.Errorf("%w: kid %q alg %s", ErrKeyNone, keyID, alg)
	default:
		return jose.JSONWebKey{}, fmt.Errorf("%w: kid %q alg %s", ErrKeyMultiple, keyID, alg)
	}
}

func usableFor(k jose.JSONWebKey, use, alg string) bool {
	if k.Use != "" && k.Use != use {
		return false
	}
	if k.Algorithm != "" && k.Algorithm != alg {
		return false
	}
	return keyTypeMatches(k.Key, alg)
}

func keyTypeMatches(key any, alg string) bool {
	switch {
	case alg == string(jose.EdDSA):
		switch key.(type) {
		case ed25519.PublicKey, *ed25519.PublicKey:
			return true
		}
	case strings.HasPrefix(alg, "RS"), strings.HasPrefix(alg, "PS"):
		_, ok := key.(*rsa.PublicKey)
		return ok
	case strings.HasPrefix(alg, "ES"):
		_, ok := key.(*ecdsa.PublicKey)
		return ok
	}
	return false
}
