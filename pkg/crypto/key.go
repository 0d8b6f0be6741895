package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
)

var (
	ErrPEMDecode          = errors.New("PEM decode failed")
	ErrUnsupportedKeyType = errors.New("unsupported key type")
)

// BytesToPrivateKey parses a PEM encoded private key (PKCS#1, SEC 1 or PKCS#8)
// and returns it with the signature algorithm it is used with by default.
func BytesToPrivateKey(b []byte) (crypto.Signer, jose.SignatureAlgorithm, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, "", ErrPEMDecode
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, "", err
		}
		return key, jose.RS256, nil
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, "", err
		}
		alg, err := ecdsaAlgorithm(key.Curve)
		return key, alg, err
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, "", err
	}
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return k, jose.RS256, nil
	case *ecdsa.PrivateKey:
		alg, err := ecdsaAlgorithm(k.Curve)
		return k, alg, err
	case ed25519.PrivateKey:
		return k, jose.EdDSA, nil
	default:
		return nil, "", fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
}

// PrivateKeyToBytes encodes the key as PKCS#8 PEM block.
func PrivateKeyToBytes(key crypto.Signer) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

func ecdsaAlgorithm(curve elliptic.Curve) (jose.SignatureAlgorithm, error) {
	switch curve {
	case elliptic.P256():
		return jose.ES256, nil
	case elliptic.P384():
		return jose.ES384, nil
	case elliptic.P521():
		return jose.ES512, nil
	default:
		return "", fmt.Errorf("%w: curve %s", ErrUnsupportedKeyType, curve.Params().Name)
	}
}
