package storage

import (
	gocrypto "crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"os"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/zitadel/authserver/pkg/crypto"
	"github.com/zitadel/authserver/pkg/op"
)

const (
	keyUseSignature  = "sig"
	keyUseEncryption = "enc"
)

var (
	_ op.SigningKey = (*SigningKey)(nil)
	_ op.Key        = (*publicKey)(nil)
)

// SigningKey is a private key of the server used for
// id_tokens, JWT access tokens and signed userinfo.
type SigningKey struct {
	id        string
	algorithm jose.SignatureAlgorithm
	key       gocrypto.Signer
}

// NewSigningKey identifies the key by its RFC 7638 thumbprint,
// which is stable across restarts for the same key material.
func NewSigningKey(key gocrypto.Signer, alg jose.SignatureAlgorithm) (*SigningKey, error) {
	id, err := thumbprint(key.Public())
	if err != nil {
		return nil, err
	}
	return &SigningKey{id: id, algorithm: alg, key: key}, nil
}

func (s *SigningKey) SignatureAlgorithm() jose.SignatureAlgorithm {
	return s.algorithm
}

func (s *SigningKey) Key() any {
	return s.key
}

func (s *SigningKey) ID() string {
	return s.id
}

func (s *SigningKey) public() *publicKey {
	return &publicKey{
		id:        s.id,
		algorithm: s.algorithm,
		use:       keyUseSignature,
		key:       s.key.Public(),
	}
}

type publicKey struct {
	id        string
	algorithm jose.SignatureAlgorithm
	use       string
	key       any
}

func (k *publicKey) ID() string {
	return k.id
}

func (k *publicKey) Algorithm() jose.SignatureAlgorithm {
	return k.algorithm
}

func (k *publicKey) Use() string {
	return k.use
}

func (k *publicKey) Key() any {
	return k.key
}

func thumbprint(key gocrypto.PublicKey) (string, error) {
	jwk := jose.JSONWebKey{Key: key}
	sum, err := jwk.Thumbprint(gocrypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("key thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sum), nil
}

// KeyRing holds the signing keys and the optional
// key request objects are encrypted to.
type KeyRing struct {
	signing    []*SigningKey
	decryption *jose.JSONWebKey
}

// NewKeyRing creates a key ring. decryption may be nil,
// encrypted request objects are then only supported with
// algorithms derived from the client secret.
func NewKeyRing(signing []*SigningKey, decryption *rsa.PrivateKey) (*KeyRing, error) {
	ring := &KeyRing{signing: signing}
	if decryption != nil {
		id, err := thumbprint(&decryption.PublicKey)
		if err != nil {
			return nil, err
		}
		ring.decryption = &jose.JSONWebKey{
			Key:       decryption,
			KeyID:     id,
			Algorithm: string(jose.RSA_OAEP_256),
			Use:       keyUseEncryption,
		}
	}
	return ring, nil
}

// GenerateKeyRing creates an RS256 and an ES256 signing key and
// an RSA decryption key. The keys are lost on restart.
func GenerateKeyRing() (*KeyRing, error) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	encKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	rs256, err := NewSigningKey(rsaKey, jose.RS256)
	if err != nil {
		return nil, err
	}
	es256, err := NewSigningKey(ecKey, jose.ES256)
	if err != nil {
		return nil, err
	}
	return NewKeyRing([]*SigningKey{rs256, es256}, encKey)
}

// LoadKeyRing reads PEM encoded private keys. An RSA signing key
// is additionally registered for PS256, and the decryption key
// file may be empty.
func LoadKeyRing(signingFiles []string, decryptionFile string) (*KeyRing, error) {
	var signing []*SigningKey
	for _, file := range signingFiles {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		key, alg, err := crypto.BytesToPrivateKey(b)
		if err != nil {
			return nil, fmt.Errorf("signing key %s: %w", file, err)
		}
		signingKey, err := NewSigningKey(key, alg)
		if err != nil {
			return nil, err
		}
		signing = append(signing, signingKey)
		if alg == jose.RS256 {
			signing = append(signing, &SigningKey{id: signingKey.id + "-ps", algorithm: jose.PS256, key: key})
		}
	}
	var decryption *rsa.PrivateKey
	if decryptionFile != "" {
		b, err := os.ReadFile(decryptionFile)
		if err != nil {
			return nil, err
		}
		key, _, err := crypto.BytesToPrivateKey(b)
		if err != nil {
			return nil, fmt.Errorf("decryption key %s: %w", decryptionFile, err)
		}
		var ok bool
		if decryption, ok = key.(*rsa.PrivateKey); !ok {
			return nil, fmt.Errorf("decryption key %s: must be an RSA key, got %T", decryptionFile, key)
		}
	}
	return NewKeyRing(signing, decryption)
}

func (k *KeyRing) SigningKeys() []op.SigningKey {
	keys := make([]op.SigningKey, len(k.signing))
	for i, key := range k.signing {
		keys[i] = key
	}
	return keys
}

// KeySet returns the public keys published on the jwks endpoint.
func (k *KeyRing) KeySet() []op.Key {
	keys := make([]op.Key, 0, len(k.signing)+1)
	for _, key := range k.signing {
		keys = append(keys, key.public())
	}
	if k.decryption != nil {
		keys = append(keys, &publicKey{
			id:        k.decryption.KeyID,
			algorithm: jose.SignatureAlgorithm(k.decryption.Algorithm),
			use:       keyUseEncryption,
			key:       k.decryption.Public().Key,
		})
	}
	return keys
}

func (k *KeyRing) DecryptionKey() *jose.JSONWebKey {
	return k.decryption
}
