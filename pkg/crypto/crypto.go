package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

var ErrCipherTextTooShort = errors.New("ciphertext is too short")

// Sealer encrypts and authenticates values with AES-GCM.
// Every sealed value carries its own random nonce in front.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer creates a Sealer for a 16, 24 or 32 byte key.
func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("sealer key: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	size := s.aead.NonceSize()
	out := make([]byte, size, size+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, err
	}
	return s.aead.Seal(out, out[:size], plain, nil), nil
}

// Open returns the plain text of a value produced by Seal.
// Any modification of the sealed value results in an error.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	size := s.aead.NonceSize()
	if len(sealed) < size+s.aead.Overhead() {
		return nil, ErrCipherTextTooShort
	}
	return s.aead.Open(nil, sealed[:size], sealed[size:], nil)
}

// SealString seals the value and encodes it base64url without padding.
func (s *Sealer) SealString(plain string) (string, error) {
	sealed, err := s.Seal([]byte(plain))
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (s *Sealer) OpenString(encoded string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	plain, err := s.Open(sealed)
	return string(plain), err
}
