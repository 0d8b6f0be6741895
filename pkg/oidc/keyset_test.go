package oidc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMatchingKey(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	rs1 := jose.JSONWebKey{Key: &rsaKey.PublicKey, KeyID: "rs1", Use: KeyUseSignature}
	rs2 := jose.JSONWebKey{Key: &rsaKey.PublicKey, KeyID: "rs2", Algorithm: "RS256"}
	enc := jose.JSONWebKey{Key: &rsaKey.PublicKey, KeyID: "enc", Use: KeyUseEncryption}
	es := jose.JSONWebKey{Key: &ecKey.PublicKey, KeyID: "es"}
	anonymous := jose.JSONWebKey{Key: &ecKey.PublicKey}

	tests := []struct {
		name    string
		keyID   string
		alg     string
		keys    []jose.JSONWebKey
		want    string
		wantErr error
	}{
		{"kid match", "rs2", "RS256", []jose.JSONWebKey{rs1, rs2}, "rs2", nil},
		{"alg restricts", "rs2", "PS256", []jose.JSONWebKey{rs1, rs2}, "", ErrKeyNone},
		{"use restricts", "enc", "RS256", []jose.JSONWebKey{enc}, "", ErrKeyNone},
		{"key type restricts", "es", "RS256", []jose.JSONWebKey{es}, "", ErrKeyNone},
		{"single candidate without kid", "", "ES256", []jose.JSONWebKey{rs1, es}, "es", nil},
		{"ambiguous without kid", "", "RS256", []jose.JSONWebKey{rs1, rs2}, "", ErrKeyMultiple},
		{"key without kid", "unknown", "ES256", []jose.JSONWebKey{es, anonymous}, "", nil},
		{"empty set", "rs1", "RS256", nil, "", ErrKeyNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindMatchingKey(tt.keyID, KeyUseSignature, tt.alg, tt.keys...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.KeyID)
		})
	}
}
