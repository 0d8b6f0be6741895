package crypto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jose "github.com/go-jose/go-jose/v4"
)

var ErrMissingSigner = errors.New("missing signer")

// Sign marshals the claims and returns them as compact JWS.
func Sign(claims any, signer jose.Signer) (string, error) {
	if signer == nil {
		return "", ErrMissingSigner
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	jws, err := signer.Sign(payload)
	if err != nil {
		return "", err
	}
	return jws.CompactSerialize()
}

var unsecuredHeader = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))

// Unsecured returns the object as unsecured JWT (alg `none`),
// which go-jose refuses to produce.
func Unsecured(object any) (string, error) {
	payload, err := json.Marshal(object)
	if err != nil {
		return "", err
	}
	return unsecuredHeader + "." + base64.RawURLEncoding.EncodeToString(payload) + ".", nil
}

// ParseUnsecured returns the payload of an unsecured JWT.
// It fails for any other alg or a non empty signature.
func ParseUnsecured(token string) ([]byte, error) {
	header, payload, signature, ok := splitCompact(token)
	if !ok || signature != "" {
		return nil, ErrNotUnsecured
	}
	rawHeader, err := base64.RawURLEncoding.DecodeString(header)
	if err != nil {
		return nil, ErrNotUnsecured
	}
	var h struct {
		Algorithm string `json:"alg"`
	}
	if err = json.Unmarshal(rawHeader, &h); err != nil || h.Algorithm != string(NoneAlgorithm) {
		return nil, ErrNotUnsecured
	}
	return base64.RawURLEncoding.DecodeString(payload)
}

var ErrNotUnsecured = errors.New("not an unsecured jwt")

func splitCompact(token string) (header, payload, signature string, ok bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
