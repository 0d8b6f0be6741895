package oidc

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrParse                   = errors.New("parsing of request failed")
	ErrIssuerInvalid           = errors.New("issuer does not match")
	ErrSubjectMissing          = errors.New("subject missing")
	ErrAudience                = errors.New("audience is not valid")
	ErrSignatureMissing        = errors.New("token does not contain a signature")
	ErrSignatureMultiple       = errors.New("token contains multiple signatures")
	ErrSignatureUnsupportedAlg = errors.New("signature algorithm not supported")
	ErrSignatureInvalid        = errors.New("invalid signature")
	ErrExpired                 = errors.New("token has expired")
	ErrNotYetValid             = errors.New("token is not yet valid")
	ErrIatMissing              = errors.New("issuedAt of token is missing")
	ErrIatInFuture             = errors.New("issuedAt of token is in the future")
)

// JOSEHeader holds the members of a compact JWS or JWE header
// needed to pick a verification or decryption strategy.
type JOSEHeader struct {
	Algorithm   string `json:"alg"`
	KeyID       string `json:"kid,omitempty"`
	Type        string `json:"typ,omitempty"`
	ContentType string `json:"cty,omitempty"`
	Encryption  string `json:"enc,omitempty"`
}

// IsEncrypted reports if the compact serialization is a JWE (5 segments).
func IsEncrypted(token string) bool {
	return strings.Count(token, ".") == 4
}

// ParseHeader decodes the JOSE header of a compact serialized JWS or JWE.
func ParseHeader(token string) (*JOSEHeader, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 && len(parts) != 5 {
		return nil, fmt.Errorf("%w: token contains an invalid number of segments", ErrParse)
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: malformed jwt header: %v", ErrParse, err)
	}
	header := new(JOSEHeader)
	if err = json.Unmarshal(raw, header); err != nil {
		return nil, fmt.Errorf("%w: malformed jwt header: %v", ErrParse, err)
	}
	if header.Algorithm == "" {
		return nil, fmt.Errorf("%w: header without alg", ErrParse)
	}
	return header, nil
}

// ParseToken decodes the payload of a compact serialized JWS into claims,
// without verifying the signature.
func ParseToken(tokenString string, claims any) ([]byte, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: token contains an invalid number of segments", ErrParse)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: malformed jwt payload: %v", ErrParse, err)
	}
	err = json.Unmarshal(payload, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed jwt payload: %v", ErrParse, err)
	}
	return payload, nil
}

func CheckSubject(subject string) error {
	if subject == "" {
		return ErrSubjectMissing
	}
	return nil
}

func CheckIssuer(issuer, expected string) error {
	if issuer != expected {
		return fmt.Errorf("%w: Expected: %s, got: %s", ErrIssuerInvalid, expected, issuer)
	}
	return nil
}

func CheckAudience(audience Audience, expected string) error {
	if !audience.Contains(expected) {
		return fmt.Errorf("%w: Audience must contain %s", ErrAudience, expected)
	}
	return nil
}

// CheckExpiration fails if exp is set and lies before now, minus the allowed offset.
func CheckExpiration(exp Time, offset time.Duration, now time.Time) error {
	if exp == 0 {
		return nil
	}
	expiration := exp.AsTime().Add(offset)
	if !now.Before(expiration) {
		return fmt.Errorf("%w: exp %v", ErrExpired, exp.AsTime().UTC())
	}
	return nil
}

// CheckNotBefore fails if nbf is set and lies after now, plus the allowed offset.
func CheckNotBefore(nbf Time, offset time.Duration, now time.Time) error {
	if nbf == 0 {
		return nil
	}
	if now.Add(offset).Before(nbf.AsTime()) {
		return fmt.Errorf("%w: nbf %v", ErrNotYetValid, nbf.AsTime().UTC())
	}
	return nil
}

func CheckIssuedAt(iat Time, offset time.Duration, now time.Time) error {
	if iat == 0 {
		return ErrIatMissing
	}
	if now.Add(offset).Before(iat.AsTime()) {
		return fmt.Errorf("%w: iat %v", ErrIatInFuture, iat.AsTime().UTC())
	}
	return nil
}
