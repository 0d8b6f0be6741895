package oidc

import (
	"crypto/subtle"

	"github.com/zitadel/authserver/pkg/crypto"
)

const (
	CodeChallengeMethodPlain CodeChallengeMethod = "plain"
	CodeChallengeMethodS256  CodeChallengeMethod = "S256"
)

// CodeChallengeMethod is the PKCE transformation (RFC 7636).
// An empty method means plain.
type CodeChallengeMethod string

// CodeChallenge is the code_challenge an authorization request committed to.
type CodeChallenge struct {
	Challenge string
	Method    CodeChallengeMethod
}

// NewSHACodeChallenge derives the S256 challenge of a verifier.
func NewSHACodeChallenge(verifier string) string {
	return crypto.S256(verifier)
}

// ValidCodeVerifier reports whether v has the length and the
// unreserved characters a code_verifier is made of.
func ValidCodeVerifier(v string) bool {
	if len(v) < 43 || len(v) > 128 {
		return false
	}
	for i := 0; i < len(v); i++ {
		switch c := v[i]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '.', c == '_', c == '~':
		default:
			return false
		}
	}
	return true
}

// VerifyCodeChallenge checks the verifier presented at the token endpoint
// against the challenge of the authorization request.
func VerifyCodeChallenge(c *CodeChallenge, verifier string) bool {
	if c == nil || !ValidCodeVerifier(verifier) {
		return false
	}
	computed := verifier
	if c.Method == CodeChallengeMethodS256 {
		computed = NewSHACodeChallenge(verifier)
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(c.Challenge)) == 1
}
