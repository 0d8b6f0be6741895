package oidc

// RequestObject holds the claims of a JWT passed in the
// `request` or `request_uri` parameter:
// https://openid.net/specs/openid-connect-core-1_0.html#RequestObject
type RequestObject struct {
	Issuer     string   `json:"iss,omitempty"`
	Audience   Audience `json:"aud,omitempty"`
	Expiration Time     `json:"exp,omitempty"`
	NotBefore  Time     `json:"nbf,omitempty"`
	IssuedAt   Time     `json:"iat,omitempty"`
	JWTID      string   `json:"jti,omitempty"`
	AuthRequest
}

// RequestObjectParams lists the authorization request parameters
// a request object may carry, by their claim name.
var RequestObjectParams = []string{
	"scope", "response_type", "client_id", "redirect_uri", "state", "nonce",
	"response_mode", "display", "prompt", "max_age", "ui_locales",
	"id_token_hint", "login_hint", "acr_values", "claims",
	"code_challenge", "code_challenge_method",
}
