package oidc

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsRequest_Unmarshal(t *testing.T) {
	const claims = `{"userinfo":{"email":{"essential":true},"nickname":null},"id_token":{"acr":{"values":["urn:mace:incommon:iap:silver"]}}}`

	t.Run("text", func(t *testing.T) {
		var c ClaimsRequest
		require.NoError(t, c.UnmarshalText([]byte(claims)))
		assert.True(t, c.UserInfo["email"].IsEssential())
		assert.False(t, c.UserInfo["nickname"].IsEssential())
		assert.Contains(t, c.UserInfo, "nickname")
		assert.Equal(t, []any{"urn:mace:incommon:iap:silver"}, c.IDToken["acr"].Values)
	})
	t.Run("json object", func(t *testing.T) {
		var ro RequestObject
		require.NoError(t, json.Unmarshal([]byte(`{"client_id":"c","claims":`+claims+`}`), &ro))
		assert.Equal(t, "c", ro.ClientID)
		assert.True(t, ro.Claims.UserInfo["email"].IsEssential())
	})
	t.Run("json string", func(t *testing.T) {
		quoted, err := json.Marshal(claims)
		require.NoError(t, err)
		var c ClaimsRequest
		require.NoError(t, json.Unmarshal(quoted, &c))
		assert.True(t, c.UserInfo["email"].IsEssential())
	})
	t.Run("invalid", func(t *testing.T) {
		var c ClaimsRequest
		assert.Error(t, c.UnmarshalText([]byte("{")))
	})
	t.Run("empty", func(t *testing.T) {
		var c ClaimsRequest
		require.NoError(t, c.UnmarshalText(nil))
		assert.True(t, c.IsEmpty())
	})
}

func TestRequestObject_Unmarshal(t *testing.T) {
	const payload = `{
		"iss": "client",
		"aud": "https://op.example.com",
		"response_type": "code id_token",
		"scope": "openid email",
		"max_age": 0,
		"prompt": "login",
		"ui_locales": "fr de"
	}`
	var ro RequestObject
	require.NoError(t, json.Unmarshal([]byte(payload), &ro))
	assert.Equal(t, Audience{"https://op.example.com"}, ro.Audience)
	assert.Equal(t, ResponseTypeCodeIDToken, ro.ResponseType)
	assert.Equal(t, SpaceDelimitedArray{"openid", "email"}, ro.Scopes)
	require.NotNil(t, ro.MaxAge)
	assert.Equal(t, uint(0), *ro.MaxAge)
	assert.True(t, ro.Prompt.Contains(PromptLogin))
	assert.Len(t, ro.UILocales, 2)
}

func TestVerifyCodeChallenge(t *testing.T) {
	const verifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	s256 := &CodeChallenge{Challenge: "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", Method: CodeChallengeMethodS256}
	plain := &CodeChallenge{Challenge: verifier, Method: CodeChallengeMethodPlain}

	assert.True(t, VerifyCodeChallenge(s256, verifier))
	assert.False(t, VerifyCodeChallenge(s256, "wrong"))
	assert.True(t, VerifyCodeChallenge(plain, verifier))
	assert.False(t, VerifyCodeChallenge(plain, ""))
	assert.False(t, VerifyCodeChallenge(nil, verifier))

	short := &CodeChallenge{Challenge: "too-short", Method: CodeChallengeMethodPlain}
	assert.False(t, VerifyCodeChallenge(short, "too-short"), "verifiers have at least 43 characters")
}

func TestValidCodeVerifier(t *testing.T) {
	tests := []struct {
		verifier string
		want     bool
	}{
		{strings.Repeat("a", 42), false},
		{strings.Repeat("a", 43), true},
		{strings.Repeat("a", 128), true},
		{strings.Repeat("a", 129), false},
		{strings.Repeat("a", 42) + "-._~", true},
		{strings.Repeat("a", 42) + "+", false},
		{strings.Repeat("a", 42) + "=", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidCodeVerifier(tt.verifier), tt.verifier)
	}
}
