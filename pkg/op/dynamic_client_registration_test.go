package op_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zitadel/authserver/pkg/oidc"
	"github.com/zitadel/authserver/pkg/op"
)

func (ts *testServer) register(t *testing.T, metadata string) (int, string) {
	t.Helper()
	resp, err := ts.Client().Post(ts.URL+"/register", "application/json", strings.NewReader(metadata))
	require.NoError(t, err)
	return resp.StatusCode, readBody(t, resp)
}

func (ts *testServer) readClient(t *testing.T, uri, token string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, uri, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", oidc.PrefixBearer+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	return resp.StatusCode, readBody(t, resp)
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.register(t, `{
		"redirect_uris": ["https://dynamic.example/callback"],
		"client_name": "Dynamic",
		"grant_types": ["authorization_code", "refresh_token"]
	}`)
	require.Equal(t, http.StatusCreated, status, body)
	info := new(oidc.ClientInformationResponse)
	require.NoError(t, json.Unmarshal([]byte(body), info))

	assert.NotEmpty(t, info.ClientID)
	assert.Len(t, info.ClientSecret, 64, "48 random bytes, base64url encoded")
	assert.Len(t, info.RegistrationAccessToken, 43, "32 random bytes, base64url encoded")
	assert.Equal(t, ts.URL+"/register/"+info.ClientID, info.RegistrationClientURI)
	assert.Equal(t, oidc.ApplicationTypeWeb, info.ApplicationType)
	assert.Equal(t, oidc.AuthMethodBasic, info.TokenEndpointAuthMethod)
	assert.Equal(t, []oidc.ResponseType{oidc.ResponseTypeCode}, info.ResponseTypes)
	assert.Equal(t, "RS256", info.IDTokenSignedResponseAlg)
	assert.Equal(t, "Dynamic", info.ClientName)

	t.Run("read", func(t *testing.T) {
		status, body := ts.readClient(t, info.RegistrationClientURI, info.RegistrationAccessToken)
		require.Equal(t, http.StatusOK, status, body)
		read := new(oidc.ClientInformationResponse)
		require.NoError(t, json.Unmarshal([]byte(body), read))
		assert.Equal(t, info, read)
	})
	t.Run("read with other token", func(t *testing.T) {
		status, body := ts.readClient(t, info.RegistrationClientURI, "other")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Contains(t, body, string(oidc.InvalidToken))
	})
	t.Run("read without token", func(t *testing.T) {
		status, _ := ts.readClient(t, info.RegistrationClientURI, "")
		assert.Equal(t, http.StatusUnauthorized, status)
	})
	t.Run("read unknown client", func(t *testing.T) {
		status, _ := ts.readClient(t, ts.URL+"/register/unknown", info.RegistrationAccessToken)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
	t.Run("code flow", func(t *testing.T) {
		conf := ts.oauth2Config(info.ClientID, info.ClientSecret, "https://dynamic.example/callback", oidc.ScopeOpenID)
		token, err := conf.Exchange(ts.context(), ts.code(t, conf))
		require.NoError(t, err)
		assert.NotEmpty(t, token.RefreshToken)
		idToken, _ := token.Extra("id_token").(string)
		ts.parseJWT(t, idToken, info.ClientID)
	})
}

func TestRegister_public(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.register(t, `{
		"application_type": "native",
		"redirect_uris": ["com.example.app:/callback", "http://127.0.0.1/callback"],
		"token_endpoint_auth_method": "none"
	}`)
	require.Equal(t, http.StatusCreated, status, body)
	info := new(oidc.ClientInformationResponse)
	require.NoError(t, json.Unmarshal([]byte(body), info))
	assert.Empty(t, info.ClientSecret)
	assert.NotEmpty(t, info.RegistrationAccessToken)
}

func TestRegister_invalid(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name     string
		metadata string
		wantErr  string
	}{
		{
			"not json",
			`redirect_uris=https://dynamic.example/callback`,
			string(oidc.InvalidClientMetadata),
		},
		{
			"missing redirect_uris",
			`{}`,
			string(oidc.InvalidRedirectURI),
		},
		{
			"http redirect of a web client",
			`{"redirect_uris": ["http://dynamic.example/callback"]}`,
			string(oidc.InvalidRedirectURI),
		},
		{
			"custom scheme of a web client",
			`{"redirect_uris": ["com.example.app:/callback"]}`,
			string(oidc.InvalidRedirectURI),
		},
		{
			"redirect with fragment",
			`{"redirect_uris": ["https://dynamic.example/callback#fragment"]}`,
			string(oidc.InvalidRedirectURI),
		},
		{
			"relative redirect",
			`{"redirect_uris": ["/callback"]}`,
			string(oidc.InvalidRedirectURI),
		},
		{
			"unknown application_type",
			`{"application_type": "desktop", "redirect_uris": ["https://dynamic.example/callback"]}`,
			string(oidc.InvalidClientMetadata),
		},
		{
			"unknown auth method",
			`{"token_endpoint_auth_method": "tls_client_auth", "redirect_uris": ["https://dynamic.example/callback"]}`,
			string(oidc.InvalidClientMetadata),
		},
		{
			"unknown grant_type",
			`{"grant_types": ["authorization_code", "urn:ietf:params:oauth:grant-type:device_code"], "redirect_uris": ["https://dynamic.example/callback"]}`,
			string(oidc.InvalidClientMetadata),
		},
		{
			"implicit response_type without grant",
			`{"response_types": ["id_token token"], "redirect_uris": ["https://dynamic.example/callback"]}`,
			string(oidc.InvalidClientMetadata),
		},
		{
			"unsupported id_token alg",
			`{"id_token_signed_response_alg": "RS384", "redirect_uris": ["https://dynamic.example/callback"]}`,
			string(oidc.InvalidClientMetadata),
		},
		{
			"unsigned userinfo",
			`{"userinfo_signed_response_alg": "none", "redirect_uris": ["https://dynamic.example/callback"]}`,
			string(oidc.InvalidClientMetadata),
		},
		{
			"private_key_jwt without keys",
			`{"token_endpoint_auth_method": "private_key_jwt", "redirect_uris": ["https://dynamic.example/callback"]}`,
			string(oidc.InvalidClientMetadata),
		},
		{
			"jwks_uri without https",
			`{"jwks_uri": "http://dynamic.example/keys", "redirect_uris": ["https://dynamic.example/callback"]}`,
			string(oidc.InvalidClientMetadata),
		},
		{
			"unknown access_token_type",
			`{"access_token_type": "mac", "redirect_uris": ["https://dynamic.example/callback"]}`,
			string(oidc.InvalidClientMetadata),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.register(t, tt.metadata)
			assert.Equal(t, http.StatusBadRequest, status)
			e := new(oidc.Error)
			require.NoError(t, json.Unmarshal([]byte(body), e), body)
			assert.Equal(t, tt.wantErr, string(e.ErrorType))
		})
	}
}

func TestValidateClientMetadata(t *testing.T) {
	ts := newTestServer(t)
	_, key := testKeys(t)
	publicKey := jose.JSONWebKey{Key: &key.PublicKey, KeyID: clientKeyID, Algorithm: "RS256", Use: oidc.KeyUseSignature}
	privateKey := jose.JSONWebKey{Key: key, KeyID: clientKeyID, Algorithm: "RS256", Use: oidc.KeyUseSignature}

	metadata := &oidc.ClientMetadata{
		RedirectURIs:            []string{"https://dynamic.example/callback"},
		TokenEndpointAuthMethod: oidc.AuthMethodPrivateKeyJWT,
		JWKS:                    &jose.JSONWebKeySet{Keys: []jose.JSONWebKey{publicKey}},
	}
	got, err := ts.provider.ValidateClientMetadata(context.Background(), metadata)
	require.NoError(t, err)
	assert.Equal(t, []oidc.GrantType{oidc.GrantTypeCode}, got.GrantTypes)
	assert.Equal(t, op.AccessTokenFormatBearer, got.AccessTokenFormat)
	assert.Empty(t, metadata.GrantTypes, "the passed metadata is not modified")

	metadata.JWKS = &jose.JSONWebKeySet{Keys: []jose.JSONWebKey{privateKey}}
	_, err = ts.provider.ValidateClientMetadata(context.Background(), metadata)
	assert.ErrorIs(t, err, oidc.ErrInvalidClientMetadata(), "private keys are refused")

	metadata.JWKS = &jose.JSONWebKeySet{Keys: []jose.JSONWebKey{publicKey}}
	metadata.JWKSURI = "https://dynamic.example/keys"
	_, err = ts.provider.ValidateClientMetadata(context.Background(), metadata)
	assert.ErrorIs(t, err, oidc.ErrInvalidClientMetadata(), "jwks and jwks_uri are exclusive")
}
