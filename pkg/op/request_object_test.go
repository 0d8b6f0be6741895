package op_test

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zitadel/authserver/pkg/oidc"
	"github.com/zitadel/authserver/pkg/op"
)

// requestObjectClaims returns the claims of a request object for the web client.
func (ts *testServer) requestObjectClaims(clientID, redirectURI string) jwt.MapClaims {
	now := ts.clock.Now()
	return jwt.MapClaims{
		"iss":           clientID,
		"aud":           ts.URL,
		"iat":           now.Unix(),
		"exp":           now.Add(5 * time.Minute).Unix(),
		"client_id":     clientID,
		"response_type": "code",
		"redirect_uri":  redirectURI,
		"scope":         "openid email",
		"state":         "state",
		"nonce":         "nonce",
	}
}

func signRequestObject(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key any) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	if method == jwt.SigningMethodRS256 {
		token.Header["kid"] = clientKeyID
	}
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

// requestObjectParams are the outer parameters of a request carrying a request object.
func requestObjectParams(clientID, redirectURI string, object ...string) url.Values {
	params := url.Values{
		"client_id":     {clientID},
		"response_type": {"code"},
		"scope":         {"openid"},
		"state":         {"outer"},
	}
	if redirectURI != "" {
		params.Set("redirect_uri", redirectURI)
	}
	if len(object) > 0 {
		params.Set("request", object[0])
	}
	return params
}

func TestRequestObject(t *testing.T) {
	ts := newTestServer(t)
	_, key := testKeys(t)

	claims := ts.requestObjectClaims("web", webRedirectURI)
	claims["claims"] = map[string]any{
		"id_token": map[string]any{"auth_time": map[string]any{"essential": true}},
	}
	object := signRequestObject(t, claims, jwt.SigningMethodRS256, key)
	params := responseParams(t, ts.authorize(t, ts.authURL(requestObjectParams("web", "", object))))
	require.Empty(t, params.Get("error"), params.Get("error_description"))
	assert.Equal(t, "state", params.Get("state"), "the request object replaces the outer parameters")

	resp, oidcErr := ts.token(t, codeForm(params.Get("code"), webRedirectURI), "web", "secret")
	require.Nil(t, oidcErr)
	assert.Equal(t, oidc.SpaceDelimitedArray{oidc.ScopeOpenID, oidc.ScopeEmail}, resp.Scope)
	idClaims := ts.parseJWT(t, resp.IDToken, "web")
	assert.Equal(t, "nonce", idClaims["nonce"])
	assert.EqualValues(t, ts.clock.Now().Unix(), idClaims["auth_time"])

	status, body := ts.get(t, "/metrics")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `authserver_request_objects_total{result="accepted"} 1`)
}

func TestRequestObject_unsigned(t *testing.T) {
	ts := newTestServer(t)

	object := signRequestObject(t, ts.requestObjectClaims("web", webRedirectURI), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)
	params := responseParams(t, ts.authorize(t, ts.authURL(requestObjectParams("web", "", object))))
	assert.Empty(t, params.Get("error"), params.Get("error_description"))
	assert.NotEmpty(t, params.Get("code"))

	// jwt-client registered RS256 for its request objects
	claims := ts.requestObjectClaims("jwt-client", "https://jwt.example/callback")
	object = signRequestObject(t, claims, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)
	params = responseParams(t, ts.authorize(t, ts.authURL(requestObjectParams("jwt-client", "https://jwt.example/callback", object))))
	assert.Equal(t, string(oidc.InvalidRequestObject), params.Get("error"))
	assert.Equal(t, "outer", params.Get("state"))
}

func TestRequestObject_invalid(t *testing.T) {
	ts := newTestServer(t)
	_, key := testKeys(t)
	tests := []struct {
		name   string
		modify func(jwt.MapClaims)
	}{
		{"other client_id", func(c jwt.MapClaims) { c["client_id"] = "native" }},
		{"other response_type", func(c jwt.MapClaims) { c["response_type"] = "id_token token" }},
		{"other issuer", func(c jwt.MapClaims) { c["iss"] = "native" }},
		{"other audience", func(c jwt.MapClaims) { c["aud"] = "https://other.example" }},
		{"expired", func(c jwt.MapClaims) { c["exp"] = ts.clock.Now().Add(-time.Minute).Unix() }},
		{"not yet valid", func(c jwt.MapClaims) { c["nbf"] = ts.clock.Now().Add(time.Hour).Unix() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := ts.requestObjectClaims("web", webRedirectURI)
			tt.modify(claims)
			object := signRequestObject(t, claims, jwt.SigningMethodRS256, key)
			params := responseParams(t, ts.authorize(t, ts.authURL(requestObjectParams("web", webRedirectURI, object))))
			assert.Equal(t, string(oidc.InvalidRequestObject), params.Get("error"))
			assert.Equal(t, "outer", params.Get("state"))
		})
	}

	t.Run("invalid signature", func(t *testing.T) {
		object := signRequestObject(t, ts.requestObjectClaims("web", webRedirectURI), jwt.SigningMethodHS256, []byte("not-the-client-secret"))
		params := responseParams(t, ts.authorize(t, ts.authURL(requestObjectParams("web", webRedirectURI, object))))
		assert.Equal(t, string(oidc.InvalidRequestObject), params.Get("error"))
	})
	t.Run("malformed", func(t *testing.T) {
		params := responseParams(t, ts.authorize(t, ts.authURL(requestObjectParams("web", webRedirectURI, "a.b.c"))))
		assert.Equal(t, string(oidc.InvalidRequestObject), params.Get("error"))
	})
	t.Run("invalid outer redirect_uri", func(t *testing.T) {
		claims := ts.requestObjectClaims("web", webRedirectURI)
		claims["client_id"] = "native"
		object := signRequestObject(t, claims, jwt.SigningMethodRS256, key)
		status, body := ts.get(t, "/authorize?"+requestObjectParams("web", "https://evil.example/callback", object).Encode())
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body, string(oidc.InvalidRequestObject))
	})

	status, body := ts.get(t, "/metrics")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `authserver_request_objects_total{result="rejected"}`)
}

func TestRequestObject_algMismatch(t *testing.T) {
	ts := newTestServer(t)
	_, key := testKeys(t)
	redirectURI := "https://rs.example/callback"

	// validly signed with the client secret, but rs-client registered RS256
	object := signRequestObject(t, ts.requestObjectClaims("rs-client", redirectURI), jwt.SigningMethodHS256, []byte("secret"))
	params := responseParams(t, ts.authorize(t, ts.authURL(requestObjectParams("rs-client", redirectURI, object))))
	assert.Equal(t, string(oidc.InvalidRequestObject), params.Get("error"))
	assert.Equal(t, "request object must be signed with RS256", params.Get("error_description"))
	assert.Equal(t, "outer", params.Get("state"))

	object = signRequestObject(t, ts.requestObjectClaims("rs-client", redirectURI), jwt.SigningMethodRS256, key)
	params = responseParams(t, ts.authorize(t, ts.authURL(requestObjectParams("rs-client", redirectURI, object))))
	assert.Empty(t, params.Get("error"), params.Get("error_description"))
	assert.NotEmpty(t, params.Get("code"))
}

func TestRequestObject_notSupported(t *testing.T) {
	ts := newTestServer(t, func(c *op.Config) {
		c.RequestObjectSupported = false
		c.RequestURISupported = false
	})
	object := signRequestObject(t, ts.requestObjectClaims("web", webRedirectURI), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)

	params := responseParams(t, ts.authorize(t, ts.authURL(requestObjectParams("web", webRedirectURI, object))))
	assert.Equal(t, string(oidc.RequestNotSupported), params.Get("error"))

	uriParams := requestObjectParams("web", webRedirectURI)
	uriParams.Set("request_uri", ts.publishRequestObject("/request/web", object))
	params = responseParams(t, ts.authorize(t, ts.authURL(uriParams)))
	assert.Equal(t, string(oidc.RequestURINotSupported), params.Get("error"))
}

func TestRequestURI(t *testing.T) {
	ts := newTestServer(t)
	_, key := testKeys(t)
	object := signRequestObject(t, ts.requestObjectClaims("web", webRedirectURI), jwt.SigningMethodRS256, key)
	requestURI := ts.publishRequestObject("/request/web", object)
	sum := sha256.Sum256([]byte(object))
	hash := base64.RawURLEncoding.EncodeToString(sum[:])

	tests := []struct {
		name       string
		requestURI string
		wantErr    string
	}{
		{"registered", requestURI, ""},
		{"matching hash", requestURI + "#" + hash, ""},
		{"other hash", requestURI + "#" + base64.RawURLEncoding.EncodeToString(make([]byte, 32)), string(oidc.InvalidRequestURI)},
		{"not registered", ts.publishRequestObject("/request/other", object), string(oidc.InvalidRequestURI)},
		{"not a url", "urn:example:request", string(oidc.InvalidRequestURI)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := requestObjectParams("web", webRedirectURI)
			params.Set("request_uri", tt.requestURI)
			resp := responseParams(t, ts.authorize(t, ts.authURL(params)))
			assert.Equal(t, tt.wantErr, resp.Get("error"), resp.Get("error_description"))
			if tt.wantErr == "" {
				assert.NotEmpty(t, resp.Get("code"))
			}
		})
	}
}

func TestRequestURI_blockList(t *testing.T) {
	ts := newTestServer(t, func(c *op.Config) {
		c.RequestURIBlockList = []string{"http://127.0.0.1:*/request/**"}
	})
	object := signRequestObject(t, ts.requestObjectClaims("web", webRedirectURI), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)

	params := requestObjectParams("web", webRedirectURI)
	params.Set("request_uri", ts.publishRequestObject("/request/web", object))
	resp := responseParams(t, ts.authorize(t, ts.authURL(params)))
	assert.Equal(t, string(oidc.InvalidRequestURI), resp.Get("error"))
}

func TestRequestURI_timeout(t *testing.T) {
	ts := newTestServer(t, func(c *op.Config) {
		c.RequestObjectFetchTimeout = 50 * time.Millisecond
	})
	ts.requestObjectDelay.Store(int64(5 * time.Second))
	object := signRequestObject(t, ts.requestObjectClaims("web", webRedirectURI), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)

	params := requestObjectParams("web", webRedirectURI)
	params.Set("request_uri", ts.publishRequestObject("/request/web", object))
	start := time.Now()
	resp := responseParams(t, ts.authorize(t, ts.authURL(params)))
	assert.Equal(t, string(oidc.InvalidRequestObject), resp.Get("error"), resp.Get("error_description"))
	assert.Equal(t, "outer", resp.Get("state"))
	assert.Less(t, time.Since(start), 5*time.Second, "the fetch is abandoned at the timeout")
}

func TestRequestObject_encrypted(t *testing.T) {
	ts := newTestServer(t)
	_, key := testKeys(t)
	nested := signRequestObject(t, ts.requestObjectClaims("web", webRedirectURI), jwt.SigningMethodRS256, key)

	var encKey *jose.JSONWebKey
	for _, k := range ts.keySet(t).Keys {
		if k.Use == "enc" {
			encKey = &k
		}
	}
	require.NotNil(t, encKey)

	tests := []struct {
		name      string
		recipient jose.Recipient
		wantErr   string
	}{
		{
			"server key",
			jose.Recipient{Algorithm: jose.RSA_OAEP_256, Key: encKey.Key},
			"",
		},
		{
			"client secret",
			jose.Recipient{Algorithm: jose.A256KW, Key: op.DeriveClientSecretKey("secret", 32)},
			"",
		},
		{
			"other secret",
			jose.Recipient{Algorithm: jose.A256KW, Key: op.DeriveClientSecretKey("other", 32)},
			string(oidc.InvalidRequestObject),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypter, err := jose.NewEncrypter(jose.A128GCM, tt.recipient, (&jose.EncrypterOptions{}).WithContentType("JWT"))
			require.NoError(t, err)
			jwe, err := encrypter.Encrypt([]byte(nested))
			require.NoError(t, err)
			object, err := jwe.CompactSerialize()
			require.NoError(t, err)

			params := responseParams(t, ts.authorize(t, ts.authURL(requestObjectParams("web", webRedirectURI, object))))
			assert.Equal(t, tt.wantErr, params.Get("error"), params.Get("error_description"))
		})
	}
}

func TestDeriveClientSecretKey(t *testing.T) {
	for _, size := range []int{16, 24, 32, 48, 64} {
		key := op.DeriveClientSecretKey("secret", size)
		assert.Len(t, key, size)
		assert.Equal(t, key, op.DeriveClientSecretKey("secret", size), "derivation is deterministic")
		assert.NotEqual(t, key, op.DeriveClientSecretKey("other", size))
	}
}

func TestCompileGlob(t *testing.T) {
	tests := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"https://*.example.com/**", "https://evil.example.com/a/b", true},
		{"https://*.example.com/*", "https://evil.example.com/a/b", false},
		{"https://example.com/request", "https://example.com/request", true},
		{"http://169.254.169.254/**", "http://169.254.169.254/latest/meta-data", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			g, err := op.CompileGlob(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.Match(tt.value))

			cached, err := op.CompileGlob(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, g, cached)
		})
	}

	_, err := op.CompileGlob("[")
	assert.Error(t, err)
}

func TestRequestObject_claimsParameter(t *testing.T) {
	ts := newTestServer(t)
	claims, err := json.Marshal(map[string]any{
		"userinfo": map[string]any{"phone_number": nil},
		"id_token": map[string]any{"email": map[string]any{"essential": true}},
	})
	require.NoError(t, err)

	params := webCodeParams("claims", string(claims), "scope", "openid")
	code := responseParams(t, ts.authorize(t, ts.authURL(params))).Get("code")
	resp, oidcErr := ts.token(t, codeForm(code, webRedirectURI), "web", "secret")
	require.Nil(t, oidcErr)

	idClaims := ts.parseJWT(t, resp.IDToken, "web")
	assert.Equal(t, "test-user@example.com", idClaims["email"])
	assert.Nil(t, idClaims["phone_number"])

	status, body := ts.userinfo(t, resp.AccessToken)
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"sub":"id1","phone_number":"+41 79 000 00 00"}`, body)
}
