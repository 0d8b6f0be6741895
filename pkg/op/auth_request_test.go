package op_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/golang/mock/gomock"
	"github.com/muhlemmer/gu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zitadel/schema"
	"golang.org/x/crypto/bcrypt"

	httphelper "github.com/zitadel/authserver/pkg/http"
	"github.com/zitadel/authserver/pkg/oidc"
	"github.com/zitadel/authserver/pkg/op"
	"github.com/zitadel/authserver/pkg/op/mock"
	"github.com/zitadel/authserver/pkg/storage"
)

func TestParseAuthorizeRequest(t *testing.T) {
	type args struct {
		r       *http.Request
		decoder httphelper.Decoder
	}
	type res struct {
		want *oidc.AuthRequest
		err  bool
	}
	tests := []struct {
		name string
		args args
		res  res
	}{
		{
			"parsing form error",
			args{
				&http.Request{URL: &url.URL{RawQuery: "invalid=%%param"}},
				schema.NewDecoder(),
			},
			res{
				nil,
				true,
			},
		},
		{
			"decoding error",
			args{
				&http.Request{URL: &url.URL{RawQuery: "unknown=value"}},
				func() httphelper.Decoder {
					decoder := schema.NewDecoder()
					decoder.IgnoreUnknownKeys(false)
					return decoder
				}(),
			},
			res{
				nil,
				true,
			},
		},
		{
			"parsing ok",
			args{
				&http.Request{URL: &url.URL{RawQuery: "scope=openid+email&max_age=60&prompt=login+consent"}},
				func() httphelper.Decoder {
					decoder := schema.NewDecoder()
					decoder.IgnoreUnknownKeys(false)
					return decoder
				}(),
			},
			res{
				&oidc.AuthRequest{
					Scopes: oidc.SpaceDelimitedArray{"openid", "email"},
					MaxAge: gu.Ptr[uint](60),
					Prompt: oidc.Prompt{"login", "consent"},
				},
				false,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := op.ParseAuthorizeRequest(tt.args.r, tt.args.decoder)
			if (err != nil) != tt.res.err {
				t.Errorf("ParseAuthorizeRequest() error = %v, wantErr %v", err, tt.res.err)
			}
			if !reflect.DeepEqual(got, tt.res.want) {
				t.Errorf("ParseAuthorizeRequest() got = %v, want %v", got, tt.res.want)
			}
		})
	}
}

func TestValidateAuthReqRedirectURI(t *testing.T) {
	type args struct {
		uri    string
		client op.Client
	}
	tests := []struct {
		name    string
		args    args
		want    string
		wantErr bool
	}{
		{
			"empty with multiple registered fails",
			args{"", mock.NewClientExpectAny(t, op.ApplicationTypeWeb)},
			"",
			true,
		},
		{
			"empty with single registered ok",
			args{"", mock.NewClientWithConfig(t, []string{"https://only.com/callback"}, op.ApplicationTypeWeb, nil)},
			"https://only.com/callback",
			false,
		},
		{
			"unregistered fails",
			args{"https://unregistered.com/callback", mock.NewClientExpectAny(t, op.ApplicationTypeWeb)},
			"",
			true,
		},
		{
			"registered https web ok",
			args{"https://registered.com/callback", mock.NewClientExpectAny(t, op.ApplicationTypeWeb)},
			"https://registered.com/callback",
			false,
		},
		{
			"registered http web fails",
			args{"http://registered.com/callback", mock.NewClientExpectAny(t, op.ApplicationTypeWeb)},
			"",
			true,
		},
		{
			"registered http localhost web ok",
			args{"http://localhost:9999/callback", mock.NewClientExpectAny(t, op.ApplicationTypeWeb)},
			"http://localhost:9999/callback",
			false,
		},
		{
			"other port localhost web fails",
			args{"http://localhost:1234/callback", mock.NewClientExpectAny(t, op.ApplicationTypeWeb)},
			"",
			true,
		},
		{
			"registered custom scheme web fails",
			args{"custom://callback", mock.NewClientExpectAny(t, op.ApplicationTypeWeb)},
			"",
			true,
		},
		{
			"registered custom scheme native ok",
			args{"custom://callback", mock.NewClientExpectAny(t, op.ApplicationTypeNative)},
			"custom://callback",
			false,
		},
		{
			"other port localhost native ok",
			args{"http://localhost:1234/callback", mock.NewClientExpectAny(t, op.ApplicationTypeNative)},
			"http://localhost:1234/callback",
			false,
		},
		{
			"other path localhost native fails",
			args{"http://localhost:1234/other", mock.NewClientExpectAny(t, op.ApplicationTypeNative)},
			"",
			true,
		},
		{
			"fragment fails",
			args{"https://registered.com/callback#fragment", mock.NewClientExpectAny(t, op.ApplicationTypeWeb)},
			"",
			true,
		},
		{
			"relative fails",
			args{"/callback", mock.NewClientExpectAny(t, op.ApplicationTypeWeb)},
			"",
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := op.ValidateAuthReqRedirectURI(tt.args.client, tt.args.uri)
			if tt.wantErr {
				require.ErrorIs(t, err, oidc.ErrInvalidRequest())
				var oidcErr *oidc.Error
				require.ErrorAs(t, err, &oidcErr)
				assert.True(t, oidcErr.IsRedirectDisabled(), "must never be sent to the redirect_uri")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateAuthReqScopes(t *testing.T) {
	tests := []struct {
		name         string
		scopes       []string
		responseType oidc.ResponseType
		want         []string
		wantErr      error
	}{
		{
			"no scope fails",
			nil,
			oidc.ResponseTypeCode,
			nil,
			oidc.ErrInvalidScope(),
		},
		{
			"only unknown scopes fail",
			[]string{"unknown"},
			oidc.ResponseTypeCode,
			nil,
			oidc.ErrInvalidScope(),
		},
		{
			"unknown scopes are dropped",
			[]string{oidc.ScopeOpenID, "unknown", oidc.ScopeEmail},
			oidc.ResponseTypeCode,
			[]string{oidc.ScopeOpenID, oidc.ScopeEmail},
			nil,
		},
		{
			"id_token without openid fails",
			[]string{oidc.ScopeProfile},
			oidc.ResponseTypeIDTokenOnly,
			nil,
			oidc.ErrInvalidScope(),
		},
		{
			"code without openid ok",
			[]string{oidc.ScopeProfile, oidc.ScopeOfflineAccess},
			oidc.ResponseTypeCode,
			[]string{oidc.ScopeProfile, oidc.ScopeOfflineAccess},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := mock.NewClientExpectAny(t, op.ApplicationTypeWeb)
			got, err := op.ValidateAuthReqScopes(client, tt.scopes, tt.responseType)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateAuthReqScopes_customScope(t *testing.T) {
	client := mock.NewMockClient(gomock.NewController(t))
	client.EXPECT().IsScopeAllowed("api").Return(true)
	client.EXPECT().IsScopeAllowed("admin").Return(false)

	got, err := op.ValidateAuthReqScopes(client, []string{"api", "admin"}, oidc.ResponseTypeCode)
	require.NoError(t, err)
	assert.Equal(t, []string{"api"}, got)
}

func TestValidateAuthReqResponseType(t *testing.T) {
	client := mock.NewClientWithConfig(t, nil, op.ApplicationTypeWeb,
		[]oidc.ResponseType{oidc.ResponseTypeCode, oidc.ResponseTypeIDToken})
	tests := []struct {
		responseType oidc.ResponseType
		wantErr      error
	}{
		{"", oidc.ErrInvalidRequest()},
		{oidc.ResponseTypeCode, nil},
		{"token id_token", nil},
		{"code unknown", oidc.ErrUnsupportedResponseType()},
		{oidc.ResponseTypeIDTokenOnly, oidc.ErrUnauthorizedClient()},
	}
	for _, tt := range tests {
		t.Run(string(tt.responseType), func(t *testing.T) {
			err := op.ValidateAuthReqResponseType(client, tt.responseType)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateAuthReqResponseMode(t *testing.T) {
	tests := []struct {
		responseType oidc.ResponseType
		mode         oidc.ResponseMode
		wantErr      bool
	}{
		{oidc.ResponseTypeCode, "", false},
		{oidc.ResponseTypeCode, oidc.ResponseModeQuery, false},
		{oidc.ResponseTypeCode, oidc.ResponseModeFragment, false},
		{oidc.ResponseTypeIDToken, oidc.ResponseModeFragment, false},
		{oidc.ResponseTypeIDToken, oidc.ResponseModeQuery, true},
		{oidc.ResponseTypeCodeIDToken, oidc.ResponseModeQuery, true},
		{oidc.ResponseTypeCode, "form_post", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.responseType)+"/"+string(tt.mode), func(t *testing.T) {
			err := op.ValidateAuthReqResponseMode(tt.responseType, tt.mode)
			if tt.wantErr {
				assert.ErrorIs(t, err, oidc.ErrInvalidRequest())
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateAuthReqPrompt(t *testing.T) {
	tests := []struct {
		name    string
		prompts oidc.Prompt
		wantErr bool
	}{
		{"empty", nil, false},
		{"none", oidc.Prompt{oidc.PromptNone}, false},
		{"login and consent", oidc.Prompt{oidc.PromptLogin, oidc.PromptConsent}, false},
		{"select_account", oidc.Prompt{oidc.PromptSelectAccount}, false},
		{"none with login fails", oidc.Prompt{oidc.PromptNone, oidc.PromptLogin}, true},
		{"unknown fails", oidc.Prompt{"create"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := op.ValidateAuthReqPrompt(tt.prompts)
			if tt.wantErr {
				assert.ErrorIs(t, err, oidc.ErrInvalidRequest())
				return
			}
			assert.NoError(t, err)
		})
	}
}

func pkceClient(t *testing.T, authMethod oidc.AuthMethod) op.Client {
	client := mock.NewMockClient(gomock.NewController(t))
	client.EXPECT().ResponseTypes().AnyTimes().Return([]oidc.ResponseType{oidc.ResponseTypeCode, oidc.ResponseTypeIDToken})
	client.EXPECT().IsScopeAllowed(gomock.Any()).AnyTimes().Return(false)
	client.EXPECT().AuthMethod().AnyTimes().Return(authMethod)
	return client
}

func TestProvider_ValidateAuthRequest(t *testing.T) {
	tests := []struct {
		name    string
		s256    bool
		client  op.Client
		authReq *oidc.AuthRequest
		wantErr error
	}{
		{
			"public client without code_challenge fails",
			false,
			pkceClient(t, oidc.AuthMethodNone),
			&oidc.AuthRequest{ResponseType: oidc.ResponseTypeCode, Scopes: []string{oidc.ScopeOpenID}},
			oidc.ErrInvalidRequest(),
		},
		{
			"public client with plain code_challenge ok",
			false,
			pkceClient(t, oidc.AuthMethodNone),
			&oidc.AuthRequest{ResponseType: oidc.ResponseTypeCode, Scopes: []string{oidc.ScopeOpenID}, CodeChallenge: "challenge"},
			nil,
		},
		{
			"S256 without support fails",
			false,
			pkceClient(t, oidc.AuthMethodNone),
			&oidc.AuthRequest{ResponseType: oidc.ResponseTypeCode, Scopes: []string{oidc.ScopeOpenID}, CodeChallenge: "challenge", CodeChallengeMethod: oidc.CodeChallengeMethodS256},
			oidc.ErrInvalidRequest(),
		},
		{
			"S256 with support ok",
			true,
			pkceClient(t, oidc.AuthMethodNone),
			&oidc.AuthRequest{ResponseType: oidc.ResponseTypeCode, Scopes: []string{oidc.ScopeOpenID}, CodeChallenge: "challenge", CodeChallengeMethod: oidc.CodeChallengeMethodS256},
			nil,
		},
		{
			"code_challenge_method without code_challenge fails",
			true,
			pkceClient(t, oidc.AuthMethodBasic),
			&oidc.AuthRequest{ResponseType: oidc.ResponseTypeCode, Scopes: []string{oidc.ScopeOpenID}, CodeChallengeMethod: oidc.CodeChallengeMethodS256},
			oidc.ErrInvalidRequest(),
		},
		{
			"confidential client without code_challenge ok",
			false,
			pkceClient(t, oidc.AuthMethodBasic),
			&oidc.AuthRequest{ResponseType: oidc.ResponseTypeCode, Scopes: []string{oidc.ScopeOpenID}},
			nil,
		},
		{
			"id_token without nonce fails",
			false,
			pkceClient(t, oidc.AuthMethodBasic),
			&oidc.AuthRequest{ResponseType: oidc.ResponseTypeIDToken, Scopes: []string{oidc.ScopeOpenID}},
			oidc.ErrInvalidRequest(),
		},
		{
			"unsupported prompt fails",
			false,
			pkceClient(t, oidc.AuthMethodBasic),
			&oidc.AuthRequest{ResponseType: oidc.ResponseTypeCode, Scopes: []string{oidc.ScopeOpenID}, Prompt: oidc.Prompt{"create"}},
			oidc.ErrInvalidRequest(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := op.NewOpenIDProvider("https://issuer.example", &op.Config{CodeMethodS256: tt.s256}, mock.NewStorage(t))
			require.NoError(t, err)
			err = provider.ValidateAuthRequest(tt.client, tt.authReq)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRedirectToLogin(t *testing.T) {
	client := mock.NewClientExpectAny(t, op.ApplicationTypeWeb)
	w := httptest.NewRecorder()
	op.RedirectToLogin("123", client, w, httptest.NewRequest(http.MethodGet, "/authorize", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?id=123", w.Header().Get("Location"))
}

func TestAuthResponseURL(t *testing.T) {
	type response struct {
		Code  string `schema:"code"`
		State string `schema:"state"`
	}
	tests := []struct {
		name         string
		redirectURI  string
		responseType oidc.ResponseType
		responseMode oidc.ResponseMode
		want         string
		wantErr      bool
	}{
		{
			"query",
			"https://example.com/callback",
			oidc.ResponseTypeCode,
			"",
			"https://example.com/callback?code=abc&state=xyz",
			false,
		},
		{
			"query merged",
			"https://example.com/callback?tenant=1",
			oidc.ResponseTypeCode,
			oidc.ResponseModeQuery,
			"https://example.com/callback?code=abc&state=xyz&tenant=1",
			false,
		},
		{
			"fragment mode",
			"https://example.com/callback",
			oidc.ResponseTypeCode,
			oidc.ResponseModeFragment,
			"https://example.com/callback#code=abc&state=xyz",
			false,
		},
		{
			"fragment for tokens",
			"https://example.com/callback",
			oidc.ResponseTypeIDToken,
			oidc.ResponseModeQuery,
			"https://example.com/callback#code=abc&state=xyz",
			false,
		},
		{
			"invalid redirect_uri",
			"://example.com",
			oidc.ResponseTypeCode,
			"",
			"",
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := op.AuthResponseURL(tt.redirectURI, tt.responseType, tt.responseMode, &response{Code: "abc", State: "xyz"}, schema.NewEncoder())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthorize_errors(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name   string
		params url.Values
		// direct errors are written as body, with the status
		status   int
		wantErr  string
		redirect string
	}{
		{
			name:    "missing client_id",
			params:  url.Values{"response_type": {"code"}, "scope": {"openid"}},
			status:  http.StatusBadRequest,
			wantErr: string(oidc.InvalidRequest),
		},
		{
			name:    "unknown client",
			params:  url.Values{"client_id": {"unknown"}, "response_type": {"code"}, "scope": {"openid"}},
			status:  http.StatusUnauthorized,
			wantErr: string(oidc.InvalidClient),
		},
		{
			name:    "unregistered redirect_uri",
			params:  url.Values{"client_id": {"web"}, "redirect_uri": {"https://evil.example/callback"}, "response_type": {"code"}, "scope": {"openid"}, "state": {"state"}},
			status:  http.StatusBadRequest,
			wantErr: string(oidc.InvalidRequest),
		},
		{
			name:     "response_type not registered",
			params:   url.Values{"client_id": {"web"}, "redirect_uri": {webRedirectURI}, "response_type": {"code token"}, "scope": {"openid"}, "state": {"state"}},
			wantErr:  string(oidc.UnauthorizedClient),
			redirect: webRedirectURI,
		},
		{
			name:     "unknown response_type",
			params:   url.Values{"client_id": {"web"}, "redirect_uri": {webRedirectURI}, "response_type": {"device"}, "scope": {"openid"}, "state": {"state"}},
			wantErr:  string(oidc.UnsupportedResponseType),
			redirect: webRedirectURI,
		},
		{
			name:     "missing scope",
			params:   url.Values{"client_id": {"web"}, "redirect_uri": {webRedirectURI}, "response_type": {"code"}, "state": {"state"}},
			wantErr:  string(oidc.InvalidScope),
			redirect: webRedirectURI,
		},
		{
			name:     "implicit without nonce",
			params:   url.Values{"client_id": {"web"}, "redirect_uri": {webRedirectURI}, "response_type": {"id_token token"}, "scope": {"openid"}, "state": {"state"}},
			wantErr:  string(oidc.InvalidRequest),
			redirect: webRedirectURI,
		},
		{
			name:     "implicit with query response_mode",
			params:   url.Values{"client_id": {"web"}, "redirect_uri": {webRedirectURI}, "response_type": {"id_token token"}, "response_mode": {"query"}, "nonce": {"n"}, "scope": {"openid"}, "state": {"state"}},
			wantErr:  string(oidc.InvalidRequest),
			redirect: webRedirectURI,
		},
		{
			name:     "public client without PKCE",
			params:   url.Values{"client_id": {"native"}, "redirect_uri": {nativeRedirectURI}, "response_type": {"code"}, "scope": {"openid"}, "state": {"state"}},
			wantErr:  string(oidc.InvalidRequest),
			redirect: nativeRedirectURI,
		},
		{
			name:     "request and request_uri",
			params:   url.Values{"client_id": {"web"}, "redirect_uri": {webRedirectURI}, "response_type": {"code"}, "scope": {"openid"}, "state": {"state"}, "request": {"a.b.c"}, "request_uri": {ts.URL + "/request/web"}},
			wantErr:  string(oidc.InvalidRequest),
			redirect: webRedirectURI,
		},
		{
			name:    "prompt none with others",
			params:  url.Values{"client_id": {"web"}, "redirect_uri": {webRedirectURI}, "response_type": {"code"}, "scope": {"openid"}, "state": {"state"}, "prompt": {"none login"}},
			wantErr: string(oidc.InvalidRequest),
			// the redirect_uri is valid
			redirect: webRedirectURI,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ts.browser.Get(ts.authURL(tt.params))
			require.NoError(t, err)
			body := readBody(t, resp)

			if tt.redirect == "" {
				assert.Equal(t, tt.status, resp.StatusCode)
				e := new(oidc.Error)
				require.NoError(t, json.Unmarshal([]byte(body), e), body)
				assert.Equal(t, tt.wantErr, string(e.ErrorType))
				return
			}
			require.Equal(t, http.StatusFound, resp.StatusCode, body)
			location, err := resp.Location()
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(location.String(), tt.redirect), location.String())
			params := responseParams(t, location)
			assert.Equal(t, tt.wantErr, params.Get("error"))
			assert.Equal(t, "state", params.Get("state"))
			assert.Empty(t, params.Get("code"))
		})
	}
}

// pendingAuthRequest starts an authorization request without
// passing the login UI and returns the id of the pending request.
func (ts *testServer) pendingAuthRequest(t *testing.T, params url.Values) string {
	t.Helper()
	noRedirect := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := noRedirect.Get(ts.authURL(params))
	require.NoError(t, err)
	body := readBody(t, resp)
	require.Equal(t, http.StatusFound, resp.StatusCode, body)
	location, err := resp.Location()
	require.NoError(t, err)
	require.Equal(t, storage.DefaultLoginURL, location.Path)
	return location.Query().Get("authRequestID")
}

func webCodeParams(extra ...string) url.Values {
	params := url.Values{
		"client_id":     {"web"},
		"redirect_uri":  {webRedirectURI},
		"response_type": {"code"},
		"scope":         {"openid email"},
		"state":         {"state"},
	}
	for i := 0; i+1 < len(extra); i += 2 {
		params.Set(extra[i], extra[i+1])
	}
	return params
}

func TestAuthorize_loginURL(t *testing.T) {
	ts := newTestServer(t)
	id := ts.pendingAuthRequest(t, webCodeParams())

	authReq, err := ts.storage.AuthRequestByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "web", authReq.ClientID)
	assert.Equal(t, webRedirectURI, authReq.RedirectURI)
	assert.False(t, authReq.Done)
	assert.WithinDuration(t, ts.clock.Now().Add(30*time.Minute), authReq.ExpiresAt, time.Second)
}

func TestAuthorize_implicit(t *testing.T) {
	ts := newTestServer(t)
	location := ts.authorize(t, ts.authURL(url.Values{
		"client_id":     {"web"},
		"redirect_uri":  {webRedirectURI},
		"response_type": {"id_token token"},
		"scope":         {"openid profile"},
		"state":         {"state"},
		"nonce":         {"nonce"},
	}))
	require.NotEmpty(t, location.Fragment, "implicit responses use the fragment")
	params := responseParams(t, location)
	assert.Equal(t, "state", params.Get("state"))
	assert.Equal(t, "Bearer", params.Get("token_type"))
	assert.Equal(t, "openid profile", params.Get("scope"))
	assert.Empty(t, params.Get("code"))
	accessToken := params.Get("access_token")
	require.NotEmpty(t, accessToken)

	claims := ts.parseJWT(t, params.Get("id_token"), "web")
	assert.Equal(t, "id1", claims["sub"])
	assert.Equal(t, "nonce", claims["nonce"])
	atHash, err := oidc.ClaimHash(accessToken, jose.RS256)
	require.NoError(t, err)
	assert.Equal(t, atHash, claims["at_hash"])
	// profile claims are served by the userinfo endpoint
	assert.Nil(t, claims["name"])

	status, body := ts.userinfo(t, accessToken)
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, body, `"name":"Test User"`)
}

func TestAuthorize_hybrid(t *testing.T) {
	ts := newTestServer(t)
	location := ts.authorize(t, ts.authURL(url.Values{
		"client_id":     {"web"},
		"redirect_uri":  {webRedirectURI},
		"response_type": {"code id_token"},
		"scope":         {"openid email"},
		"state":         {"state"},
		"nonce":         {"nonce"},
	}))
	params := responseParams(t, location)
	code := params.Get("code")
	require.NotEmpty(t, code)
	assert.Empty(t, params.Get("access_token"))

	claims := ts.parseJWT(t, params.Get("id_token"), "web")
	cHash, err := oidc.ClaimHash(code, jose.RS256)
	require.NoError(t, err)
	assert.Equal(t, cHash, claims["c_hash"])
	assert.Nil(t, claims["at_hash"])
	// without an access token the scope claims are part of the id_token
	assert.Equal(t, "test-user@example.com", claims["email"])
	assert.Equal(t, true, claims["email_verified"])
}

func TestAuthorize_session(t *testing.T) {
	ts := newTestServer(t)
	code := func(t *testing.T, params url.Values) url.Values {
		t.Helper()
		return responseParams(t, ts.authorize(t, ts.authURL(params)))
	}

	params := code(t, webCodeParams("prompt", "none"))
	assert.Equal(t, string(oidc.LoginRequired), params.Get("error"))
	assert.Equal(t, "state", params.Get("state"))
	assert.Zero(t, ts.logins.Load())

	params = code(t, webCodeParams())
	require.NotEmpty(t, params.Get("code"))
	require.EqualValues(t, 1, ts.logins.Load())

	// the session answers without the login UI
	params = code(t, webCodeParams("prompt", "none"))
	assert.NotEmpty(t, params.Get("code"))
	params = code(t, webCodeParams())
	assert.NotEmpty(t, params.Get("code"))
	assert.EqualValues(t, 1, ts.logins.Load())

	params = code(t, webCodeParams("prompt", "login"))
	assert.NotEmpty(t, params.Get("code"))
	assert.EqualValues(t, 2, ts.logins.Load())

	params = code(t, url.Values{
		"client_id":     {"untrusted"},
		"redirect_uri":  {"https://untrusted.example/callback"},
		"response_type": {"code"},
		"scope":         {"openid"},
		"state":         {"state"},
		"prompt":        {"none"},
	})
	assert.Equal(t, string(oidc.ConsentRequired), params.Get("error"))

	ts.clock.Add(2 * time.Minute)
	params = code(t, webCodeParams("prompt", "none", "max_age", "60"))
	assert.Equal(t, string(oidc.LoginRequired), params.Get("error"))
	params = code(t, webCodeParams("prompt", "none", "max_age", "300"))
	assert.NotEmpty(t, params.Get("code"))
}

func TestAuthorize_idTokenHint(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.dir.AddUsers([]storage.UserConfig{{ID: "id2", Username: "other-user", Password: "verysecure"}}, bcrypt.MinCost))
	code := func(t *testing.T, params url.Values) url.Values {
		t.Helper()
		return responseParams(t, ts.authorize(t, ts.authURL(params)))
	}
	conf := ts.oauth2Config("web", "secret", webRedirectURI, oidc.ScopeOpenID)
	tokens, oidcErr := ts.token(t, codeForm(ts.code(t, conf), webRedirectURI), "web", "secret")
	require.Nil(t, oidcErr)
	hint := tokens.IDToken

	params := code(t, webCodeParams("prompt", "none", "id_token_hint", hint))
	assert.NotEmpty(t, params.Get("code"), "the session matches the hint")

	ts.clock.Add(2 * time.Hour)
	params = code(t, webCodeParams("prompt", "none", "id_token_hint", hint))
	assert.NotEmpty(t, params.Get("code"), "an expired hint is accepted")

	// switch the session to another end-user
	ts.subject = "id2"
	params = code(t, webCodeParams("prompt", "login"))
	require.NotEmpty(t, params.Get("code"))
	logins := ts.logins.Load()

	params = code(t, webCodeParams("prompt", "none", "id_token_hint", hint))
	assert.Equal(t, string(oidc.LoginRequired), params.Get("error"))
	assert.Equal(t, "state", params.Get("state"))
	params = code(t, webCodeParams("prompt", "none"))
	assert.NotEmpty(t, params.Get("code"))
	assert.Equal(t, logins, ts.logins.Load())

	params = code(t, webCodeParams("id_token_hint", hint))
	assert.NotEmpty(t, params.Get("code"))
	assert.Equal(t, logins+1, ts.logins.Load(), "the login UI is shown")

	params = code(t, webCodeParams("prompt", "none", "id_token_hint", "not.a.token"))
	assert.Equal(t, string(oidc.InvalidRequest), params.Get("error"))

	params = code(t, url.Values{
		"client_id":     {"untrusted"},
		"redirect_uri":  {"https://untrusted.example/callback"},
		"response_type": {"code"},
		"scope":         {"openid"},
		"state":         {"state"},
		"id_token_hint": {hint},
	})
	assert.Equal(t, string(oidc.InvalidRequest), params.Get("error"), "the hint was issued to another client")
}

func TestAuthorize_consent(t *testing.T) {
	ts := newTestServer(t)
	untrusted := url.Values{
		"client_id":     {"untrusted"},
		"redirect_uri":  {"https://untrusted.example/callback"},
		"response_type": {"code"},
		"scope":         {"openid"},
		"state":         {"state"},
	}

	ts.consent = false
	params := responseParams(t, ts.authorize(t, ts.authURL(untrusted)))
	assert.Equal(t, string(oidc.AccessDenied), params.Get("error"))
	assert.Empty(t, params.Get("code"))

	// a session does not replace the consent of an untrusted client
	ts.consent = true
	params = responseParams(t, ts.authorize(t, ts.authURL(untrusted)))
	assert.NotEmpty(t, params.Get("code"))
	assert.EqualValues(t, 2, ts.logins.Load())
}

func TestAuthorize_callback(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.get(t, "/authorize/callback?id=unknown")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, string(oidc.InvalidRequest))

	id := ts.pendingAuthRequest(t, webCodeParams())
	noRedirect := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := noRedirect.Get(ts.provider.AuthCallbackURL(ts.URL, id))
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	location, err := resp.Location()
	require.NoError(t, err)
	params := responseParams(t, location)
	assert.Equal(t, string(oidc.InteractionRequired), params.Get("error"))
	assert.Equal(t, "state", params.Get("state"))
}

func TestAuthorize_expired(t *testing.T) {
	ts := newTestServer(t)
	id := ts.pendingAuthRequest(t, webCodeParams())

	ts.clock.Add(31 * time.Minute)
	status, body := ts.get(t, storage.DefaultLoginURL+"?authRequestID="+url.QueryEscape(id))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "expired")
}

func TestDenyLogin(t *testing.T) {
	ts := newTestServer(t)
	id := ts.pendingAuthRequest(t, webCodeParams())

	w := httptest.NewRecorder()
	ts.provider.DenyLogin(w, httptest.NewRequest(http.MethodPost, ts.URL+"/login/deny", nil), id)
	require.Equal(t, http.StatusFound, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(location.String(), webRedirectURI))
	assert.Equal(t, string(oidc.AccessDenied), location.Query().Get("error"))
	assert.Equal(t, "state", location.Query().Get("state"))

	// the request is gone
	w = httptest.NewRecorder()
	ts.provider.DenyLogin(w, httptest.NewRequest(http.MethodPost, ts.URL+"/login/deny", nil), id)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
