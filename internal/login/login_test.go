package login_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jeremija/gosubmit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"

	"github.com/zitadel/authserver/internal/login"
	"github.com/zitadel/authserver/pkg/op"
	"github.com/zitadel/authserver/pkg/storage"
)

const redirectURI = "https://app.example/callback"

type testServer struct {
	*httptest.Server
	browser *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := new(testServer)
	var handler http.Handler
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	keys, err := storage.GenerateKeyRing()
	require.NoError(t, err)
	dir := storage.NewDirectory(keys, "")
	require.NoError(t, dir.AddUsers([]storage.UserConfig{{
		ID:       "alice-id",
		Username: "alice",
		Password: "wonderland",
		Email:    "alice@example.com",
	}}, bcrypt.MinCost))

	provider, err := op.NewOpenIDProvider(ts.URL, &op.Config{CodeMethodS256: true}, storage.NewMemory(dir),
		op.WithAllowInsecure(),
		op.WithHTTPClient(ts.Client()),
		op.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	require.NoError(t, dir.AddClients(context.Background(), []storage.ClientConfig{{
		ID:           "app",
		Secret:       "secret",
		RedirectURIs: []string{redirectURI},
	}}, provider.ValidateClientMetadata))

	mux := http.NewServeMux()
	mux.Handle("/", provider.HttpHandler())
	mux.Handle("/login/", login.New(provider, dir))
	handler = mux

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	ts.browser = &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, _ []*http.Request) error {
			if req.URL.Host != ts.Listener.Addr().String() {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return ts
}

// loginPage starts an authorization request and returns the login page it leads to.
func (ts *testServer) loginPage(t *testing.T) (*url.URL, string) {
	t.Helper()
	params := url.Values{
		"client_id":     {"app"},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"scope":         {"openid email"},
		"state":         {"state"},
		"login_hint":    {"alice"},
	}
	resp, err := ts.browser.Get(ts.URL + "/authorize?" + params.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.Equal(t, login.PathUsername, resp.Request.URL.Path)
	return resp.Request.URL, string(body)
}

// fillForm submits the first form of the page and returns the response.
func (ts *testServer) fillForm(t *testing.T, page string, uri *url.URL, opts ...gosubmit.Option) *http.Response {
	t.Helper()
	req := gosubmit.ParseWithURL(io.NopCloser(strings.NewReader(page)), uri.String()).FirstForm().Testing(t).NewTestRequest(opts...)
	if req.URL.Scheme == "" {
		req.URL = uri
	}
	req.RequestURI = ""
	resp, err := ts.browser.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	uri, page := ts.loginPage(t)
	assert.Contains(t, page, "<b>app</b>")
	assert.Contains(t, page, "<code>email</code>")
	assert.Contains(t, page, `value="alice"`, "the login_hint prefills the username")

	resp := ts.fillForm(t, page, uri,
		gosubmit.Set("username", "alice"),
		gosubmit.Set("password", "wonderland"),
	)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	location, err := resp.Location()
	require.NoError(t, err)
	assert.Equal(t, "app.example", location.Host)
	assert.NotEmpty(t, location.Query().Get("code"))
	assert.Equal(t, "state", location.Query().Get("state"))

	t.Run("untrusted client asks again", func(t *testing.T) {
		_, page := ts.loginPage(t)
		assert.Contains(t, page, "<b>app</b>")
	})
}

func TestLogin_wrongPassword(t *testing.T) {
	ts := newTestServer(t)
	uri, page := ts.loginPage(t)

	resp := ts.fillForm(t, page, uri,
		gosubmit.Set("username", "alice"),
		gosubmit.Set("password", "looking-glass"),
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "invalid username or password")

	resp = ts.fillForm(t, string(body), uri,
		gosubmit.Set("username", "alice"),
		gosubmit.Set("password", "wonderland"),
	)
	require.Equal(t, http.StatusFound, resp.StatusCode, "a retry with the right password succeeds")
}

func TestLogin_deny(t *testing.T) {
	ts := newTestServer(t)
	uri, _ := ts.loginPage(t)

	resp, err := ts.browser.PostForm(ts.URL+login.PathDeny, url.Values{"id": {uri.Query().Get("authRequestID")}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	location, err := resp.Location()
	require.NoError(t, err)
	assert.Equal(t, "access_denied", location.Query().Get("error"))
	assert.Equal(t, "state", location.Query().Get("state"))
}

func TestLogin_unknownRequest(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.browser.Get(ts.URL + login.PathUsername + "?authRequestID=unknown")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
