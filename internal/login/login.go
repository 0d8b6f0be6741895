// Package login is the end-user login UI of the authorization server.
// It authenticates users of the directory with username and password
// and hands the pending authorization request back to the provider.
package login

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zitadel/authserver/pkg/op"
)

const (
	PathUsername = "/login/username"
	PathDeny     = "/login/deny"

	queryAuthRequestID = "authRequestID"
)

var loginTmpl = template.Must(template.New("login").Parse(`
	<!DOCTYPE html>
	<html>
		<head>
			<meta charset="UTF-8">
			<title>Login</title>
		</head>
		<body style="display: flex; align-items: center; justify-content: center; height: 100vh;">
			<div style="width: 260px;">
				<form method="POST" action="{{.Action}}">
					<input type="hidden" name="id" value="{{.ID}}">

					<p><b>{{.ClientID}}</b> asks for access to: {{range .Scopes}}<code>{{.}}</code> {{end}}</p>

					<div>
						<label for="username">Username:</label>
						<input id="username" name="username" value="{{.Username}}" style="width: 100%">
					</div>

					<div>
						<label for="password">Password:</label>
						<input id="password" name="password" type="password" style="width: 100%">
					</div>

					<p style="color:red; min-height: 1rem;">{{.Error}}</p>

					<button type="submit">Login and allow</button>
				</form>
				<form method="POST" action="{{.DenyAction}}">
					<input type="hidden" name="id" value="{{.ID}}">
					<button type="submit">Deny</button>
				</form>
			</div>
		</body>
	</html>`))

// Authenticator checks the credentials of an end-user
// and returns its subject.
type Authenticator interface {
	CheckUsernamePassword(ctx context.Context, username, password string) (string, error)
}

type Login struct {
	provider *op.Provider
	users    Authenticator
	router   chi.Router
	now      func() time.Time
}

type Option func(*Login)

// WithClock sets the clock used for the authentication time.
func WithClock(now func() time.Time) Option {
	return func(l *Login) {
		l.now = now
	}
}

func New(provider *op.Provider, users Authenticator, opts ...Option) *Login {
	l := &Login{
		provider: provider,
		users:    users,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.router = chi.NewRouter()
	l.router.Get(PathUsername, l.loginHandler)
	l.router.Post(PathUsername, l.checkLoginHandler)
	l.router.Post(PathDeny, l.denyHandler)
	return l
}

func (l *Login) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l.router.ServeHTTP(w, r)
}

type page struct {
	Action     string
	DenyAction string
	ID         string
	ClientID   string
	Scopes     []string
	Username   string
	Error      string
}

func (l *Login) loginHandler(w http.ResponseWriter, r *http.Request) {
	// the provider passes the id of the auth request as query parameter,
	// it is kept in the form through the login process
	l.render(w, r, r.URL.Query().Get(queryAuthRequestID), "", "")
}

func (l *Login) render(w http.ResponseWriter, r *http.Request, id, username, errMsg string) {
	ctx := r.Context()
	authReq, err := l.provider.Storage().AuthRequestByID(ctx, id)
	if err != nil {
		if !errors.Is(err, op.ErrNotFound) {
			l.provider.Logger(ctx).ErrorContext(ctx, "login: auth request", "error", err)
		}
		http.Error(w, "unknown or expired authorization request", http.StatusBadRequest)
		return
	}
	data := &page{
		Action:     PathUsername,
		DenyAction: PathDeny,
		ID:         id,
		ClientID:   authReq.ClientID,
		Scopes:     authReq.Scopes,
		Username:   username,
		Error:      errMsg,
	}
	if username == "" {
		data.Username = authReq.LoginHint
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err = loginTmpl.Execute(w, data); err != nil {
		l.provider.Logger(ctx).ErrorContext(ctx, "login: render", "error", err)
	}
}

func (l *Login) checkLoginHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "cannot parse form", http.StatusBadRequest)
		return
	}
	id := r.FormValue("id")
	username := r.FormValue("username")
	subject, err := l.users.CheckUsernamePassword(ctx, username, r.FormValue("password"))
	if errors.Is(err, op.ErrInvalidCredentials) {
		l.provider.Logger(ctx).WarnContext(ctx, "login failed", "username", username)
		l.render(w, r, id, username, "invalid username or password")
		return
	}
	if err != nil {
		op.RequestError(w, r, err, l.provider.Logger(ctx))
		return
	}
	session := &op.Session{
		Subject:  subject,
		AuthTime: l.now(),
		AMR:      []string{"pwd"},
	}
	// submitting the form is the consent to the listed scopes
	if err = l.provider.CompleteLogin(w, r, id, session, true); err != nil {
		op.RequestError(w, r, err, l.provider.Logger(ctx))
	}
}

func (l *Login) denyHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "cannot parse form", http.StatusBadRequest)
		return
	}
	l.provider.DenyLogin(w, r, r.FormValue("id"))
}
