package op

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	httphelper "github.com/zitadel/authserver/pkg/http"
	"github.com/zitadel/authserver/pkg/oidc"
)

// knownResponseTypeMembers are the response_type values the server implements.
var knownResponseTypeMembers = map[string]bool{
	oidc.ResponseTypeMemberCode:    true,
	oidc.ResponseTypeMemberToken:   true,
	oidc.ResponseTypeMemberIDToken: true,
}

var knownPrompts = map[string]bool{
	oidc.PromptNone:          true,
	oidc.PromptLogin:         true,
	oidc.PromptConsent:       true,
	oidc.PromptSelectAccount: true,
}

// Authorize handles the authorization request, including
// parsing, validating, storing and finally redirecting to the login UI.
func (o *Provider) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Authorize")
	defer span.End()
	r = r.WithContext(ctx)

	authReq, err := ParseAuthorizeRequest(r, o.decoder)
	if err != nil {
		AuthRequestError(w, r, nil, err, o.encoder, o.Logger(ctx))
		return
	}
	if authReq.ClientID == "" {
		AuthRequestError(w, r, nil, oidc.ErrInvalidRequest().WithDescription("client_id is missing"), o.encoder, o.Logger(ctx))
		return
	}
	client, err := o.clientByID(ctx, authReq.ClientID)
	if err != nil {
		AuthRequestError(w, r, nil, err, o.encoder, o.Logger(ctx))
		return
	}
	ctx = o.logCtxWithClient(ctx, client.GetID())
	r = r.WithContext(ctx)
	logger := o.Logger(ctx)

	if _, err = o.processRequestObject(ctx, client, authReq); err != nil {
		// the error may only travel to the redirect_uri
		// of the outer request once it is known to be valid
		var errReq ErrAuthRequest
		if redirectURI, rErr := ValidateAuthReqRedirectURI(client, authReq.RedirectURI); rErr == nil {
			authReq.RedirectURI = redirectURI
			errReq = authReq
		}
		AuthRequestError(w, r, errReq, err, o.encoder, logger)
		return
	}

	authReq.RedirectURI, err = ValidateAuthReqRedirectURI(client, authReq.RedirectURI)
	if err != nil {
		AuthRequestError(w, r, nil, err, o.encoder, logger)
		return
	}
	if err = o.ValidateAuthRequest(client, authReq); err != nil {
		AuthRequestError(w, r, authReq, err, o.encoder, logger)
		return
	}

	var hintSubject string
	if authReq.IDTokenHint != "" {
		hint, err := o.verifyIDTokenHint(ctx, client, authReq.IDTokenHint)
		if err != nil {
			AuthRequestError(w, r, authReq, err, o.encoder, logger)
			return
		}
		hintSubject = hint.Subject
	}

	pending := newAuthRequest(uuid.NewString(), authReq, o.now(), o.config.AuthRequestLifetime)
	if o.respondFromSession(w, r, client, authReq, pending, hintSubject) {
		return
	}
	if err = o.storage.SaveAuthRequest(ctx, pending); err != nil {
		AuthRequestError(w, r, authReq, oidc.DefaultToServerError(err, "unable to save auth request"), o.encoder, logger)
		return
	}
	RedirectToLogin(pending.ID, client, w, r)
}

// respondFromSession answers the request without the login UI when the
// end-user has a session and no interaction is needed. It returns false
// when the request must be passed to the login UI. A session of another
// subject than the one of the id_token_hint is not used.
func (o *Provider) respondFromSession(w http.ResponseWriter, r *http.Request, client Client, authReq *oidc.AuthRequest, pending *AuthRequest, hintSubject string) bool {
	session := o.SessionFromRequest(r)
	if authReq.Prompt.Contains(oidc.PromptLogin) || authReq.Prompt.Contains(oidc.PromptSelectAccount) {
		session = nil
	}
	authenticated := session.validFor(authReq.MaxAge, o.now())
	otherSubject := authenticated && hintSubject != "" && session.Subject != hintSubject
	if otherSubject {
		authenticated = false
	}

	if authReq.Prompt.Contains(oidc.PromptNone) {
		if otherSubject {
			AuthRequestError(w, r, authReq, oidc.ErrLoginRequired().WithDescription("end-user is not the subject of id_token_hint"), o.encoder, o.Logger(r.Context()))
			return true
		}
		if !authenticated {
			AuthRequestError(w, r, authReq, oidc.ErrLoginRequired().WithDescription("end-user is not authenticated"), o.encoder, o.Logger(r.Context()))
			return true
		}
		if !client.Trusted() {
			AuthRequestError(w, r, authReq, oidc.ErrConsentRequired().WithDescription("end-user consent is required"), o.encoder, o.Logger(r.Context()))
			return true
		}
	} else if !authenticated || !client.Trusted() || authReq.Prompt.Contains(oidc.PromptConsent) {
		return false
	}

	pending.Subject = session.Subject
	pending.AuthTime = session.AuthTime
	pending.AMR = session.AMR
	pending.ACR = session.ACR
	pending.Done = true
	o.authResponse(w, r, client, pending)
	return true
}

// ParseAuthorizeRequest parses the http request into an oidc.AuthRequest
func ParseAuthorizeRequest(r *http.Request, decoder httphelper.Decoder) (*oidc.AuthRequest, error) {
	err := r.ParseForm()
	if err != nil {
		return nil, oidc.ErrInvalidRequest().WithDescription("cannot parse form").WithParent(err)
	}
	authReq := new(oidc.AuthRequest)
	err = decoder.Decode(authReq, r.Form)
	if err != nil {
		return nil, oidc.ErrInvalidRequest().WithDescription("cannot parse auth request").WithParent(err)
	}
	return authReq, nil
}

// clientByID resolves the client, mapping an unknown
// client_id to invalid_client.
func (o *Provider) clientByID(ctx context.Context, clientID string) (Client, error) {
	client, err := o.storage.GetClientByClientID(ctx, clientID)
	if errors.Is(err, ErrNotFound) {
		return nil, oidc.ErrInvalidClient().WithDescription("client is unknown").WithParent(err)
	}
	if err != nil {
		return nil, oidc.DefaultToServerError(err, "unable to retrieve client by id")
	}
	return client, nil
}

// ValidateAuthRequest validates the parameters of a request whose
// redirect_uri was already validated. The first violation is returned.
func (o *Provider) ValidateAuthRequest(client Client, authReq *oidc.AuthRequest) (err error) {
	if err = ValidateAuthReqResponseType(client, authReq.ResponseType); err != nil {
		return err
	}
	if err = ValidateAuthReqResponseMode(authReq.ResponseType, authReq.ResponseMode); err != nil {
		return err
	}
	if err = ValidateAuthReqPrompt(authReq.Prompt); err != nil {
		return err
	}
	if authReq.Scopes, err = ValidateAuthReqScopes(client, authReq.Scopes, authReq.ResponseType); err != nil {
		return err
	}
	if authReq.ResponseType.Has(oidc.ResponseTypeMemberIDToken) && authReq.Nonce == "" {
		return oidc.ErrInvalidRequest().WithDescription("nonce is required when an id_token is returned from the authorization endpoint")
	}
	return o.validateAuthReqCodeChallenge(client, authReq)
}

// ValidateAuthReqRedirectURI checks the redirect_uri against the registered ones
// and the application type of the client. An omitted redirect_uri resolves to
// the registered one, if the client registered exactly one.
func ValidateAuthReqRedirectURI(client Client, uri string) (string, error) {
	registered := client.RedirectURIs()
	if uri == "" {
		if len(registered) != 1 {
			return "", oidc.ErrInvalidRequestRedirectURI().WithDescription("redirect_uri is missing")
		}
		uri = registered[0]
	}
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || u.Fragment != "" {
		return "", oidc.ErrInvalidRequestRedirectURI().WithDescription("redirect_uri is not a valid absolute url")
	}
	if err = checkRedirectScheme(client.ApplicationType(), u); err != nil {
		return "", err
	}
	for _, r := range registered {
		if r == uri {
			return uri, nil
		}
	}
	if client.ApplicationType() == ApplicationTypeNative && isLoopback(u) {
		// native clients may use any port on the loopback interface
		for _, r := range registered {
			if ru, err := url.Parse(r); err == nil && isLoopback(ru) && equalURI(u, ru) {
				return uri, nil
			}
		}
	}
	return "", oidc.ErrInvalidRequestRedirectURI().WithDescription("redirect_uri is not registered for the client")
}

// checkRedirectScheme enforces https for web clients, with plain http only on
// loopback hosts. Native clients use custom schemes, loopback http or https.
func checkRedirectScheme(appType ApplicationType, u *url.URL) error {
	switch u.Scheme {
	case "https":
		if u.Host == "" {
			return oidc.ErrInvalidRequestRedirectURI().WithDescription("redirect_uri has no host")
		}
		return nil
	case "http":
		if isLoopback(u) {
			return nil
		}
		return oidc.ErrInvalidRequestRedirectURI().WithDescription("redirect_uri must use https")
	}
	if appType == ApplicationTypeNative {
		return nil
	}
	return oidc.ErrInvalidRequestRedirectURI().WithDescription("redirect_uri of a web client must use https")
}

func isLoopback(u *url.URL) bool {
	if u.Scheme != "http" {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func equalURI(url1, url2 *url.URL) bool {
	return url1.Hostname() == url2.Hostname() && url1.Path == url2.Path && url1.RawQuery == url2.RawQuery
}

// ValidateAuthReqResponseType checks the response_type combination against
// the combinations the client registered.
func ValidateAuthReqResponseType(client Client, responseType oidc.ResponseType) error {
	values := responseType.Values()
	if len(values) == 0 {
		return oidc.ErrInvalidRequest().WithDescription("response_type is missing")
	}
	for _, v := range values {
		if !knownResponseTypeMembers[v] {
			return oidc.ErrUnsupportedResponseType().WithDescription("response_type %s is not supported", v)
		}
	}
	if !ContainsResponseType(client.ResponseTypes(), responseType) {
		return oidc.ErrUnauthorizedClient().WithDescription("response_type %s is not registered for the client", responseType)
	}
	return nil
}

// ValidateAuthReqResponseMode refuses the query mode for responses
// carrying tokens.
func ValidateAuthReqResponseMode(responseType oidc.ResponseType, mode oidc.ResponseMode) error {
	switch mode {
	case "", oidc.ResponseModeFragment:
		return nil
	case oidc.ResponseModeQuery:
		if responseType.ReturnsTokens() {
			return oidc.ErrInvalidRequest().WithDescription("response_mode query must not be used with response_type %s", responseType)
		}
		return nil
	default:
		return oidc.ErrInvalidRequest().WithDescription("response_mode %s is not supported", mode)
	}
}

// ValidateAuthReqPrompt refuses unknown values and `none` combined with others.
func ValidateAuthReqPrompt(prompts oidc.Prompt) error {
	for _, prompt := range prompts {
		if !knownPrompts[prompt] {
			return oidc.ErrInvalidRequest().WithDescription("prompt %s is not supported", prompt)
		}
		if prompt == oidc.PromptNone && len(prompts) > 1 {
			return oidc.ErrInvalidRequest().WithDescription("prompt none must only be used as a single value")
		}
	}
	return nil
}

// ValidateAuthReqScopes drops the scopes the client may not request.
// id_token responses require the openid scope.
func ValidateAuthReqScopes(client Client, scopes []string, responseType oidc.ResponseType) ([]string, error) {
	allowed := make([]string, 0, len(scopes))
	openID := false
	for _, scope := range scopes {
		switch scope {
		case oidc.ScopeOpenID:
			openID = true
		case oidc.ScopeProfile, oidc.ScopeEmail, oidc.ScopePhone, oidc.ScopeAddress, oidc.ScopeOfflineAccess:
		default:
			if !client.IsScopeAllowed(scope) {
				continue
			}
		}
		allowed = append(allowed, scope)
	}
	if len(allowed) == 0 {
		return nil, oidc.ErrInvalidScope().WithDescription("no valid scope was requested")
	}
	if responseType.Has(oidc.ResponseTypeMemberIDToken) && !openID {
		return nil, oidc.ErrInvalidScope().WithDescription("the openid scope is required for response_type %s", responseType)
	}
	return allowed, nil
}

// validateAuthReqCodeChallenge requires PKCE for public clients using a code.
func (o *Provider) validateAuthReqCodeChallenge(client Client, authReq *oidc.AuthRequest) error {
	switch authReq.CodeChallengeMethod {
	case "", oidc.CodeChallengeMethodPlain:
	case oidc.CodeChallengeMethodS256:
		if !o.config.CodeMethodS256 {
			return oidc.ErrInvalidRequest().WithDescription("code_challenge_method S256 is not supported")
		}
	default:
		return oidc.ErrInvalidRequest().WithDescription("code_challenge_method %s is not supported", authReq.CodeChallengeMethod)
	}
	if authReq.CodeChallenge == "" && authReq.CodeChallengeMethod != "" {
		return oidc.ErrInvalidRequest().WithDescription("code_challenge is missing")
	}
	if authReq.CodeChallenge == "" && !IsConfidentialType(client) && authReq.ResponseType.Has(oidc.ResponseTypeMemberCode) {
		return oidc.ErrInvalidRequest().WithDescription("code_challenge is required for public clients")
	}
	return nil
}

// RedirectToLogin redirects the end user to the Login UI for authentication
func RedirectToLogin(authReqID string, client Client, w http.ResponseWriter, r *http.Request) {
	login := client.LoginURL(authReqID)
	http.Redirect(w, r, login, http.StatusFound)
}

// AuthorizeCallback handles the callback after authentication in the Login UI
func (o *Provider) AuthorizeCallback(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "AuthorizeCallback")
	defer span.End()
	r = r.WithContext(ctx)

	id := r.URL.Query().Get("id")
	if id == "" {
		AuthRequestError(w, r, nil, oidc.ErrInvalidRequest().WithDescription("id is missing"), o.encoder, o.Logger(ctx))
		return
	}
	authReq, err := o.authRequestByID(ctx, id)
	if err != nil {
		AuthRequestError(w, r, nil, err, o.encoder, o.Logger(ctx))
		return
	}
	ctx = o.logCtxWithClient(ctx, authReq.ClientID)
	r = r.WithContext(ctx)
	logger := o.Logger(ctx)

	if !authReq.Done {
		AuthRequestError(w, r, authReq, oidc.ErrInteractionRequired().WithDescription("end-user did not complete the authentication"), o.encoder, logger)
		return
	}
	client, err := o.clientByID(ctx, authReq.ClientID)
	if err != nil {
		AuthRequestError(w, r, authReq, err, o.encoder, logger)
		return
	}
	if err = o.storage.DeleteAuthRequest(ctx, authReq.ID); err != nil {
		logger.WarnContext(ctx, "unable to delete auth request", "error", err)
	}
	if !authReq.Consented && !client.Trusted() {
		AuthRequestError(w, r, authReq, oidc.ErrAccessDenied().WithDescription("end-user did not consent"), o.encoder, logger)
		return
	}
	o.authResponse(w, r, client, authReq)
}

// authRequestByID loads a pending request which has not expired.
func (o *Provider) authRequestByID(ctx context.Context, id string) (*AuthRequest, error) {
	authReq, err := o.storage.AuthRequestByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, oidc.ErrInvalidRequest().WithDescription("auth request is unknown").WithParent(err)
	}
	if err != nil {
		return nil, oidc.DefaultToServerError(err, "unable to retrieve auth request")
	}
	if !o.now().Before(authReq.ExpiresAt) {
		return nil, oidc.ErrInvalidRequest().WithDescription("auth request has expired")
	}
	return authReq, nil
}

// authorizeResponse is the successful response of the authorization endpoint.
type authorizeResponse struct {
	Code        string `schema:"code,omitempty"`
	AccessToken string `schema:"access_token,omitempty"`
	TokenType   string `schema:"token_type,omitempty"`
	ExpiresIn   uint64 `schema:"expires_in,omitempty"`
	IDToken     string `schema:"id_token,omitempty"`
	Scope       string `schema:"scope,omitempty"`
	State       string `schema:"state,omitempty"`
}

// authResponse issues the code and tokens the response_type asks for
// and redirects to the client.
func (o *Provider) authResponse(w http.ResponseWriter, r *http.Request, client Client, authReq *AuthRequest) {
	ctx := r.Context()
	logger := o.Logger(ctx)
	responseType := authReq.ResponseType
	resp := &authorizeResponse{
		State: authReq.State,
	}
	req := &tokenRequest{
		clientID: authReq.ClientID,
		subject:  authReq.Subject,
		scopes:   authReq.Scopes,
		nonce:    authReq.Nonce,
		authTime: authReq.AuthTime,
		amr:      authReq.AMR,
		acr:      authReq.ACR,
		claims:   authReq.Claims,
	}
	if responseType.Has(oidc.ResponseTypeMemberCode) {
		grant, err := o.createGrant(ctx, authReq)
		if err != nil {
			AuthRequestError(w, r, authReq, err, o.encoder, logger)
			return
		}
		resp.Code = grant.Code
		req.grantID = grant.ID
	}
	if responseType.ReturnsTokens() {
		tokens, err := o.createTokens(ctx, client, req, issueOptions{
			accessToken: responseType.Has(oidc.ResponseTypeMemberToken),
			idToken:     responseType.Has(oidc.ResponseTypeMemberIDToken) && req.hasScope(oidc.ScopeOpenID),
			code:        resp.Code,
		})
		if err != nil {
			AuthRequestError(w, r, authReq, err, o.encoder, logger)
			return
		}
		resp.AccessToken = tokens.AccessToken
		resp.TokenType = tokens.TokenType
		resp.ExpiresIn = tokens.ExpiresIn
		resp.IDToken = tokens.IDToken
		if resp.AccessToken != "" {
			resp.Scope = strings.Join(authReq.Scopes, " ")
		}
	}
	callback, err := AuthResponseURL(authReq.RedirectURI, responseType, authReq.ResponseMode, resp, o.encoder)
	if err != nil {
		AuthRequestError(w, r, authReq, err, o.encoder, logger)
		return
	}
	http.Redirect(w, r, callback, http.StatusFound)
}

// createGrant issues and stores an authorization code.
func (o *Provider) createGrant(ctx context.Context, authReq *AuthRequest) (*Grant, error) {
	code, err := randomValue(32)
	if err != nil {
		return nil, oidc.ErrServerError().WithParent(err)
	}
	now := o.now()
	grant := &Grant{
		Code:        code,
		ID:          ulid.Make().String(),
		ClientID:    authReq.ClientID,
		Subject:     authReq.Subject,
		Scopes:      authReq.Scopes,
		RedirectURI: authReq.RedirectURI,
		Nonce:       authReq.Nonce,
		ACR:         authReq.ACR,
		AMR:         authReq.AMR,
		AuthTime:    authReq.AuthTime,
		IssuedAt:    now,
		ExpiresAt:   now.Add(o.config.CodeLifetime),
		State:       GrantStateIssued,
		Claims:      authReq.Claims,
	}
	if challenge := authReq.GetCodeChallenge(); challenge != nil {
		grant.CodeChallenge = challenge.Challenge
		grant.CodeChallengeMethod = challenge.Method
	}
	if err = o.storage.SaveGrant(ctx, grant); err != nil {
		return nil, oidc.DefaultToServerError(err, "unable to save code")
	}
	o.metrics.codeIssued()
	return grant, nil
}

// CompleteLogin is called by the login UI once the end-user authenticated.
// It stores the result on the pending request, keeps the session in a cookie
// and redirects the user agent back to the authorization callback.
func (o *Provider) CompleteLogin(w http.ResponseWriter, r *http.Request, authReqID string, session *Session, consented bool) error {
	ctx := r.Context()
	authReq, err := o.authRequestByID(ctx, authReqID)
	if err != nil {
		return err
	}
	if session == nil || session.Subject == "" {
		return oidc.ErrInvalidRequest().WithDescription("session without subject")
	}
	authReq.Subject = session.Subject
	authReq.AuthTime = session.AuthTime
	authReq.AMR = session.AMR
	authReq.ACR = session.ACR
	authReq.Done = true
	authReq.Consented = consented
	if err = o.storage.UpdateAuthRequest(ctx, authReq); err != nil {
		return oidc.DefaultToServerError(err, "unable to update auth request")
	}
	if err = o.setSession(w, session); err != nil {
		return oidc.DefaultToServerError(err, "unable to set session")
	}
	http.Redirect(w, r, o.AuthCallbackURL(o.IssuerFromRequest(r), authReqID), http.StatusFound)
	return nil
}

// DenyLogin answers the pending request with access_denied.
func (o *Provider) DenyLogin(w http.ResponseWriter, r *http.Request, authReqID string) {
	ctx := r.Context()
	authReq, err := o.authRequestByID(ctx, authReqID)
	if err != nil {
		RequestError(w, r, err, o.Logger(ctx))
		return
	}
	if err = o.storage.DeleteAuthRequest(ctx, authReqID); err != nil {
		o.Logger(ctx).WarnContext(ctx, "unable to delete auth request", "error", err)
	}
	AuthRequestError(w, r, authReq, oidc.ErrAccessDenied().WithDescription("end-user denied the request"), o.encoder, o.Logger(ctx))
}

// AuthResponseURL encodes the authorization response (successful and error) and sets it as query or fragment values
// depending on the response_mode and response_type
func AuthResponseURL(redirectURI string, responseType oidc.ResponseType, responseMode oidc.ResponseMode, response any, encoder httphelper.Encoder) (string, error) {
	uri, err := url.Parse(redirectURI)
	if err != nil {
		return "", oidc.ErrServerError().WithParent(err)
	}
	params, err := httphelper.URLEncodeParams(response, encoder)
	if err != nil {
		return "", oidc.ErrServerError().WithParent(err)
	}
	if responseMode == oidc.ResponseModeFragment || responseType.ReturnsTokens() {
		return setFragment(uri, params), nil
	}
	return mergeQueryParams(uri, params), nil
}

func setFragment(uri *url.URL, params url.Values) string {
	uri.Fragment, uri.RawFragment = "", ""
	return uri.String() + "#" + params.Encode()
}

func mergeQueryParams(uri *url.URL, params url.Values) string {
	queries := uri.Query()
	for param, values := range params {
		for _, value := range values {
			queries.Add(param, value)
		}
	}
	uri.RawQuery = queries.Encode()
	return uri.String()
}
