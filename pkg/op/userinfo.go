package op

import (
	"net/http"
	"slices"
	"strings"

	jose "github.com/go-jose/go-jose/v4"

	httphelper "github.com/zitadel/authserver/pkg/http"
	"github.com/zitadel/authserver/pkg/oidc"
)

const userinfoSchemaOpenID = "openid"

// Userinfo returns the claims of the end-user the access token was issued for.
// Claims are released per scope plus the userinfo member of the claims request.
func (o *Provider) Userinfo(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Userinfo")
	defer span.End()
	r = r.WithContext(ctx)

	w.Header().Set("Cache-Control", "no-store, private")
	w.Header().Set("Pragma", "no-cache")

	accessToken, err := o.ParseUserinfoRequest(r)
	if err != nil {
		RequestError(w, r, err, o.Logger(ctx))
		return
	}
	token, err := o.accessTokenByValue(ctx, accessToken)
	if err != nil {
		RequestError(w, r, err, o.Logger(ctx))
		return
	}
	if token.Type != TokenTypeAccess || !token.Active(o.now()) {
		RequestError(w, r, oidc.ErrInvalidToken().WithDescription("token has expired or was revoked"), o.Logger(ctx))
		return
	}
	if !slices.Contains(token.Scopes, oidc.ScopeOpenID) {
		RequestError(w, r, oidc.ErrInvalidToken().WithDescription("token was not issued for the openid scope"), o.Logger(ctx))
		return
	}
	ctx = o.logCtxWithClient(ctx, token.ClientID)
	r = r.WithContext(ctx)

	var requested map[string]*oidc.ClaimRequest
	if token.Claims != nil {
		requested = token.Claims.UserInfo
	}
	claims, err := o.userClaims(ctx, token.Subject, requestedClaimNames(token.Scopes, requested))
	if err != nil {
		RequestError(w, r, err, o.Logger(ctx))
		return
	}
	claims["sub"] = token.Subject

	client, err := o.clientByID(ctx, token.ClientID)
	if err != nil {
		RequestError(w, r, oidc.ErrInvalidToken().WithDescription("client of the token is unknown").WithParent(err), o.Logger(ctx))
		return
	}
	alg := client.UserinfoSignedResponseAlg()
	if alg == "" {
		httphelper.MarshalJSON(w, claims)
		return
	}
	claims["iss"] = IssuerFromContext(ctx)
	claims["aud"] = client.GetID()
	jwt, err := o.signJWT(ctx, client, jose.SignatureAlgorithm(alg), claims)
	if err != nil {
		RequestError(w, r, oidc.ErrServerError().WithParent(err), o.Logger(ctx))
		return
	}
	httphelper.WriteJWT(w, jwt)
}

// ParseUserinfoRequest returns the bearer token of the request. It may be sent
// in the Authorization header, the form body of a POST or the query, but only
// in one of them.
func (o *Provider) ParseUserinfoRequest(r *http.Request) (string, error) {
	var tokens []string
	if auth := r.Header.Get("Authorization"); auth != "" {
		token, ok := strings.CutPrefix(auth, oidc.PrefixBearer)
		if !ok || token == "" {
			return "", oidc.ErrInvalidRequest().WithDescription("authorization header must carry a bearer token")
		}
		tokens = append(tokens, token)
	}

	query := new(oidc.UserInfoRequest)
	if err := o.decoder.Decode(query, r.URL.Query()); err != nil {
		return "", oidc.ErrInvalidRequest().WithDescription("error decoding query").WithParent(err)
	}
	form := new(oidc.UserInfoRequest)
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			return "", oidc.ErrInvalidRequest().WithDescription("error parsing form").WithParent(err)
		}
		if err := o.decoder.Decode(form, r.PostForm); err != nil {
			return "", oidc.ErrInvalidRequest().WithDescription("error decoding form").WithParent(err)
		}
	}
	for _, schema := range []string{query.Schema, form.Schema} {
		if schema != "" && schema != userinfoSchemaOpenID {
			return "", oidc.ErrInvalidRequest().WithDescription("schema %s is not supported", schema)
		}
	}
	if form.AccessToken != "" {
		tokens = append(tokens, form.AccessToken)
	}
	if query.AccessToken != "" {
		tokens = append(tokens, query.AccessToken)
	}
	switch len(tokens) {
	case 0:
		return "", oidc.ErrInvalidToken().WithDescription("access token missing")
	case 1:
		return tokens[0], nil
	default:
		return "", oidc.ErrInvalidRequest().WithDescription("access token must be sent in exactly one location")
	}
}
