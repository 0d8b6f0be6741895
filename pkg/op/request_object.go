package op

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"

	jose "github.com/go-jose/go-jose/v4"

	httphelper "github.com/zitadel/authserver/pkg/http"
	"github.com/zitadel/authserver/pkg/oidc"
)

// RequestObjectResult describes a verified request object.
type RequestObjectResult struct {
	// Algorithm is the JWS algorithm the request object was signed with.
	Algorithm string
	KeyID     string
	Encrypted bool
	// Overrides lists the parameters the request object replaced.
	Overrides []string
}

var (
	requestObjectKeyAlgorithms = []jose.KeyAlgorithm{
		jose.RSA_OAEP, jose.RSA_OAEP_256,
		jose.DIRECT, jose.A128KW, jose.A192KW, jose.A256KW,
	}
	requestObjectContentEncryption = []jose.ContentEncryption{
		jose.A128CBC_HS256, jose.A192CBC_HS384, jose.A256CBC_HS512,
		jose.A128GCM, jose.A192GCM, jose.A256GCM,
	}
)

// processRequestObject resolves the request or request_uri parameter,
// verifies the request object for the client and applies its claims
// to authReq. It returns nil when the request carries no request object.
func (o *Provider) processRequestObject(ctx context.Context, client Client, authReq *oidc.AuthRequest) (*RequestObjectResult, error) {
	if authReq.RequestParam == "" && authReq.RequestURI == "" {
		return nil, nil
	}
	ctx, span := tracer.Start(ctx, "processRequestObject")
	defer span.End()

	result, err := o.requestObject(ctx, client, authReq)
	if err != nil {
		o.metrics.requestObject("rejected")
		return nil, err
	}
	o.metrics.requestObject("accepted")
	return result, nil
}

func (o *Provider) requestObject(ctx context.Context, client Client, authReq *oidc.AuthRequest) (*RequestObjectResult, error) {
	if authReq.RequestParam != "" && authReq.RequestURI != "" {
		return nil, oidc.ErrInvalidRequest().WithDescription("request and request_uri must not be used together")
	}
	token := authReq.RequestParam
	if authReq.RequestURI != "" {
		if !o.config.RequestURISupported {
			return nil, oidc.ErrRequestURINotSupported()
		}
		var err error
		if token, err = o.fetchRequestURI(ctx, client, authReq.RequestURI); err != nil {
			return nil, err
		}
	} else if !o.config.RequestObjectSupported {
		return nil, oidc.ErrRequestNotSupported()
	}

	result := new(RequestObjectResult)
	if oidc.IsEncrypted(token) {
		var err error
		if token, err = o.decryptRequestObject(ctx, client, token); err != nil {
			return nil, err
		}
		result.Encrypted = true
	}
	header, err := oidc.ParseHeader(token)
	if err != nil {
		return nil, oidc.ErrInvalidRequestObject().WithDescription("request object is malformed").WithParent(err)
	}
	result.Algorithm, result.KeyID = header.Algorithm, header.KeyID

	if signatureFamilyOf(header.Algorithm) == familyUnknown {
		return nil, oidc.ErrInvalidRequestObject().WithDescription("request object algorithm %s is not supported", header.Algorithm)
	}
	if registered := client.RequestObjectSigningAlg(); registered != "" && registered != header.Algorithm {
		return nil, oidc.ErrInvalidRequestObject().WithDescription("request object must be signed with %s", registered)
	}
	payload, err := o.verifyClientJWS(ctx, client, token, header)
	if err != nil {
		return nil, oidc.ErrInvalidRequestObject().WithDescription("request object signature is invalid").WithParent(err)
	}

	claims := new(oidc.RequestObject)
	present := make(map[string]json.RawMessage)
	if err = json.Unmarshal(payload, &present); err != nil {
		return nil, oidc.ErrInvalidRequestObject().WithDescription("request object is malformed").WithParent(err)
	}
	if err = json.Unmarshal(payload, claims); err != nil {
		return nil, oidc.ErrInvalidRequestObject().WithDescription("request object is malformed").WithParent(err)
	}
	if err = o.checkRequestObjectClaims(ctx, client, authReq, claims, present); err != nil {
		return nil, err
	}
	result.Overrides = applyRequestObject(authReq, claims, present)
	return result, nil
}

func (o *Provider) checkRequestObjectClaims(ctx context.Context, client Client, authReq *oidc.AuthRequest, claims *oidc.RequestObject, present map[string]json.RawMessage) error {
	if _, ok := present["client_id"]; ok && claims.ClientID != authReq.ClientID {
		return oidc.ErrInvalidRequestObject().WithDescription("client_id of the request object does not match")
	}
	if _, ok := present["response_type"]; ok && authReq.ResponseType != "" && !claims.ResponseType.Equal(authReq.ResponseType) {
		return oidc.ErrInvalidRequestObject().WithDescription("response_type of the request object does not match")
	}
	if claims.Issuer != "" && claims.Issuer != client.GetID() {
		return oidc.ErrInvalidRequestObject().WithDescription("iss of the request object must be the client_id")
	}
	if len(claims.Audience) > 0 {
		if err := oidc.CheckAudience(claims.Audience, IssuerFromContext(ctx)); err != nil {
			return oidc.ErrInvalidRequestObject().WithDescription("aud of the request object must contain the issuer").WithParent(err)
		}
	}
	now := o.now()
	if err := oidc.CheckExpiration(claims.Expiration, client.ClockSkew(), now); err != nil {
		return oidc.ErrInvalidRequestObject().WithDescription("request object has expired").WithParent(err)
	}
	if err := oidc.CheckNotBefore(claims.NotBefore, client.ClockSkew(), now); err != nil {
		return oidc.ErrInvalidRequestObject().WithDescription("request object is not yet valid").WithParent(err)
	}
	return nil
}

// applyRequestObject overrides the parameters of authReq with the
// members present in the request object.
func applyRequestObject(authReq *oidc.AuthRequest, claims *oidc.RequestObject, present map[string]json.RawMessage) []string {
	var overrides []string
	for _, param := range oidc.RequestObjectParams {
		if _, ok := present[param]; !ok {
			continue
		}
		switch param {
		case "scope":
			authReq.Scopes = claims.Scopes
		case "response_type":
			authReq.ResponseType = claims.ResponseType
		case "client_id":
			continue
		case "redirect_uri":
			authReq.RedirectURI = claims.RedirectURI
		case "state":
			authReq.State = claims.State
		case "nonce":
			authReq.Nonce = claims.Nonce
		case "response_mode":
			authReq.ResponseMode = claims.ResponseMode
		case "display":
			authReq.Display = claims.Display
		case "prompt":
			authReq.Prompt = claims.Prompt
		case "max_age":
			authReq.MaxAge = claims.MaxAge
		case "ui_locales":
			authReq.UILocales = claims.UILocales
		case "id_token_hint":
			authReq.IDTokenHint = claims.IDTokenHint
		case "login_hint":
			authReq.LoginHint = claims.LoginHint
		case "acr_values":
			authReq.ACRValues = claims.ACRValues
		case "claims":
			authReq.Claims = claims.Claims
		case "code_challenge":
			authReq.CodeChallenge = claims.CodeChallenge
		case "code_challenge_method":
			authReq.CodeChallengeMethod = claims.CodeChallengeMethod
		}
		overrides = append(overrides, param)
	}
	return overrides
}

// fetchRequestURI fetches the request object the request_uri references
// and checks the sha256 hash carried in its fragment.
func (o *Provider) fetchRequestURI(ctx context.Context, client Client, requestURI string) (string, error) {
	u, err := url.Parse(requestURI)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return "", oidc.ErrInvalidRequestURI().WithDescription("request_uri is not a valid url")
	}
	fragment := u.Fragment
	u.Fragment, u.RawFragment = "", ""
	target := u.String()

	if matchesAnyGlob(target, o.config.RequestURIBlockList) {
		return "", oidc.ErrInvalidRequestURI().WithDescription("request_uri is not allowed")
	}
	if registered := client.RequestURIs(); len(registered) > 0 && !containsRequestURI(registered, target) {
		return "", oidc.ErrInvalidRequestURI().WithDescription("request_uri is not registered for the client")
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.RequestObjectFetchTimeout)
	defer cancel()
	body, err := httphelper.GetBytes(ctx, o.httpClient, target)
	if err != nil {
		if isTimeout(err) {
			return "", oidc.ErrInvalidRequestObject().WithDescription("request_uri could not be fetched in time").WithParent(err)
		}
		return "", oidc.ErrInvalidRequestURI().WithDescription("request_uri could not be fetched").WithParent(err)
	}
	if fragment != "" {
		sum := sha256.Sum256(body)
		expected := base64.RawURLEncoding.EncodeToString(sum[:])
		if subtle.ConstantTimeCompare([]byte(expected), []byte(fragment)) != 1 {
			return "", oidc.ErrInvalidRequestURI().WithDescription("request_uri hash does not match the request object")
		}
	}
	return strings.TrimSpace(string(body)), nil
}

func containsRequestURI(registered []string, target string) bool {
	for _, r := range registered {
		if r, _, _ = strings.Cut(r, "#"); r == target {
			return true
		}
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// decryptRequestObject decrypts a JWE request object and returns the nested JWT.
func (o *Provider) decryptRequestObject(ctx context.Context, client Client, token string) (string, error) {
	jwe, err := jose.ParseEncrypted(token, requestObjectKeyAlgorithms, requestObjectContentEncryption)
	if err != nil {
		return "", oidc.ErrInvalidRequestObject().WithDescription("encrypted request object is not supported").WithParent(err)
	}
	key, err := o.requestObjectDecryptionKey(ctx, client, jwe.Header)
	if err != nil {
		return "", err
	}
	plain, err := jwe.Decrypt(key)
	if err != nil {
		return "", oidc.ErrInvalidRequestObject().WithDescription("request object could not be decrypted").WithParent(err)
	}
	nested := strings.TrimSpace(string(plain))
	if oidc.IsEncrypted(nested) || strings.Count(nested, ".") != 2 {
		return "", oidc.ErrInvalidRequestObject().WithDescription("encrypted request object must contain a JWT")
	}
	return nested, nil
}

func (o *Provider) requestObjectDecryptionKey(ctx context.Context, client Client, header jose.Header) (any, error) {
	alg := jose.KeyAlgorithm(header.Algorithm)
	switch alg {
	case jose.RSA_OAEP, jose.RSA_OAEP_256:
		key, err := o.storage.DecryptionKey(ctx)
		if err != nil {
			return nil, oidc.ErrServerError().WithParent(err)
		}
		if key == nil {
			return nil, oidc.ErrInvalidRequestObject().WithDescription("encrypted request objects are not supported")
		}
		return key.Key, nil
	}
	secret := client.SharedSecret()
	if secret == "" {
		return nil, oidc.ErrInvalidRequestObject().WithDescription("client has no secret to decrypt the request object")
	}
	var size int
	switch alg {
	case jose.A128KW:
		size = 16
	case jose.A192KW:
		size = 24
	case jose.A256KW:
		size = 32
	case jose.DIRECT:
		enc, _ := header.ExtraHeaders[jose.HeaderKey("enc")].(string)
		size = contentKeySize(jose.ContentEncryption(enc))
	}
	if size == 0 {
		return nil, oidc.ErrInvalidRequestObject().WithDescription("request object encryption %s is not supported", alg)
	}
	return DeriveClientSecretKey(secret, size), nil
}

func contentKeySize(enc jose.ContentEncryption) int {
	switch enc {
	case jose.A128GCM:
		return 16
	case jose.A192GCM:
		return 24
	case jose.A256GCM, jose.A128CBC_HS256:
		return 32
	case jose.A192CBC_HS384:
		return 48
	case jose.A256CBC_HS512:
		return 64
	default:
		return 0
	}
}

// DeriveClientSecretKey derives the symmetric key of the given size
// clients encrypt request objects with, from their client secret.
func DeriveClientSecretKey(secret string, size int) []byte {
	var sum []byte
	switch {
	case size <= sha256.Size:
		s := sha256.Sum256([]byte(secret))
		sum = s[:]
	case size <= sha512.Size384:
		s := sha512.Sum384([]byte(secret))
		sum = s[:]
	default:
		s := sha512.Sum512([]byte(secret))
		sum = s[:]
	}
	return sum[:size]
}
