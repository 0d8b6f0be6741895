package op

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httphelper "github.com/zitadel/authserver/pkg/http"
	"github.com/zitadel/authserver/pkg/oidc"
)

const (
	maxRegistrationRequestSize = 64 << 10

	AccessTokenFormatBearer = "bearer"
	AccessTokenFormatJWT    = "jwt"
)

// Register handles [client registration requests]. The metadata is
// validated and completed with defaults before the client is stored.
//
// [client registration requests]: https://openid.net/specs/openid-connect-registration-1_0.html#ClientRegistration
func (o *Provider) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Register")
	defer span.End()
	r = r.WithContext(ctx)

	req := new(oidc.ClientRegistrationRequest)
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRegistrationRequestSize)).Decode(req); err != nil {
		RequestError(w, r, oidc.ErrInvalidClientMetadata().WithDescription("request body must be a JSON object").WithParent(err), o.Logger(ctx))
		return
	}
	metadata, err := o.ValidateClientMetadata(ctx, &req.ClientMetadata)
	if err != nil {
		RequestError(w, r, err, o.Logger(ctx))
		return
	}
	info, err := o.newClientInformation(r, metadata)
	if err != nil {
		RequestError(w, r, err, o.Logger(ctx))
		return
	}
	if err = o.storage.RegisterClient(ctx, info); err != nil {
		RequestError(w, r, oidc.ErrServerError().WithParent(err), o.Logger(ctx))
		return
	}
	o.Logger(ctx).InfoContext(ctx, "client registered",
		"client_id", info.ClientID,
		"application_type", info.ApplicationType,
		"token_endpoint_auth_method", info.TokenEndpointAuthMethod,
	)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	httphelper.MarshalJSONWithStatus(w, info, http.StatusCreated)
}

func (o *Provider) newClientInformation(r *http.Request, metadata *oidc.ClientMetadata) (*oidc.ClientInformationResponse, error) {
	clientID := uuid.NewString()
	registrationToken, err := randomValue(32)
	if err != nil {
		return nil, oidc.ErrServerError().WithParent(err)
	}
	info := &oidc.ClientInformationResponse{
		ClientID:                clientID,
		ClientIDIssuedAt:        oidc.FromTime(o.now()),
		RegistrationAccessToken: registrationToken,
		RegistrationClientURI:   o.endpoints.Registration.Absolute(o.IssuerFromRequest(r)) + "/" + url.PathEscape(clientID),
		ClientMetadata:          *metadata,
	}
	if needsClientSecret(metadata) {
		if info.ClientSecret, err = randomValue(48); err != nil {
			return nil, oidc.ErrServerError().WithParent(err)
		}
	}
	return info, nil
}

// needsClientSecret is true if the client authenticates with a secret
// or registered an algorithm which uses the secret as key.
func needsClientSecret(metadata *oidc.ClientMetadata) bool {
	switch metadata.TokenEndpointAuthMethod {
	case oidc.AuthMethodBasic, oidc.AuthMethodPost, oidc.AuthMethodSecretJWT:
		return true
	}
	for _, alg := range []string{metadata.IDTokenSignedResponseAlg, metadata.UserinfoSignedResponseAlg, metadata.RequestObjectSigningAlg} {
		if signatureFamilyOf(alg) == familyHMAC {
			return true
		}
	}
	return false
}

// ReadClient handles [client read requests]. The registration
// access token issued with the client is required.
//
// [client read requests]: https://www.rfc-editor.org/rfc/rfc7592.html#section-2.1
func (o *Provider) ReadClient(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "ReadClient")
	defer span.End()
	r = r.WithContext(ctx)

	registrationToken, err := getBearerToken(r)
	if err != nil {
		RequestError(w, r, oidc.ErrInvalidToken().WithDescription("registration access token missing").WithParent(err), o.Logger(ctx))
		return
	}
	clientID := chi.URLParam(r, "client_id")
	info, err := o.storage.ClientInformation(ctx, clientID)
	if errors.Is(err, ErrNotFound) {
		RequestError(w, r, oidc.ErrInvalidToken().WithDescription("registration access token is invalid").WithParent(err), o.Logger(ctx))
		return
	}
	if err != nil {
		RequestError(w, r, oidc.ErrServerError().WithParent(err), o.Logger(ctx))
		return
	}
	if info.RegistrationAccessToken == "" || subtle.ConstantTimeCompare([]byte(info.RegistrationAccessToken), []byte(registrationToken)) != 1 {
		RequestError(w, r, oidc.ErrInvalidToken().WithDescription("registration access token is invalid"), o.Logger(ctx))
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	httphelper.MarshalJSON(w, info)
}

var (
	errMissingAuthorizationHeader = errors.New("missing authorization header")
	errInvalidHeader              = errors.New("invalid header")
)

// getBearerToken extracts a bearer token from the Authorization header.
func getBearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("authorization")
	if auth == "" {
		return "", errMissingAuthorizationHeader
	}
	token, ok := strings.CutPrefix(auth, oidc.PrefixBearer)
	if !ok || token == "" {
		return "", errInvalidHeader
	}
	return token, nil
}

// ValidateClientMetadata completes the metadata with the registration
// defaults and validates it. The passed metadata is not modified.
func (o *Provider) ValidateClientMetadata(ctx context.Context, m *oidc.ClientMetadata) (*oidc.ClientMetadata, error) {
	metadata := *m
	if metadata.ApplicationType == "" {
		metadata.ApplicationType = oidc.ApplicationTypeWeb
	}
	if len(metadata.ResponseTypes) == 0 {
		metadata.ResponseTypes = []oidc.ResponseType{oidc.ResponseTypeCode}
	}
	if len(metadata.GrantTypes) == 0 {
		metadata.GrantTypes = []oidc.GrantType{oidc.GrantTypeCode}
	}
	if metadata.TokenEndpointAuthMethod == "" {
		metadata.TokenEndpointAuthMethod = oidc.AuthMethodBasic
	}
	if metadata.IDTokenSignedResponseAlg == "" {
		metadata.IDTokenSignedResponseAlg = string(DefaultSignatureAlgorithm)
	}
	if metadata.AccessTokenFormat == "" {
		metadata.AccessTokenFormat = AccessTokenFormatBearer
	}

	appType, ok := ApplicationTypeFromString(metadata.ApplicationType)
	if !ok {
		return nil, oidc.ErrInvalidClientMetadata().WithDescription("application_type %s is not supported", metadata.ApplicationType)
	}
	if !slices.Contains(oidc.AllAuthMethods, metadata.TokenEndpointAuthMethod) {
		return nil, oidc.ErrInvalidClientMetadata().WithDescription("token_endpoint_auth_method %s is not supported", metadata.TokenEndpointAuthMethod)
	}
	if metadata.AccessTokenFormat != AccessTokenFormatBearer && metadata.AccessTokenFormat != AccessTokenFormatJWT {
		return nil, oidc.ErrInvalidClientMetadata().WithDescription("access_token_type %s is not supported", metadata.AccessTokenFormat)
	}
	if err := validateGrantAndResponseTypes(&metadata); err != nil {
		return nil, err
	}
	if err := validateRegisteredRedirectURIs(appType, &metadata); err != nil {
		return nil, err
	}
	if err := o.validateRegisteredAlgs(ctx, &metadata); err != nil {
		return nil, err
	}
	if err := validateRegisteredKeys(&metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// validateGrantAndResponseTypes requires the grant types
// the registered response types lead to.
func validateGrantAndResponseTypes(m *oidc.ClientMetadata) error {
	for _, grantType := range m.GrantTypes {
		if !slices.Contains(oidc.AllGrantTypes, grantType) {
			return oidc.ErrInvalidClientMetadata().WithDescription("grant_type %s is not supported", grantType)
		}
	}
	for _, responseType := range m.ResponseTypes {
		values := responseType.Values()
		if len(values) == 0 {
			return oidc.ErrInvalidClientMetadata().WithDescription("response_types must not contain an empty value")
		}
		for _, v := range values {
			if !knownResponseTypeMembers[v] {
				return oidc.ErrInvalidClientMetadata().WithDescription("response_type %s is not supported", v)
			}
		}
		if responseType.Has(oidc.ResponseTypeMemberCode) && !slices.Contains(m.GrantTypes, oidc.GrantTypeCode) {
			return oidc.ErrInvalidClientMetadata().WithDescription("response_type %s requires the grant_type %s", responseType, oidc.GrantTypeCode)
		}
		if responseType.ReturnsTokens() && !slices.Contains(m.GrantTypes, oidc.GrantTypeImplicit) {
			return oidc.ErrInvalidClientMetadata().WithDescription("response_type %s requires the grant_type %s", responseType, oidc.GrantTypeImplicit)
		}
	}
	return nil
}

func usesRedirects(m *oidc.ClientMetadata) bool {
	return slices.Contains(m.GrantTypes, oidc.GrantTypeCode) || slices.Contains(m.GrantTypes, oidc.GrantTypeImplicit)
}

func validateRegisteredRedirectURIs(appType ApplicationType, m *oidc.ClientMetadata) error {
	if len(m.RedirectURIs) == 0 {
		if usesRedirects(m) {
			return oidc.ErrInvalidRedirectURI().WithDescription("redirect_uris are required")
		}
		return nil
	}
	for _, uri := range m.RedirectURIs {
		u, err := url.Parse(uri)
		if err != nil || !u.IsAbs() {
			return oidc.ErrInvalidRedirectURI().WithDescription("redirect_uri %s is not an absolute URI", uri)
		}
		if u.Fragment != "" {
			return oidc.ErrInvalidRedirectURI().WithDescription("redirect_uri %s must not contain a fragment", uri)
		}
		if err = checkRedirectScheme(appType, u); err != nil {
			e := oidc.ErrInvalidRedirectURI().WithParent(err)
			var oidcErr *oidc.Error
			if errors.As(err, &oidcErr) {
				e = e.WithDescription("%s: %s", uri, oidcErr.Description)
			}
			return e
		}
	}
	for _, uri := range m.RequestURIs {
		u, err := url.Parse(uri)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return oidc.ErrInvalidClientMetadata().WithDescription("request_uri %s must be a http(s) URL", uri)
		}
	}
	return nil
}

func (o *Provider) validateRegisteredAlgs(ctx context.Context, m *oidc.ClientMetadata) error {
	serverAlgs := o.supportedSigningAlgs(ctx)
	idTokenAlg := signatureFamilyOf(m.IDTokenSignedResponseAlg)
	switch {
	case idTokenAlg == familyUnknown:
		return invalidAlg("id_token_signed_response_alg", m.IDTokenSignedResponseAlg)
	case idTokenAlg == familyNone:
		for _, responseType := range m.ResponseTypes {
			if responseType.Has(oidc.ResponseTypeMemberIDToken) {
				return oidc.ErrInvalidClientMetadata().WithDescription("unsigned id_tokens are only allowed with the code flow")
			}
		}
	case idTokenAlg.isAsymmetric() && !slices.Contains(serverAlgs, m.IDTokenSignedResponseAlg):
		return invalidAlg("id_token_signed_response_alg", m.IDTokenSignedResponseAlg)
	}
	if alg := m.UserinfoSignedResponseAlg; alg != "" {
		family := signatureFamilyOf(alg)
		if family == familyUnknown || family == familyNone || (family.isAsymmetric() && !slices.Contains(serverAlgs, alg)) {
			return invalidAlg("userinfo_signed_response_alg", alg)
		}
	}
	if alg := m.RequestObjectSigningAlg; alg != "" && signatureFamilyOf(alg) == familyUnknown {
		return invalidAlg("request_object_signing_alg", alg)
	}
	if alg := m.TokenEndpointAuthSigningAlg; alg != "" {
		family := signatureFamilyOf(alg)
		if family == familyUnknown || family == familyNone {
			return invalidAlg("token_endpoint_auth_signing_alg", alg)
		}
	}
	return nil
}

func invalidAlg(field, alg string) *oidc.Error {
	return oidc.ErrInvalidClientMetadata().WithDescription("%s %s is not supported", field, alg)
}

func validateRegisteredKeys(m *oidc.ClientMetadata) error {
	hasJWKS := m.JWKS != nil && len(m.JWKS.Keys) > 0
	if hasJWKS && m.JWKSURI != "" {
		return oidc.ErrInvalidClientMetadata().WithDescription("jwks and jwks_uri must not be used together")
	}
	if m.JWKSURI != "" {
		if u, err := url.Parse(m.JWKSURI); err != nil || u.Scheme != "https" || u.Host == "" {
			return oidc.ErrInvalidClientMetadata().WithDescription("jwks_uri must be a https URL")
		}
	}
	if hasJWKS {
		for _, key := range m.JWKS.Keys {
			if !key.Valid() || !key.IsPublic() {
				return oidc.ErrInvalidClientMetadata().WithDescription("jwks must only contain valid public keys")
			}
		}
	}
	needsKeys := m.TokenEndpointAuthMethod == oidc.AuthMethodPrivateKeyJWT ||
		signatureFamilyOf(m.RequestObjectSigningAlg).isAsymmetric()
	if needsKeys && !hasJWKS && m.JWKSURI == "" {
		return oidc.ErrInvalidClientMetadata().WithDescription("jwks or jwks_uri is required for the registered algorithms")
	}
	return nil
}
