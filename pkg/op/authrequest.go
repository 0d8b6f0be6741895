package op

import (
	"time"

	"github.com/zitadel/authserver/pkg/oidc"
)

// ErrAuthRequest is the part of an authorization request
// needed to deliver an error to the client.
type ErrAuthRequest interface {
	GetRedirectURI() string
	GetResponseType() oidc.ResponseType
	GetState() string
}

// AuthRequest is a validated authorization request. It is stored
// while the end-user authenticates in the login UI.
type AuthRequest struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	ClientID            string                   `json:"client_id"`
	RedirectURI         string                   `json:"redirect_uri"`
	ResponseType        oidc.ResponseType        `json:"response_type"`
	ResponseMode        oidc.ResponseMode        `json:"response_mode,omitempty"`
	Scopes              []string                 `json:"scopes"`
	State               string                   `json:"state,omitempty"`
	Nonce               string                   `json:"nonce,omitempty"`
	Prompt              []string                 `json:"prompt,omitempty"`
	MaxAge              *uint                    `json:"max_age,omitempty"`
	UILocales           []string                 `json:"ui_locales,omitempty"`
	LoginHint           string                   `json:"login_hint,omitempty"`
	ACRValues           []string                 `json:"acr_values,omitempty"`
	Claims              *oidc.ClaimsRequest      `json:"claims,omitempty"`
	CodeChallenge       string                   `json:"code_challenge,omitempty"`
	CodeChallengeMethod oidc.CodeChallengeMethod `json:"code_challenge_method,omitempty"`

	// set by the login UI
	Subject   string    `json:"subject,omitempty"`
	AuthTime  time.Time `json:"auth_time,omitempty"`
	AMR       []string  `json:"amr,omitempty"`
	ACR       string    `json:"acr,omitempty"`
	Done      bool      `json:"done"`
	Consented bool      `json:"consented"`
}

func (a *AuthRequest) GetID() string {
	return a.ID
}

func (a *AuthRequest) GetClientID() string {
	return a.ClientID
}

func (a *AuthRequest) GetRedirectURI() string {
	return a.RedirectURI
}

func (a *AuthRequest) GetResponseType() oidc.ResponseType {
	return a.ResponseType
}

func (a *AuthRequest) GetResponseMode() oidc.ResponseMode {
	return a.ResponseMode
}

func (a *AuthRequest) GetState() string {
	return a.State
}

func (a *AuthRequest) GetSubject() string {
	return a.Subject
}

func (a *AuthRequest) GetScopes() []string {
	return a.Scopes
}

func (a *AuthRequest) GetCodeChallenge() *oidc.CodeChallenge {
	if a.CodeChallenge == "" {
		return nil
	}
	method := a.CodeChallengeMethod
	if method == "" {
		method = oidc.CodeChallengeMethodPlain
	}
	return &oidc.CodeChallenge{
		Challenge: a.CodeChallenge,
		Method:    method,
	}
}

// newAuthRequest copies the validated parameters of the request.
func newAuthRequest(id string, req *oidc.AuthRequest, now time.Time, lifetime time.Duration) *AuthRequest {
	authReq := &AuthRequest{
		ID:                  id,
		CreatedAt:           now,
		ExpiresAt:           now.Add(lifetime),
		ClientID:            req.ClientID,
		RedirectURI:         req.RedirectURI,
		ResponseType:        req.ResponseType,
		ResponseMode:        req.ResponseMode,
		Scopes:              req.Scopes,
		State:               req.State,
		Nonce:               req.Nonce,
		Prompt:              req.Prompt,
		MaxAge:              req.MaxAge,
		LoginHint:           req.LoginHint,
		ACRValues:           req.ACRValues,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
	}
	for _, tag := range req.UILocales {
		authReq.UILocales = append(authReq.UILocales, tag.String())
	}
	authReq.Claims = idTokenClaimsRequest(req)
	return authReq
}

// idTokenClaimsRequest merges the claims parameter with the claims
// max_age and acr_values implicitly request for the id_token.
func idTokenClaimsRequest(req *oidc.AuthRequest) *oidc.ClaimsRequest {
	claims := req.Claims
	if req.MaxAge != nil || len(req.ACRValues) > 0 {
		idToken := make(map[string]*oidc.ClaimRequest, len(claims.IDToken)+2)
		for k, v := range claims.IDToken {
			idToken[k] = v
		}
		if _, ok := idToken["auth_time"]; !ok && req.MaxAge != nil {
			idToken["auth_time"] = &oidc.ClaimRequest{Essential: true}
		}
		if _, ok := idToken["acr"]; !ok && len(req.ACRValues) > 0 {
			values := make([]any, len(req.ACRValues))
			for i, v := range req.ACRValues {
				values[i] = v
			}
			idToken["acr"] = &oidc.ClaimRequest{Values: values}
		}
		claims.IDToken = idToken
	}
	if claims.IsEmpty() {
		return nil
	}
	return &claims
}
