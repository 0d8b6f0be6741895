package oidc

import (
	"encoding/json"
	"fmt"
)

const (
	// ScopeOpenID defines the scope `openid`
	// OpenID Connect requests MUST contain the `openid` scope value
	ScopeOpenID = "openid"

	// ScopeProfile defines the scope `profile`
	// This (optional) scope value requests access to the End-User's default profile Claims,
	// which are: name, family_name, given_name, middle_name, nickname, preferred_username,
	// profile, picture, website, gender, birthdate, zoneinfo, locale, and updated_at.
	ScopeProfile = "profile"

	// ScopeEmail defines the scope `email`
	// This (optional) scope value requests access to the email and email_verified Claims.
	ScopeEmail = "email"

	// ScopeAddress defines the scope `address`
	// This (optional) scope value requests access to the address Claim.
	ScopeAddress = "address"

	// ScopePhone defines the scope `phone`
	// This (optional) scope value requests access to the phone_number and phone_number_verified Claims.
	ScopePhone = "phone"

	// ScopeOfflineAccess defines the scope `offline_access`
	// This (optional) scope value requests that an OAuth 2.0 Refresh Token be issued that can be used to obtain an Access Token
	// that grants access to the End-User's UserInfo Endpoint even when the End-User is not present (not logged in).
	ScopeOfflineAccess = "offline_access"

	// ResponseTypeCode for the Authorization Code Flow returning a code from the Authorization Server
	ResponseTypeCode ResponseType = "code"

	// ResponseTypeIDToken for the Implicit Flow returning id and access tokens directly from the Authorization Server
	ResponseTypeIDToken ResponseType = "id_token token"

	// ResponseTypeIDTokenOnly for the Implicit Flow returning only id token directly from the Authorization Server
	ResponseTypeIDTokenOnly ResponseType = "id_token"

	// ResponseTypeToken for the plain OAuth2 Implicit Flow returning only an access token
	ResponseTypeToken ResponseType = "token"

	// ResponseTypeCodeIDToken, ResponseTypeCodeToken and ResponseTypeCodeIDTokenToken
	// are the Hybrid Flow combinations
	ResponseTypeCodeIDToken      ResponseType = "code id_token"
	ResponseTypeCodeToken        ResponseType = "code token"
	ResponseTypeCodeIDTokenToken ResponseType = "code id_token token"

	ResponseTypeMemberCode    = "code"
	ResponseTypeMemberToken   = "token"
	ResponseTypeMemberIDToken = "id_token"

	ResponseModeQuery    ResponseMode = "query"
	ResponseModeFragment ResponseMode = "fragment"

	DisplayPage  Display = "page"
	DisplayPopup Display = "popup"
	DisplayTouch Display = "touch"
	DisplayWAP   Display = "wap"

	// PromptNone (`none`) disallows the Authorization Server to display any authentication or consent user interface pages.
	// An error (login_required, interaction_required, ...) will be returned if the user is not already authenticated or consent is needed
	PromptNone = "none"

	// PromptLogin (`login`) directs the Authorization Server to prompt the End-User for reauthentication.
	PromptLogin = "login"

	// PromptConsent (`consent`) directs the Authorization Server to prompt the End-User for consent (of sharing information).
	PromptConsent = "consent"

	// PromptSelectAccount (`select_account `) directs the Authorization Server to prompt the End-User to select a user account (to enable multi user / session switching)
	PromptSelectAccount = "select_account"
)

// AuthRequest according to:
// https://openid.net/specs/openid-connect-core-1_0.html#AuthRequest
type AuthRequest struct {
	Scopes       SpaceDelimitedArray `json:"scope" schema:"scope"`
	ResponseType ResponseType        `json:"response_type,omitempty" schema:"response_type"`
	ClientID     string              `json:"client_id" schema:"client_id"`
	RedirectURI  string              `json:"redirect_uri" schema:"redirect_uri"`

	State        string       `json:"state" schema:"state"`
	Nonce        string       `json:"nonce" schema:"nonce"`
	ResponseMode ResponseMode `json:"response_mode,omitempty" schema:"response_mode"`

	Display     Display             `json:"display,omitempty" schema:"display"`
	Prompt      Prompt              `json:"prompt,omitempty" schema:"prompt"`
	MaxAge      *uint               `json:"max_age,omitempty" schema:"max_age"`
	UILocales   Locales             `json:"ui_locales,omitempty" schema:"ui_locales"`
	IDTokenHint string              `json:"id_token_hint,omitempty" schema:"id_token_hint"`
	LoginHint   string              `json:"login_hint,omitempty" schema:"login_hint"`
	ACRValues   SpaceDelimitedArray `json:"acr_values,omitempty" schema:"acr_values"`
	Claims      ClaimsRequest       `json:"claims,omitempty" schema:"claims"`

	CodeChallenge       string              `json:"code_challenge,omitempty" schema:"code_challenge"`
	CodeChallengeMethod CodeChallengeMethod `json:"code_challenge_method,omitempty" schema:"code_challenge_method"`

	// RequestParam enables OIDC requests to be passed in a single, self-contained parameter (as JWT, called Request Object)
	RequestParam string `json:"-" schema:"request"`
	// RequestURI references a Request Object by reference instead of by value
	RequestURI string `json:"-" schema:"request_uri"`
}

// GetRedirectURI returns the redirect_uri value for the ErrAuthRequest interface
func (a *AuthRequest) GetRedirectURI() string {
	return a.RedirectURI
}

// GetResponseType returns the response_type value for the ErrAuthRequest interface
func (a *AuthRequest) GetResponseType() ResponseType {
	return a.ResponseType
}

// GetState returns the optional state value for the ErrAuthRequest interface
func (a *AuthRequest) GetState() string {
	return a.State
}

// GetResponseMode returns the optional response_mode value for the ErrAuthRequest interface
func (a *AuthRequest) GetResponseMode() ResponseMode {
	return a.ResponseMode
}

// ClaimsRequest is the `claims` request parameter:
// https://openid.net/specs/openid-connect-core-1_0.html#ClaimsParameter
type ClaimsRequest struct {
	UserInfo map[string]*ClaimRequest `json:"userinfo,omitempty"`
	IDToken  map[string]*ClaimRequest `json:"id_token,omitempty"`
}

// ClaimRequest describes a single requested claim.
// A nil ClaimRequest requests the claim in the default manner.
type ClaimRequest struct {
	Essential bool  `json:"essential,omitempty"`
	Value     any   `json:"value,omitempty"`
	Values    []any `json:"values,omitempty"`
}

func (c *ClaimRequest) IsEssential() bool {
	return c != nil && c.Essential
}

func (c *ClaimsRequest) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return nil
	}
	if err := json.Unmarshal(text, (*claimsRequestAlias)(c)); err != nil {
		return fmt.Errorf("invalid claims parameter: %w", err)
	}
	return nil
}

// UnmarshalJSON accepts the claims request as JSON object,
// as used inside request objects, and as JSON string.
func (c *ClaimsRequest) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		return c.UnmarshalText([]byte(text))
	}
	if string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, (*claimsRequestAlias)(c))
}

func (c ClaimsRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(claimsRequestAlias(c))
}

func (c ClaimsRequest) MarshalText() ([]byte, error) {
	if c.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(claimsRequestAlias(c))
}

func (c ClaimsRequest) IsEmpty() bool {
	return len(c.UserInfo) == 0 && len(c.IDToken) == 0
}

// claimsRequestAlias prevents recursion into the text (un)marshaler.
type claimsRequestAlias ClaimsRequest
