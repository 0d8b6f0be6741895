package storage

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/zitadel/authserver/pkg/oidc"
	"github.com/zitadel/authserver/pkg/op"
)

// DefaultLoginURL is the login UI served by the command.
const DefaultLoginURL = "/login/username"

var _ op.Client = (*Client)(nil)

// Client represents the storage model of an OAuth/OIDC client.
// It wraps the registration metadata with the settings
// which are only available to statically configured clients.
type Client struct {
	info            *oidc.ClientInformationResponse
	applicationType op.ApplicationType
	loginURL        string
	scopes          []string
	trusted         bool
	clockSkew       time.Duration
	idTokenLifetime time.Duration
}

// NewClient creates the client of a registration. Missing metadata
// is filled with the registration defaults.
func NewClient(info *oidc.ClientInformationResponse, loginURL string) (*Client, error) {
	appType, ok := op.ApplicationTypeFromString(info.ApplicationType)
	if !ok {
		return nil, fmt.Errorf("client %s: invalid application_type %q", info.ClientID, info.ApplicationType)
	}
	if info.TokenEndpointAuthMethod == "" {
		info.TokenEndpointAuthMethod = oidc.AuthMethodBasic
	}
	if len(info.ResponseTypes) == 0 {
		info.ResponseTypes = []oidc.ResponseType{oidc.ResponseTypeCode}
	}
	if len(info.GrantTypes) == 0 {
		info.GrantTypes = []oidc.GrantType{oidc.GrantTypeCode}
	}
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}
	return &Client{
		info:            info,
		applicationType: appType,
		loginURL:        loginURL,
		scopes:          strings.Fields(info.Scope),
	}, nil
}

// Information returns the registration of the client.
func (c *Client) Information() *oidc.ClientInformationResponse {
	return c.info
}

// GetID must return the client_id
func (c *Client) GetID() string {
	return c.info.ClientID
}

func (c *Client) SharedSecret() string {
	return c.info.ClientSecret
}

// RedirectURIs must return the registered redirect_uris for Code and Implicit Flow
func (c *Client) RedirectURIs() []string {
	return c.info.RedirectURIs
}

func (c *Client) ApplicationType() op.ApplicationType {
	return c.applicationType
}

// AuthMethod must return the authentication method (client_secret_basic, client_secret_post, none, private_key_jwt)
func (c *Client) AuthMethod() oidc.AuthMethod {
	return c.info.TokenEndpointAuthMethod
}

// ResponseTypes must return all allowed response types (code, id_token token, id_token)
// these must match with the allowed grant types
func (c *Client) ResponseTypes() []oidc.ResponseType {
	return c.info.ResponseTypes
}

func (c *Client) GrantTypes() []oidc.GrantType {
	return c.info.GrantTypes
}

// LoginURL will be called to redirect the user (agent) to the login UI
func (c *Client) LoginURL(id string) string {
	sep := "?"
	if strings.Contains(c.loginURL, "?") {
		sep = "&"
	}
	return c.loginURL + sep + "authRequestID=" + url.QueryEscape(id)
}

// AccessTokenType must return the type of access token the client uses (Bearer (opaque) or JWT)
func (c *Client) AccessTokenType() op.AccessTokenType {
	if c.info.AccessTokenFormat == op.AccessTokenFormatJWT {
		return op.AccessTokenTypeJWT
	}
	return op.AccessTokenTypeBearer
}

// IDTokenLifetime is zero unless configured, which
// leaves the lifetime to the server configuration.
func (c *Client) IDTokenLifetime() time.Duration {
	return c.idTokenLifetime
}

func (c *Client) RequestObjectSigningAlg() string {
	return c.info.RequestObjectSigningAlg
}

func (c *Client) IDTokenSignedResponseAlg() string {
	return c.info.IDTokenSignedResponseAlg
}

func (c *Client) UserinfoSignedResponseAlg() string {
	return c.info.UserinfoSignedResponseAlg
}

func (c *Client) JWKS() *jose.JSONWebKeySet {
	return c.info.JWKS
}

func (c *Client) JWKSURI() string {
	return c.info.JWKSURI
}

func (c *Client) RequestURIs() []string {
	return c.info.RequestURIs
}

// IsScopeAllowed enables Client specific custom scopes validation,
// the standard scopes are always allowed.
func (c *Client) IsScopeAllowed(scope string) bool {
	return slices.Contains(c.scopes, scope)
}

func (c *Client) Trusted() bool {
	return c.trusted
}

// ClockSkew enables clients to instruct the OP to apply a clock skew on the various times and expirations
func (c *Client) ClockSkew() time.Duration {
	return c.clockSkew
}

// ClientConfig is a statically configured client.
type ClientConfig struct {
	ID                        string        `yaml:"id"`
	Secret                    string        `yaml:"secret"`
	Name                      string        `yaml:"name"`
	RedirectURIs              []string      `yaml:"redirect_uris"`
	ApplicationType           string        `yaml:"application_type"`
	AuthMethod                string        `yaml:"token_endpoint_auth_method"`
	ResponseTypes             []string      `yaml:"response_types"`
	GrantTypes                []string      `yaml:"grant_types"`
	AccessTokenType           string        `yaml:"access_token_type"`
	IDTokenSignedResponseAlg  string        `yaml:"id_token_signed_response_alg"`
	UserinfoSignedResponseAlg string        `yaml:"userinfo_signed_response_alg"`
	RequestObjectSigningAlg   string        `yaml:"request_object_signing_alg"`
	JWKSURI                   string        `yaml:"jwks_uri"`
	// JWKS is the JSON encoded key set of the client.
	JWKS        string        `yaml:"jwks"`
	RequestURIs []string      `yaml:"request_uris"`
	Scopes      []string      `yaml:"scopes"`
	Trusted     bool          `yaml:"trusted"`
	ClockSkew   time.Duration `yaml:"clock_skew"`
	IDTokenTTL  time.Duration `yaml:"id_token_lifetime"`
	LoginURL    string        `yaml:"login_url"`
}

// Metadata converts the configuration to registration metadata.
func (c *ClientConfig) Metadata() (*oidc.ClientMetadata, error) {
	m := &oidc.ClientMetadata{
		ClientName:                c.Name,
		RedirectURIs:              c.RedirectURIs,
		ApplicationType:           c.ApplicationType,
		TokenEndpointAuthMethod:   oidc.AuthMethod(c.AuthMethod),
		AccessTokenFormat:         c.AccessTokenType,
		IDTokenSignedResponseAlg:  c.IDTokenSignedResponseAlg,
		UserinfoSignedResponseAlg: c.UserinfoSignedResponseAlg,
		RequestObjectSigningAlg:   c.RequestObjectSigningAlg,
		JWKSURI:                   c.JWKSURI,
		RequestURIs:               c.RequestURIs,
		Scope:                     strings.Join(c.Scopes, " "),
	}
	for _, rt := range c.ResponseTypes {
		m.ResponseTypes = append(m.ResponseTypes, oidc.ResponseType(rt))
	}
	for _, gt := range c.GrantTypes {
		m.GrantTypes = append(m.GrantTypes, oidc.GrantType(gt))
	}
	if c.JWKS != "" {
		m.JWKS = new(jose.JSONWebKeySet)
		if err := json.Unmarshal([]byte(c.JWKS), m.JWKS); err != nil {
			return nil, fmt.Errorf("client %s: invalid jwks: %w", c.ID, err)
		}
	}
	return m, nil
}

// Client creates the client from the validated metadata.
func (c *ClientConfig) Client(m *oidc.ClientMetadata, loginURL string) (*Client, error) {
	if c.LoginURL != "" {
		loginURL = c.LoginURL
	}
	client, err := NewClient(&oidc.ClientInformationResponse{
		ClientID:       c.ID,
		ClientSecret:   c.Secret,
		ClientMetadata: *m,
	}, loginURL)
	if err != nil {
		return nil, err
	}
	client.trusted = c.Trusted
	client.clockSkew = c.ClockSkew
	client.idTokenLifetime = c.IDTokenTTL
	return client, nil
}
