package op

import (
	"context"
	"errors"
	"time"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/zitadel/authserver/pkg/oidc"
)

// ErrNotFound is wrapped by storage implementations
// when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidCredentials is returned by UserStorage.CheckUsernamePassword
// for an unknown username or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ClientRegistry resolves client identifiers. It is read-mostly
// and must be safe for concurrent use.
type ClientRegistry interface {
	GetClientByClientID(ctx context.Context, clientID string) (Client, error)
}

// ClientRegistrationStorage persists clients created through
// dynamic client registration.
type ClientRegistrationStorage interface {
	RegisterClient(ctx context.Context, info *oidc.ClientInformationResponse) error
	ClientInformation(ctx context.Context, clientID string) (*oidc.ClientInformationResponse, error)
}

// AuthRequestStorage holds the authorization requests waiting
// for the login UI.
type AuthRequestStorage interface {
	SaveAuthRequest(ctx context.Context, authReq *AuthRequest) error
	AuthRequestByID(ctx context.Context, id string) (*AuthRequest, error)
	UpdateAuthRequest(ctx context.Context, authReq *AuthRequest) error
	DeleteAuthRequest(ctx context.Context, id string) error
	DeleteExpiredAuthRequests(ctx context.Context, before time.Time) (int, error)
}

type GrantStorage interface {
	SaveGrant(ctx context.Context, grant *Grant) error
	GrantByCode(ctx context.Context, code string) (*Grant, error)
	// UpdateGrantState atomically moves the grant from one state to the other.
	// It returns false, without error, if the grant was not in the from state.
	UpdateGrantState(ctx context.Context, code string, from, to GrantState) (bool, error)
	// ExpiredGrants returns the grants which expired before the passed time.
	ExpiredGrants(ctx context.Context, before time.Time) ([]*Grant, error)
	DeleteGrant(ctx context.Context, code string) error
}

type TokenStorage interface {
	SaveToken(ctx context.Context, token *Token) error
	TokenByID(ctx context.Context, id string) (*Token, error)
	// RevokeToken atomically marks the token revoked. It returns false,
	// without error, if the token was revoked before.
	RevokeToken(ctx context.Context, id string) (bool, error)
	// RevokeTokensByGrant revokes every token minted from the grant
	// and returns the number of tokens it revoked.
	RevokeTokensByGrant(ctx context.Context, grantID string) (int, error)
	// HasActiveTokens reports whether a token minted from the grant
	// is neither revoked nor expired at the passed time.
	HasActiveTokens(ctx context.Context, grantID string, at time.Time) (bool, error)
	DeleteExpiredTokens(ctx context.Context, before time.Time) (int, error)
}

type UserStorage interface {
	UserInfo(ctx context.Context, subject string) (*oidc.UserInfo, error)
	// CheckUsernamePassword returns the subject of the user.
	CheckUsernamePassword(ctx context.Context, username, password string) (string, error)
}

type KeyStorage interface {
	SigningKeys(ctx context.Context) ([]SigningKey, error)
	KeySet(ctx context.Context) ([]Key, error)
	// DecryptionKey is the private key request objects are encrypted to.
	DecryptionKey(ctx context.Context) (*jose.JSONWebKey, error)
}

type Storage interface {
	ClientRegistry
	ClientRegistrationStorage
	AuthRequestStorage
	GrantStorage
	TokenStorage
	UserStorage
	KeyStorage
	Health(context.Context) error
}

type SigningKey interface {
	SignatureAlgorithm() jose.SignatureAlgorithm
	Key() any
	ID() string
}

type Key interface {
	ID() string
	Algorithm() jose.SignatureAlgorithm
	Use() string
	Key() any
}
