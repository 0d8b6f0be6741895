package op

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gorilla/securecookie"

	"github.com/zitadel/authserver/pkg/crypto"
	"github.com/zitadel/authserver/pkg/oidc"
)

type Crypto interface {
	Encrypt(string) (string, error)
	Decrypt(string) (string, error)
}

type aesCrypto struct {
	sealer *crypto.Sealer
}

// NewAESCrypto seals values with AES-256-GCM under the key.
func NewAESCrypto(key [32]byte) (Crypto, error) {
	sealer, err := crypto.NewSealer(key[:])
	if err != nil {
		return nil, err
	}
	return &aesCrypto{sealer: sealer}, nil
}

func (c *aesCrypto) Encrypt(s string) (string, error) {
	return c.sealer.SealString(s)
}

func (c *aesCrypto) Decrypt(s string) (string, error) {
	return c.sealer.OpenString(s)
}

const tokenSeparator = ":"

// sealToken builds the opaque value of access and refresh tokens.
func sealToken(c Crypto, tokenID, subject string) (string, error) {
	return c.Encrypt(tokenID + tokenSeparator + subject)
}

// openToken returns the token id and subject of an opaque token value.
func openToken(c Crypto, value string) (tokenID, subject string, err error) {
	plain, err := c.Decrypt(value)
	if err != nil {
		return "", "", oidc.ErrInvalidToken().WithDescription("token is invalid").WithParent(err)
	}
	tokenID, subject, ok := strings.Cut(plain, tokenSeparator)
	if !ok || tokenID == "" {
		return "", "", oidc.ErrInvalidToken().WithDescription("token is malformed")
	}
	return tokenID, subject, nil
}

// randomValue returns an unguessable url safe value,
// used for authorization codes and client secrets.
func randomValue(entropy int) (string, error) {
	b := securecookie.GenerateRandomKey(entropy)
	if b == nil {
		return "", errors.New("unable to generate random value")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
