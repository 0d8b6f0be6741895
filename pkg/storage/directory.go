package storage

import (
	"context"
	"fmt"
	"os"

	jose "github.com/go-jose/go-jose/v4"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/zitadel/authserver/pkg/oidc"
	"github.com/zitadel/authserver/pkg/op"
)

// DirectoryConfig is the file format of the static clients and users.
type DirectoryConfig struct {
	Clients []ClientConfig `yaml:"clients"`
	Users   []UserConfig   `yaml:"users"`
}

// LoadDirectoryConfig reads a YAML directory file.
func LoadDirectoryConfig(path string) (*DirectoryConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config := new(DirectoryConfig)
	if err = yaml.Unmarshal(b, config); err != nil {
		return nil, fmt.Errorf("directory %s: %w", path, err)
	}
	return config, nil
}

// MetadataValidator applies the registration rules to static clients,
// it is implemented by op.Provider.ValidateClientMetadata.
type MetadataValidator func(ctx context.Context, m *oidc.ClientMetadata) (*oidc.ClientMetadata, error)

// Directory holds what is configured rather than created at runtime:
// static clients, users and the server keys. Every backend embeds it.
type Directory struct {
	clients  map[string]*Client
	users    map[string]*User
	keys     *KeyRing
	loginURL string
}

// NewDirectory creates a directory without static clients and users.
func NewDirectory(keys *KeyRing, loginURL string) *Directory {
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}
	return &Directory{
		clients:  make(map[string]*Client),
		users:    make(map[string]*User),
		keys:     keys,
		loginURL: loginURL,
	}
}

// AddUsers adds the configured users. cost is the bcrypt
// cost plain passwords are hashed with.
func (d *Directory) AddUsers(configs []UserConfig, cost int) error {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	for i := range configs {
		user, err := configs[i].User(cost)
		if err != nil {
			return err
		}
		if _, ok := d.users[user.ID]; ok {
			return fmt.Errorf("duplicate user %s", user.ID)
		}
		d.users[user.ID] = user
	}
	return nil
}

// AddClients adds the configured clients after validating
// their metadata with the same rules dynamic registration uses.
func (d *Directory) AddClients(ctx context.Context, configs []ClientConfig, validate MetadataValidator) error {
	for i := range configs {
		config := &configs[i]
		if config.ID == "" {
			return fmt.Errorf("client %d: id is required", i)
		}
		if _, ok := d.clients[config.ID]; ok {
			return fmt.Errorf("duplicate client %s", config.ID)
		}
		metadata, err := config.Metadata()
		if err != nil {
			return err
		}
		if validate != nil {
			if metadata, err = validate(ctx, metadata); err != nil {
				return fmt.Errorf("client %s: %w", config.ID, err)
			}
		}
		client, err := config.Client(metadata, d.loginURL)
		if err != nil {
			return err
		}
		d.clients[client.GetID()] = client
	}
	return nil
}

// AddClient adds a client which was created in code.
func (d *Directory) AddClient(client *Client) {
	d.clients[client.GetID()] = client
}

func (d *Directory) staticClient(clientID string) (*Client, bool) {
	client, ok := d.clients[clientID]
	return client, ok
}

// registeredClient creates the client of a dynamic registration.
func (d *Directory) registeredClient(info *oidc.ClientInformationResponse) (op.Client, error) {
	return NewClient(info, d.loginURL)
}

// UserByUsername is used by the login UI.
func (d *Directory) UserByUsername(username string) (*User, bool) {
	for _, user := range d.users {
		if user.Username == username {
			return user, true
		}
	}
	return nil, false
}

func (d *Directory) UserInfo(_ context.Context, subject string) (*oidc.UserInfo, error) {
	user, ok := d.users[subject]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", subject, op.ErrNotFound)
	}
	return user.UserInfo(), nil
}

func (d *Directory) CheckUsernamePassword(_ context.Context, username, password string) (string, error) {
	user, ok := d.UserByUsername(username)
	if !ok || !user.CheckPassword(password) {
		return "", op.ErrInvalidCredentials
	}
	return user.ID, nil
}

func (d *Directory) SigningKeys(context.Context) ([]op.SigningKey, error) {
	return d.keys.SigningKeys(), nil
}

func (d *Directory) KeySet(context.Context) ([]op.Key, error) {
	return d.keys.KeySet(), nil
}

func (d *Directory) DecryptionKey(context.Context) (*jose.JSONWebKey, error) {
	return d.keys.DecryptionKey(), nil
}
