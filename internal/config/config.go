// Package config loads the settings of the authorization server from a
// YAML file, AUTHSERVER_* environment variables and command line flags,
// in increasing order of precedence.
package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/exp/slog"
	"golang.org/x/text/language"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/zitadel/authserver/pkg/op"
)

const EnvPrefix = "AUTHSERVER"

const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Issuer        string `mapstructure:"issuer"`
	Listen        string `mapstructure:"listen"`
	AllowInsecure bool   `mapstructure:"allow_insecure"`
	// CryptoKey is hashed into the key sealing opaque tokens and cookies.
	CryptoKey string `mapstructure:"crypto_key"`
	// Directory is the YAML file with the static clients and users.
	Directory string `mapstructure:"directory"`
	LoginURL  string `mapstructure:"login_url"`

	Storage StorageConfig `mapstructure:"storage"`
	Keys    KeysConfig    `mapstructure:"keys"`
	Tokens  TokensConfig  `mapstructure:"tokens"`
	Log     LogConfig     `mapstructure:"log"`

	RequestObjectSupported    bool          `mapstructure:"request_object_supported"`
	RequestURISupported       bool          `mapstructure:"request_uri_supported"`
	RequestObjectFetchTimeout time.Duration `mapstructure:"request_object_fetch_timeout"`
	RequestURIBlockList       []string      `mapstructure:"request_uri_block_list"`
	CodeMethodS256            bool          `mapstructure:"code_method_s256"`
	DynamicRegistration       bool          `mapstructure:"dynamic_registration"`
	UILocales                 []string      `mapstructure:"ui_locales"`

	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	GrantRetention time.Duration `mapstructure:"grant_retention"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	// Path of the bolt database file.
	Path string `mapstructure:"path"`
	// DSN of the sqlite or postgres database.
	DSN string `mapstructure:"dsn"`
}

type KeysConfig struct {
	// Signing holds PEM files of signing keys, the first one signs.
	// A key ring is generated on startup when empty.
	Signing    []string `mapstructure:"signing"`
	Decryption string   `mapstructure:"decryption"`
}

type TokensConfig struct {
	CodeLifetime         time.Duration `mapstructure:"code_lifetime"`
	AccessTokenLifetime  time.Duration `mapstructure:"access_token_lifetime"`
	IDTokenLifetime      time.Duration `mapstructure:"id_token_lifetime"`
	RefreshTokenLifetime time.Duration `mapstructure:"refresh_token_lifetime"`
	AuthRequestLifetime  time.Duration `mapstructure:"auth_request_lifetime"`
	SessionLifetime      time.Duration `mapstructure:"session_lifetime"`
	RefreshTokenRotation bool          `mapstructure:"refresh_token_rotation"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File enables rotated logging to the file instead of stderr.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

var defaults = map[string]any{
	"listen":                        ":9998",
	"login_url":                     "",
	"storage.backend":               BackendMemory,
	"storage.path":                  "authserver.db",
	"storage.dsn":                   "",
	"keys.signing":                  []string{},
	"keys.decryption":               "",
	"tokens.code_lifetime":          op.DefaultCodeLifetime,
	"tokens.access_token_lifetime":  op.DefaultAccessTokenLifetime,
	"tokens.id_token_lifetime":      op.DefaultIDTokenLifetime,
	"tokens.refresh_token_lifetime": op.DefaultRefreshTokenLifetime,
	"tokens.auth_request_lifetime":  op.DefaultAuthRequestLifetime,
	"tokens.session_lifetime":       op.DefaultSessionLifetime,
	"tokens.refresh_token_rotation": false,
	"log.level":                     "info",
	"log.format":                    "text",
	"log.file":                      "",
	"log.max_size_mb":               100,
	"log.max_backups":               3,
	"log.max_age_days":              28,
	"log.compress":                  false,
	"request_object_supported":      true,
	"request_uri_supported":         true,
	"request_object_fetch_timeout":  op.DefaultRequestObjectFetchTimeout,
	"request_uri_block_list":        []string{},
	"code_method_s256":              true,
	"dynamic_registration":          false,
	"ui_locales":                    []string{"en"},
	"sweep_interval":                op.DefaultSweepInterval,
	"grant_retention":               time.Duration(0),
	"issuer":                        "",
	"allow_insecure":                false,
	"crypto_key":                    "",
	"directory":                     "",
}

// Flags registers the command line flags overriding the configuration.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "path of the YAML configuration file")
	fs.String("issuer", "", "issuer identifier of the server")
	fs.String("listen", ":9998", "address of the http listener")
	fs.Bool("allow-insecure", false, "allow an http issuer")
	fs.String("directory", "", "YAML file with the static clients and users")
	fs.String("storage-backend", BackendMemory, "storage backend: memory, bolt, sqlite or postgres")
	fs.String("storage-path", "authserver.db", "bolt database file")
	fs.String("storage-dsn", "", "sqlite or postgres data source name")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("log-file", "", "write rotated logs to this file")
}

var flagKeys = map[string]string{
	"issuer":          "issuer",
	"listen":          "listen",
	"allow-insecure":  "allow_insecure",
	"directory":       "directory",
	"storage-backend": "storage.backend",
	"storage-path":    "storage.path",
	"storage-dsn":     "storage.dsn",
	"log-level":       "log.level",
	"log-file":        "log.file",
}

// Load reads the configuration. The file is taken from the config flag
// when fs is not nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if flag := fs.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
		if path, err := fs.GetString("config"); err == nil && path != "" {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err = v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Issuer == "" {
		errs = append(errs, errors.New("issuer is required"))
	} else if err := op.ValidateIssuer(c.Issuer, c.AllowInsecure); err != nil {
		errs = append(errs, err)
	}
	if c.CryptoKey == "" {
		errs = append(errs, errors.New("crypto_key is required"))
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendBolt:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the bolt backend"))
		}
	case BackendSQLite, BackendPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for the %s backend", c.Storage.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if _, err := c.uiLocales(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) uiLocales() ([]language.Tag, error) {
	tags := make([]language.Tag, 0, len(c.UILocales))
	for _, locale := range c.UILocales {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("ui_locales: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// Provider returns the settings of the OpenID Provider.
func (c *Config) Provider() (*op.Config, error) {
	locales, err := c.uiLocales()
	if err != nil {
		return nil, err
	}
	return &op.Config{
		CryptoKey:                 sha256.Sum256([]byte(c.CryptoKey)),
		CodeLifetime:              c.Tokens.CodeLifetime,
		AccessTokenLifetime:       c.Tokens.AccessTokenLifetime,
		IDTokenLifetime:           c.Tokens.IDTokenLifetime,
		RefreshTokenLifetime:      c.Tokens.RefreshTokenLifetime,
		AuthRequestLifetime:       c.Tokens.AuthRequestLifetime,
		SessionLifetime:           c.Tokens.SessionLifetime,
		RefreshTokenRotation:      c.Tokens.RefreshTokenRotation,
		RequestObjectSupported:    c.RequestObjectSupported,
		RequestURISupported:       c.RequestURISupported,
		RequestObjectFetchTimeout: c.RequestObjectFetchTimeout,
		RequestURIBlockList:       c.RequestURIBlockList,
		CodeMethodS256:            c.CodeMethodS256,
		DynamicRegistration:       c.DynamicRegistration,
		SupportedUILocales:        locales,
		SweepInterval:             c.SweepInterval,
		GrantRetention:            c.GrantRetention,
	}, nil
}

func (l *LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Logger builds the logger of the server. The returned closer
// releases the log file, if any.
func (l *LogConfig) Logger() (*slog.Logger, io.Closer, error) {
	level, err := l.level()
	if err != nil {
		return nil, nil, err
	}
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if l.File != "" {
		file := &lumberjack.Logger{
			Filename:   l.File,
			MaxSize:    l.MaxSizeMB,
			MaxBackups: l.MaxBackups,
			MaxAge:     l.MaxAgeDays,
			Compress:   l.Compress,
		}
		out, closer = file, file
	}
	opts := &slog.HandlerOptions{
		AddSource: level <= slog.LevelDebug,
		Level:     level,
	}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts)), closer, nil
	}
	return slog.New(slog.NewTextHandler(out, opts)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
