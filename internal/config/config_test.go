package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
	"golang.org/x/text/language"

	"github.com/zitadel/authserver/pkg/op"
)

const configFile = `
issuer: https://auth.example
crypto_key: secret
listen: ":8080"
storage:
  backend: bolt
  path: /var/lib/authserver/bolt.db
tokens:
  access_token_lifetime: 10m
  refresh_token_rotation: true
request_uri_block_list:
  - "https://internal.example/*"
ui_locales: [en, de]
grant_retention: 2h
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad(t *testing.T) {
	cfg, err := Load(flags(t, "--config", writeConfig(t, configFile)))
	require.NoError(t, err)

	assert.Equal(t, "https://auth.example", cfg.Issuer)
	assert.Equal(t, ":8080", cfg.Listen, "the file wins over flag defaults")
	assert.Equal(t, StorageConfig{Backend: BackendBolt, Path: "/var/lib/authserver/bolt.db"}, cfg.Storage)
	assert.Equal(t, 10*time.Minute, cfg.Tokens.AccessTokenLifetime)
	assert.Equal(t, op.DefaultIDTokenLifetime, cfg.Tokens.IDTokenLifetime)
	assert.True(t, cfg.Tokens.RefreshTokenRotation)
	assert.Equal(t, []string{"https://internal.example/*"}, cfg.RequestURIBlockList)
	assert.True(t, cfg.CodeMethodS256)
	assert.Equal(t, "info", cfg.Log.Level)

	provider, err := cfg.Provider()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, provider.AccessTokenLifetime)
	assert.Equal(t, 2*time.Hour, provider.GrantRetention)
	assert.Equal(t, []language.Tag{language.English, language.German}, provider.SupportedUILocales)
	assert.NotEqual(t, [32]byte{}, provider.CryptoKey)
}

func TestLoad_precedence(t *testing.T) {
	path := writeConfig(t, configFile)
	t.Setenv("AUTHSERVER_STORAGE_DSN", "file::memory:")
	t.Setenv("AUTHSERVER_TOKENS_CODE_LIFETIME", "30s")
	t.Setenv("AUTHSERVER_LISTEN", ":7070")

	cfg, err := Load(flags(t, "--config", path, "--storage-backend", "sqlite", "--listen", ":6060"))
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend, "flag over file")
	assert.Equal(t, "file::memory:", cfg.Storage.DSN, "env over default")
	assert.Equal(t, 30*time.Second, cfg.Tokens.CodeLifetime)
	assert.Equal(t, ":6060", cfg.Listen, "flag over env")
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing issuer",
			content: "crypto_key: secret",
			wantErr: "issuer is required",
		},
		{
			name:    "insecure issuer",
			content: "issuer: http://auth.example\ncrypto_key: secret",
			wantErr: op.ErrInvalidIssuerHTTPS.Error(),
		},
		{
			name:    "missing crypto key",
			content: "issuer: https://auth.example",
			wantErr: "crypto_key is required",
		},
		{
			name:    "unknown backend",
			content: "issuer: https://auth.example\ncrypto_key: secret\nstorage:\n  backend: etcd",
			wantErr: `unknown storage backend "etcd"`,
		},
		{
			name:    "postgres without dsn",
			content: "issuer: https://auth.example\ncrypto_key: secret\nstorage:\n  backend: postgres",
			wantErr: "storage.dsn is required for the postgres backend",
		},
		{
			name:    "log level",
			content: "issuer: https://auth.example\ncrypto_key: secret\nlog:\n  level: loud",
			wantErr: "log.level",
		},
		{
			name:    "ui locale",
			content: "issuer: https://auth.example\ncrypto_key: secret\nui_locales: [\"not a locale\"]",
			wantErr: "ui_locales",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(flags(t, "--config", writeConfig(t, tt.content)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_insecureFlag(t *testing.T) {
	path := writeConfig(t, "issuer: http://localhost:9998\ncrypto_key: secret")
	cfg, err := Load(flags(t, "--config", path, "--allow-insecure"))
	require.NoError(t, err)
	assert.True(t, cfg.AllowInsecure)
}

func TestLogConfig_Logger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "authserver.log")
	config := &LogConfig{Level: "debug", Format: "json", File: file, MaxSizeMB: 1}
	logger, closer, err := config.Logger()
	require.NoError(t, err)

	logger.Debug("hello", slog.String("who", "world"))
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"hello"`)
	assert.Contains(t, string(content), `"who":"world"`)
}
