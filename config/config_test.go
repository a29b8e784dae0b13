package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CHANNEL_USERNAME", "@houses")
	t.Setenv("DB_USER", "bot")
	t.Setenv("DB_NAME", "listings")
	t.Setenv("HTTP_TOKEN_SECRET", "secret")
}

func TestLoad_FromEnvironment(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "@houses", cfg.Telegram.ChannelUsername)
	assert.Equal(t, "localhost", cfg.Database.Host, "default survives")
	assert.Equal(t, ":8080", cfg.HTTP.Listen, "default survives")
	assert.Equal(t, "sessions.db", cfg.Sessions.Path)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("CHANNEL_USERNAME", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("HTTP_TOKEN_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required config")
}

func TestLoad_YAMLFileWithEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_HOST", "db.internal")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  host: from-file
  port: "5433"
sessions:
  path: /var/lib/bot/sessions.db
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host, "environment wins over the file")
	assert.Equal(t, "5433", cfg.Database.Port)
	assert.Equal(t, "/var/lib/bot/sessions.db", cfg.Sessions.Path)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.NoError(t, err)
}

func TestLoad_MediaMustBePaired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MEDIA_UPLOAD_ENDPOINT", "https://bucket.test")
	t.Setenv("MEDIA_PUBLIC_BASE_URL", "")

	_, err := Load("")
	assert.Error(t, err)
}
