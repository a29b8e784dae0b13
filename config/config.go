// Package config loads the application configuration from an optional YAML
// file overlaid with environment variables. Environment always wins, so
// deployments can keep secrets out of the file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/yonasy/telegram-house-bot/internal/httpapi"
	"github.com/yonasy/telegram-house-bot/internal/storage"
)

// TelegramConfig holds the bot's Telegram settings.
type TelegramConfig struct {
	Token           string `yaml:"token" envconfig:"BOT_TOKEN"`
	ChannelUsername string `yaml:"channel_username" envconfig:"CHANNEL_USERNAME"`
}

// SessionsConfig locates the local snapshot database.
type SessionsConfig struct {
	Path string `yaml:"path" envconfig:"SESSIONS_DB_PATH"`
}

// MediaConfig configures photo publication. Leaving the endpoint empty
// disables uploads; listings then keep their Telegram file references.
type MediaConfig struct {
	UploadEndpoint string `yaml:"upload_endpoint" envconfig:"MEDIA_UPLOAD_ENDPOINT"`
	PublicBaseURL  string `yaml:"public_base_url" envconfig:"MEDIA_PUBLIC_BASE_URL"`
}

// Config is the full application configuration.
type Config struct {
	Telegram      TelegramConfig         `yaml:"telegram"`
	Database      storage.PostgresConfig `yaml:"database"`
	Sessions      SessionsConfig         `yaml:"sessions"`
	HTTP          httpapi.Config         `yaml:"http"`
	Media         MediaConfig            `yaml:"media"`
	MigrationsDir string                 `yaml:"migrations_dir" envconfig:"MIGRATIONS_DIR"`
}

func defaults() Config {
	return Config{
		Database: storage.PostgresConfig{
			Host:           "localhost",
			Port:           "5432",
			SSLMode:        "disable",
			MaxConnections: 10,
		},
		Sessions:      SessionsConfig{Path: "sessions.db"},
		HTTP:          httpapi.Config{Listen: ":8080"},
		MigrationsDir: "migrations",
	}
}

// Load builds the configuration: defaults, then the YAML file at path if it
// exists, then environment variables. A .env file in the working directory is
// loaded first when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if c.Telegram.Token == "" {
		missing = append(missing, "telegram.token (BOT_TOKEN)")
	}
	if c.Telegram.ChannelUsername == "" {
		missing = append(missing, "telegram.channel_username (CHANNEL_USERNAME)")
	}
	if c.Database.User == "" {
		missing = append(missing, "database.user (DB_USER)")
	}
	if c.Database.Name == "" {
		missing = append(missing, "database.name (DB_NAME)")
	}
	if c.HTTP.TokenSecret == "" {
		missing = append(missing, "http.token_secret (HTTP_TOKEN_SECRET)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %v", missing)
	}
	if (c.Media.UploadEndpoint == "") != (c.Media.PublicBaseURL == "") {
		return errors.New("media.upload_endpoint and media.public_base_url must be set together")
	}
	return nil
}
