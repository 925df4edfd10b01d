package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	// TokenTTL is the lifetime of every issued access token.
	TokenTTL = 15 * time.Minute
)

type Config struct {
	AppPort         string
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string

	StoreDriver string
	DatabaseDSN string

	Issuer   string
	Audience string

	// single-key mode
	KeyID            string
	PrivateKeyBase64 string
	PublicKeyBase64  string

	// directory mode, takes precedence when set
	KeysDir      string
	KeyRetention time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	AppleClientID string
}

// Load reads an optional .env file and the process environment.
func Load() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return Config{}, fmt.Errorf("config: load .env: %w", err)
		}
	}

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("OIDC_ISSUER", "http://localhost:3000")
	v.SetDefault("OIDC_AUDIENCE", "unity-game-client")
	v.SetDefault("OIDC_KEY_RETENTION", "24h")

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"DATABASE_DSN",
		"OIDC_KEY_ID",
		"OIDC_PRIVATE_KEY_BASE64",
		"OIDC_PUBLIC_KEY_BASE64",
		"OIDC_KEYS_DIR",
		"GOOGLE_CLIENT_ID",
		"GOOGLE_CLIENT_SECRET",
		"GOOGLE_REDIRECT_URL",
		"APPLE_CLIENT_ID",
	} {
		_ = v.BindEnv(key)
	}

	return v
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppPort:         v.GetString("APP_PORT"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		StoreDriver: v.GetString("STORE_DRIVER"),
		DatabaseDSN: v.GetString("DATABASE_DSN"),

		Issuer:   strings.TrimRight(v.GetString("OIDC_ISSUER"), "/"),
		Audience: v.GetString("OIDC_AUDIENCE"),

		KeyID:            v.GetString("OIDC_KEY_ID"),
		PrivateKeyBase64: v.GetString("OIDC_PRIVATE_KEY_BASE64"),
		PublicKeyBase64:  v.GetString("OIDC_PUBLIC_KEY_BASE64"),

		KeysDir:      v.GetString("OIDC_KEYS_DIR"),
		KeyRetention: v.GetDuration("OIDC_KEY_RETENTION"),

		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),

		AppleClientID: v.GetString("APPLE_CLIENT_ID"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			return errors.New("config: DATABASE_DSN is required for the postgres store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.Issuer == "" {
		return errors.New("config: OIDC_ISSUER must not be empty")
	}
	if c.Audience == "" {
		return errors.New("config: OIDC_AUDIENCE must not be empty")
	}

	// retired keys must outlive every token they signed
	if c.KeyRetention < TokenTTL {
		return fmt.Errorf("config: OIDC_KEY_RETENTION %s is shorter than the token lifetime %s",
			c.KeyRetention, TokenTTL)
	}

	return nil
}

// CodeFlowEnabled reports whether the Google authorization-code flow can run.
func (c Config) CodeFlowEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}
