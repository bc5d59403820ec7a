package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// PlaceholderURL stands in for a hosted backend whose coordinates were not
// supplied. It never resolves.
const PlaceholderURL = "postgres://placeholder.invalid:5432/placeholder"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Notify   NotifyConfig
	Log      LogConfig

	// Diagnostics collects non-fatal problems found while loading. They are
	// logged once the logger exists.
	Diagnostics []string
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Driver          string
	Path            string
	URL             string
	Key             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Placeholder is set when a hosted driver lacks its URL or key.
	Placeholder bool
}

// Hosted reports whether the backend is reached over the network.
func (c DatabaseConfig) Hosted() bool {
	return c.Driver == DriverMySQL || c.Driver == DriverPostgres
}

type AuthConfig struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

type NotifyConfig struct {
	CoalesceWindow       time.Duration
	MaxReconnectAttempts int
	ReconnectBackoff     time.Duration
}

type LogConfig struct {
	Level string
}

// Load reads configuration from the environment and, when path is not empty,
// from a YAML file. Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_PATH", "shiptrack.db")
	v.SetDefault("DB_URL", "")
	v.SetDefault("DB_KEY", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("AUTH_SECRET", "")
	v.SetDefault("AUTH_TOKEN_TTL", "24h")
	v.SetDefault("AUTH_BCRYPT_COST", 10)
	v.SetDefault("NOTIFY_COALESCE_WINDOW", "250ms")
	v.SetDefault("NOTIFY_MAX_RECONNECT_ATTEMPTS", 5)
	v.SetDefault("NOTIFY_RECONNECT_BACKOFF", "500ms")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	connMaxLifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("parsing DB_CONN_MAX_LIFETIME: %w", err)
	}
	tokenTTL, err := time.ParseDuration(v.GetString("AUTH_TOKEN_TTL"))
	if err != nil {
		return nil, fmt.Errorf("parsing AUTH_TOKEN_TTL: %w", err)
	}
	coalesceWindow, err := time.ParseDuration(v.GetString("NOTIFY_COALESCE_WINDOW"))
	if err != nil {
		return nil, fmt.Errorf("parsing NOTIFY_COALESCE_WINDOW: %w", err)
	}
	reconnectBackoff, err := time.ParseDuration(v.GetString("NOTIFY_RECONNECT_BACKOFF"))
	if err != nil {
		return nil, fmt.Errorf("parsing NOTIFY_RECONNECT_BACKOFF: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			Path:            v.GetString("DB_PATH"),
			URL:             v.GetString("DB_URL"),
			Key:             v.GetString("DB_KEY"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Auth: AuthConfig{
			Secret:     v.GetString("AUTH_SECRET"),
			TokenTTL:   tokenTTL,
			BcryptCost: v.GetInt("AUTH_BCRYPT_COST"),
		},
		Notify: NotifyConfig{
			CoalesceWindow:       coalesceWindow,
			MaxReconnectAttempts: v.GetInt("NOTIFY_MAX_RECONNECT_ATTEMPTS"),
			ReconnectBackoff:     reconnectBackoff,
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	switch cfg.Database.Driver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	cfg.applyPlaceholder()

	if cfg.Auth.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generating auth secret: %w", err)
		}
		cfg.Auth.Secret = secret
		cfg.Diagnostics = append(cfg.Diagnostics,
			"AUTH_SECRET is not set; using an ephemeral secret, sessions will not survive a restart")
	}

	return cfg, nil
}

// applyPlaceholder degrades a hosted backend without coordinates to a
// placeholder instance instead of failing the load.
func (c *Config) applyPlaceholder() {
	if !c.Database.Hosted() {
		return
	}

	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DB_URL")
	}
	if c.Database.Key == "" {
		missing = append(missing, "DB_KEY")
	}
	if len(missing) == 0 {
		return
	}

	c.Database.Placeholder = true
	c.Database.URL = PlaceholderURL
	if c.Database.Driver == DriverMySQL {
		c.Database.URL = "mysql://placeholder.invalid:3306/placeholder"
	}
	c.Database.Key = "placeholder"
	c.Diagnostics = append(c.Diagnostics, fmt.Sprintf(
		"missing %s for %s backend; running against a placeholder instance, storage calls will fail",
		strings.Join(missing, " and "), c.Database.Driver,
	))
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
