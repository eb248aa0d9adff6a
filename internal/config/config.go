package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Supported values for STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendFile     = "file"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port          int           `envconfig:"PORT" default:"8080"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
	Version       string        `envconfig:"VERSION" default:"dev"`
	StoreBackend  string        `envconfig:"STORE_BACKEND" default:"postgres"`
	DatabaseURL   string        `envconfig:"DATABASE_URL" default:""`
	SQLitePath    string        `envconfig:"SQLITE_PATH" default:"data/solarview.db"`
	StoreFile     string        `envconfig:"STORE_FILE" default:"storage/solarview.json"`
	BcryptCost    int           `envconfig:"BCRYPT_COST" default:"12"`
	AdminEmail    string        `envconfig:"ADMIN_EMAIL" default:""`
	AdminPassword string        `envconfig:"ADMIN_PASSWORD" default:""`
	PVGISURL      string        `envconfig:"PVGIS_URL" default:"https://re.jrc.ec.europa.eu/api/pvcalc"`
	PVGISTimeout  time.Duration `envconfig:"PVGIS_TIMEOUT" default:"15s"`
	SentryDSN     string        `envconfig:"SENTRY_DSN" default:""`
	AppEnv        string        `envconfig:"APP_ENV" default:"development"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite store backend")
		}
	case BackendFile:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want postgres, sqlite or file)", c.StoreBackend)
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	if c.PVGISTimeout <= 0 {
		return errors.New("PVGIS_TIMEOUT must be positive")
	}

	return nil
}

// BootstrapAdmin reports whether an admin account should be ensured at startup.
func (c *Config) BootstrapAdmin() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}
