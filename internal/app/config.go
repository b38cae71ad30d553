package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// MasterSheetID is the spreadsheet holding the business registry and
	// per-business configuration. Each business points at its own ledger
	// spreadsheet from there.
	MasterSheetID string `envconfig:"MASTER_SHEET_ID" required:"true"`

	// APIKeys is a comma-separated "key:role" list gating the staff API.
	APIKeys string `envconfig:"API_KEYS" required:"true"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	GotenbergURL string `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`

	// SnowflakeNode distinguishes ID generators when more than one instance
	// writes to the same spreadsheets.
	SnowflakeNode int64 `envconfig:"SNOWFLAKE_NODE" default:"1"`

	// ReconcileCron schedules the nightly job that recomputes invoice totals
	// from their payment rows. Empty disables the schedule.
	ReconcileCron string `envconfig:"RECONCILE_CRON" default:"0 2 * * *"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.MasterSheetID == "" {
		return nil, errors.New("master sheet id must be provided")
	}
	if cfg.APIKeys == "" {
		return nil, errors.New("api keys must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
