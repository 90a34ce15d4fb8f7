package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Session   SessionConfig   `mapstructure:"session"`
	Listing   ListingConfig   `mapstructure:"listing"`
	Import    ImportConfig    `mapstructure:"import"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Sandbox   SandboxConfig   `mapstructure:"sandbox"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SessionConfig struct {
	StorePath string `mapstructure:"store_path" validate:"required"`
	Profile   string `mapstructure:"profile"`
}

type ListingConfig struct {
	PageSize       int           `mapstructure:"page_size" validate:"oneof=10 25 50 100"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
}

type ImportConfig struct {
	MaxBytes          int64    `mapstructure:"max_bytes"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

type DashboardConfig struct {
	BannerTTL     time.Duration `mapstructure:"banner_ttl"`
	WidgetColumns int           `mapstructure:"widget_columns"`
	ChartColumns  int           `mapstructure:"chart_columns"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

type SandboxConfig struct {
	Port              int            `mapstructure:"port"`
	ReadHeaderTimeout time.Duration  `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration  `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration  `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration  `mapstructure:"idle_timeout"`
	Database          DatabaseConfig `mapstructure:"database"`
	JWTSecret         string         `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration  `mapstructure:"token_ttl"`
	SeedEmail         string         `mapstructure:"seed_email"`
	SeedPassword      string         `mapstructure:"seed_password"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	Source       string `mapstructure:"source"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// Defaults returns the values used when no config file is present. The cmd
// layer registers them with viper so files and env only override.
func Defaults() map[string]any {
	return map[string]any{
		"api.base_url":                    "http://localhost:8080/api/v1",
		"api.timeout":                     30 * time.Second,
		"session.store_path":              "assetctl.db",
		"session.profile":                 "default",
		"listing.page_size":               25,
		"listing.search_debounce":         500 * time.Millisecond,
		"import.max_bytes":                int64(10 * 1024 * 1024),
		"import.allowed_extensions":       []string{".xlsx", ".xls", ".csv"},
		"dashboard.banner_ttl":            3 * time.Second,
		"dashboard.widget_columns":        3,
		"dashboard.chart_columns":         2,
		"logging.level":                   "warn",
		"logging.format":                  "text",
		"sandbox.port":                    8080,
		"sandbox.read_header_timeout":     5 * time.Second,
		"sandbox.read_timeout":            15 * time.Second,
		"sandbox.write_timeout":           30 * time.Second,
		"sandbox.idle_timeout":            60 * time.Second,
		"sandbox.database.driver":         "sqlite",
		"sandbox.database.source":         "sandbox.db",
		"sandbox.database.max_open_conns": 10,
		"sandbox.database.max_idle_conns": 5,
		"sandbox.jwt_secret":              "sandbox-secret-change-me-0123456789",
		"sandbox.token_ttl":               12 * time.Hour,
		"sandbox.seed_email":              "admin@example.com",
		"sandbox.seed_password":           "password",
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.API.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("api config: %v", err))
	}

	if err := c.Listing.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("listing config: %v", err))
	}

	if err := c.Import.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("import config: %v", err))
	}

	if err := c.Dashboard.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("dashboard config: %v", err))
	}

	if c.Session.StorePath == "" {
		errs = append(errs, "session config: store_path is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *APIConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %s: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https, got %q", u.Scheme)
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

func (c *ListingConfig) Validate() error {
	switch c.PageSize {
	case 10, 25, 50, 100:
	default:
		return fmt.Errorf("page_size must be one of 10, 25, 50, 100, got %d", c.PageSize)
	}
	if c.SearchDebounce < 0 {
		return errors.New("search_debounce must not be negative")
	}
	return nil
}

func (c *ImportConfig) Validate() error {
	if c.MaxBytes <= 0 {
		return errors.New("max_bytes must be positive")
	}
	for _, ext := range c.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	return nil
}

func (c *DashboardConfig) Validate() error {
	if c.WidgetColumns < 1 || c.WidgetColumns > 4 {
		return errors.New("widget_columns must be between 1 and 4")
	}
	if c.ChartColumns < 1 || c.ChartColumns > 4 {
		return errors.New("chart_columns must be between 1 and 4")
	}
	return nil
}

func (c *SandboxConfig) Validate() error {
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters")
	}
	return c.Database.Validate()
}

func (c *DatabaseConfig) Validate() error {
	if c.Driver != "sqlite" && c.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	if c.Source == "" {
		return errors.New("database source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}
