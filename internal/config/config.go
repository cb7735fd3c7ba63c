// Package config loads muran settings from a TOML file, a .env file and
// MURAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // civil timezone must resolve on hosts without zoneinfo

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultTimezone is the civil timezone used to decide what "today" is.
const DefaultTimezone = "America/Sao_Paulo"

// Config holds all muran configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Database   DatabaseConfig   `toml:"database"`
	Meta       MetaConfig       `toml:"meta"`
	Google     GoogleConfig     `toml:"google"`
	Review     ReviewConfig     `toml:"review"`
	Notify     NotifyConfig     `toml:"notify"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Timezone string `toml:"timezone"`
}

// DatabaseConfig selects the store. An empty DSN means the local SQLite file.
type DatabaseConfig struct {
	DSN string `toml:"dsn,omitempty"`
}

// MetaConfig holds Meta Graph API settings.
type MetaConfig struct {
	AccessToken string `toml:"access_token,omitempty"`
	APIVersion  string `toml:"api_version"`
	BaseURL     string `toml:"base_url,omitempty"`
}

// GoogleConfig holds Google Ads API settings.
type GoogleConfig struct {
	DeveloperToken  string `toml:"developer_token,omitempty"`
	ClientID        string `toml:"client_id,omitempty"`
	ClientSecret    string `toml:"client_secret,omitempty"`
	RefreshToken    string `toml:"refresh_token,omitempty"`
	LoginCustomerID string `toml:"login_customer_id,omitempty"`
	APIVersion      string `toml:"api_version"`
	BaseURL         string `toml:"base_url,omitempty"`
}

// ReviewConfig controls scheduled and on-demand budget reviews.
type ReviewConfig struct {
	Schedule           string `toml:"schedule"`
	RefreshIntervalSec int    `toml:"refresh_interval_sec"`
	MinRefreshGapSec   int    `toml:"min_refresh_gap_sec"`
	CacheTTLSec        int    `toml:"cache_ttl_sec"`
	AutoRefresh        bool   `toml:"auto_refresh"`
}

// NotifyConfig holds optional Telegram alert settings.
type NotifyConfig struct {
	TelegramToken  string `toml:"telegram_token,omitempty"`
	TelegramChatID int64  `toml:"telegram_chat_id,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// envOverrides are read from MURAN_<NAME> variables and beat the file.
type envOverrides struct {
	Timezone              string `envconfig:"TIMEZONE"`
	DatabaseDSN           string `envconfig:"DATABASE_DSN"`
	MetaAccessToken       string `envconfig:"META_ACCESS_TOKEN"`
	GoogleDeveloperToken  string `envconfig:"GOOGLE_DEVELOPER_TOKEN"`
	GoogleClientID        string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret    string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRefreshToken    string `envconfig:"GOOGLE_REFRESH_TOKEN"`
	GoogleLoginCustomerID string `envconfig:"GOOGLE_LOGIN_CUSTOMER_ID"`
	TelegramToken         string `envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID        int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Timezone: DefaultTimezone,
		},
		Meta: MetaConfig{
			APIVersion: "v22.0",
		},
		Google: GoogleConfig{
			APIVersion: "v20",
		},
		Review: ReviewConfig{
			Schedule:           "0 8 * * *",
			RefreshIntervalSec: 300,
			MinRefreshGapSec:   30,
			CacheTTLSec:        120,
			AutoRefresh:        true,
		},
		Appearance: AppearanceConfig{
			Theme: "muran",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "muran")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "muran")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the directory holding the local database.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "muran")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "muran")
}

// StateDir returns the directory for daemon pid and log files.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "muran")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "muran")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied separately by ApplyEnv.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv loads the given .env files (".env" when none are given) and
// copies any MURAN_* variables over cfg. Missing .env files are ignored.
func ApplyEnv(cfg *Config, envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var env envOverrides
	if err := envconfig.Process("MURAN", &env); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	setIf(&cfg.General.Timezone, env.Timezone)
	setIf(&cfg.Database.DSN, env.DatabaseDSN)
	setIf(&cfg.Meta.AccessToken, env.MetaAccessToken)
	setIf(&cfg.Google.DeveloperToken, env.GoogleDeveloperToken)
	setIf(&cfg.Google.ClientID, env.GoogleClientID)
	setIf(&cfg.Google.ClientSecret, env.GoogleClientSecret)
	setIf(&cfg.Google.RefreshToken, env.GoogleRefreshToken)
	setIf(&cfg.Google.LoginCustomerID, env.GoogleLoginCustomerID)
	setIf(&cfg.Notify.TelegramToken, env.TelegramToken)
	if env.TelegramChatID != 0 {
		cfg.Notify.TelegramChatID = env.TelegramChatID
	}
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Location resolves the configured civil timezone, falling back to the default.
func (c Config) Location() *time.Location {
	if c.General.Timezone != "" {
		if loc, err := time.LoadLocation(c.General.Timezone); err == nil {
			return loc
		}
	}
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN returns the configured database DSN or the local SQLite path.
func (c Config) DSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return filepath.Join(DataDir(), "muran.db")
}

// RefreshInterval is the period between automatic refreshes (minimum 30s).
func (c Config) RefreshInterval() time.Duration {
	d := time.Duration(c.Review.RefreshIntervalSec) * time.Second
	if d < 30*time.Second {
		return 5 * time.Minute
	}
	return d
}

// MinRefreshGap is the debounce window for on-demand refreshes.
func (c Config) MinRefreshGap() time.Duration {
	if c.Review.MinRefreshGapSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Review.MinRefreshGapSec) * time.Second
}

// CacheTTL is how long ad-platform snapshots stay cached.
func (c Config) CacheTTL() time.Duration {
	if c.Review.CacheTTLSec <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.Review.CacheTTLSec) * time.Second
}

// GoogleConfigured reports whether the Google Ads OAuth client is set.
// The developer and refresh tokens may still come from the token store.
func (c Config) GoogleConfigured() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}
