package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.Timezone != DefaultTimezone {
		t.Fatalf("Timezone = %q, want %q", cfg.General.Timezone, DefaultTimezone)
	}
	if cfg.Review.Schedule != "0 8 * * *" {
		t.Fatalf("Schedule = %q, want 0 8 * * *", cfg.Review.Schedule)
	}
	if Exists() {
		t.Fatal("Exists() = true with no config file")
	}
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Meta.AccessToken = "EAAB-test"
	cfg.Review.CacheTTLSec = 45
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Meta.AccessToken != "EAAB-test" {
		t.Fatalf("AccessToken = %q, want EAAB-test", got.Meta.AccessToken)
	}
	if got.CacheTTL() != 45*time.Second {
		t.Fatalf("CacheTTL = %s, want 45s", got.CacheTTL())
	}
}

func TestApplyEnv_OverridesFile(t *testing.T) {
	t.Setenv("MURAN_META_ACCESS_TOKEN", "from-env")
	t.Setenv("MURAN_TELEGRAM_CHAT_ID", "-100123")

	cfg := DefaultConfig()
	cfg.Meta.AccessToken = "from-file"
	cfg.Google.ClientID = "keep-me"

	if err := ApplyEnv(&cfg, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Meta.AccessToken != "from-env" {
		t.Fatalf("AccessToken = %q, want from-env", cfg.Meta.AccessToken)
	}
	if cfg.Google.ClientID != "keep-me" {
		t.Fatalf("ClientID = %q, want keep-me", cfg.Google.ClientID)
	}
	if cfg.Notify.TelegramChatID != -100123 {
		t.Fatalf("TelegramChatID = %d, want -100123", cfg.Notify.TelegramChatID)
	}
}

func TestApplyEnv_ReadsDotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("MURAN_GOOGLE_REFRESH_TOKEN=1//refresh\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables that are already set.
	t.Setenv("MURAN_GOOGLE_REFRESH_TOKEN", "")
	os.Unsetenv("MURAN_GOOGLE_REFRESH_TOKEN")

	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg, envFile); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Google.RefreshToken != "1//refresh" {
		t.Fatalf("RefreshToken = %q, want 1//refresh", cfg.Google.RefreshToken)
	}
}

func TestLocation_FallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.Timezone = "Nowhere/Invalid"
	if got := cfg.Location().String(); got != DefaultTimezone {
		t.Fatalf("Location = %s, want %s", got, DefaultTimezone)
	}
}

func TestDSN_DefaultsToDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	cfg := DefaultConfig()
	if got, want := cfg.DSN(), filepath.Join(dir, "muran", "muran.db"); got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
	cfg.Database.DSN = "postgres://u:p@localhost/muran"
	if cfg.DSN() != "postgres://u:p@localhost/muran" {
		t.Fatalf("DSN = %q, want configured DSN", cfg.DSN())
	}
}
