// Package cmd implements the muran CLI commands.
package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/budget"
	"github.com/BrunoRangell/app-muran-sub008/internal/cli"
	"github.com/BrunoRangell/app-muran-sub008/internal/config"
	"github.com/BrunoRangell/app-muran-sub008/internal/store"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Timezone: %s (today is %s)\n", cfg.Location(), todayIn(cfg))
	fmt.Println()

	fmt.Println("  [Database]")
	fmt.Printf("    DSN: %s\n", maskDSN(cfg.DSN()))
	fmt.Printf("    Connection: %s\n", probeStore(cfg))
	fmt.Println()

	fmt.Println("  [Meta]")
	fmt.Printf("    Access token: %s\n", maskOrMissing(cfg.Meta.AccessToken))
	fmt.Printf("    API version:  %s\n", cfg.Meta.APIVersion)
	fmt.Println()

	fmt.Println("  [Google]")
	fmt.Printf("    Client ID:       %s\n", orMissing(cfg.Google.ClientID))
	fmt.Printf("    Client secret:   %s\n", maskOrMissing(cfg.Google.ClientSecret))
	fmt.Printf("    Refresh token:   %s\n", maskOrMissing(cfg.Google.RefreshToken))
	fmt.Printf("    Developer token: %s\n", maskOrMissing(cfg.Google.DeveloperToken))
	if cfg.Google.LoginCustomerID != "" {
		fmt.Printf("    Manager account: %s\n", cfg.Google.LoginCustomerID)
	}
	fmt.Printf("    API version:     %s\n", cfg.Google.APIVersion)
	fmt.Println()

	fmt.Println("  [Review]")
	fmt.Printf("    Schedule:         %s\n", cfg.Review.Schedule)
	fmt.Printf("    Auto refresh:     %v every %s\n", cfg.Review.AutoRefresh, cfg.RefreshInterval())
	fmt.Printf("    Min refresh gap:  %s\n", cfg.MinRefreshGap())
	fmt.Printf("    Cache TTL:        %s\n", cfg.CacheTTL())
	fmt.Println()

	fmt.Println("  [Notify]")
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != 0 {
		fmt.Printf("    Telegram: chat %d (token %s)\n", cfg.Notify.TelegramChatID, maskAPIKey(cfg.Notify.TelegramToken))
	} else {
		fmt.Println("    Telegram: not configured")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Secrets may also come from MURAN_* variables or `muran tokens set`.")
	fmt.Println("  Run `muran setup` to reconfigure.")
	return nil
}

// probeStore opens the database and reports the driver and whether it answers.
func probeStore(cfg config.Config) string {
	st, err := store.Open(cfg.DSN())
	if err != nil {
		return "error: " + err.Error()
	}
	defer func() { _ = st.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := st.Ping(ctx); err != nil {
		return st.Driver() + ", unreachable: " + err.Error()
	}
	return st.Driver() + ", ok"
}

func orMissing(s string) string {
	if s == "" {
		return "not configured"
	}
	return s
}

func maskOrMissing(s string) string {
	if s == "" {
		return "not configured"
	}
	return maskAPIKey(s)
}

// maskAPIKey shows only the first and last four characters of a secret.
func maskAPIKey(key string) string {
	if len(key) > 12 {
		return key[:4] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}

// maskDSN hides the password of a postgres URL.
func maskDSN(dsn string) string {
	if !strings.Contains(dsn, "://") {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "(unparseable)"
	}
	return u.Redacted()
}

func todayIn(cfg config.Config) string {
	return cli.FormatDate(budget.Today(time.Now(), cfg.Location()))
}
