package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BrunoRangell/app-muran-sub008/internal/adsapi"
	"github.com/BrunoRangell/app-muran-sub008/internal/cache"
	"github.com/BrunoRangell/app-muran-sub008/internal/cli"
	"github.com/BrunoRangell/app-muran-sub008/internal/config"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"
	"github.com/BrunoRangell/app-muran-sub008/internal/review"
	"github.com/BrunoRangell/app-muran-sub008/internal/store"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagQuiet    bool
	flagPlatform string
	flagEnvFile  string
)

var rootCmd = &cobra.Command{
	Use:   "muran",
	Short: "Daily budget review for Meta Ads and Google Ads accounts",
	Long: "Track clients, their ad accounts and custom budget periods, and review\n" +
		"whether each account's daily budget should be raised or lowered.",
	SilenceUsage: true,
	RunE:         runLatest,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVarP(&flagPlatform, "platform", "p", "", "Limit to one platform (meta or google)")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "Optional .env file with MURAN_* overrides")
}

// loadConfig reads the config file and applies .env and MURAN_* overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg, flagEnvFile); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// openStore loads the config and opens the configured database.
func openStore() (config.Config, *store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, err
	}
	st, err := store.Open(cfg.DSN())
	if err != nil {
		return cfg, nil, err
	}
	return cfg, st, nil
}

// runtime bundles everything a reviewing command needs.
type runtime struct {
	cfg   config.Config
	store *store.Store
	svc   *review.Service
}

func (r *runtime) Close() {
	_ = r.store.Close()
}

// openRuntime wires config, store, ad platform clients and the review service.
func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, st, err := openStore()
	if err != nil {
		return nil, err
	}

	sources := buildSources(ctx, cfg, st)
	svc := review.New(st, sources, review.Options{
		Location: cfg.Location(),
		Cache:    cache.New[*adsapi.AccountSnapshot](0, cfg.CacheTTL()),
	})
	return &runtime{cfg: cfg, store: st, svc: svc}, nil
}

// buildSources creates one client per platform with credentials. Tokens
// missing from the config are looked up in the api_tokens table.
func buildSources(ctx context.Context, cfg config.Config, st *store.Store) []adsapi.Source {
	sources := []adsapi.Source{
		adsapi.NewMeta(cfg.Meta.BaseURL, cfg.Meta.APIVersion,
			adsapi.StoredToken(cfg.Meta.AccessToken, st, store.TokenMetaAccess)),
	}

	if cfg.GoogleConfigured() {
		devToken := cfg.Google.DeveloperToken
		if devToken == "" {
			devToken, _ = st.GetAPIToken(ctx, store.TokenGoogleDevToken)
		}
		sources = append(sources, adsapi.NewGoogle(adsapi.GoogleConfig{
			BaseURL:         cfg.Google.BaseURL,
			APIVersion:      cfg.Google.APIVersion,
			ClientID:        cfg.Google.ClientID,
			ClientSecret:    cfg.Google.ClientSecret,
			RefreshToken:    adsapi.StoredToken(cfg.Google.RefreshToken, st, store.TokenGoogleRefresh),
			DeveloperToken:  devToken,
			LoginCustomerID: cfg.Google.LoginCustomerID,
		}))
	}
	return sources
}

// selectedPlatforms returns the --platform choice or every configured platform.
func selectedPlatforms(configured []model.Platform) ([]model.Platform, error) {
	if flagPlatform == "" {
		return configured, nil
	}
	p, err := model.ParsePlatform(flagPlatform)
	if err != nil {
		return nil, err
	}
	for _, c := range configured {
		if c == p {
			return []model.Platform{p}, nil
		}
	}
	return nil, fmt.Errorf("%s is not configured: %w", p.Label(), review.ErrNoSource)
}

// requirePlatform parses --platform, which must be set.
func requirePlatform() (model.Platform, error) {
	if flagPlatform == "" {
		return "", errors.New("--platform is required (meta or google)")
	}
	return model.ParsePlatform(flagPlatform)
}

// progressFn draws a progress bar on stderr unless --quiet.
func progressFn(label string) review.ProgressFunc {
	return func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  %s %s", label, cli.RenderProgressBar(current, total, 24))
		if current == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

// parseMoney accepts "1500", "1500.50", "1.500,50" and "R$ 1.500,50".
func parseMoney(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "R$")
	v = strings.ReplaceAll(strings.TrimSpace(v), " ", "")
	if strings.Contains(v, ",") {
		v = strings.ReplaceAll(v, ".", "")
		v = strings.Replace(v, ",", ".", 1)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q cannot be negative", s)
	}
	return d, nil
}

// resolveClient finds a client by ID or name and reports a friendly error.
func resolveClient(ctx context.Context, st *store.Store, idOrName string) (*model.Client, error) {
	c, err := st.FindClient(ctx, idOrName)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("client %q not found", idOrName)
	}
	return c, err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
