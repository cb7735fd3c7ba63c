package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BrunoRangell/app-muran-sub008/internal/store"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// tokenNames maps CLI names to stored token names.
var tokenNames = map[string]string{
	"meta":           store.TokenMetaAccess,
	"google-refresh": store.TokenGoogleRefresh,
	"google-dev":     store.TokenGoogleDevToken,
}

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage API tokens kept in the database",
	Long: "API tokens can live in the database so several operators share them.\n" +
		"Values from the config file or MURAN_* variables take precedence.",
	RunE: runTokensList,
}

var tokensSetCmd = &cobra.Command{
	Use:   "set <meta|google-refresh|google-dev> [value]",
	Short: "Store an API token (prompts when value is omitted)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTokensSet,
}

func init() {
	tokensCmd.AddCommand(tokensSetCmd)
	rootCmd.AddCommand(tokensCmd)
}

func runTokensList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	for _, key := range []string{"meta", "google-refresh", "google-dev"} {
		v, err := st.GetAPIToken(ctx, tokenNames[key])
		switch {
		case errors.Is(err, store.ErrNotFound):
			fmt.Printf("  %-15s not stored\n", key)
		case err != nil:
			return err
		default:
			fmt.Printf("  %-15s %s\n", key, maskAPIKey(v))
		}
	}
	return nil
}

func runTokensSet(_ *cobra.Command, args []string) error {
	name, ok := tokenNames[args[0]]
	if !ok {
		return fmt.Errorf("unknown token %q (want meta, google-refresh or google-dev)", args[0])
	}

	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		err := huh.NewInput().
			Title("Value for " + args[0]).
			EchoMode(huh.EchoModePassword).
			Value(&value).
			Run()
		if err != nil {
			return err
		}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.New("token value is empty")
	}

	ctx := context.Background()
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.SetAPIToken(ctx, name, value); err != nil {
		return err
	}
	fmt.Printf("  Stored %s (%s)\n", args[0], maskAPIKey(value))
	return nil
}
