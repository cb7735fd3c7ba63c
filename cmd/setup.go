package cmd

import (
	"errors"
	"fmt"

	"github.com/BrunoRangell/app-muran-sub008/internal/config"
	"github.com/BrunoRangell/app-muran-sub008/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Start from the file only; env overrides must not be written back.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	vals := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(&vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	if err := vals.Apply(&cfg); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("\n  Saved to %s\n", config.Path())
	if cfg.Meta.AccessToken == "" {
		fmt.Println("  Meta token not set: use MURAN_META_ACCESS_TOKEN or `muran tokens set meta`.")
	}
	fmt.Println("  Next: muran clients add \"Client name\"")
	return nil
}
