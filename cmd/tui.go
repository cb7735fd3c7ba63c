package cmd

import (
	"context"
	"fmt"

	"github.com/BrunoRangell/app-muran-sub008/internal/config"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"
	"github.com/BrunoRangell/app-muran-sub008/internal/tui"
	"github.com/BrunoRangell/app-muran-sub008/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive review dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	rt, err := openRuntime(context.Background())
	if err != nil {
		return err
	}
	defer rt.Close()

	theme.SetActive(rt.cfg.Appearance.Theme)
	profile := termenv.TrueColor
	if theme.Active.Name == theme.Terminal.Name {
		profile = termenv.ANSI
	}
	lipgloss.SetColorProfile(profile)

	var platform model.Platform
	if flagPlatform != "" {
		if platform, err = model.ParsePlatform(flagPlatform); err != nil {
			return err
		}
	}

	app := tui.NewApp(rt.svc, rt.store, tui.Options{
		Platform:        platform,
		RefreshInterval: rt.cfg.RefreshInterval(),
		MinRefreshGap:   rt.cfg.MinRefreshGap(),
		AutoRefresh:     rt.cfg.Review.AutoRefresh,
		NeedSetup:       !config.Exists(),
		Config:          rt.cfg,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
