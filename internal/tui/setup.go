package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/config"
	"github.com/BrunoRangell/app-muran-sub008/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/robfig/cron/v3"
)

// SetupValues holds the answers of the first-run setup form.
type SetupValues struct {
	Timezone             string
	MetaAccessToken      string
	GoogleClientID       string
	GoogleClientSecret   string
	GoogleRefreshToken   string
	GoogleDeveloperToken string
	Schedule             string
	TelegramToken        string
	TelegramChatID       string
	Theme                string
}

// SetupValuesFrom prefills the form from an existing config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	v := SetupValues{
		Timezone:             cfg.General.Timezone,
		MetaAccessToken:      cfg.Meta.AccessToken,
		GoogleClientID:       cfg.Google.ClientID,
		GoogleClientSecret:   cfg.Google.ClientSecret,
		GoogleRefreshToken:   cfg.Google.RefreshToken,
		GoogleDeveloperToken: cfg.Google.DeveloperToken,
		Schedule:             cfg.Review.Schedule,
		TelegramToken:        cfg.Notify.TelegramToken,
		Theme:                cfg.Appearance.Theme,
	}
	if cfg.Notify.TelegramChatID != 0 {
		v.TelegramChatID = strconv.FormatInt(cfg.Notify.TelegramChatID, 10)
	}
	return v
}

// Apply copies the answers onto cfg. Blank secrets keep the current value.
func (v SetupValues) Apply(cfg *config.Config) error {
	if tz := strings.TrimSpace(v.Timezone); tz != "" {
		if err := validateTimezone(tz); err != nil {
			return err
		}
		cfg.General.Timezone = tz
	}
	if s := strings.TrimSpace(v.Schedule); s != "" {
		if err := validateSchedule(s); err != nil {
			return err
		}
		cfg.Review.Schedule = s
	}

	keep(&cfg.Meta.AccessToken, v.MetaAccessToken)
	keep(&cfg.Google.ClientID, v.GoogleClientID)
	keep(&cfg.Google.ClientSecret, v.GoogleClientSecret)
	keep(&cfg.Google.RefreshToken, v.GoogleRefreshToken)
	keep(&cfg.Google.DeveloperToken, v.GoogleDeveloperToken)
	keep(&cfg.Notify.TelegramToken, v.TelegramToken)

	if id := strings.TrimSpace(v.TelegramChatID); id != "" {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return fmt.Errorf("telegram chat id %q is not a number", id)
		}
		cfg.Notify.TelegramChatID = n
	}
	if v.Theme != "" {
		cfg.Appearance.Theme = theme.ByName(v.Theme).Name
	}
	return nil
}

func keep(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func validateTimezone(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := time.LoadLocation(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("unknown timezone %q", s)
	}
	return nil
}

func validateSchedule(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := cron.ParseStandard(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	return nil
}

// NewSetupForm builds the setup wizard writing into vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to muran").
				Description("Daily budget review for Meta Ads and Google Ads accounts.\nLeave a field blank to keep its current value."),
			huh.NewInput().
				Title("Timezone").
				Description("Decides what \"today\" is for every review.").
				Placeholder(config.DefaultTimezone).
				Value(&vals.Timezone).
				Validate(validateTimezone),
			huh.NewInput().
				Title("Review schedule (cron)").
				Placeholder("0 8 * * *").
				Value(&vals.Schedule).
				Validate(validateSchedule),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Meta access token").
				Description("System user token with ads_read permission.").
				EchoMode(huh.EchoModePassword).
				Value(&vals.MetaAccessToken),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Google Ads OAuth client ID").
				Value(&vals.GoogleClientID),
			huh.NewInput().
				Title("Google Ads OAuth client secret").
				EchoMode(huh.EchoModePassword).
				Value(&vals.GoogleClientSecret),
			huh.NewInput().
				Title("Google Ads refresh token").
				EchoMode(huh.EchoModePassword).
				Value(&vals.GoogleRefreshToken),
			huh.NewInput().
				Title("Google Ads developer token").
				EchoMode(huh.EchoModePassword).
				Value(&vals.GoogleDeveloperToken),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram bot token").
				Description("Optional. Alerts after each scheduled review.").
				EchoMode(huh.EchoModePassword).
				Value(&vals.TelegramToken),
			huh.NewInput().
				Title("Telegram chat ID").
				Value(&vals.TelegramChatID).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
						return fmt.Errorf("must be a number")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	)
}

func (a *App) saveSetupConfig() error {
	cfg, _ := config.Load()
	if err := a.setupVals.Apply(&cfg); err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)
	return config.Save(cfg)
}
