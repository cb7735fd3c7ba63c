// Package model defines domain types for muran clients, accounts, budgets and reviews.
package model

import (
	"fmt"
	"strings"
)

// Platform identifies an ad platform.
type Platform string

const (
	PlatformMeta   Platform = "meta"
	PlatformGoogle Platform = "google"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{PlatformMeta, PlatformGoogle}

// ParsePlatform accepts "meta", "google" and a few common aliases.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "meta", "facebook", "fb":
		return PlatformMeta, nil
	case "google", "gads", "google-ads":
		return PlatformGoogle, nil
	}
	return "", fmt.Errorf("unknown platform %q (want meta or google)", s)
}

// Label returns the human-readable platform name.
func (p Platform) Label() string {
	switch p {
	case PlatformMeta:
		return "Meta Ads"
	case PlatformGoogle:
		return "Google Ads"
	}
	return string(p)
}
