// Package adsapi fetches spend and budget data from the Meta Marketing API
// and the Google Ads API.
package adsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"
)

const (
	requestTimeout = 15 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
	maxPages       = 50
	userAgent      = "github.com/BrunoRangell/muran/1.0"
)

var (
	// ErrUnauthorized indicates the access token is expired, revoked or lacks permission.
	ErrUnauthorized = errors.New("adsapi: unauthorized (token expired or invalid)")
	// ErrRateLimited indicates the platform throttled the request.
	ErrRateLimited = errors.New("adsapi: rate limited")
	// ErrNoToken indicates no access token is configured for a platform.
	ErrNoToken = errors.New("adsapi: no access token configured")
)

// APIError is a decoded error envelope returned by an ad platform.
type APIError struct {
	Platform   model.Platform
	StatusCode int
	Code       int
	Status     string // Meta error type or Google RPC status
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("adsapi: %s error (http %d, code %d %s): %s",
		e.Platform, e.StatusCode, e.Code, e.Status, e.Message)
}

// Unwrap maps platform error codes onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	if e.Platform == model.PlatformMeta {
		switch e.Code {
		case 102, 190:
			return ErrUnauthorized
		case 4, 17, 32, 613, 80004:
			return ErrRateLimited
		}
	}
	if e.Status == "UNAUTHENTICATED" || e.Status == "PERMISSION_DENIED" {
		return ErrUnauthorized
	}
	if e.Status == "RESOURCE_EXHAUSTED" {
		return ErrRateLimited
	}
	return nil
}

// errorEnvelope covers both the Graph API and Google RPC error shapes.
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
		Type    string `json:"type"`
		Status  string `json:"status"`
	} `json:"error"`
}

func decodeAPIError(platform model.Platform, status int, body []byte) error {
	apiErr := &APIError{Platform: platform, StatusCode: status}

	var env errorEnvelope
	body = bytes.TrimSpace(body)
	switch {
	case len(body) > 0 && body[0] == '[':
		// Google streaming endpoints wrap the envelope in an array.
		var list []errorEnvelope
		if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
			env = list[0]
		}
	default:
		_ = json.Unmarshal(body, &env)
	}

	apiErr.Code = env.Error.Code
	apiErr.Message = env.Error.Message
	apiErr.Status = env.Error.Status
	if apiErr.Status == "" {
		apiErr.Status = env.Error.Type
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// TokenFunc resolves an access token at request time.
type TokenFunc func(ctx context.Context) (string, error)

// StaticToken returns a TokenFunc for a fixed token.
func StaticToken(token string) TokenFunc {
	return func(context.Context) (string, error) {
		if token == "" {
			return "", ErrNoToken
		}
		return token, nil
	}
}

// TokenStore is the persisted token lookup, satisfied by *store.Store.
type TokenStore interface {
	GetAPIToken(ctx context.Context, name string) (string, error)
}

// StoredToken prefers the configured value and falls back to the token
// persisted under name.
func StoredToken(configured string, ts TokenStore, name string) TokenFunc {
	return func(ctx context.Context) (string, error) {
		if configured != "" {
			return configured, nil
		}
		if ts == nil {
			return "", ErrNoToken
		}
		tok, err := ts.GetAPIToken(ctx, name)
		if err != nil || tok == "" {
			return "", fmt.Errorf("%w (%s): %v", ErrNoToken, name, err)
		}
		return tok, nil
	}
}

// send performs one request and returns the response body. Non-2xx
// responses are decoded into *APIError.
func send(ctx context.Context, hc *http.Client, platform model.Platform, method, url string, body []byte, header http.Header) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("adsapi: creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adsapi: %s request failed: %w", platform, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("adsapi: reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(platform, resp.StatusCode, data)
	}
	return data, nil
}
