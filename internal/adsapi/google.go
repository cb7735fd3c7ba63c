package adsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/BrunoRangell/app-muran-sub008/internal/budget"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
)

const (
	// DefaultGoogleBaseURL is the Google Ads REST host.
	DefaultGoogleBaseURL = "https://googleads.googleapis.com"
	// GoogleTokenURL is Google's OAuth2 token endpoint.
	GoogleTokenURL = "https://oauth2.googleapis.com/token"
)

// GoogleConfig configures a Google Ads client.
type GoogleConfig struct {
	BaseURL         string
	APIVersion      string
	TokenURL        string
	ClientID        string
	ClientSecret    string
	RefreshToken    TokenFunc
	DeveloperToken  string
	LoginCustomerID string // manager account, sent as login-customer-id
}

// Google reads customer accounts through the Google Ads REST API.
type Google struct {
	cfg   GoogleConfig
	oauth *oauth2.Config

	mu     sync.Mutex
	client *http.Client
}

// NewGoogle creates a Google Ads client. The OAuth2 client is built on the
// first request so the refresh token can come from the token store.
func NewGoogle(cfg GoogleConfig) *Google {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGoogleBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v20"
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = GoogleTokenURL
	}
	return &Google{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://accounts.google.com/o/oauth2/auth",
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"https://www.googleapis.com/auth/adwords"},
		},
	}
}

// Platform implements Source.
func (g *Google) Platform() model.Platform { return model.PlatformGoogle }

type googleSearchResponse struct {
	Results       []googleRow `json:"results"`
	NextPageToken string      `json:"nextPageToken"`
}

type googleRow struct {
	Customer *struct {
		ID              string `json:"id"`
		DescriptiveName string `json:"descriptiveName"`
		CurrencyCode    string `json:"currencyCode"`
	} `json:"customer"`
	Segments *struct {
		Date string `json:"date"`
	} `json:"segments"`
	Metrics *struct {
		CostMicros string `json:"costMicros"`
	} `json:"metrics"`
	CampaignBudget *struct {
		ResourceName string `json:"resourceName"`
		AmountMicros string `json:"amountMicros"`
	} `json:"campaignBudget"`
}

// FetchAccount implements Source.
func (g *Google) FetchAccount(ctx context.Context, accountID string) (AccountInfo, error) {
	rows, err := g.search(ctx, accountID,
		`SELECT customer.id, customer.descriptive_name, customer.currency_code FROM customer LIMIT 1`)
	if err != nil {
		return AccountInfo{}, err
	}
	for _, r := range rows {
		if r.Customer != nil {
			return AccountInfo{ID: r.Customer.ID, Name: r.Customer.DescriptiveName, Currency: r.Customer.CurrencyCode}, nil
		}
	}
	return AccountInfo{}, fmt.Errorf("adsapi: google customer %s not found", accountID)
}

// FetchDailySpend implements Source, summing campaign cost per date.
func (g *Google) FetchDailySpend(ctx context.Context, accountID string, window budget.DateRange) ([]DailySpend, error) {
	query := fmt.Sprintf(`SELECT segments.date, metrics.cost_micros FROM customer
		WHERE segments.date BETWEEN '%s' AND '%s'`,
		window.Start.Format(budget.DateFormat), window.End.Format(budget.DateFormat))
	rows, err := g.search(ctx, accountID, query)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]int)
	var out []DailySpend
	for _, r := range rows {
		if r.Segments == nil || r.Metrics == nil {
			continue
		}
		d, err := r.toDailySpend()
		if err != nil {
			return nil, err
		}
		if i, ok := byDate[r.Segments.Date]; ok {
			out[i].Amount = out[i].Amount.Add(d.Amount)
			continue
		}
		byDate[r.Segments.Date] = len(out)
		out = append(out, d)
	}
	return out, nil
}

func (r googleRow) toDailySpend() (DailySpend, error) {
	date, err := parseSpendDate(r.Segments.Date)
	if err != nil {
		return DailySpend{}, fmt.Errorf("adsapi: google segment date %q: %w", r.Segments.Date, err)
	}
	amount, err := micros(r.Metrics.CostMicros)
	if err != nil {
		return DailySpend{}, err
	}
	d := DailySpend{Date: date, Amount: amount}
	return d, d.Validate()
}

// FetchDailyBudget implements Source. Shared budgets are counted once.
func (g *Google) FetchDailyBudget(ctx context.Context, accountID string) (decimal.Decimal, error) {
	rows, err := g.search(ctx, accountID, `SELECT campaign.id, campaign_budget.resource_name, campaign_budget.amount_micros
		FROM campaign WHERE campaign.status = 'ENABLED'`)
	if err != nil {
		return decimal.Zero, err
	}

	seen := make(map[string]bool)
	total := decimal.Zero
	for _, r := range rows {
		if r.CampaignBudget == nil {
			continue
		}
		if name := r.CampaignBudget.ResourceName; name != "" {
			if seen[name] {
				continue
			}
			seen[name] = true
		}
		amt, err := micros(r.CampaignBudget.AmountMicros)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amt)
	}
	return total, nil
}

// search runs a GAQL query and collects every page.
func (g *Google) search(ctx context.Context, accountID, query string) ([]googleRow, error) {
	hc, err := g.httpClient(ctx)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("developer-token", g.cfg.DeveloperToken)
	if g.cfg.LoginCustomerID != "" {
		header.Set("login-customer-id", customerID(g.cfg.LoginCustomerID))
	}
	url := fmt.Sprintf("%s/%s/customers/%s/googleAds:search", g.cfg.BaseURL, g.cfg.APIVersion, customerID(accountID))

	var rows []googleRow
	pageToken := ""
	for page := 0; page < maxPages; page++ {
		req := map[string]string{"query": query}
		if pageToken != "" {
			req["pageToken"] = pageToken
		}
		payload, _ := json.Marshal(req)

		body, err := send(ctx, hc, model.PlatformGoogle, http.MethodPost, url, payload, header)
		var refreshErr *oauth2.RetrieveError
		if errors.As(err, &refreshErr) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, refreshErr)
		}
		if err != nil {
			return nil, err
		}
		var resp googleSearchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("adsapi: parsing google search: %w", err)
		}
		rows = append(rows, resp.Results...)
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return rows, nil
}

func (g *Google) httpClient(ctx context.Context) (*http.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	if g.cfg.DeveloperToken == "" || g.cfg.RefreshToken == nil {
		return nil, ErrNoToken
	}
	refresh, err := g.cfg.RefreshToken(ctx)
	if err != nil {
		return nil, err
	}
	// The token source outlives ctx, so it refreshes on a background context.
	g.client = g.oauth.Client(context.Background(), &oauth2.Token{RefreshToken: refresh})
	return g.client, nil
}

// customerID strips the dashes of the 123-456-7890 display form.
func customerID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}

func micros(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("adsapi: micros %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("adsapi: negative micros %q", s)
	}
	return d.Shift(-6), nil
}
