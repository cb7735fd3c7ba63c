package adsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/BrunoRangell/app-muran-sub008/internal/budget"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultMetaBaseURL is the Graph API host.
const DefaultMetaBaseURL = "https://graph.facebook.com"

// Meta reads ad accounts through the Graph API.
type Meta struct {
	baseURL string
	version string
	token   TokenFunc
	http    *http.Client
}

// NewMeta creates a Graph API client. Empty baseURL and version use the defaults.
func NewMeta(baseURL, version string, token TokenFunc) *Meta {
	if baseURL == "" {
		baseURL = DefaultMetaBaseURL
	}
	if version == "" {
		version = "v22.0"
	}
	return &Meta{
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
		token:   token,
		http:    &http.Client{},
	}
}

// Platform implements Source.
func (m *Meta) Platform() model.Platform { return model.PlatformMeta }

type metaPaging struct {
	Next string `json:"next"`
}

type metaAccount struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type metaInsightRow struct {
	Spend     string `json:"spend"`
	DateStart string `json:"date_start"`
}

type metaCampaign struct {
	ID          string `json:"id"`
	DailyBudget string `json:"daily_budget"`
}

type metaAdSet struct {
	ID          string `json:"id"`
	CampaignID  string `json:"campaign_id"`
	DailyBudget string `json:"daily_budget"`
}

// FetchAccount implements Source.
func (m *Meta) FetchAccount(ctx context.Context, accountID string) (AccountInfo, error) {
	q := url.Values{"fields": {"id,name,currency"}}
	body, err := m.get(ctx, m.endpoint(accountPath(accountID), q))
	if err != nil {
		return AccountInfo{}, err
	}
	var raw metaAccount
	if err := json.Unmarshal(body, &raw); err != nil {
		return AccountInfo{}, fmt.Errorf("adsapi: parsing meta account: %w", err)
	}
	return AccountInfo{ID: raw.ID, Name: raw.Name, Currency: raw.Currency}, nil
}

// FetchDailySpend implements Source using account-level insights split per day.
func (m *Meta) FetchDailySpend(ctx context.Context, accountID string, window budget.DateRange) ([]DailySpend, error) {
	timeRange, _ := json.Marshal(map[string]string{
		"since": window.Start.Format(budget.DateFormat),
		"until": window.End.Format(budget.DateFormat),
	})
	q := url.Values{
		"fields":         {"spend"},
		"level":          {"account"},
		"time_increment": {"1"},
		"time_range":     {string(timeRange)},
		"limit":          {"100"},
	}

	var out []DailySpend
	err := m.paginate(ctx, m.endpoint(accountPath(accountID)+"/insights", q), func(data json.RawMessage) error {
		var rows []metaInsightRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("adsapi: parsing meta insights: %w", err)
		}
		for _, r := range rows {
			d, err := r.toDailySpend()
			if err != nil {
				return err
			}
			out = append(out, d)
		}
		return nil
	})
	return out, err
}

func (r metaInsightRow) toDailySpend() (DailySpend, error) {
	date, err := parseSpendDate(r.DateStart)
	if err != nil {
		return DailySpend{}, fmt.Errorf("adsapi: meta insight date %q: %w", r.DateStart, err)
	}
	amount := decimal.Zero
	if r.Spend != "" {
		if amount, err = decimal.NewFromString(r.Spend); err != nil {
			return DailySpend{}, fmt.Errorf("adsapi: meta spend %q: %w", r.Spend, err)
		}
	}
	d := DailySpend{Date: date, Amount: amount}
	return d, d.Validate()
}

// FetchDailyBudget implements Source. Campaign budgets count once; ad set
// budgets count only for campaigns without a budget of their own. Graph API
// budgets are in minor units.
func (m *Meta) FetchDailyBudget(ctx context.Context, accountID string) (decimal.Decimal, error) {
	active := url.Values{
		"effective_status": {`["ACTIVE"]`},
		"limit":            {"500"},
	}

	total := decimal.Zero
	budgeted := make(map[string]bool)

	cq := cloneValues(active)
	cq.Set("fields", "id,daily_budget")
	err := m.paginate(ctx, m.endpoint(accountPath(accountID)+"/campaigns", cq), func(data json.RawMessage) error {
		var rows []metaCampaign
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("adsapi: parsing meta campaigns: %w", err)
		}
		for _, c := range rows {
			amt, err := minorUnits(c.DailyBudget)
			if err != nil {
				return err
			}
			if amt.IsPositive() {
				budgeted[c.ID] = true
				total = total.Add(amt)
			}
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	aq := cloneValues(active)
	aq.Set("fields", "id,campaign_id,daily_budget")
	err = m.paginate(ctx, m.endpoint(accountPath(accountID)+"/adsets", aq), func(data json.RawMessage) error {
		var rows []metaAdSet
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("adsapi: parsing meta ad sets: %w", err)
		}
		for _, a := range rows {
			if budgeted[a.CampaignID] {
				continue
			}
			amt, err := minorUnits(a.DailyBudget)
			if err != nil {
				return err
			}
			total = total.Add(amt)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// paginate follows paging.next links, handing each data array to fn.
func (m *Meta) paginate(ctx context.Context, first string, fn func(json.RawMessage) error) error {
	next := first
	for page := 0; next != "" && page < maxPages; page++ {
		body, err := m.get(ctx, next)
		if err != nil {
			return err
		}
		var env struct {
			Data   json.RawMessage `json:"data"`
			Paging metaPaging      `json:"paging"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("adsapi: parsing meta page: %w", err)
		}
		if len(env.Data) > 0 {
			if err := fn(env.Data); err != nil {
				return err
			}
		}
		next = env.Paging.Next
	}
	return nil
}

func (m *Meta) endpoint(path string, q url.Values) string {
	return fmt.Sprintf("%s/%s/%s?%s", m.baseURL, m.version, strings.TrimLeft(path, "/"), q.Encode())
}

// get adds the access token to rawURL and performs the request.
func (m *Meta) get(ctx context.Context, rawURL string) ([]byte, error) {
	if m.token == nil {
		return nil, ErrNoToken
	}
	token, err := m.token(ctx)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("adsapi: bad meta url: %w", err)
	}
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()
	return send(ctx, m.http, model.PlatformMeta, http.MethodGet, u.String(), nil, nil)
}

// accountPath normalises "123" and "act_123" to "act_123".
func accountPath(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "act_") {
		return id
	}
	return "act_" + id
}

func minorUnits(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("adsapi: budget %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("adsapi: negative budget %q", s)
	}
	return d.Shift(-2), nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
