package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReviewTarget pairs an ad account with its owning client.
type ReviewTarget struct {
	Client  model.Client
	Account model.Account
}

// AccountFilter narrows ListReviewTargets. Zero fields match everything.
type AccountFilter struct {
	ClientID   string
	Platform   model.Platform
	ActiveOnly bool // only accounts of active clients
}

// CreateAccount inserts a, assigning an ID and creation time when missing.
func (s *Store) CreateAccount(ctx context.Context, a *model.Account) error {
	if a.ClientID == "" || strings.TrimSpace(a.ExternalID) == "" {
		return errors.New("account needs a client and an external id")
	}
	if _, err := model.ParsePlatform(string(a.Platform)); err != nil {
		return err
	}
	if a.MonthlyBudget.IsNegative() {
		return errors.New("monthly budget cannot be negative")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO accounts
		(id, client_id, platform, external_id, name, monthly_budget, is_primary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.ClientID, string(a.Platform), a.ExternalID, a.Name,
		a.MonthlyBudget.String(), boolInt(a.IsPrimary), formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

// GetAccount returns the account with the given ID.
func (s *Store) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT
		id, client_id, platform, external_id, name, monthly_budget, is_primary, created_at
		FROM accounts WHERE id = ?`), id)

	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	return a, nil
}

// SetAccountBudget updates an account's default monthly budget.
func (s *Store) SetAccountBudget(ctx context.Context, id string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.New("monthly budget cannot be negative")
	}
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE accounts SET monthly_budget = ? WHERE id = ?`), amount.String(), id)
	if err != nil {
		return fmt.Errorf("updating account budget: %w", err)
	}
	return requireAffected(res)
}

// ListReviewTargets returns accounts joined with their client, ordered by
// client name then primary account first.
func (s *Store) ListReviewTargets(ctx context.Context, f AccountFilter) ([]ReviewTarget, error) {
	query := `SELECT
		a.id, a.client_id, a.platform, a.external_id, a.name, a.monthly_budget, a.is_primary, a.created_at,
		c.id, c.name, c.status, c.contact_name, c.created_at
		FROM accounts a JOIN clients c ON c.id = a.client_id
		WHERE 1 = 1`
	var args []any
	if f.ClientID != "" {
		query += ` AND a.client_id = ?`
		args = append(args, f.ClientID)
	}
	if f.Platform != "" {
		query += ` AND a.platform = ?`
		args = append(args, string(f.Platform))
	}
	if f.ActiveOnly {
		query += ` AND c.status = ?`
		args = append(args, string(model.ClientActive))
	}
	query += ` ORDER BY c.name, a.is_primary DESC, a.name`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var targets []ReviewTarget
	for rows.Next() {
		var t ReviewTarget
		var platform, budget, acctCreated, status, clientCreated string
		var primary int
		err := rows.Scan(
			&t.Account.ID, &t.Account.ClientID, &platform, &t.Account.ExternalID, &t.Account.Name,
			&budget, &primary, &acctCreated,
			&t.Client.ID, &t.Client.Name, &status, &t.Client.ContactName, &clientCreated,
		)
		if err != nil {
			return nil, err
		}
		t.Account.Platform = model.Platform(platform)
		t.Account.MonthlyBudget = parseDecimal(budget)
		t.Account.IsPrimary = primary != 0
		t.Account.CreatedAt = parseTime(acctCreated)
		t.Client.Status = model.ClientStatus(status)
		t.Client.CreatedAt = parseTime(clientCreated)
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

func scanAccount(r rowScanner) (*model.Account, error) {
	var a model.Account
	var platform, budget, created string
	var primary int
	if err := r.Scan(&a.ID, &a.ClientID, &platform, &a.ExternalID, &a.Name, &budget, &primary, &created); err != nil {
		return nil, err
	}
	a.Platform = model.Platform(platform)
	a.MonthlyBudget = parseDecimal(budget)
	a.IsPrimary = primary != 0
	a.CreatedAt = parseTime(created)
	return &a, nil
}

// parseDecimal reads a money column; Postgres NUMERIC and SQLite TEXT both
// arrive as strings through database/sql.
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
