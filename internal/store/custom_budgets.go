package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/budget"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/google/uuid"
)

// CustomBudgetFilter narrows ListCustomBudgets. Zero fields match everything.
type CustomBudgetFilter struct {
	ClientID   string
	Platform   model.Platform
	ActiveOnly bool
	On         time.Time // keep budgets whose range contains this date
}

const customBudgetColumns = `id, client_id, account_id, platform, amount, start_date, end_date,
	is_active, description, created_at, updated_at`

func validateCustomBudget(b *model.CustomBudget) error {
	if b.ClientID == "" {
		return errors.New("custom budget needs a client")
	}
	if _, err := model.ParsePlatform(string(b.Platform)); err != nil {
		return err
	}
	if !b.Amount.IsPositive() {
		return errors.New("custom budget amount must be positive")
	}
	if _, err := budget.NewDateRange(b.StartDate, b.EndDate); err != nil {
		return err
	}
	return nil
}

// CreateCustomBudget validates and inserts b.
func (s *Store) CreateCustomBudget(ctx context.Context, b *model.CustomBudget) error {
	if err := validateCustomBudget(b); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO custom_budgets (`+customBudgetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.ClientID, b.AccountID, string(b.Platform), b.Amount.String(),
		formatDate(b.StartDate), formatDate(b.EndDate), boolInt(b.IsActive), b.Description,
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting custom budget: %w", err)
	}
	return nil
}

// UpdateCustomBudget rewrites the mutable fields of b.
func (s *Store) UpdateCustomBudget(ctx context.Context, b *model.CustomBudget) error {
	if err := validateCustomBudget(b); err != nil {
		return err
	}
	b.UpdatedAt = time.Now()

	res, err := s.db.ExecContext(ctx, s.q(`UPDATE custom_budgets
		SET account_id = ?, platform = ?, amount = ?, start_date = ?, end_date = ?,
		    is_active = ?, description = ?, updated_at = ?
		WHERE id = ?`),
		b.AccountID, string(b.Platform), b.Amount.String(), formatDate(b.StartDate), formatDate(b.EndDate),
		boolInt(b.IsActive), b.Description, formatTime(b.UpdatedAt), b.ID,
	)
	if err != nil {
		return fmt.Errorf("updating custom budget: %w", err)
	}
	return requireAffected(res)
}

// GetCustomBudget returns the custom budget with the given ID.
func (s *Store) GetCustomBudget(ctx context.Context, id string) (*model.CustomBudget, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+customBudgetColumns+` FROM custom_budgets WHERE id = ?`), id)
	b, err := scanCustomBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading custom budget: %w", err)
	}
	return b, nil
}

// ListCustomBudgets returns matching budgets, newest first.
func (s *Store) ListCustomBudgets(ctx context.Context, f CustomBudgetFilter) ([]model.CustomBudget, error) {
	query := `SELECT ` + customBudgetColumns + ` FROM custom_budgets WHERE 1 = 1`
	var args []any
	if f.ClientID != "" {
		query += ` AND client_id = ?`
		args = append(args, f.ClientID)
	}
	if f.Platform != "" {
		query += ` AND platform = ?`
		args = append(args, string(f.Platform))
	}
	if f.ActiveOnly {
		query += ` AND is_active = 1`
	}
	if !f.On.IsZero() {
		// ISO dates compare correctly as strings.
		day := formatDate(f.On)
		query += ` AND start_date <= ? AND end_date >= ?`
		args = append(args, day, day)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing custom budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.CustomBudget
	for rows.Next() {
		b, err := scanCustomBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// SetCustomBudgetActive toggles a budget's active flag.
func (s *Store) SetCustomBudgetActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE custom_budgets SET is_active = ?, updated_at = ? WHERE id = ?`),
		boolInt(active), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating custom budget: %w", err)
	}
	return requireAffected(res)
}

// DeleteCustomBudget removes a budget.
func (s *Store) DeleteCustomBudget(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM custom_budgets WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting custom budget: %w", err)
	}
	return requireAffected(res)
}

func scanCustomBudget(r rowScanner) (*model.CustomBudget, error) {
	var b model.CustomBudget
	var platform, amount, start, end, created, updated string
	var active int
	err := r.Scan(&b.ID, &b.ClientID, &b.AccountID, &platform, &amount, &start, &end,
		&active, &b.Description, &created, &updated)
	if err != nil {
		return nil, err
	}
	b.Platform = model.Platform(platform)
	b.Amount = parseDecimal(amount)
	b.StartDate = parseDate(start)
	b.EndDate = parseDate(end)
	b.IsActive = active != 0
	b.CreatedAt = parseTime(created)
	b.UpdatedAt = parseTime(updated)
	return &b, nil
}
