package store

import (
	"context"
	"fmt"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/google/uuid"
)

const reviewSelect = `SELECT
	r.id, r.client_id, c.name, r.account_id, a.name, r.platform, r.review_date,
	r.total_budget, r.spent, r.current_daily_budget, r.trailing_average,
	r.remaining_days, r.remaining_budget, r.ideal_daily_budget, r.custom_budget_id,
	r.period_start, r.period_end,
	r.current_direction, r.current_magnitude, r.average_direction, r.average_magnitude,
	r.created_at
	FROM reviews r
	JOIN accounts a ON a.id = r.account_id
	JOIN clients c ON c.id = r.client_id`

// SaveReview upserts the review for (account, review date). On conflict the
// existing row keeps its ID and r.ID is updated to match.
func (s *Store) SaveReview(ctx context.Context, r *model.Review) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	row := s.db.QueryRowContext(ctx, s.q(`INSERT INTO reviews (
		id, account_id, client_id, platform, review_date,
		total_budget, spent, current_daily_budget, trailing_average,
		remaining_days, remaining_budget, ideal_daily_budget, custom_budget_id,
		period_start, period_end,
		current_direction, current_magnitude, average_direction, average_magnitude,
		created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, review_date) DO UPDATE SET
		total_budget = excluded.total_budget,
		spent = excluded.spent,
		current_daily_budget = excluded.current_daily_budget,
		trailing_average = excluded.trailing_average,
		remaining_days = excluded.remaining_days,
		remaining_budget = excluded.remaining_budget,
		ideal_daily_budget = excluded.ideal_daily_budget,
		custom_budget_id = excluded.custom_budget_id,
		period_start = excluded.period_start,
		period_end = excluded.period_end,
		current_direction = excluded.current_direction,
		current_magnitude = excluded.current_magnitude,
		average_direction = excluded.average_direction,
		average_magnitude = excluded.average_magnitude,
		created_at = excluded.created_at
		RETURNING id`),
		r.ID, r.AccountID, r.ClientID, string(r.Platform), formatDate(r.ReviewDate),
		r.TotalBudget.String(), r.Spent.String(), r.CurrentDailyBudget.String(), r.TrailingAverage.Round(2).String(),
		r.RemainingDays, r.RemainingBudget.String(), r.IdealDailyBudget.String(), r.CustomBudgetID,
		formatDate(r.PeriodStart), formatDate(r.PeriodEnd),
		string(r.Current.Direction), r.Current.Magnitude.String(),
		string(r.Average.Direction), r.Average.Magnitude.String(),
		formatTime(r.CreatedAt),
	)
	if err := row.Scan(&r.ID); err != nil {
		return fmt.Errorf("saving review: %w", err)
	}
	return nil
}

// LatestReviews returns the most recent review of every account on platform.
func (s *Store) LatestReviews(ctx context.Context, platform model.Platform) ([]model.Review, error) {
	query := reviewSelect + `
		WHERE r.platform = ?
		AND r.review_date = (SELECT MAX(r2.review_date) FROM reviews r2 WHERE r2.account_id = r.account_id)
		ORDER BY c.name, a.name`
	return s.queryReviews(ctx, query, string(platform))
}

// ReviewHistory returns up to limit reviews of one account, newest first.
func (s *Store) ReviewHistory(ctx context.Context, accountID string, limit int) ([]model.Review, error) {
	if limit <= 0 {
		limit = 30
	}
	query := reviewSelect + `
		WHERE r.account_id = ?
		ORDER BY r.review_date DESC
		LIMIT ?`
	return s.queryReviews(ctx, query, accountID, limit)
}

func (s *Store) queryReviews(ctx context.Context, query string, args ...any) ([]model.Review, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Review
	for rows.Next() {
		var r model.Review
		var platform, reviewDate, periodStart, periodEnd, created string
		var total, spent, current, avg, remainingBudget, ideal, curMag, avgMag string
		var curDir, avgDir string
		err := rows.Scan(
			&r.ID, &r.ClientID, &r.ClientName, &r.AccountID, &r.AccountName, &platform, &reviewDate,
			&total, &spent, &current, &avg,
			&r.RemainingDays, &remainingBudget, &ideal, &r.CustomBudgetID,
			&periodStart, &periodEnd,
			&curDir, &curMag, &avgDir, &avgMag,
			&created,
		)
		if err != nil {
			return nil, err
		}
		r.Platform = model.Platform(platform)
		r.ReviewDate = parseDate(reviewDate)
		r.TotalBudget = parseDecimal(total)
		r.Spent = parseDecimal(spent)
		r.CurrentDailyBudget = parseDecimal(current)
		r.TrailingAverage = parseDecimal(avg)
		r.RemainingBudget = parseDecimal(remainingBudget)
		r.IdealDailyBudget = parseDecimal(ideal)
		r.PeriodStart = parseDate(periodStart)
		r.PeriodEnd = parseDate(periodEnd)
		r.Current = model.Recommendation{
			Basis:     model.BasisCurrentConfigured,
			Direction: model.Direction(curDir),
			Magnitude: parseDecimal(curMag),
		}
		r.Average = model.Recommendation{
			Basis:     model.BasisTrailingAverage,
			Direction: model.Direction(avgDir),
			Magnitude: parseDecimal(avgMag),
		}
		r.CreatedAt = parseTime(created)
		out = append(out, r)
	}
	return out, rows.Err()
}
