// Package review runs daily budget reviews: it resolves each account's
// active budget period, fetches live spend and evaluates the ideal daily
// budget.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/adsapi"
	"github.com/BrunoRangell/app-muran-sub008/internal/budget"
	"github.com/BrunoRangell/app-muran-sub008/internal/cache"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"
	"github.com/BrunoRangell/app-muran-sub008/internal/store"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoSource is returned when no client is configured for a platform.
	ErrNoSource = errors.New("review: platform not configured")
	// ErrNoBudget is returned for accounts with neither a monthly nor a custom budget.
	ErrNoBudget = errors.New("review: account has no budget")
)

// ProgressFunc is called after each account of a batch.
type ProgressFunc func(current, total int)

// Options tune a Service. Zero values use defaults.
type Options struct {
	Location *time.Location
	Cache    *cache.Cache[*adsapi.AccountSnapshot]
	Now      func() time.Time
}

// Service reviews accounts against their budget periods.
type Service struct {
	store   *store.Store
	sources map[model.Platform]adsapi.Source
	cache   *cache.Cache[*adsapi.AccountSnapshot]
	loc     *time.Location
	now     func() time.Time
}

// New creates a Service over st with one Source per platform.
func New(st *store.Store, sources []adsapi.Source, opts Options) *Service {
	s := &Service{
		store:   st,
		sources: make(map[model.Platform]adsapi.Source, len(sources)),
		cache:   opts.Cache,
		loc:     opts.Location,
		now:     opts.Now,
	}
	for _, src := range sources {
		if src != nil {
			s.sources[src.Platform()] = src
		}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.cache == nil {
		s.cache = cache.New[*adsapi.AccountSnapshot](0, 2*time.Minute)
	}
	return s
}

// Today returns the current civil date in the service's timezone.
func (s *Service) Today() time.Time {
	return budget.Today(s.now(), s.loc)
}

// Location returns the civil timezone reviews are computed in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Platforms returns the configured platforms in display order.
func (s *Service) Platforms() []model.Platform {
	var out []model.Platform
	for _, p := range model.Platforms {
		if _, ok := s.sources[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Invalidate drops cached snapshots for platform, or all of them when
// platform is empty.
func (s *Service) Invalidate(platform model.Platform) {
	if platform == "" {
		s.cache.Purge()
		return
	}
	s.cache.Invalidate(string(platform) + ":")
}

// LookupAccount asks the platform for an account's name and currency.
func (s *Service) LookupAccount(ctx context.Context, platform model.Platform, externalID string) (adsapi.AccountInfo, error) {
	src, ok := s.sources[platform]
	if !ok {
		return adsapi.AccountInfo{}, fmt.Errorf("%w: %s", ErrNoSource, platform.Label())
	}
	return src.FetchAccount(ctx, externalID)
}

// ActiveCustomBudget returns the custom budget that applies to the account
// today, or nil when the monthly cycle applies.
func (s *Service) ActiveCustomBudget(ctx context.Context, account model.Account) (*model.CustomBudget, error) {
	candidates, err := s.store.ListCustomBudgets(ctx, store.CustomBudgetFilter{
		ClientID:   account.ClientID,
		Platform:   account.Platform,
		ActiveOnly: true,
		On:         s.Today(),
	})
	if err != nil {
		return nil, err
	}
	return budget.SelectActiveCustomBudget(candidates, s.Today(), account.ID), nil
}

// ReviewAccount evaluates one account for today and persists the result.
func (s *Service) ReviewAccount(ctx context.Context, t store.ReviewTarget) (*model.Review, error) {
	acct := t.Account
	src, ok := s.sources[acct.Platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, acct.Platform.Label())
	}
	today := s.Today()

	custom, err := s.ActiveCustomBudget(ctx, acct)
	if err != nil {
		return nil, fmt.Errorf("loading custom budgets: %w", err)
	}

	var period budget.Period
	var customRange *budget.DateRange
	if custom != nil {
		r := budget.DateRange{Start: custom.StartDate, End: custom.EndDate}
		customRange = &r
		period = budget.CustomPeriod(custom.Amount, decimal.Zero, r)
	} else {
		if !acct.MonthlyBudget.IsPositive() {
			return nil, ErrNoBudget
		}
		period = budget.MonthlyPeriod(acct.MonthlyBudget, decimal.Zero)
	}
	window := budget.Bounds(today, customRange)

	snap, err := s.snapshot(ctx, src, acct, window, today)
	if err != nil {
		return nil, err
	}
	period.SpentToDate = snap.SpentInWindow

	ev, err := budget.Evaluate(budget.Input{
		Period:             period,
		Today:              today,
		CurrentDailyBudget: snap.CurrentDailyBudget,
		TrailingAverage:    snap.TrailingAverage,
	})
	if err != nil {
		return nil, err
	}

	r := &model.Review{
		ClientID:           t.Client.ID,
		ClientName:         t.Client.Name,
		AccountID:          acct.ID,
		AccountName:        acct.Name,
		Platform:           acct.Platform,
		ReviewDate:         today,
		TotalBudget:        period.TotalBudget,
		Spent:              period.SpentToDate,
		CurrentDailyBudget: snap.CurrentDailyBudget,
		TrailingAverage:    snap.TrailingAverage,
		RemainingDays:      ev.RemainingDays,
		RemainingBudget:    ev.RemainingBudget,
		IdealDailyBudget:   ev.IdealDailyBudget,
		PeriodStart:        ev.Bounds.Start,
		PeriodEnd:          ev.Bounds.End,
		Current:            ev.Current,
		Average:            ev.Average,
		CreatedAt:          s.now(),
	}
	if custom != nil {
		r.CustomBudgetID = custom.ID
	}
	if err := s.store.SaveReview(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) snapshot(ctx context.Context, src adsapi.Source, acct model.Account, window budget.DateRange, today time.Time) (*adsapi.AccountSnapshot, error) {
	key := cache.Key(string(acct.Platform), acct.ExternalID, window.String(), today.Format(budget.DateFormat))
	if snap, ok := s.cache.Get(key); ok {
		return snap, nil
	}
	snap, err := adsapi.Snapshot(ctx, src, acct.ExternalID, window, today)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, snap)
	return snap, nil
}

// ItemError records one failed account of a batch.
type ItemError struct {
	ClientName  string
	AccountName string
	AccountID   string
	Err         error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s / %s: %v", e.ClientName, e.AccountName, e.Err)
}

// BatchResult tallies a batch review.
type BatchResult struct {
	Platform        model.Platform
	Total           int
	Succeeded       int
	Failed          int
	NeedsAdjustment int
	Reviews         []model.Review
	Errors          []ItemError
	StartedAt       time.Time
	Duration        time.Duration
}

// ReviewClient reviews every account one client has on platform.
func (s *Service) ReviewClient(ctx context.Context, clientID string, platform model.Platform, progress ProgressFunc) (*BatchResult, error) {
	return s.run(ctx, store.AccountFilter{ClientID: clientID, Platform: platform}, platform, progress)
}

// ReviewAll reviews every account of every active client on platform.
func (s *Service) ReviewAll(ctx context.Context, platform model.Platform, progress ProgressFunc) (*BatchResult, error) {
	return s.run(ctx, store.AccountFilter{Platform: platform, ActiveOnly: true}, platform, progress)
}

// run reviews targets one at a time. A failing account is recorded and the
// batch moves on; only listing targets or a cancelled context abort it.
func (s *Service) run(ctx context.Context, f store.AccountFilter, platform model.Platform, progress ProgressFunc) (*BatchResult, error) {
	targets, err := s.store.ListReviewTargets(ctx, f)
	if err != nil {
		return nil, err
	}

	res := &BatchResult{Platform: platform, Total: len(targets), StartedAt: s.now()}
	for i, t := range targets {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(res.StartedAt)
			return res, err
		}

		r, err := s.ReviewAccount(ctx, t)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, ItemError{
				ClientName:  t.Client.Name,
				AccountName: t.Account.Name,
				AccountID:   t.Account.ID,
				Err:         err,
			})
		} else {
			res.Succeeded++
			if r.NeedsAdjustment() {
				res.NeedsAdjustment++
			}
			res.Reviews = append(res.Reviews, *r)
		}
		if progress != nil {
			progress(i+1, len(targets))
		}
	}
	res.Duration = time.Since(res.StartedAt)
	return res, nil
}
