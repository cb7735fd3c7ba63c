package review

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/BrunoRangell/app-muran-sub008/internal/adsapi"
	"github.com/BrunoRangell/app-muran-sub008/internal/budget"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"
	"github.com/BrunoRangell/app-muran-sub008/internal/store"

	"github.com/shopspring/decimal"
)

type fakeSource struct {
	days    map[string][]adsapi.DailySpend
	budgets map[string]decimal.Decimal
	fail    map[string]error
	calls   int
}

func (f *fakeSource) Platform() model.Platform { return model.PlatformMeta }

func (f *fakeSource) FetchAccount(_ context.Context, id string) (adsapi.AccountInfo, error) {
	return adsapi.AccountInfo{ID: id, Name: "Remote " + id, Currency: "BRL"}, nil
}

func (f *fakeSource) FetchDailySpend(_ context.Context, id string, _ budget.DateRange) ([]adsapi.DailySpend, error) {
	f.calls++
	if err := f.fail[id]; err != nil {
		return nil, err
	}
	return f.days[id], nil
}

func (f *fakeSource) FetchDailyBudget(_ context.Context, id string) (decimal.Decimal, error) {
	return f.budgets[id], nil
}

func spend(t *testing.T, date string, amount int64) adsapi.DailySpend {
	t.Helper()
	d, err := time.ParseInLocation(budget.DateFormat, date, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	return adsapi.DailySpend{Date: d, Amount: decimal.NewFromInt(amount)}
}

type fixture struct {
	st     *store.Store
	src    *fakeSource
	svc    *Service
	client *model.Client
	acct   *model.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "muran.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	c := &model.Client{Name: "Padaria"}
	if err := st.CreateClient(ctx, c); err != nil {
		t.Fatal(err)
	}
	a := &model.Account{
		ClientID:      c.ID,
		Platform:      model.PlatformMeta,
		ExternalID:    "act_1",
		Name:          "Padaria Meta",
		MonthlyBudget: decimal.NewFromInt(3000),
	}
	if err := st.CreateAccount(ctx, a); err != nil {
		t.Fatal(err)
	}

	src := &fakeSource{
		days: map[string][]adsapi.DailySpend{"act_1": {
			spend(t, "2024-03-15", 1100),
			spend(t, "2024-03-16", 100),
			spend(t, "2024-03-17", 100),
			spend(t, "2024-03-18", 100),
			spend(t, "2024-03-19", 100),
		}},
		budgets: map[string]decimal.Decimal{"act_1": decimal.NewFromInt(100)},
		fail:    map[string]error{},
	}

	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatal(err)
	}
	// 00:30 UTC on the 21st is still the 20th in São Paulo.
	now := time.Date(2024, 3, 21, 0, 30, 0, 0, time.UTC)
	svc := New(st, []adsapi.Source{src}, Options{Location: loc, Now: func() time.Time { return now }})
	return &fixture{st: st, src: src, svc: svc, client: c, acct: a}
}

func (f *fixture) target() store.ReviewTarget {
	return store.ReviewTarget{Client: *f.client, Account: *f.acct}
}

func TestReviewAccountMonthly(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.ReviewAccount(context.Background(), f.target())
	if err != nil {
		t.Fatalf("ReviewAccount: %v", err)
	}
	if got := r.ReviewDate.Format(budget.DateFormat); got != "2024-03-20" {
		t.Fatalf("ReviewDate = %s, want 2024-03-20", got)
	}
	if r.RemainingDays != 12 {
		t.Fatalf("RemainingDays = %d, want 12", r.RemainingDays)
	}
	if !r.Spent.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("Spent = %s, want 1500", r.Spent)
	}
	if !r.IdealDailyBudget.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("IdealDailyBudget = %s, want 125", r.IdealDailyBudget)
	}
	if r.Current.Direction != model.DirectionIncrease || !r.Current.Magnitude.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("Current = %+v, want increase by 25", r.Current)
	}
	if !r.TrailingAverage.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("TrailingAverage = %s, want 300", r.TrailingAverage)
	}
	if r.Average.Direction != model.DirectionDecrease {
		t.Fatalf("Average direction = %s, want decrease", r.Average.Direction)
	}
	if r.UsingCustomBudget() {
		t.Fatal("monthly review should not reference a custom budget")
	}

	history, err := f.st.ReviewHistory(context.Background(), f.acct.ID, 5)
	if err != nil || len(history) != 1 {
		t.Fatalf("ReviewHistory = %d, %v; want 1 persisted review", len(history), err)
	}
}

func TestReviewAccountUsesCustomBudget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cb := &model.CustomBudget{
		ClientID:  f.client.ID,
		Platform:  model.PlatformMeta,
		Amount:    decimal.NewFromInt(600),
		StartDate: time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
	if err := f.st.CreateCustomBudget(ctx, cb); err != nil {
		t.Fatalf("CreateCustomBudget: %v", err)
	}

	r, err := f.svc.ReviewAccount(ctx, f.target())
	if err != nil {
		t.Fatalf("ReviewAccount: %v", err)
	}
	if r.CustomBudgetID != cb.ID {
		t.Fatalf("CustomBudgetID = %q, want %q", r.CustomBudgetID, cb.ID)
	}
	if r.RemainingDays != 3 {
		t.Fatalf("RemainingDays = %d, want 3", r.RemainingDays)
	}
	if !r.Spent.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("Spent = %s, want 200", r.Spent)
	}
	if want := decimal.RequireFromString("133.33"); !r.IdealDailyBudget.Equal(want) {
		t.Fatalf("IdealDailyBudget = %s, want %s", r.IdealDailyBudget, want)
	}
}

func TestReviewAccountCachesSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.svc.ReviewAccount(ctx, f.target()); err != nil {
			t.Fatalf("ReviewAccount: %v", err)
		}
	}
	if f.src.calls != 1 {
		t.Fatalf("spend fetches = %d, want 1", f.src.calls)
	}

	f.svc.Invalidate(model.PlatformMeta)
	if _, err := f.svc.ReviewAccount(ctx, f.target()); err != nil {
		t.Fatalf("ReviewAccount: %v", err)
	}
	if f.src.calls != 2 {
		t.Fatalf("spend fetches after invalidate = %d, want 2", f.src.calls)
	}
}

func TestReviewAllTalliesFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	broken := &model.Account{
		ClientID:      f.client.ID,
		Platform:      model.PlatformMeta,
		ExternalID:    "act_2",
		Name:          "Broken",
		MonthlyBudget: decimal.NewFromInt(1000),
	}
	noBudget := &model.Account{ClientID: f.client.ID, Platform: model.PlatformMeta, ExternalID: "act_3", Name: "Empty"}
	for _, a := range []*model.Account{broken, noBudget} {
		if err := f.st.CreateAccount(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	f.src.fail["act_2"] = adsapi.ErrUnauthorized

	var ticks []int
	res, err := f.svc.ReviewAll(ctx, model.PlatformMeta, func(cur, total int) { ticks = append(ticks, cur) })
	if err != nil {
		t.Fatalf("ReviewAll: %v", err)
	}
	if res.Total != 3 || res.Succeeded != 1 || res.Failed != 2 {
		t.Fatalf("tally = %d/%d/%d, want 3 total, 1 ok, 2 failed", res.Total, res.Succeeded, res.Failed)
	}
	if res.NeedsAdjustment != 1 {
		t.Fatalf("NeedsAdjustment = %d, want 1", res.NeedsAdjustment)
	}
	if len(ticks) != 3 || ticks[2] != 3 {
		t.Fatalf("progress ticks = %v, want [1 2 3]", ticks)
	}

	var sawAuth, sawNoBudget bool
	for _, e := range res.Errors {
		sawAuth = sawAuth || errors.Is(e.Err, adsapi.ErrUnauthorized)
		sawNoBudget = sawNoBudget || errors.Is(e.Err, ErrNoBudget)
	}
	if !sawAuth || !sawNoBudget {
		t.Fatalf("errors = %v, want unauthorized and no-budget failures", res.Errors)
	}
}

func TestReviewAllSkipsInactiveClients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.st.SetClientStatus(ctx, f.client.ID, model.ClientInactive); err != nil {
		t.Fatal(err)
	}
	res, err := f.svc.ReviewAll(ctx, model.PlatformMeta, nil)
	if err != nil {
		t.Fatalf("ReviewAll: %v", err)
	}
	if res.Total != 0 {
		t.Fatalf("Total = %d, want 0", res.Total)
	}
}

func TestReviewAccountWithoutSource(t *testing.T) {
	f := newFixture(t)
	tgt := f.target()
	tgt.Account.Platform = model.PlatformGoogle
	if _, err := f.svc.ReviewAccount(context.Background(), tgt); !errors.Is(err, ErrNoSource) {
		t.Fatalf("err = %v, want ErrNoSource", err)
	}
}

func TestLookupAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	info, err := f.svc.LookupAccount(ctx, model.PlatformMeta, "act_9")
	if err != nil {
		t.Fatalf("LookupAccount: %v", err)
	}
	if info.Name != "Remote act_9" {
		t.Fatalf("Name = %q, want Remote act_9", info.Name)
	}
	if _, err := f.svc.LookupAccount(ctx, model.PlatformGoogle, "1"); !errors.Is(err, ErrNoSource) {
		t.Fatalf("err = %v, want ErrNoSource", err)
	}
}
