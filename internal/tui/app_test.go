package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/config"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"
	"github.com/BrunoRangell/app-muran-sub008/internal/review"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

type fakeReviewer struct {
	mu          sync.Mutex
	platforms   []model.Platform
	calls       int
	invalidated []model.Platform
}

func (f *fakeReviewer) ReviewAll(_ context.Context, p model.Platform, progress review.ProgressFunc) (*review.BatchResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if progress != nil {
		progress(1, 2)
		progress(2, 2)
	}
	return &review.BatchResult{Platform: p, Total: 2, Succeeded: 1, Failed: 1}, nil
}

func (f *fakeReviewer) Invalidate(p model.Platform) {
	f.invalidated = append(f.invalidated, p)
}

func (f *fakeReviewer) Platforms() []model.Platform { return f.platforms }

type fakeLister struct {
	reviews map[model.Platform][]model.Review
}

func (f *fakeLister) LatestReviews(_ context.Context, p model.Platform) ([]model.Review, error) {
	return f.reviews[p], nil
}

func rec(dir model.Direction, amount int64) model.Recommendation {
	return model.Recommendation{
		Basis:     model.BasisCurrentConfigured,
		Direction: dir,
		Magnitude: decimal.NewFromInt(amount),
	}
}

func sampleReviews() []model.Review {
	return []model.Review{
		{ClientName: "Padaria Sol", AccountName: "Sol BR", Current: rec(model.DirectionNone, 0), Average: rec(model.DirectionNone, 0)},
		{ClientName: "Clinica Vida", AccountName: "Vida", Current: rec(model.DirectionIncrease, 40), Average: rec(model.DirectionNone, 0)},
		{ClientName: "Loja Azul", AccountName: "Azul", Current: rec(model.DirectionDecrease, 10), Average: rec(model.DirectionDecrease, 80)},
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestApp(t *testing.T) (App, *fakeReviewer, *fakeLister) {
	t.Helper()
	rv := &fakeReviewer{platforms: []model.Platform{model.PlatformMeta, model.PlatformGoogle}}
	ls := &fakeLister{reviews: map[model.Platform][]model.Review{model.PlatformMeta: sampleReviews()}}
	a := NewApp(rv, ls, Options{RefreshInterval: time.Minute, MinRefreshGap: time.Hour})

	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	a = m.(App)
	m, _ = a.Update(loadReviewsCmd(ls, model.PlatformMeta)())
	return m.(App), rv, ls
}

func TestLoadSortsByUrgency(t *testing.T) {
	a, _, _ := newTestApp(t)

	if !a.loaded {
		t.Fatal("loaded = false, want true")
	}
	if len(a.visible) != 3 {
		t.Fatalf("visible = %d, want 3", len(a.visible))
	}
	if a.visible[0].ClientName != "Loja Azul" {
		t.Fatalf("first = %q, want Loja Azul", a.visible[0].ClientName)
	}
	if a.visible[2].ClientName != "Padaria Sol" {
		t.Fatalf("last = %q, want Padaria Sol", a.visible[2].ClientName)
	}
}

func TestAdjustFilterToggle(t *testing.T) {
	a, _, _ := newTestApp(t)

	m, _ := a.Update(key("a"))
	a = m.(App)
	if len(a.visible) != 2 {
		t.Fatalf("visible = %d, want 2", len(a.visible))
	}
	m, _ = a.Update(key("a"))
	a = m.(App)
	if len(a.visible) != 3 {
		t.Fatalf("visible = %d, want 3", len(a.visible))
	}
}

func TestClientFilterInput(t *testing.T) {
	a, _, _ := newTestApp(t)

	m, _ := a.Update(key("/"))
	a = m.(App)
	if !a.filtering {
		t.Fatal("filtering = false, want true")
	}
	for _, r := range "vida" {
		m, _ = a.Update(key(string(r)))
		a = m.(App)
	}
	if len(a.visible) != 1 || a.visible[0].ClientName != "Clinica Vida" {
		t.Fatalf("visible = %+v, want only Clinica Vida", a.visible)
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	a = m.(App)
	if a.filtering || len(a.visible) != 3 {
		t.Fatalf("after esc filtering=%v visible=%d, want false 3", a.filtering, len(a.visible))
	}
}

func drainRefresh(t *testing.T, a App) App {
	t.Helper()
	for {
		msg := waitForLoadMsg(a.loadSub)()
		m, cmd := a.Update(msg)
		a = m.(App)
		if _, done := msg.(refreshDoneMsg); done {
			if cmd == nil {
				t.Fatal("refresh done should reload reviews")
			}
			return a
		}
	}
}

func TestManualRefreshIsDebounced(t *testing.T) {
	a, rv, _ := newTestApp(t)

	m, _ := a.Update(key("r"))
	a = m.(App)
	if !a.refreshing {
		t.Fatal("refreshing = false, want true")
	}
	if len(rv.invalidated) != 1 || rv.invalidated[0] != model.PlatformMeta {
		t.Fatalf("invalidated = %v, want [meta]", rv.invalidated)
	}

	a = drainRefresh(t, a)
	if a.refreshing {
		t.Fatal("refreshing = true after done")
	}
	if a.progress != 2 || a.progressOf != 2 {
		t.Fatalf("progress = %d/%d, want 2/2", a.progress, a.progressOf)
	}
	if a.lastBatch == nil || a.lastBatch.Failed != 1 {
		t.Fatalf("lastBatch = %+v, want one failure", a.lastBatch)
	}
	if !strings.Contains(a.notice, "1 of 2") {
		t.Fatalf("notice = %q, want failure count", a.notice)
	}

	m, _ = a.Update(key("r"))
	a = m.(App)
	if a.refreshing {
		t.Fatal("second refresh inside the gap should be ignored")
	}
	if !strings.HasPrefix(a.notice, "refresh ignored") {
		t.Fatalf("notice = %q, want refresh ignored", a.notice)
	}
	if rv.calls != 1 {
		t.Fatalf("ReviewAll calls = %d, want 1", rv.calls)
	}
}

func TestAutoRefreshOnTick(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.autoRefresh = true

	m, _ := a.Update(tickMsg{})
	a = m.(App)
	if a.refreshing {
		t.Fatal("refresh should wait for the interval")
	}

	a.lastRefresh = a.now().Add(-2 * time.Minute)
	m, _ = a.Update(tickMsg{})
	a = m.(App)
	if !a.refreshing {
		t.Fatal("refreshing = false after interval, want true")
	}
	drainRefresh(t, a)
}

func TestSwitchPlatformLoadsOnce(t *testing.T) {
	a, _, _ := newTestApp(t)

	m, cmd := a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a = m.(App)
	if a.platform != model.PlatformGoogle {
		t.Fatalf("platform = %s, want google", a.platform)
	}
	if cmd == nil {
		t.Fatal("switching to an unloaded platform should load it")
	}
	m, _ = a.Update(cmd())
	a = m.(App)
	if len(a.visible) != 0 {
		t.Fatalf("visible = %d, want 0", len(a.visible))
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a = m.(App)
	m, cmd = a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a = m.(App)
	if cmd != nil {
		t.Fatal("already loaded platform should not reload")
	}
}

func TestViewShowsReviews(t *testing.T) {
	a, _, _ := newTestApp(t)

	out := a.View()
	for _, want := range []string{"muran", "Meta Ads", "Loja Azul", "R$ 80,00", "Need adjustment"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q", want)
		}
	}

	a.width = 40
	if !strings.Contains(a.View(), "too narrow") {
		t.Fatal("narrow view should warn")
	}
}

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Meta.AccessToken = "old"

	v := SetupValues{
		Timezone:       "America/Manaus",
		TelegramChatID: "-100123",
		Theme:          "terminal",
		Schedule:       "30 7 * * 1-5",
	}
	if err := v.Apply(&cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.Meta.AccessToken != "old" {
		t.Fatalf("AccessToken = %q, want old kept", cfg.Meta.AccessToken)
	}
	if cfg.General.Timezone != "America/Manaus" || cfg.Notify.TelegramChatID != -100123 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Review.Schedule != "30 7 * * 1-5" || cfg.Appearance.Theme != "terminal" {
		t.Fatalf("review=%+v theme=%s", cfg.Review, cfg.Appearance.Theme)
	}

	if err := (SetupValues{Schedule: "not cron"}).Apply(&cfg); err == nil {
		t.Fatal("invalid schedule should fail")
	}
	if err := (SetupValues{TelegramChatID: "abc"}).Apply(&cfg); err == nil {
		t.Fatal("invalid chat id should fail")
	}
}

func TestSpendShares(t *testing.T) {
	r := model.Review{
		TotalBudget:   decimal.NewFromInt(1000),
		Spent:         decimal.NewFromInt(250),
		PeriodStart:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		RemainingDays: 5,
	}
	spent, elapsed := spendShares(r)
	if spent != 0.25 {
		t.Fatalf("spent share = %v, want 0.25", spent)
	}
	if elapsed != 0.5 {
		t.Fatalf("elapsed share = %v, want 0.5", elapsed)
	}

	r.TotalBudget = decimal.Zero
	if spent, _ := spendShares(r); spent != 0 {
		t.Fatalf("spent share without budget = %v, want 0", spent)
	}
}
