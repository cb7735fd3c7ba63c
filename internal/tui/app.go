// Package tui provides the interactive bubbletea dashboard for muran.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/budget"
	"github.com/BrunoRangell/app-muran-sub008/internal/cli"
	"github.com/BrunoRangell/app-muran-sub008/internal/config"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"
	"github.com/BrunoRangell/app-muran-sub008/internal/review"
	"github.com/BrunoRangell/app-muran-sub008/internal/tui/components"
	"github.com/BrunoRangell/app-muran-sub008/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

const (
	minTerminalWidth = 70
	maxContentWidth  = 160
	tickInterval     = time.Second
	loadTimeout      = 15 * time.Second
)

// Reviewer runs review batches for the dashboard.
type Reviewer interface {
	ReviewAll(ctx context.Context, platform model.Platform, progress review.ProgressFunc) (*review.BatchResult, error)
	Invalidate(platform model.Platform)
	Platforms() []model.Platform
}

// ReviewLister reads persisted reviews.
type ReviewLister interface {
	LatestReviews(ctx context.Context, platform model.Platform) ([]model.Review, error)
}

// Options configure the dashboard.
type Options struct {
	Platform        model.Platform // initial tab; empty means the first configured platform
	RefreshInterval time.Duration
	MinRefreshGap   time.Duration
	AutoRefresh     bool
	NeedSetup       bool
	Config          config.Config // prefills the setup form
}

// reviewsLoadedMsg carries the latest persisted reviews of one platform.
type reviewsLoadedMsg struct {
	Platform model.Platform
	Reviews  []model.Review
	Err      error
}

// refreshProgressMsg reports batch progress.
type refreshProgressMsg struct {
	Current int
	Total   int
}

// refreshDoneMsg ends a batch.
type refreshDoneMsg struct {
	Platform model.Platform
	Result   *review.BatchResult
	Err      error
}

type tickMsg struct{}

// App is the root bubbletea model.
type App struct {
	reviewer Reviewer
	lister   ReviewLister

	platforms []model.Platform
	platform  model.Platform
	reviews   map[model.Platform][]model.Review
	loadErr   map[model.Platform]error
	visible   []model.Review
	cursor    int

	onlyAdjust bool
	filter     textinput.Model
	filtering  bool

	loaded     bool
	spinner    spinner.Model
	refreshing bool
	progress   int
	progressOf int
	loadSub    chan tea.Msg
	lastBatch  *review.BatchResult
	notice     string

	debouncer       *review.Debouncer
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time

	showHelp bool
	width    int
	height   int

	needSetup bool
	setupForm *huh.Form
	setupVals SetupValues

	now func() time.Time
}

// NewApp creates the dashboard over a reviewer and the review store.
func NewApp(reviewer Reviewer, lister ReviewLister, opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	fi := textinput.New()
	fi.Placeholder = "client name"
	fi.Prompt = "/ "
	fi.CharLimit = 64

	platforms := reviewer.Platforms()
	if len(platforms) == 0 {
		platforms = model.Platforms
	}
	platform := opts.Platform
	if platform == "" || !containsPlatform(platforms, platform) {
		platform = platforms[0]
	}

	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	gap := opts.MinRefreshGap
	if gap <= 0 {
		gap = 30 * time.Second
	}

	a := App{
		reviewer:        reviewer,
		lister:          lister,
		platforms:       platforms,
		platform:        platform,
		reviews:         make(map[model.Platform][]model.Review),
		loadErr:         make(map[model.Platform]error),
		filter:          fi,
		spinner:         sp,
		debouncer:       review.NewDebouncer(gap),
		autoRefresh:     opts.AutoRefresh,
		refreshInterval: interval,
		needSetup:       opts.NeedSetup,
		now:             time.Now,
	}
	if a.needSetup {
		a.setupVals = SetupValuesFrom(opts.Config)
	}
	return a
}

func containsPlatform(ps []model.Platform, p model.Platform) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		loadReviewsCmd(a.lister, a.platform),
		a.spinner.Tick,
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func loadReviewsCmd(lister ReviewLister, platform model.Platform) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		reviews, err := lister.LatestReviews(ctx, platform)
		return reviewsLoadedMsg{Platform: platform, Reviews: reviews, Err: err}
	}
}

// waitForLoadMsg reads the next message from the refresh goroutine.
func waitForLoadMsg(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// startRefresh invalidates the platform cache and runs a batch in the
// background, streaming progress through loadSub.
func (a App) startRefresh(manual bool) (App, tea.Cmd) {
	if a.refreshing {
		return a, nil
	}
	if !a.debouncer.Allow() {
		if manual {
			a.notice = "refresh ignored: last one was less than " +
				cli.FormatDuration(a.now().Sub(a.debouncer.Last())) + " ago"
		}
		return a, nil
	}

	a.refreshing = true
	a.progress, a.progressOf = 0, 0
	a.notice = ""
	a.reviewer.Invalidate(a.platform)

	ch := make(chan tea.Msg, 16)
	a.loadSub = ch
	reviewer, platform := a.reviewer, a.platform
	go func() {
		defer close(ch)
		res, err := reviewer.ReviewAll(context.Background(), platform, func(current, total int) {
			ch <- refreshProgressMsg{Current: current, Total: total}
		})
		ch <- refreshDoneMsg{Platform: platform, Result: res, Err: err}
	}()

	return a, tea.Batch(waitForLoadMsg(ch), a.spinner.Tick)
}

// recompute rebuilds the visible rows from the active platform's reviews.
func (a *App) recompute() {
	src := a.reviews[a.platform]
	rows := make([]model.Review, len(src))
	copy(rows, src)

	if a.onlyAdjust {
		rows = review.FilterNeedsAdjustment(rows)
	}
	rows = review.FilterByClient(rows, strings.TrimSpace(a.filter.Value()))
	review.SortByUrgency(rows)

	a.visible = rows
	if a.cursor >= len(rows) {
		a.cursor = len(rows) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a App) switchPlatform(step int) (tea.Model, tea.Cmd) {
	if len(a.platforms) < 2 {
		return a, nil
	}
	idx := 0
	for i, p := range a.platforms {
		if p == a.platform {
			idx = i
		}
	}
	idx = (idx + step + len(a.platforms)) % len(a.platforms)
	a.platform = a.platforms[idx]
	a.cursor = 0
	a.recompute()
	if _, ok := a.reviews[a.platform]; !ok {
		return a, loadReviewsCmd(a.lister, a.platform)
	}
	return a, nil
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.KeyMsg:
		if a.needSetup && a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		return a.updateKey(msg)

	case reviewsLoadedMsg:
		first := !a.loaded
		a.loaded = true
		if msg.Err != nil {
			a.loadErr[msg.Platform] = msg.Err
		} else {
			delete(a.loadErr, msg.Platform)
			a.reviews[msg.Platform] = msg.Reviews
		}
		if first {
			a.lastRefresh = a.now()
		}
		a.recompute()

		if first && a.needSetup {
			a.setupForm = NewSetupForm(&a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case refreshProgressMsg:
		a.progress = msg.Current
		a.progressOf = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case refreshDoneMsg:
		a.refreshing = false
		a.loadSub = nil
		a.lastRefresh = a.now()
		a.lastBatch = msg.Result
		if msg.Err != nil {
			a.notice = "refresh failed: " + msg.Err.Error()
		} else if msg.Result != nil && msg.Result.Failed > 0 {
			a.notice = fmt.Sprintf("%d of %d accounts failed", msg.Result.Failed, msg.Result.Total)
		}
		return a, loadReviewsCmd(a.lister, msg.Platform)

	case spinner.TickMsg:
		if !a.loaded || a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && !a.needSetup {
			if a.now().Sub(a.lastRefresh) >= a.refreshInterval {
				var cmd tea.Cmd
				a, cmd = a.startRefresh(false)
				cmds = append(cmds, cmd)
			}
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.filtering {
		var cmd tea.Cmd
		a.filter, cmd = a.filter.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if a.filtering {
		switch key {
		case "enter":
			a.filtering = false
			a.filter.Blur()
			return a, nil
		case "esc":
			a.filtering = false
			a.filter.Blur()
			a.filter.SetValue("")
			a.recompute()
			return a, nil
		}
		var cmd tea.Cmd
		a.filter, cmd = a.filter.Update(msg)
		a.cursor = 0
		a.recompute()
		return a, cmd
	}

	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "?":
		a.showHelp = true
	case "j", "down":
		if a.cursor < len(a.visible)-1 {
			a.cursor++
		}
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
	case "tab", "right", "l":
		return a.switchPlatform(1)
	case "shift+tab", "left", "h":
		return a.switchPlatform(-1)
	case "a":
		a.onlyAdjust = !a.onlyAdjust
		a.cursor = 0
		a.recompute()
	case "/":
		a.filtering = true
		return a, a.filter.Focus()
	case "esc":
		if a.filter.Value() != "" {
			a.filter.SetValue("")
			a.recompute()
		}
	case "r":
		return a.startRefresh(true)
	case "R":
		a.autoRefresh = !a.autoRefresh
		// Persist to config (best-effort, ignore errors)
		cfg, _ := config.Load()
		cfg.Review.AutoRefresh = a.autoRefresh
		_ = config.Save(cfg)
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if err := a.saveSetupConfig(); err != nil {
			a.notice = "setup not saved: " + err.Error()
		} else {
			a.notice = "saved " + config.Path() + "; restart to apply credentials"
		}
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	if a.width > maxContentWidth {
		return maxContentWidth
	}
	return a.width
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  muran needs at least %d columns.\n",
			a.width, minTerminalWidth)
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	body := logoStyle.Render("◈ muran") + mutedStyle.Render(" · budget review") + "\n\n" +
		a.spinner.View() + mutedStyle.Render(" Loading reviews...")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Width(12)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	bindings := []struct{ key, desc string }{
		{"j k", "Move selection"},
		{"tab ← →", "Switch platform"},
		{"a", "Only accounts needing adjustment"},
		{"/", "Filter by client name"},
		{"esc", "Clear filter"},
		{"r", "Review now"},
		{"R", "Toggle auto refresh"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	for _, kb := range bindings {
		b.WriteString(keyStyle.Render(kb.key))
		b.WriteString(descStyle.Render(kb.desc))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(descStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.contentWidth()

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	warnStyle := lipgloss.NewStyle().Foreground(t.Warning)
	errStyle := lipgloss.NewStyle().Foreground(t.Error)

	var sections []string

	header := logoStyle.Render("◈ muran") + "  " + components.RenderPlatformTabs(a.platforms, a.platform)
	sections = append(sections, header)
	sections = append(sections, components.MetricCardRow(a.metrics(), w))

	if err := a.loadErr[a.platform]; err != nil {
		sections = append(sections, errStyle.Render(" could not load reviews: "+err.Error()))
	}

	listHeight := a.height - 14
	if listHeight < 3 {
		listHeight = 3
	}
	sections = append(sections, components.ContentCard(a.listTitle(), a.renderList(components.CardInnerWidth(w), listHeight), w, !a.filtering))

	if sel := a.selected(); sel != nil {
		sections = append(sections, a.renderDetail(*sel, w))
	}

	if a.filtering || a.filter.Value() != "" {
		sections = append(sections, " "+a.filter.View())
	}
	if a.refreshing {
		line := " " + a.spinner.View() + mutedStyle.Render(" Reviewing "+a.platform.Label()+" ")
		if a.progressOf > 0 {
			line += components.ProgressBar(a.progress, a.progressOf, 30)
		}
		sections = append(sections, line)
	} else if a.notice != "" {
		sections = append(sections, warnStyle.Render(" "+a.notice))
	}

	sections = append(sections, components.RenderStatusBar(w, "[r]eview [a]djust [/]filter [?]help [q]uit", a.statusText()))
	return strings.Join(sections, "\n")
}

func (a App) metrics() []components.Metric {
	all := a.reviews[a.platform]
	var adjust, up, down, custom int
	for _, r := range all {
		if r.NeedsAdjustment() {
			adjust++
		}
		if r.Current.Direction == model.DirectionIncrease {
			up++
		}
		if r.Current.Direction == model.DirectionDecrease {
			down++
		}
		if r.UsingCustomBudget() {
			custom++
		}
	}

	last := "never"
	if a.lastBatch != nil {
		last = fmt.Sprintf("%d ok / %d failed", a.lastBatch.Succeeded, a.lastBatch.Failed)
	}

	adjustTone := components.ToneGood
	if adjust > 0 {
		adjustTone = components.ToneWarning
	}
	batchTone := components.ToneNeutral
	if a.lastBatch != nil && a.lastBatch.Failed > 0 {
		batchTone = components.ToneAlert
	}

	return []components.Metric{
		{Label: "Accounts", Value: fmt.Sprintf("%d", len(all)), Delta: fmt.Sprintf("%d custom budgets", custom)},
		{Label: "Need adjustment", Value: fmt.Sprintf("%d", adjust), Tone: adjustTone},
		{Label: "Raise / Lower", Value: fmt.Sprintf("%d / %d", up, down)},
		{Label: "Last batch", Value: last, Tone: batchTone},
	}
}

func (a App) listTitle() string {
	title := a.platform.Label() + " reviews"
	if a.onlyAdjust {
		title += " · needing adjustment"
	}
	if f := strings.TrimSpace(a.filter.Value()); f != "" {
		title += " · client ~ " + f
	}
	return title
}

// listColumns are the review list columns: header and width.
var listColumns = []struct {
	name  string
	width int
}{
	{"Client", 18},
	{"Account", 18},
	{"Days", 5},
	{"Ideal", 13},
	{"Configured", 13},
	{"vs config", 14},
	{"vs 5d avg", 14},
}

func (a App) renderList(width, height int) string {
	t := theme.Active

	if len(a.visible) == 0 {
		msg := "No reviews yet. Press r to review now."
		if len(a.reviews[a.platform]) > 0 {
			msg = "No reviews match the current filter."
		}
		return lipgloss.NewStyle().Foreground(t.TextDim).Render(msg)
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover)

	var b strings.Builder
	var head []string
	for _, c := range listColumns {
		head = append(head, cell(c.name, c.width))
	}
	b.WriteString(headerStyle.Render(truncate(strings.Join(head, " "), width)))

	rows := height - 1
	start := 0
	if a.cursor >= rows {
		start = a.cursor - rows + 1
	}
	end := start + rows
	if end > len(a.visible) {
		end = len(a.visible)
	}

	for i := start; i < end; i++ {
		r := a.visible[i]
		plain := []string{
			cell(r.ClientName, listColumns[0].width),
			cell(r.AccountName, listColumns[1].width),
			cell(fmt.Sprintf("%d", r.RemainingDays), listColumns[2].width),
			cell(cli.FormatBRL(r.IdealDailyBudget), listColumns[3].width),
			cell(cli.FormatBRL(r.CurrentDailyBudget), listColumns[4].width),
		}
		style := rowStyle
		if i == a.cursor {
			style = selStyle
		}
		line := style.Render(strings.Join(plain, " ")) + " " +
			lipgloss.NewStyle().Width(listColumns[5].width).Render(components.Badge(r.Current)) + " " +
			components.Badge(r.Average)
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func (a App) selected() *model.Review {
	if a.cursor < 0 || a.cursor >= len(a.visible) {
		return nil
	}
	r := a.visible[a.cursor]
	return &r
}

func (a App) renderDetail(r model.Review, width int) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary)

	line := func(k, v string) string {
		return label.Render(fmt.Sprintf("%-16s", k)) + value.Render(v)
	}

	cycle := "monthly budget"
	if r.UsingCustomBudget() {
		cycle = "custom budget"
	}

	spent, elapsed := spendShares(r)
	body := strings.Join([]string{
		line("Budget", cli.FormatBRL(r.TotalBudget)+" ("+cycle+")"),
		line("Period", cli.FormatPeriod(r.PeriodStart, r.PeriodEnd)+", "+cli.FormatDays(r.RemainingDays)+" left"),
		line("Spent", cli.FormatBRL(r.Spent)+", remaining "+cli.FormatBRL(r.RemainingBudget)),
		line("5-day average", cli.FormatBRL(r.TrailingAverage)),
		line("Reviewed", cli.FormatDate(r.ReviewDate)),
		line("Pace", components.PaceBar(spent, elapsed, max(width-52, 10))),
	}, "\n")

	return components.ContentCard(r.ClientName+" / "+r.AccountName, body, width, false)
}

// spendShares returns the spent share of the budget and the elapsed share
// of the period.
func spendShares(r model.Review) (spent, elapsed float64) {
	if r.TotalBudget.IsPositive() {
		spent = r.Spent.Div(r.TotalBudget).InexactFloat64()
	}
	if total := budget.DaysBetween(r.PeriodStart, r.PeriodEnd) + 1; total > 0 {
		elapsed = float64(total-r.RemainingDays) / float64(total)
	}
	return spent, elapsed
}

func (a App) statusText() string {
	auto := "auto off"
	if a.autoRefresh {
		auto = "auto " + cli.FormatDuration(a.refreshInterval)
	}
	if a.lastRefresh.IsZero() {
		return auto
	}
	return fmt.Sprintf("updated %s ago · %s", cli.FormatDuration(a.now().Sub(a.lastRefresh).Truncate(time.Second)), auto)
}

func cell(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(truncate(s, width))
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
