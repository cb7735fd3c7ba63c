// Package daemon runs scheduled budget reviews and serves their results
// over HTTP and SSE.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/budget"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"
	"github.com/BrunoRangell/app-muran-sub008/internal/review"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// Reviewer runs review batches. *review.Service satisfies it.
type Reviewer interface {
	ReviewAll(ctx context.Context, platform model.Platform, progress review.ProgressFunc) (*review.BatchResult, error)
	Platforms() []model.Platform
	Invalidate(platform model.Platform)
	Today() time.Time
}

// ReviewLister reads persisted reviews. *store.Store satisfies it.
type ReviewLister interface {
	LatestReviews(ctx context.Context, platform model.Platform) ([]model.Review, error)
}

// Notifier is told about every finished batch.
type Notifier interface {
	NotifyBatch(ctx context.Context, res *review.BatchResult) error
}

// Config controls the daemon runtime behavior.
type Config struct {
	Addr          string
	Schedule      string // cron expression, evaluated in Location
	Location      *time.Location
	CheckInterval time.Duration // how often to catch up on a missed daily run
	MinRefreshGap time.Duration
	EventsBuffer  int
}

// BatchSummary is the JSON form of a finished batch.
type BatchSummary struct {
	Platform        model.Platform `json:"platform"`
	Trigger         string         `json:"trigger"`
	ReviewDate      string         `json:"review_date"`
	Total           int            `json:"total"`
	Succeeded       int            `json:"succeeded"`
	Failed          int            `json:"failed"`
	NeedsAdjustment int            `json:"needs_adjustment"`
	DurationMS      int64          `json:"duration_ms"`
	Errors          []string       `json:"errors,omitempty"`
}

// Adjustment is the payload of an adjustment event.
type Adjustment struct {
	ClientName       string          `json:"client_name"`
	AccountName      string          `json:"account_name"`
	Platform         model.Platform  `json:"platform"`
	IdealDailyBudget decimal.Decimal `json:"ideal_daily_budget"`
	CurrentDaily     decimal.Decimal `json:"current_daily_budget"`
	TrailingAverage  decimal.Decimal `json:"trailing_average"`
	Direction        model.Direction `json:"direction"`
	Magnitude        decimal.Decimal `json:"magnitude"`
	AverageDirection model.Direction `json:"average_direction"`
	AverageMagnitude decimal.Decimal `json:"average_magnitude"`
}

// Event is emitted for each finished batch and each account needing a change.
type Event struct {
	ID         int64         `json:"id"`
	Type       string        `json:"type"`
	Timestamp  time.Time     `json:"timestamp"`
	Batch      *BatchSummary `json:"batch,omitempty"`
	Adjustment *Adjustment   `json:"adjustment,omitempty"`
}

// Event types.
const (
	EventReviewBatch = "review_batch"
	EventAdjustment  = "adjustment"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time                       `json:"started_at"`
	LastRunAt       time.Time                       `json:"last_run_at"`
	LastRunDate     string                          `json:"last_run_date,omitempty"`
	NextRunAt       time.Time                       `json:"next_run_at"`
	Schedule        string                          `json:"schedule"`
	Timezone        string                          `json:"timezone"`
	RunCount        int64                           `json:"run_count"`
	Running         bool                            `json:"running"`
	Batches         map[model.Platform]BatchSummary `json:"batches"`
	LastError       string                          `json:"last_error,omitempty"`
	EventCount      int                             `json:"event_count"`
	SubscriberCount int                             `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg      Config
	reviewer Reviewer
	reviews  ReviewLister
	notifier Notifier
	refresh  *review.Debouncer
	cron     *cron.Cron
	entry    cron.EntryID
	runMu    sync.Mutex
	baseCtx  context.Context

	mu          sync.RWMutex
	startedAt   time.Time
	lastRunAt   time.Time
	lastRunDate string
	runCount    int64
	running     bool
	lastError   string
	batches     map[model.Platform]BatchSummary
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service. notifier may be nil.
func New(cfg Config, reviewer Reviewer, reviews ReviewLister, notifier Notifier) (*Service, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 8 * * *"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CheckInterval < time.Minute {
		cfg.CheckInterval = 5 * time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}

	s := &Service{
		cfg:       cfg,
		reviewer:  reviewer,
		reviews:   reviews,
		notifier:  notifier,
		refresh:   review.NewDebouncer(cfg.MinRefreshGap),
		cron:      cron.New(cron.WithLocation(cfg.Location)),
		baseCtx:   context.Background(),
		startedAt: time.Now(),
		batches:   make(map[model.Platform]BatchSummary),
		subs:      make(map[int]chan Event),
	}

	id, err := s.cron.AddFunc(cfg.Schedule, func() { s.runReviews(s.baseCtx, "schedule") })
	if err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", cfg.Schedule, err)
	}
	s.entry = id
	return s, nil
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/reviews", s.handleReviews)
	mux.HandleFunc("/v1/refresh", s.handleRefresh)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

// Run starts the HTTP endpoints and the review schedule until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.baseCtx = ctx

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.cron.Start()
	defer s.cron.Stop()

	// Catch up at startup if today's scheduled run already passed.
	s.catchUp(ctx)

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.catchUp(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// catchUp runs the reviews when today has no run yet and the scheduled time
// has passed.
func (s *Service) catchUp(ctx context.Context) {
	today := s.reviewer.Today().Format(budget.DateFormat)

	s.mu.RLock()
	done := s.lastRunDate == today
	s.mu.RUnlock()
	if done {
		return
	}

	sched, err := cron.ParseStandard(s.cfg.Schedule)
	if err != nil {
		return
	}
	now := time.Now().In(s.cfg.Location)
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, s.cfg.Location)
	if first := sched.Next(midnight.Add(-time.Second)); first.After(now) {
		return
	}
	s.runReviews(ctx, "catch-up")
}

// runReviews reviews every configured platform once. Overlapping runs are skipped.
func (s *Service) runReviews(ctx context.Context, trigger string) []BatchSummary {
	if !s.runMu.TryLock() {
		log.Printf("muran daemon: review already running, skipping %s trigger", trigger)
		return nil
	}
	defer s.runMu.Unlock()
	return s.reviewLocked(ctx, trigger)
}

// reviewLocked is runReviews with runMu already held by the caller.
func (s *Service) reviewLocked(ctx context.Context, trigger string) []BatchSummary {
	s.setRunning(true)
	defer s.setRunning(false)

	reviewDate := s.reviewer.Today().Format(budget.DateFormat)
	var (
		summaries   []BatchSummary
		lastErr     string
		interrupted bool
	)
	for _, p := range s.reviewer.Platforms() {
		res, err := s.reviewer.ReviewAll(ctx, p, nil)
		if err != nil {
			lastErr = fmt.Sprintf("%s: %v", p, err)
			log.Printf("muran daemon: %s review error: %v", p, err)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				interrupted = true
			}
			if res == nil {
				continue
			}
		}

		sum := summarize(res, trigger, reviewDate)
		summaries = append(summaries, sum)
		for _, e := range res.Errors {
			log.Printf("muran daemon: %s review failed for %v", p, e)
		}

		s.mu.Lock()
		s.batches[p] = sum
		s.mu.Unlock()

		s.publishEvent(Event{Type: EventReviewBatch, Timestamp: time.Now(), Batch: &sum})
		for _, r := range res.Reviews {
			if r.NeedsAdjustment() {
				adj := adjustmentFromReview(r)
				s.publishEvent(Event{Type: EventAdjustment, Timestamp: time.Now(), Adjustment: &adj})
			}
		}

		if s.notifier != nil {
			if err := s.notifier.NotifyBatch(ctx, res); err != nil {
				log.Printf("muran daemon: notify error: %v", err)
			}
		}
	}

	s.mu.Lock()
	s.lastRunAt = time.Now()
	// An interrupted run leaves the day open for catch-up.
	if !interrupted {
		s.lastRunDate = reviewDate
	}
	s.runCount++
	s.lastError = lastErr
	s.mu.Unlock()
	return summaries
}

func (s *Service) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

func summarize(res *review.BatchResult, trigger, reviewDate string) BatchSummary {
	sum := BatchSummary{
		Platform:        res.Platform,
		Trigger:         trigger,
		ReviewDate:      reviewDate,
		Total:           res.Total,
		Succeeded:       res.Succeeded,
		Failed:          res.Failed,
		NeedsAdjustment: res.NeedsAdjustment,
		DurationMS:      res.Duration.Milliseconds(),
	}
	for _, e := range res.Errors {
		sum.Errors = append(sum.Errors, e.Error())
	}
	return sum
}

func adjustmentFromReview(r model.Review) Adjustment {
	return Adjustment{
		ClientName:       r.ClientName,
		AccountName:      r.AccountName,
		Platform:         r.Platform,
		IdealDailyBudget: r.IdealDailyBudget,
		CurrentDaily:     r.CurrentDailyBudget,
		TrailingAverage:  r.TrailingAverage,
		Direction:        r.Current.Direction,
		Magnitude:        r.Current.Magnitude,
		AverageDirection: r.Average.Direction,
		AverageMagnitude: r.Average.Magnitude,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.nextEventID++
	ev.ID = s.nextEventID
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batches := make(map[model.Platform]BatchSummary, len(s.batches))
	for k, v := range s.batches {
		batches[k] = v
	}
	return Status{
		StartedAt:       s.startedAt,
		LastRunAt:       s.lastRunAt,
		LastRunDate:     s.lastRunDate,
		NextRunAt:       s.cron.Entry(s.entry).Next,
		Schedule:        s.cfg.Schedule,
		Timezone:        s.cfg.Location.String(),
		RunCount:        s.runCount,
		Running:         s.running,
		Batches:         batches,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

// ReviewJSON is one row of /v1/reviews.
type ReviewJSON struct {
	ClientName         string          `json:"client_name"`
	AccountName        string          `json:"account_name"`
	Platform           model.Platform  `json:"platform"`
	ReviewDate         string          `json:"review_date"`
	PeriodStart        string          `json:"period_start"`
	PeriodEnd          string          `json:"period_end"`
	CustomBudget       bool            `json:"custom_budget"`
	TotalBudget        decimal.Decimal `json:"total_budget"`
	Spent              decimal.Decimal `json:"spent"`
	RemainingDays      int             `json:"remaining_days"`
	IdealDailyBudget   decimal.Decimal `json:"ideal_daily_budget"`
	CurrentDailyBudget decimal.Decimal `json:"current_daily_budget"`
	TrailingAverage    decimal.Decimal `json:"trailing_average"`
	Current            Recommendation  `json:"current"`
	Average            Recommendation  `json:"average"`
}

// Recommendation is the JSON form of model.Recommendation.
type Recommendation struct {
	Direction model.Direction `json:"direction"`
	Magnitude decimal.Decimal `json:"magnitude"`
}

func toReviewJSON(r model.Review) ReviewJSON {
	return ReviewJSON{
		ClientName:         r.ClientName,
		AccountName:        r.AccountName,
		Platform:           r.Platform,
		ReviewDate:         r.ReviewDate.Format(budget.DateFormat),
		PeriodStart:        r.PeriodStart.Format(budget.DateFormat),
		PeriodEnd:          r.PeriodEnd.Format(budget.DateFormat),
		CustomBudget:       r.UsingCustomBudget(),
		TotalBudget:        r.TotalBudget,
		Spent:              r.Spent,
		RemainingDays:      r.RemainingDays,
		IdealDailyBudget:   r.IdealDailyBudget,
		CurrentDailyBudget: r.CurrentDailyBudget,
		TrailingAverage:    r.TrailingAverage,
		Current:            Recommendation{Direction: r.Current.Direction, Magnitude: r.Current.Magnitude},
		Average:            Recommendation{Direction: r.Average.Direction, Magnitude: r.Average.Magnitude},
	}
}

func (s *Service) handleReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	platforms := model.Platforms
	if p := q.Get("platform"); p != "" {
		parsed, err := model.ParsePlatform(p)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		platforms = []model.Platform{parsed}
	}

	var all []model.Review
	for _, p := range platforms {
		rs, err := s.reviews.LatestReviews(r.Context(), p)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		all = append(all, rs...)
	}
	all = review.FilterByClient(all, q.Get("client"))
	if v := strings.ToLower(q.Get("needs_adjustment")); v == "1" || v == "true" {
		all = review.FilterNeedsAdjustment(all)
	}

	out := make([]ReviewJSON, 0, len(all))
	for _, rv := range all {
		out = append(out, toReviewJSON(rv))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRefresh drops cached platform data and reruns the reviews. With
// ?wait=1 it blocks and returns the batch summaries. A refresh while a run
// is in progress gets 409 and leaves the debounce window untouched.
func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use POST"})
		return
	}
	if !s.runMu.TryLock() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "review already running"})
		return
	}
	if !s.refresh.Allow() {
		s.runMu.Unlock()
		retry := s.cfg.MinRefreshGap - time.Since(s.refresh.Last())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retry.Seconds())+1))
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "refresh requested too recently"})
		return
	}

	s.reviewer.Invalidate("")
	if r.URL.Query().Get("wait") == "1" {
		defer s.runMu.Unlock()
		writeJSON(w, http.StatusOK, s.reviewLocked(r.Context(), "refresh"))
		return
	}
	go func() {
		defer s.runMu.Unlock()
		s.reviewLocked(s.baseCtx, "refresh")
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Replay the latest batch per platform so clients start with state.
	st := s.snapshotStatus()
	for _, p := range model.Platforms {
		if sum, ok := st.Batches[p]; ok {
			writeSSE(w, Event{Type: EventReviewBatch, Timestamp: time.Now(), Batch: &sum})
		}
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
