package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dexscreener-extractor/internal/agent"
	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/store"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// alarmUnit is the granularity of the recurring alarm.
var alarmUnit = time.Minute

// PageHub is the part of the agent hub the scheduler drives.
type PageHub interface {
	FindTarget(ctx context.Context, prefix string) (string, bool)
	OpenPage(ctx context.Context, url string, background bool) (string, error)
	WaitReady(ctx context.Context, id string, max time.Duration) (bool, error)
	Reload(ctx context.Context, id string) error
	Send(ctx context.Context, id string, cmd agent.Command) (agent.Result, error)
	Close(ctx context.Context, id string) error
}

// Settle holds the upper bounds the scheduler waits for a page table to render.
type Settle struct {
	AfterOpen   time.Duration
	AfterReload time.Duration
	CloseGrace  time.Duration
}

func DefaultSettle() Settle {
	return Settle{
		AfterOpen:   10 * time.Second,
		AfterReload: 5 * time.Second,
		CloseGrace:  5 * time.Second,
	}
}

// Scheduler owns the recurring extraction alarm. Each tick either drives an
// already open target page or opens one in the background.
type Scheduler struct {
	tracer    trace.Tracer
	store     store.Store
	pages     PageHub
	targetURL string
	settle    Settle
	log       *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	period time.Duration
	next   time.Time
}

func NewScheduler(tracer trace.Tracer, st store.Store, pages PageHub, targetURL string, settle Settle) *Scheduler {
	return &Scheduler{
		tracer:    tracer,
		store:     st,
		pages:     pages,
		targetURL: targetURL,
		settle:    settle,
		log:       log.Default().WithPrefix("scheduler"),
	}
}

// AlarmPeriod converts the configured interval to whole alarm units, never
// less than one.
func AlarmPeriod(interval time.Duration) time.Duration {
	n := interval / alarmUnit
	if n < 1 {
		n = 1
	}
	return n * alarmUnit
}

// Start installs defaults, arms the alarm and re-arms it whenever the stored
// auto-extract settings change. Blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("scheduler starting")

	changes, err := s.store.Subscribe(ctx)
	if err != nil {
		s.log.Warn("settings changes unavailable, alarm will not follow updates", "err", err)
	}
	if err := s.Install(ctx); err != nil {
		s.log.Error("install failed", "err", err)
	}

	for {
		select {
		case <-ctx.Done():
			s.disarm()
			s.log.Info("scheduler stopped")
			return
		case change, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if change.Touches(domain.KeyAutoExtractEnabled, domain.KeyExtractInterval) {
				if err := s.SetupAlarm(ctx); err != nil {
					s.log.Warn("re-arming alarm failed", "err", err)
				}
			}
		}
	}
}

// Install writes default values for every setting that was never stored and
// then arms the alarm.
func (s *Scheduler) Install(ctx context.Context) error {
	stored, err := s.store.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if patch, missing := stored.InstallDefaults(); missing {
		if err := s.store.SaveSettings(ctx, patch); err != nil {
			return fmt.Errorf("install default settings: %w", err)
		}
		s.log.Info("default settings installed", "keys", patch.Keys())
	}
	return s.SetupAlarm(ctx)
}

// SetupAlarm drops any existing alarm and, when auto extraction is enabled,
// arms a new one from the stored interval.
func (s *Scheduler) SetupAlarm(ctx context.Context) error {
	settings, err := store.Settings(ctx, s.store)
	if err != nil {
		s.log.Warn("using default settings for alarm", "err", err)
	}

	s.disarm()
	if !settings.AutoExtractEnabled {
		s.log.Info("auto extraction disabled, alarm cleared")
		return nil
	}

	period := AlarmPeriod(settings.ExtractInterval)
	alarmCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.period = period
	s.next = time.Now().Add(period)
	s.mu.Unlock()

	go s.alarmLoop(alarmCtx, ctx, period)
	s.log.Info("alarm armed", "period", period)
	return nil
}

// AlarmStatus is the scheduler alarm as reported by the control API.
type AlarmStatus struct {
	Armed    bool       `json:"armed"`
	PeriodMS int64      `json:"periodMs"`
	Next     *time.Time `json:"next,omitempty"`
}

func (s *Scheduler) Status() AlarmStatus {
	period, next, ok := s.Armed()
	if !ok {
		return AlarmStatus{}
	}
	return AlarmStatus{Armed: true, PeriodMS: period.Milliseconds(), Next: &next}
}

// Armed reports the current alarm period and next tick.
func (s *Scheduler) Armed() (period time.Duration, next time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period, s.next, s.cancel != nil
}

func (s *Scheduler) disarm() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.period = 0
	s.next = time.Time{}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// alarmLoop ticks until alarmCtx ends. Fire runs on ctx so that re-arming
// does not abort an extraction in flight.
func (s *Scheduler) alarmLoop(alarmCtx, ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-alarmCtx.Done():
			return
		case now := <-ticker.C:
			s.mu.Lock()
			if alarmCtx.Err() != nil {
				s.mu.Unlock()
				return
			}
			s.next = now.Add(period)
			s.mu.Unlock()

			if err := s.Fire(ctx); err != nil {
				s.log.Warn("scheduled extraction failed", "err", err)
			}
		}
	}
}

// Fire runs one scheduled extraction. Failures are only reported; the next
// tick is the retry.
func (s *Scheduler) Fire(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "scheduler.fire")
	defer span.End()

	stored, err := s.store.LoadSettings(ctx)
	if err != nil {
		s.log.Warn("using default settings for tick", "err", err)
		stored = domain.StoredSettings{}
	}
	settings := stored.Resolve()
	// An explicitly cleared webhook means no endpoint is configured. Resolve
	// would hand back the default one.
	cleared := stored.WebhookURL != nil && *stored.WebhookURL == ""
	if !settings.AutoExtractEnabled || cleared {
		s.log.Debug("tick skipped", "autoExtract", settings.AutoExtractEnabled, "webhookCleared", cleared)
		return nil
	}

	if id, ok := s.pages.FindTarget(ctx, s.targetURL); ok {
		span.SetAttributes(attribute.String("page", id), attribute.Bool("opened", false))
		return s.extractOpenPage(ctx, id)
	}
	span.SetAttributes(attribute.Bool("opened", true))
	return s.extractInBackground(ctx)
}

func (s *Scheduler) extractOpenPage(ctx context.Context, id string) error {
	if err := s.pages.Reload(ctx, id); err != nil {
		return fmt.Errorf("reload page %s: %w", id, err)
	}
	s.settleWait(ctx, id, s.settle.AfterReload)

	res, err := s.pages.Send(ctx, id, agent.Extract{})
	if err != nil {
		return fmt.Errorf("extract on page %s: %w", id, err)
	}
	s.logResult(id, res)
	return nil
}

func (s *Scheduler) extractInBackground(ctx context.Context) error {
	id, err := s.pages.OpenPage(ctx, s.targetURL, true)
	if err != nil {
		return fmt.Errorf("open target page: %w", err)
	}
	s.log.Debug("opened background page", "page", id)
	s.settleWait(ctx, id, s.settle.AfterOpen)

	if err := s.pages.Reload(ctx, id); err != nil {
		return fmt.Errorf("reload page %s: %w", id, err)
	}
	s.settleWait(ctx, id, s.settle.AfterReload)

	res, err := s.pages.Send(ctx, id, agent.Extract{AutoClose: true})
	if err != nil {
		return fmt.Errorf("extract on page %s: %w", id, err)
	}
	s.logResult(id, res)
	if !res.OK() {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.settle.CloseGrace):
	}
	if err := s.pages.Close(ctx, id); err != nil {
		return fmt.Errorf("close page %s: %w", id, err)
	}
	return nil
}

// settleWait proceeds as soon as the table renders, or after max.
func (s *Scheduler) settleWait(ctx context.Context, id string, max time.Duration) {
	ready, err := s.pages.WaitReady(ctx, id, max)
	if err != nil {
		s.log.Debug("readiness wait aborted", "page", id, "err", err)
		return
	}
	if !ready {
		s.log.Debug("table not ready, extracting anyway", "page", id, "waited", max)
	}
}

func (s *Scheduler) logResult(id string, res agent.Result) {
	if r, ok := res.(agent.ExtractResult); ok {
		if r.Success {
			s.log.Info("scheduled extraction done", "page", id, "count", r.Count)
		} else {
			s.log.Warn("scheduled extraction reported failure", "page", id, "err", r.Error)
		}
		return
	}
	s.log.Info("scheduled extraction done", "page", id, "ok", res.OK())
}
