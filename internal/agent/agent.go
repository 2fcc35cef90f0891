package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"dexscreener-extractor/internal/browser"
	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/store"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNoData          = errors.New("no data found in table")
	ErrBusy            = errors.New("extraction already in progress")
	ErrNothingToExport = errors.New("no manual extraction to export")
)

type Scraper interface {
	ExtractHTML(ctx context.Context, html, pageURL string) ([]domain.ExtractedRow, error)
	CountRows(html string) int
}

type Sender interface {
	Send(ctx context.Context, url string, payload domain.WebhookPayload) error
}

type Archiver interface {
	ArchiveBatch(ctx context.Context, batch domain.ExtractionBatch) (int64, error)
}

// Deps are the collaborators shared by every agent. Archiver may be nil.
type Deps struct {
	Store    store.Store
	Scraper  Scraper
	Sender   Sender
	Archiver Archiver
	Tracer   trace.Tracer
}

type Timings struct {
	InitWait      time.Duration
	AutoRunDelay  time.Duration
	ResponseDelay time.Duration
	WatchInterval time.Duration
	PollInterval  time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		InitWait:      3 * time.Second,
		AutoRunDelay:  2 * time.Second,
		ResponseDelay: 2 * time.Second,
		WatchInterval: time.Second,
		PollInterval:  100 * time.Millisecond,
	}
}

type Level string

const (
	LevelInfo    Level = "info"
	LevelWorking Level = "working"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// PanelState is what the on-page control panel shows.
type PanelState struct {
	PageID             string    `json:"pageId"`
	Status             string    `json:"status"`
	Level              Level     `json:"level"`
	NextExtraction     string    `json:"nextExtraction"`
	AutoExtractEnabled bool      `json:"autoExtractEnabled"`
	ExtractInterval    int64     `json:"extractInterval"`
	WebhookURL         string    `json:"webhookUrl"`
	PanelVisible       bool      `json:"isPanelVisible"`
	ExtractEnabled     bool      `json:"extractEnabled"`
	CanExport          bool      `json:"canExport"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Agent is attached to one page. Its session state lives only as long as
// the page is not reloaded or closed.
type Agent struct {
	page    browser.Page
	deps    Deps
	timings Timings
	log     *log.Logger
	reload  func(ctx context.Context) error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	timer  *localTimer

	initOnce sync.Once
	inited   chan struct{}

	mu             sync.Mutex
	webhookURL     string
	autoEnabled    bool
	interval       time.Duration
	panelVisible   bool
	status         string
	level          Level
	extractEnabled bool
	lastBatch      *domain.ExtractionBatch
	lastURL        string
	updatedAt      time.Time

	subMu sync.Mutex
	subs  map[chan PanelState]struct{}
}

// New creates an agent for page. reload is how the agent asks its owner to
// reload the page, which replaces this agent with a fresh one.
func New(parent context.Context, page browser.Page, deps Deps, timings Timings, reload func(ctx context.Context) error) *Agent {
	ctx, cancel := context.WithCancel(parent)
	defaults := domain.DefaultSettings()
	a := &Agent{
		page:           page,
		deps:           deps,
		timings:        timings,
		log:            log.Default().WithPrefix("agent").With("page", page.ID()),
		reload:         reload,
		ctx:            ctx,
		cancel:         cancel,
		webhookURL:     defaults.WebhookURL,
		autoEnabled:    defaults.AutoExtractEnabled,
		interval:       defaults.ExtractInterval,
		panelVisible:   defaults.IsPanelVisible,
		status:         "Ready",
		level:          LevelInfo,
		extractEnabled: true,
		inited:         make(chan struct{}),
		subs:           make(map[chan PanelState]struct{}),
	}
	a.timer = newLocalTimer(func(ctx context.Context) {
		if _, err := a.ExtractAndSend(ctx, true); err != nil {
			a.log.Warn("scheduled extraction failed", "err", err)
		}
	})
	return a
}

func (a *Agent) PageID() string { return a.page.ID() }

func (a *Agent) Page() browser.Page { return a.page }

// Start runs Init and then the navigation watcher in the background.
func (a *Agent) Start() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.Init(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("agent init failed", "err", err)
		}
		a.watchNavigation(a.ctx)
	}()
}

// Initialized is closed once Init has restored the persisted settings.
func (a *Agent) Initialized() <-chan struct{} {
	return a.inited
}

// Stop disarms the local timer and ends every goroutine of the agent.
func (a *Agent) Stop() {
	a.cancel()
	a.timer.Disarm()
	a.wg.Wait()

	a.subMu.Lock()
	for ch := range a.subs {
		delete(a.subs, ch)
		close(ch)
	}
	a.subMu.Unlock()
}

// Init waits for the table, restores persisted settings and, when auto
// extraction is on, arms the local timer and schedules one automatic run.
func (a *Agent) Init(ctx context.Context) error {
	ctx, span := a.deps.Tracer.Start(ctx, "agent.init")
	defer span.End()
	// waiters must not hang on an agent whose init was cut short
	defer a.initOnce.Do(func() { close(a.inited) })

	ready, err := browser.WaitFor(ctx, a.page, a.hasRows, a.timings.InitWait, a.timings.PollInterval)
	if err != nil {
		return err
	}
	if !ready {
		a.log.Debug("table not visible after init wait")
	}

	settings, err := store.Settings(ctx, a.deps.Store)
	if err != nil {
		a.log.Warn("could not restore settings, using defaults", "err", err)
	}
	u, _ := a.page.URL(ctx)

	a.mu.Lock()
	a.webhookURL = settings.WebhookURL
	a.autoEnabled = settings.AutoExtractEnabled
	a.interval = settings.ExtractInterval
	a.panelVisible = settings.IsPanelVisible
	a.lastURL = u
	a.status, a.level = "Ready", LevelInfo
	if a.autoEnabled {
		a.status = "Auto-extract enabled. Waiting for next cycle."
		a.timer.Arm(a.ctx, a.interval)
	}
	auto := a.autoEnabled
	a.mu.Unlock()
	a.publish()
	a.initOnce.Do(func() { close(a.inited) })

	if auto {
		a.scheduleAutoRun()
	}
	return nil
}

// scheduleAutoRun runs one automatic extraction after AutoRunDelay, unless
// auto extraction was switched off in the meantime.
func (a *Agent) scheduleAutoRun() {
	if a.ctx.Err() != nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		select {
		case <-a.ctx.Done():
			return
		case <-time.After(a.timings.AutoRunDelay):
		}
		a.mu.Lock()
		enabled := a.autoEnabled
		a.mu.Unlock()
		if !enabled {
			return
		}
		if _, err := a.ExtractAndSend(a.ctx, true); err != nil && !errors.Is(err, ErrNoData) {
			a.log.Warn("immediate automatic extraction failed", "err", err)
		}
	}()
}

func (a *Agent) hasRows(html string) bool {
	return a.deps.Scraper.CountRows(html) > 0
}

// ExtractAndSend scrapes the page, posts the batch and records it in the
// history. Zero rows end the cycle with ErrNoData before anything is sent.
// A send failure is returned but the history entry is still written.
func (a *Agent) ExtractAndSend(ctx context.Context, automatic bool) (domain.ExtractionBatch, error) {
	if !automatic {
		a.setExtractEnabled(false)
		defer a.setExtractEnabled(true)
	}
	return a.runCycle(ctx, automatic)
}

func (a *Agent) runCycle(ctx context.Context, automatic bool) (domain.ExtractionBatch, error) {
	ctx, span := a.deps.Tracer.Start(ctx, "agent.extract-and-send")
	defer span.End()
	span.SetAttributes(attribute.Bool("automatic", automatic))

	a.setStatus("Extracting data...", LevelWorking)

	html, err := a.page.HTML(ctx)
	if err != nil {
		a.setStatus("Error: "+err.Error(), LevelError)
		return domain.ExtractionBatch{}, fmt.Errorf("read page: %w", err)
	}
	source, _ := a.page.URL(ctx)
	rows, err := a.deps.Scraper.ExtractHTML(ctx, html, source)
	if err != nil {
		a.setStatus("Error: "+err.Error(), LevelError)
		return domain.ExtractionBatch{}, err
	}
	if len(rows) == 0 {
		a.setStatus("No data found in table!", LevelError)
		return domain.ExtractionBatch{}, ErrNoData
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))

	batch := domain.ExtractionBatch{
		CapturedAt: time.Now(),
		Source:     source,
		Rows:       rows,
		Automatic:  automatic,
	}
	a.setStatus(fmt.Sprintf("Extracted %d rows at %s. Sending...", len(rows), clock(batch.CapturedAt)), LevelWorking)

	a.mu.Lock()
	webhookURL := a.webhookURL
	if !automatic {
		b := batch
		a.lastBatch = &b
	}
	a.mu.Unlock()

	if !automatic {
		a.setStatus("Sending data...", LevelWorking)
	}
	sendErr := a.deps.Sender.Send(ctx, webhookURL, batch.Payload())
	switch {
	case sendErr != nil && automatic:
		a.setStatus("Auto-extraction error: "+sendErr.Error(), LevelError)
	case sendErr != nil:
		a.setStatus("Error: "+sendErr.Error(), LevelError)
	case automatic:
		a.setStatus(fmt.Sprintf("Auto-extraction successful (%d rows) at %s", len(rows), clock(time.Now())), LevelSuccess)
	default:
		a.setStatus("Data sent successfully!", LevelSuccess)
	}

	if err := a.deps.Store.AppendHistory(ctx, batch.Record()); err != nil {
		a.log.Warn("could not record extraction history", "err", err)
	}
	if a.deps.Archiver != nil {
		if id, err := a.deps.Archiver.ArchiveBatch(ctx, batch); err != nil {
			a.log.Warn("could not archive batch", "err", err)
		} else {
			a.log.Debug("batch archived", "id", id, "rows", len(rows))
		}
	}

	if sendErr != nil {
		return batch, fmt.Errorf("send to webhook: %w", sendErr)
	}
	a.log.Info("batch delivered", "rows", len(rows), "automatic", automatic)
	return batch, nil
}

// CountRows re-samples the table without sending anything.
func (a *Agent) CountRows(ctx context.Context) (int, error) {
	html, err := a.page.HTML(ctx)
	if err != nil {
		return 0, err
	}
	return a.deps.Scraper.CountRows(html), nil
}

// PressExtract is the manual extract button. It is refused while a manual
// extraction is already running.
func (a *Agent) PressExtract(ctx context.Context) (domain.ExtractionBatch, error) {
	a.mu.Lock()
	if !a.extractEnabled {
		a.mu.Unlock()
		return domain.ExtractionBatch{}, ErrBusy
	}
	a.extractEnabled = false
	a.mu.Unlock()
	a.publish()
	defer a.setExtractEnabled(true)

	return a.runCycle(ctx, false)
}

// ToggleAutoExtract flips auto extraction from the page panel and persists it.
func (a *Agent) ToggleAutoExtract(ctx context.Context) bool {
	a.mu.Lock()
	enabled := !a.autoEnabled
	a.mu.Unlock()

	a.applyAutoExtract(enabled)
	a.persist(ctx, domain.SettingsPatch{AutoExtractEnabled: &enabled})
	return enabled
}

// ToggleVisibility shows or hides the page panel and persists the choice.
func (a *Agent) ToggleVisibility(ctx context.Context) bool {
	a.mu.Lock()
	a.panelVisible = !a.panelVisible
	visible := a.panelVisible
	a.mu.Unlock()
	a.publish()

	a.persist(ctx, domain.SettingsPatch{IsPanelVisible: &visible})
	return visible
}

// SetWebhookURL is the page's settings affordance. It changes only the
// session's webhook and is forgotten on reload.
func (a *Agent) SetWebhookURL(url string) bool {
	if url == "" {
		return false
	}
	a.mu.Lock()
	a.webhookURL = url
	a.mu.Unlock()
	a.setStatus("Webhook URL updated", LevelInfo)
	return true
}

// applyAutoExtract arms or disarms the local timer. Switching from disabled
// to enabled also schedules an immediate automatic run.
func (a *Agent) applyAutoExtract(enabled bool) {
	a.mu.Lock()
	switchedOn := enabled && !a.autoEnabled
	a.autoEnabled = enabled
	if enabled {
		a.timer.Arm(a.ctx, a.interval)
		a.status = fmt.Sprintf("Auto-extract enabled. Next extraction in %s minutes.", minutes(a.interval))
	} else {
		a.timer.Disarm()
		a.status = "Auto-extract disabled."
	}
	a.level = LevelInfo
	a.mu.Unlock()
	a.publish()

	if switchedOn {
		a.scheduleAutoRun()
	}
}

func (a *Agent) persist(ctx context.Context, patch domain.SettingsPatch) {
	if err := a.deps.Store.SaveSettings(ctx, patch); err != nil {
		a.log.Warn("could not persist settings", "keys", patch.Keys(), "err", err)
	}
}

// Snapshot returns the current panel state.
func (a *Agent) Snapshot() PanelState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Agent) snapshotLocked() PanelState {
	next := "Auto-extract disabled"
	if t, ok := a.timer.Next(); ok {
		next = "Next extraction at: " + clock(t)
	}
	return PanelState{
		PageID:             a.page.ID(),
		Status:             a.status,
		Level:              a.level,
		NextExtraction:     next,
		AutoExtractEnabled: a.autoEnabled,
		ExtractInterval:    a.interval.Milliseconds(),
		WebhookURL:         a.webhookURL,
		PanelVisible:       a.panelVisible,
		ExtractEnabled:     a.extractEnabled,
		CanExport:          a.lastBatch != nil,
		UpdatedAt:          a.updatedAt,
	}
}

func (a *Agent) setStatus(msg string, level Level) {
	a.mu.Lock()
	a.status, a.level = msg, level
	a.mu.Unlock()
	a.publish()
}

func (a *Agent) setExtractEnabled(enabled bool) {
	a.mu.Lock()
	a.extractEnabled = enabled
	a.mu.Unlock()
	a.publish()
}

// Subscribe streams panel state changes, starting with the current state.
// The channel closes when ctx ends or the agent stops.
func (a *Agent) Subscribe(ctx context.Context) <-chan PanelState {
	ch := make(chan PanelState, 16)
	ch <- a.Snapshot()

	a.subMu.Lock()
	if a.ctx.Err() != nil {
		a.subMu.Unlock()
		close(ch)
		return ch
	}
	a.subs[ch] = struct{}{}
	a.subMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-a.ctx.Done():
		}
		a.subMu.Lock()
		if _, ok := a.subs[ch]; ok {
			delete(a.subs, ch)
			close(ch)
		}
		a.subMu.Unlock()
	}()
	return ch
}

func (a *Agent) publish() {
	a.mu.Lock()
	a.updatedAt = time.Now()
	state := a.snapshotLocked()
	a.mu.Unlock()

	a.subMu.Lock()
	defer a.subMu.Unlock()
	for ch := range a.subs {
		select {
		case ch <- state:
		default:
		}
	}
}

// clock renders the wall-clock part of t the way the panels display it.
func clock(t time.Time) string {
	return t.Local().Format("15:04:05")
}

func minutes(d time.Duration) string {
	return strconv.FormatFloat(d.Minutes(), 'f', -1, 64)
}
