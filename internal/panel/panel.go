package panel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dexscreener-extractor/internal/agent"
	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/store"

	"github.com/charmbracelet/log"
)

const (
	StatusReady    = "Ready"
	StatusNoTab    = "No active DEXScreener tab found"
	DefaultRevert  = 2 * time.Second
	clockLayout    = "15:04:05"
	nextPrefix     = "Next scheduled extraction: "
	autoOffMessage = "Auto-extraction disabled"
)

// Config is the shared settings and history as the panel sees them.
type Config interface {
	Settings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, patch domain.SettingsPatch) error
	LastRecord(ctx context.Context) (domain.ExtractionRecord, error)
}

// Tabs reaches the active page and its agent. Active returns
// agent.ErrNoActivePage when there is none.
type Tabs interface {
	Active(ctx context.Context) (agent.PageInfo, error)
	Send(ctx context.Context, id string, cmd agent.Command) (agent.Result, error)
	Reload(ctx context.Context, id string) error
}

// View is everything the control panel displays.
type View struct {
	WebhookURL         string        `json:"webhookUrl"`
	AutoExtractEnabled bool          `json:"autoExtractEnabled"`
	ExtractInterval    time.Duration `json:"extractInterval"`
	Status             string        `json:"status"`
	NextExtraction     string        `json:"nextExtraction"`
	LastExtraction     string        `json:"lastExtraction"`
}

// Panel is one open control panel. Every action leaves a status line that
// falls back to Ready after the revert delay.
type Panel struct {
	cfg    Config
	tabs   Tabs
	revert time.Duration
	log    *log.Logger

	mu       sync.Mutex
	view     View
	timer    *time.Timer
	gen      int
	onChange func(View)
}

func New(cfg Config, tabs Tabs, revert time.Duration) *Panel {
	return &Panel{
		cfg:    cfg,
		tabs:   tabs,
		revert: revert,
		log:    log.Default().WithPrefix("panel"),
		view:   View{Status: StatusReady},
	}
}

// OnChange registers fn to be called with every new view, including the
// delayed revert to Ready.
func (p *Panel) OnChange(fn func(View)) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

func (p *Panel) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// Open loads settings and the last history entry and asks the active page
// for its next extraction time.
func (p *Panel) Open(ctx context.Context) (View, error) {
	settings, err := p.cfg.Settings(ctx)
	if err != nil {
		return p.View(), fmt.Errorf("load settings: %w", err)
	}
	last := p.lastExtraction(ctx)

	p.update(func(v *View) {
		v.WebhookURL = settings.WebhookURL
		v.AutoExtractEnabled = settings.AutoExtractEnabled
		v.ExtractInterval = settings.ExtractInterval
		v.LastExtraction = last
		v.Status = StatusReady
	}, false)

	if page, err := p.tabs.Active(ctx); err == nil {
		p.refreshNext(ctx, page.ID)
	}
	return p.View(), nil
}

// Save persists the three editable settings, then pushes them to the active
// page in order and re-reads its status. Settings are saved even when no page
// is active.
func (p *Panel) Save(ctx context.Context, s domain.Settings) (View, error) {
	p.setStatus("Saving settings...", false)
	if err := p.cfg.SaveSettings(ctx, domain.PatchFromSettings(s)); err != nil {
		p.setStatus("Error: "+err.Error(), true)
		return p.View(), fmt.Errorf("save settings: %w", err)
	}
	p.update(func(v *View) {
		v.WebhookURL = s.WebhookURL
		v.AutoExtractEnabled = s.AutoExtractEnabled
		v.ExtractInterval = s.ExtractInterval
	}, false)

	page, err := p.tabs.Active(ctx)
	if err != nil {
		p.setStatus("Settings saved! (No active tab detected)", true)
		return p.View(), nil
	}

	for _, cmd := range []agent.Command{
		agent.UpdateWebhook{WebhookURL: s.WebhookURL},
		agent.UpdateAutoExtract{Enabled: s.AutoExtractEnabled},
		agent.UpdateExtractInterval{Interval: s.ExtractInterval},
	} {
		if _, err := p.tabs.Send(ctx, page.ID, cmd); err != nil {
			p.log.Warn("pushing setting to page failed", "page", page.ID, "action", cmd.Action(), "err", err)
		}
	}
	p.refreshNext(ctx, page.ID)
	p.setStatus("Settings saved!", true)
	return p.View(), nil
}

// Extract asks the active page for a manual extraction.
func (p *Panel) Extract(ctx context.Context) View {
	p.setStatus("Extracting...", false)
	page, err := p.tabs.Active(ctx)
	if err != nil {
		p.noTab(err)
		return p.View()
	}

	res, err := p.tabs.Send(ctx, page.ID, agent.Extract{})
	r, ok := res.(agent.ExtractResult)
	if err != nil || !ok || !r.Success {
		if err != nil {
			p.log.Warn("extract command failed", "page", page.ID, "err", err)
		}
		p.setStatus("Error extracting data", true)
		return p.View()
	}

	last := p.lastExtraction(ctx)
	p.update(func(v *View) {
		if last != "" {
			v.LastExtraction = last
		}
		v.Status = fmt.Sprintf("Extracted %d items", r.Count)
	}, true)
	return p.View()
}

// Refresh reloads the active page.
func (p *Panel) Refresh(ctx context.Context) View {
	p.setStatus("Refreshing page...", false)
	page, err := p.tabs.Active(ctx)
	if err != nil {
		p.noTab(err)
		return p.View()
	}
	if err := p.tabs.Reload(ctx, page.ID); err != nil {
		p.log.Warn("page reload failed", "page", page.ID, "err", err)
		p.setStatus("Error refreshing page", true)
		return p.View()
	}
	p.setStatus("Page refreshed", true)
	return p.View()
}

// PreviewAuto updates the next-extraction line as the toggle is flipped,
// before anything is saved.
func (p *Panel) PreviewAuto(enabled bool, interval time.Duration) View {
	p.update(func(v *View) {
		if enabled {
			v.NextExtraction = nextPrefix + time.Now().Add(interval).Local().Format(clockLayout)
		} else {
			v.NextExtraction = autoOffMessage
		}
	}, false)
	return p.View()
}

func (p *Panel) noTab(err error) {
	if !errors.Is(err, agent.ErrNoActivePage) {
		p.log.Warn("active page lookup failed", "err", err)
	}
	p.setStatus(StatusNoTab, true)
}

func (p *Panel) refreshNext(ctx context.Context, pageID string) {
	res, err := p.tabs.Send(ctx, pageID, agent.GetStatus{})
	if err != nil {
		p.log.Debug("status query failed", "page", pageID, "err", err)
		return
	}
	status, ok := res.(agent.StatusResult)
	if !ok || !status.Success {
		return
	}
	p.update(func(v *View) { v.NextExtraction = NextLine(status) }, false)
}

func (p *Panel) lastExtraction(ctx context.Context) string {
	rec, err := p.cfg.LastRecord(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNoHistory) {
			p.log.Debug("history unavailable", "err", err)
		}
		return ""
	}
	return LastLine(rec)
}

func (p *Panel) setStatus(msg string, revert bool) {
	p.update(func(v *View) { v.Status = msg }, revert)
}

// update applies fn under the lock. With revert set, the status line returns
// to Ready after the revert delay unless another update lands first.
func (p *Panel) update(fn func(v *View), revert bool) {
	p.mu.Lock()
	fn(&p.view)
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if revert && p.revert > 0 {
		gen := p.gen
		p.timer = time.AfterFunc(p.revert, func() { p.revertTo(gen) })
	}
	view, notify := p.view, p.onChange
	p.mu.Unlock()

	if notify != nil {
		notify(view)
	}
}

func (p *Panel) revertTo(gen int) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.view.Status = StatusReady
	p.timer = nil
	view, notify := p.view, p.onChange
	p.mu.Unlock()

	if notify != nil {
		notify(view)
	}
}

// Close stops a pending status revert.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.gen++
}

// NextLine renders an agent status as the panel's next-extraction line.
func NextLine(status agent.StatusResult) string {
	if !status.AutoExtractEnabled {
		return autoOffMessage
	}
	next, ok := status.NextExtractionTime()
	if !ok {
		return autoOffMessage
	}
	return nextPrefix + next.Local().Format(clockLayout)
}

// LastLine renders a history entry as the panel's last-extraction line.
func LastLine(rec domain.ExtractionRecord) string {
	t := rec.Time()
	if t.IsZero() {
		return fmt.Sprintf("Last extraction: %s (%d rows)", rec.Timestamp, rec.RowsExtracted)
	}
	return fmt.Sprintf("Last extraction: %s (%d rows)", t.Local().Format(clockLayout), rec.RowsExtracted)
}
