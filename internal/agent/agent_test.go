package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/scraper"
	"dexscreener-extractor/internal/store"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func tableHTML(symbols ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i, sym := range symbols {
		fmt.Fprintf(&b, `<a class="ds-dex-table-row-top" href="/solana/p%d">`+
			`<div class="ds-table-data-cell ds-dex-table-row-col-token">`+
			`<span class="ds-dex-table-row-base-token-symbol">%s</span>`+
			`<span class="ds-dex-table-row-quote-token-symbol">SOL</span></div>`+
			`<div class="ds-table-data-cell">$%d</div></a>`, i, sym, i+1)
	}
	b.WriteString("</body></html>")
	return b.String()
}

type fakePage struct {
	id string

	mu      sync.Mutex
	url     string
	html    string
	htmlErr error
	reloads int
	closed  bool
}

func newFakePage(id, html string) *fakePage {
	return &fakePage{id: id, url: "https://dexscreener.com/solana", html: html}
}

func (p *fakePage) ID() string { return p.id }

func (p *fakePage) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html, p.htmlErr
}

func (p *fakePage) Reload(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reloads++
	return nil
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	return nil
}

func (p *fakePage) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePage) set(url, html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url, p.html = url, html
}

type fakeSender struct {
	mu       sync.Mutex
	err      error
	urls     []string
	payloads []domain.WebhookPayload
}

func (s *fakeSender) Send(ctx context.Context, url string, payload domain.WebhookPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, url)
	s.payloads = append(s.payloads, payload)
	return s.err
}

func (s *fakeSender) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

type fakeArchiver struct {
	mu      sync.Mutex
	batches []domain.ExtractionBatch
}

func (f *fakeArchiver) ArchiveBatch(ctx context.Context, b domain.ExtractionBatch) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, b)
	return int64(len(f.batches)), nil
}

func testTimings() Timings {
	return Timings{
		InitWait:      50 * time.Millisecond,
		AutoRunDelay:  10 * time.Millisecond,
		ResponseDelay: 10 * time.Millisecond,
		WatchInterval: 10 * time.Millisecond,
		PollInterval:  5 * time.Millisecond,
	}
}

type fixture struct {
	store    *store.MemoryStore
	sender   *fakeSender
	archiver *fakeArchiver
	deps     Deps
}

func newFixture() *fixture {
	f := &fixture{store: store.NewMemoryStore(), sender: &fakeSender{}, archiver: &fakeArchiver{}}
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	f.deps = Deps{
		Store:    f.store,
		Scraper:  scraper.New(scraper.DefaultLayout(), tracer),
		Sender:   f.sender,
		Archiver: f.archiver,
		Tracer:   tracer,
	}
	return f
}

func (f *fixture) agent(t *testing.T, page *fakePage) *Agent {
	t.Helper()
	a := New(context.Background(), page, f.deps, testTimings(), nil)
	t.Cleanup(a.Stop)
	return a
}

func (f *fixture) disableAuto(t *testing.T) {
	t.Helper()
	off := false
	require.NoError(t, f.store.SaveSettings(context.Background(), domain.SettingsPatch{AutoExtractEnabled: &off}))
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

func TestExtractAndSendZeroRowsSendsNothing(t *testing.T) {
	f := newFixture()
	a := f.agent(t, newFakePage("p1", "<html><body>loading</body></html>"))

	_, err := a.ExtractAndSend(context.Background(), false)
	require.ErrorIs(t, err, ErrNoData)
	require.Zero(t, f.sender.calls())

	history, _ := f.store.History(context.Background())
	require.Empty(t, history)
	require.Equal(t, "No data found in table!", a.Snapshot().Status)
	require.True(t, a.Snapshot().ExtractEnabled, "button re-enabled after an empty run")
}

func TestManualExtractSendsRecordsAndEnablesExport(t *testing.T) {
	f := newFixture()
	a := f.agent(t, newFakePage("p1", tableHTML("BONK", "WIF")))

	batch, err := a.ExtractAndSend(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, batch.Rows, 2)

	require.Equal(t, 1, f.sender.calls())
	require.Equal(t, domain.DefaultWebhookURL, f.sender.urls[0])
	payload := f.sender.payloads[0]
	require.False(t, payload.IsAutomatic)
	require.Equal(t, "https://dexscreener.com/solana", payload.Source)
	require.Equal(t, "BONK/SOL", payload.Data[0].TokenSymbol)
	require.Equal(t, "https://dexscreener.com/solana/p0", payload.Data[0].PairURL)

	history, _ := f.store.History(context.Background())
	require.Len(t, history, 1)
	require.Equal(t, 2, history[0].RowsExtracted)
	require.False(t, history[0].IsAutomatic)
	require.Len(t, f.archiver.batches, 1)

	state := a.Snapshot()
	require.Equal(t, "Data sent successfully!", state.Status)
	require.Equal(t, LevelSuccess, state.Level)
	require.True(t, state.CanExport)

	name, data, err := a.Export()
	require.NoError(t, err)
	require.Equal(t, domain.ExportFileName(batch.CapturedAt), name)
	var rows []domain.ExtractedRow
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Equal(t, batch.Rows, rows)
	require.Contains(t, string(data), "\n  {", "export is pretty-printed")

	path, err := a.SaveExport(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, data, written)
}

func TestSendFailureStillRecordsHistory(t *testing.T) {
	f := newFixture()
	f.sender.err = errors.New("server responded with 502")
	a := f.agent(t, newFakePage("p1", tableHTML("BONK")))

	_, err := a.ExtractAndSend(context.Background(), false)
	require.Error(t, err)
	require.Equal(t, "Error: server responded with 502", a.Snapshot().Status)
	require.Equal(t, LevelError, a.Snapshot().Level)

	history, _ := f.store.History(context.Background())
	require.Len(t, history, 1)

	_, err = a.ExtractAndSend(context.Background(), true)
	require.Error(t, err)
	require.Equal(t, "Auto-extraction error: server responded with 502", a.Snapshot().Status)
}

func TestAutomaticExtractDoesNotOfferExport(t *testing.T) {
	f := newFixture()
	a := f.agent(t, newFakePage("p1", tableHTML("BONK")))

	_, err := a.ExtractAndSend(context.Background(), true)
	require.NoError(t, err)
	require.True(t, f.sender.payloads[0].IsAutomatic)
	require.True(t, strings.HasPrefix(a.Snapshot().Status, "Auto-extraction successful (1 rows) at "))

	_, _, err = a.Export()
	require.ErrorIs(t, err, ErrNothingToExport)
}

func TestUnreadablePageReportsError(t *testing.T) {
	f := newFixture()
	page := newFakePage("p1", "")
	page.htmlErr = errors.New("target closed")
	a := f.agent(t, page)

	_, err := a.ExtractAndSend(context.Background(), false)
	require.Error(t, err)
	require.Equal(t, "Error: target closed", a.Snapshot().Status)

	res, err := a.Handle(context.Background(), Extract{})
	require.NoError(t, err)
	require.False(t, res.OK())
}

type gatedSender struct {
	release  chan struct{}
	inFlight chan struct{}
}

func (s *gatedSender) Send(ctx context.Context, url string, payload domain.WebhookPayload) error {
	s.inFlight <- struct{}{}
	<-s.release
	return nil
}

func TestConcurrentPressesRunOneManualExtraction(t *testing.T) {
	f := newFixture()
	sender := &gatedSender{release: make(chan struct{}), inFlight: make(chan struct{}, 8)}
	f.deps.Sender = sender
	a := f.agent(t, newFakePage("p1", tableHTML("BONK")))

	const presses = 8
	start := make(chan struct{})
	errs := make(chan error, presses)
	var wg sync.WaitGroup
	for i := 0; i < presses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := a.PressExtract(context.Background())
			errs <- err
		}()
	}
	close(start)

	<-sender.inFlight
	refused := 0
	for refused < presses-1 {
		select {
		case err := <-errs:
			require.ErrorIs(t, err, ErrBusy)
			refused++
		case <-sender.inFlight:
			t.Fatal("a second manual extraction started while the button was disabled")
		case <-time.After(time.Second):
			t.Fatalf("only %d presses refused", refused)
		}
	}
	close(sender.release)
	wg.Wait()
	require.NoError(t, <-errs)
	require.True(t, a.Snapshot().ExtractEnabled)
}

func TestPressExtractRefusedWhileBusy(t *testing.T) {
	f := newFixture()
	a := f.agent(t, newFakePage("p1", tableHTML("BONK")))

	a.setExtractEnabled(false)
	_, err := a.PressExtract(context.Background())
	require.ErrorIs(t, err, ErrBusy)

	a.setExtractEnabled(true)
	_, err = a.PressExtract(context.Background())
	require.NoError(t, err)
}

func TestInitRestoresSettingsAndRunsAutomaticExtraction(t *testing.T) {
	f := newFixture()
	url := "http://hooks.local/in"
	interval := time.Hour
	require.NoError(t, f.store.SaveSettings(context.Background(), domain.SettingsPatch{WebhookURL: &url, ExtractInterval: &interval}))
	a := f.agent(t, newFakePage("p1", tableHTML("BONK")))

	require.NoError(t, a.Init(context.Background()))
	state := a.Snapshot()
	require.Equal(t, url, state.WebhookURL)
	require.True(t, state.AutoExtractEnabled)
	require.True(t, strings.HasPrefix(state.NextExtraction, "Next extraction at: "))

	eventually(t, func() bool { return f.sender.calls() == 1 })
	require.True(t, f.sender.payloads[0].IsAutomatic)
	require.Equal(t, url, f.sender.urls[0])
}

func TestInitWithAutoDisabled(t *testing.T) {
	f := newFixture()
	f.disableAuto(t)
	a := f.agent(t, newFakePage("p1", tableHTML("BONK")))

	require.NoError(t, a.Init(context.Background()))
	require.Equal(t, "Ready", a.Snapshot().Status)
	require.Equal(t, "Auto-extract disabled", a.Snapshot().NextExtraction)

	time.Sleep(30 * time.Millisecond)
	require.Zero(t, f.sender.calls())
}

func TestUpdateCommandsMutateSessionAndPersist(t *testing.T) {
	f := newFixture()
	f.disableAuto(t)
	timings := testTimings()
	timings.AutoRunDelay = time.Hour
	a := New(context.Background(), newFakePage("p1", tableHTML("BONK")), f.deps, timings, nil)
	t.Cleanup(a.Stop)
	require.NoError(t, a.Init(context.Background()))
	ctx := context.Background()

	res, err := a.Handle(ctx, UpdateWebhook{WebhookURL: "http://new/hook"})
	require.NoError(t, err)
	require.Equal(t, UpdateWebhookResult{Success: true}, res)
	require.Equal(t, "Webhook URL updated", a.Snapshot().Status)

	res, err = a.Handle(ctx, UpdateExtractInterval{Interval: 15 * time.Minute})
	require.NoError(t, err)
	require.Equal(t, UpdateExtractIntervalResult{Success: true, ExtractInterval: 900000}, res)

	status, err := a.Handle(ctx, GetStatus{})
	require.NoError(t, err)
	require.Nil(t, status.(StatusResult).NextExtraction)

	res, err = a.Handle(ctx, UpdateAutoExtract{Enabled: true})
	require.NoError(t, err)
	require.Equal(t, UpdateAutoExtractResult{Success: true, AutoExtractEnabled: true}, res)
	require.Equal(t, "Auto-extract enabled. Next extraction in 15 minutes.", a.Snapshot().Status)

	status, err = a.Handle(ctx, GetStatus{})
	require.NoError(t, err)
	sr := status.(StatusResult)
	require.Equal(t, "http://new/hook", sr.WebhookURL)
	require.Equal(t, int64(900000), sr.ExtractInterval)
	next, ok := sr.NextExtractionTime()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), next, 5*time.Second)

	settings, err := store.Settings(ctx, f.store)
	require.NoError(t, err)
	require.Equal(t, "http://new/hook", settings.WebhookURL)
	require.Equal(t, 15*time.Minute, settings.ExtractInterval)
	require.True(t, settings.AutoExtractEnabled)

	_, err = a.Handle(ctx, UpdateAutoExtract{Enabled: false})
	require.NoError(t, err)
	require.Equal(t, "Auto-extract disabled.", a.Snapshot().Status)
	require.Equal(t, timerDisabled, a.timer.State())
}

func TestEnablingAutoExtractRunsImmediately(t *testing.T) {
	f := newFixture()
	f.disableAuto(t)
	a := f.agent(t, newFakePage("p1", tableHTML("BONK")))
	require.NoError(t, a.Init(context.Background()))
	ctx := context.Background()

	_, err := a.Handle(ctx, UpdateExtractInterval{Interval: time.Hour})
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)
	require.Zero(t, f.sender.calls())

	_, err = a.Handle(ctx, UpdateAutoExtract{Enabled: true})
	require.NoError(t, err)
	require.Equal(t, timerArmed, a.timer.State())
	eventually(t, func() bool { return f.sender.calls() == 1 })
	require.True(t, f.sender.payloads[0].IsAutomatic)

	// already enabled: no second immediate run
	_, err = a.Handle(ctx, UpdateAutoExtract{Enabled: true})
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, 1, f.sender.calls())
}

func TestImmediateRunSkippedWhenDisabledAgain(t *testing.T) {
	f := newFixture()
	f.disableAuto(t)
	timings := testTimings()
	timings.AutoRunDelay = 30 * time.Millisecond
	a := New(context.Background(), newFakePage("p1", tableHTML("BONK")), f.deps, timings, nil)
	t.Cleanup(a.Stop)
	require.NoError(t, a.Init(context.Background()))

	require.True(t, a.ToggleAutoExtract(context.Background()))
	require.False(t, a.ToggleAutoExtract(context.Background()))
	time.Sleep(80 * time.Millisecond)
	require.Zero(t, f.sender.calls())
}

func TestExtractCommandRespondsWithResampledCount(t *testing.T) {
	f := newFixture()
	page := newFakePage("p1", "<html></html>")
	a := f.agent(t, page)

	res, err := a.Handle(context.Background(), Extract{})
	require.NoError(t, err)
	require.Equal(t, ExtractResult{Success: true, Count: 0}, res)
	require.Zero(t, f.sender.calls())

	page.set("https://dexscreener.com/solana", tableHTML("A", "B", "C"))
	res, err = a.Handle(context.Background(), Extract{AutoClose: true})
	require.NoError(t, err)
	require.Equal(t, ExtractResult{Success: true, Count: 3}, res)
	require.True(t, f.sender.payloads[0].IsAutomatic)
}

func TestRefreshCommandAcksAndReloads(t *testing.T) {
	f := newFixture()
	reloaded := make(chan struct{}, 1)
	a := New(context.Background(), newFakePage("p1", ""), f.deps, testTimings(), func(ctx context.Context) error {
		reloaded <- struct{}{}
		return nil
	})
	t.Cleanup(a.Stop)

	res, err := a.Handle(context.Background(), Refresh{})
	require.NoError(t, err)
	require.Equal(t, RefreshResult{Success: true, Message: "Page refresh initiated"}, res)

	select {
	case <-reloaded:
	case <-time.After(time.Second):
		t.Fatal("reload not requested")
	}
}

func TestPanelAffordances(t *testing.T) {
	f := newFixture()
	f.disableAuto(t)
	a := f.agent(t, newFakePage("p1", tableHTML("BONK")))
	require.NoError(t, a.Init(context.Background()))
	ctx := context.Background()

	require.True(t, a.ToggleAutoExtract(ctx))
	require.Equal(t, timerArmed, a.timer.State())
	require.False(t, a.ToggleAutoExtract(ctx))
	require.Equal(t, timerDisabled, a.timer.State())

	require.False(t, a.ToggleVisibility(ctx))
	settings, _ := store.Settings(ctx, f.store)
	require.False(t, settings.IsPanelVisible)

	require.False(t, a.SetWebhookURL(""))
	require.True(t, a.SetWebhookURL("http://session-only"))
	require.Equal(t, "http://session-only", a.Snapshot().WebhookURL)
	settings, _ = store.Settings(ctx, f.store)
	require.Equal(t, domain.DefaultWebhookURL, settings.WebhookURL, "settings affordance is not persisted")
}

func TestNavigationWatcherReportsRows(t *testing.T) {
	f := newFixture()
	f.disableAuto(t)
	page := newFakePage("p1", tableHTML("BONK"))
	a := f.agent(t, page)
	a.Start()

	eventually(t, func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.lastURL != ""
	})
	page.set("https://dexscreener.com/base", tableHTML("A", "B"))

	eventually(t, func() bool { return a.Snapshot().Status == "Found 2 rows on new page" })
	require.Zero(t, f.sender.calls())
}

func TestSubscribeStreamsStateUntilStop(t *testing.T) {
	f := newFixture()
	a := New(context.Background(), newFakePage("p1", tableHTML("BONK")), f.deps, testTimings(), nil)

	ch := a.Subscribe(context.Background())
	first := <-ch
	require.Equal(t, "p1", first.PageID)

	a.SetWebhookURL("http://x")
	eventually(t, func() bool {
		select {
		case s := <-ch:
			return s.Status == "Webhook URL updated"
		default:
			return false
		}
	})

	a.Stop()
	eventually(t, func() bool {
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	})
}

func TestInitializedClosesAfterInit(t *testing.T) {
	f := newFixture()
	f.disableAuto(t)
	a := f.agent(t, newFakePage("p1", tableHTML("BONK")))

	select {
	case <-a.Initialized():
		t.Fatal("initialized before Init ran")
	default:
	}
	require.NoError(t, a.Init(context.Background()))
	require.NoError(t, a.Init(context.Background()))
	<-a.Initialized()
}
