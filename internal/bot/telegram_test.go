package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/panel"

	tele "gopkg.in/telebot.v3"
)

type fakePanel struct {
	view    panel.View
	openErr error
	saved   []domain.Settings
}

func (f *fakePanel) Open(ctx context.Context) (panel.View, error) {
	return f.view, f.openErr
}

func (f *fakePanel) Save(ctx context.Context, s domain.Settings) (panel.View, error) {
	f.saved = append(f.saved, s)
	f.view.WebhookURL = s.WebhookURL
	f.view.AutoExtractEnabled = s.AutoExtractEnabled
	f.view.ExtractInterval = s.ExtractInterval
	f.view.Status = "Settings saved!"
	return f.view, nil
}

func (f *fakePanel) Extract(ctx context.Context) panel.View {
	f.view.Status = "Extracted 3 items"
	f.view.LastExtraction = "Last extraction: 10:00:00 (3 rows)"
	return f.view
}

func (f *fakePanel) Refresh(ctx context.Context) panel.View {
	f.view.Status = "Page refreshed"
	return f.view
}

func newFakePanel() *fakePanel {
	return &fakePanel{view: panel.View{
		WebhookURL:         "http://hook",
		AutoExtractEnabled: true,
		ExtractInterval:    time.Hour,
		Status:             panel.StatusReady,
		NextExtraction:     "Next scheduled extraction: 11:00:00",
	}}
}

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	if b := StartTelegramBot("", newFakePanel()); b != nil {
		t.Fatal("expected no bot without token")
	}
}

func TestStartTelegramBotSurvivesCreateError(t *testing.T) {
	orig := newBot
	defer func() { newBot = orig }()
	newBot = func(tele.Settings) (*tele.Bot, error) { return nil, errors.New("unauthorized") }

	if b := StartTelegramBot("token", newFakePanel()); b != nil {
		t.Fatal("expected nil bot on create error")
	}
}

func TestStatusReply(t *testing.T) {
	got := NewCommands(newFakePanel()).Status(context.Background())
	for _, want := range []string{"Ready", "Webhook: http://hook", "Auto-extract: on (every 1 hour)", "Next scheduled extraction: 11:00:00"} {
		if !strings.Contains(got, want) {
			t.Fatalf("status reply missing %q:\n%s", want, got)
		}
	}

	p := newFakePanel()
	p.openErr = errors.New("redis down")
	if got := NewCommands(p).Status(context.Background()); got != "Error: redis down" {
		t.Fatalf("unexpected error reply %q", got)
	}
}

func TestExtractAndRefreshReplies(t *testing.T) {
	c := NewCommands(newFakePanel())
	if got := c.Extract(context.Background()); got != "Extracted 3 items\nLast extraction: 10:00:00 (3 rows)" {
		t.Fatalf("unexpected extract reply %q", got)
	}
	if got := c.Refresh(context.Background()); got != "Page refreshed" {
		t.Fatalf("unexpected refresh reply %q", got)
	}
}

func TestAutoKeepsOtherSettings(t *testing.T) {
	p := newFakePanel()
	c := NewCommands(p)

	if got := c.Auto(context.Background(), nil); !strings.HasPrefix(got, "Usage") {
		t.Fatalf("expected usage, got %q", got)
	}
	if got := c.Auto(context.Background(), []string{"maybe"}); !strings.HasPrefix(got, "Usage") {
		t.Fatalf("expected usage, got %q", got)
	}

	got := c.Auto(context.Background(), []string{"off"})
	if !strings.Contains(got, "Settings saved!") || !strings.Contains(got, "Auto-extract: off") {
		t.Fatalf("unexpected reply %q", got)
	}
	if len(p.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(p.saved))
	}
	want := domain.Settings{WebhookURL: "http://hook", AutoExtractEnabled: false, ExtractInterval: time.Hour}
	if p.saved[0] != want {
		t.Fatalf("unexpected saved settings %+v", p.saved[0])
	}
}

func TestIntervalOnlyAcceptsChoices(t *testing.T) {
	p := newFakePanel()
	c := NewCommands(p)

	for _, args := range [][]string{nil, {"abc"}, {"7"}, {"-5"}} {
		if got := c.Interval(context.Background(), args); !strings.HasPrefix(got, "Usage") {
			t.Fatalf("args %v: expected usage, got %q", args, got)
		}
	}
	if len(p.saved) != 0 {
		t.Fatal("invalid intervals must not be saved")
	}

	got := c.Interval(context.Background(), []string{"30"})
	if !strings.Contains(got, "every 30 min") {
		t.Fatalf("unexpected reply %q", got)
	}
	if p.saved[0].ExtractInterval != 30*time.Minute || !p.saved[0].AutoExtractEnabled {
		t.Fatalf("unexpected saved settings %+v", p.saved[0])
	}
}

func TestWebhookValidation(t *testing.T) {
	p := newFakePanel()
	c := NewCommands(p)

	for _, arg := range []string{"ftp://x", "not a url", "http://"} {
		if got := c.Webhook(context.Background(), []string{arg}); got != "Webhook must be an http(s) URL" {
			t.Fatalf("%q: unexpected reply %q", arg, got)
		}
	}
	got := c.Webhook(context.Background(), []string{"https://example.com/hook"})
	if !strings.Contains(got, "Webhook: https://example.com/hook") {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestSettingsReply(t *testing.T) {
	p := newFakePanel()
	p.view.ExtractInterval = 15 * time.Minute
	got := NewCommands(p).Settings(context.Background())
	if !strings.Contains(got, "Interval: 15 min") || !strings.Contains(got, "/interval MINUTES") {
		t.Fatalf("unexpected settings reply %q", got)
	}
}
