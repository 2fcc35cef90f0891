package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/panel"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeController struct {
	mu       sync.Mutex
	view     panel.View
	saved    []domain.Settings
	previews int
	closed   bool
	actions  []string
	onChange func(panel.View)
}

func (f *fakeController) Open(ctx context.Context) (panel.View, error) {
	return f.view, nil
}

func (f *fakeController) Save(ctx context.Context, s domain.Settings) (panel.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, s)
	v := f.view
	v.Status = "Settings saved!"
	return v, nil
}

func (f *fakeController) Extract(ctx context.Context) panel.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, "extract")
	return panel.View{Status: "Extracted 2 items"}
}

func (f *fakeController) Refresh(ctx context.Context) panel.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, "refresh")
	return panel.View{Status: "Page refreshed"}
}

func (f *fakeController) PreviewAuto(enabled bool, interval time.Duration) panel.View {
	f.previews++
	if enabled {
		return panel.View{Status: panel.StatusReady, NextExtraction: "Next scheduled extraction: soon"}
	}
	return panel.View{Status: panel.StatusReady, NextExtraction: "Auto-extraction disabled"}
}

func (f *fakeController) OnChange(fn func(panel.View)) { f.onChange = fn }
func (f *fakeController) Close()                       { f.closed = true }

func loadedModel(t *testing.T) (*Model, *fakeController) {
	t.Helper()
	ctl := &fakeController{view: panel.View{
		WebhookURL:         "http://hook",
		AutoExtractEnabled: true,
		ExtractInterval:    30 * time.Minute,
		Status:             panel.StatusReady,
	}}
	m := NewModel(ctl)
	msg := m.open()()
	m.Update(msg)
	if !m.loaded {
		t.Fatal("expected model to load settings")
	}
	return m, ctl
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func TestOpenFillsFields(t *testing.T) {
	m, _ := loadedModel(t)
	s := m.Settings()
	if s.WebhookURL != "http://hook" || !s.AutoExtractEnabled || s.ExtractInterval != 30*time.Minute {
		t.Fatalf("unexpected settings %+v", s)
	}
	out := m.View()
	for _, want := range []string{"DEXScreener Data Extractor", "http://hook", "[x] enabled", "30 minutes", "Ready"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestToggleAutoPreviewsAndSaves(t *testing.T) {
	m, ctl := loadedModel(t)

	m.Update(key(tea.KeyTab))
	if m.focus != focusAuto {
		t.Fatalf("expected auto focus, got %d", m.focus)
	}
	m.Update(key(tea.KeySpace))
	if m.auto || ctl.previews != 1 {
		t.Fatalf("expected auto toggled off with preview, auto=%v previews=%d", m.auto, ctl.previews)
	}
	if m.view.NextExtraction != "Auto-extraction disabled" {
		t.Fatalf("unexpected preview %q", m.view.NextExtraction)
	}

	m.Update(key(tea.KeyTab))
	m.Update(key(tea.KeyRight))
	if m.selected() != time.Hour {
		t.Fatalf("expected next interval choice, got %v", m.selected())
	}
	if ctl.previews != 1 {
		t.Fatal("interval change must not preview while auto is off")
	}

	_, cmd := m.Update(key(tea.KeyCtrlS))
	if cmd == nil {
		t.Fatal("expected save command")
	}
	m.Update(cmd())
	if len(ctl.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(ctl.saved))
	}
	want := domain.Settings{WebhookURL: "http://hook", AutoExtractEnabled: false, ExtractInterval: time.Hour}
	if ctl.saved[0] != want {
		t.Fatalf("unexpected saved settings %+v", ctl.saved[0])
	}
	if m.view.Status != "Settings saved!" {
		t.Fatalf("unexpected status %q", m.view.Status)
	}
}

func TestActionsAndChanges(t *testing.T) {
	m, ctl := loadedModel(t)

	_, cmd := m.Update(key(tea.KeyCtrlE))
	m.Update(cmd())
	if m.view.Status != "Extracted 2 items" {
		t.Fatalf("unexpected status %q", m.view.Status)
	}
	_, cmd = m.Update(key(tea.KeyCtrlR))
	m.Update(cmd())
	if m.view.Status != "Page refreshed" {
		t.Fatalf("unexpected status %q", m.view.Status)
	}
	if strings.Join(ctl.actions, ",") != "extract,refresh" {
		t.Fatalf("unexpected actions %v", ctl.actions)
	}

	ctl.onChange(panel.View{Status: panel.StatusReady})
	msg := m.waitForView()()
	_, next := m.Update(msg)
	if m.view.Status != panel.StatusReady || next == nil {
		t.Fatalf("expected pushed view to apply and keep listening, status=%q", m.view.Status)
	}
}

func TestCustomIntervalIsKept(t *testing.T) {
	ctl := &fakeController{view: panel.View{WebhookURL: "http://hook", ExtractInterval: 7 * time.Minute}}
	m := NewModel(ctl)
	m.Update(m.open()())
	if m.selected() != 7*time.Minute {
		t.Fatalf("expected custom interval selected, got %v", m.selected())
	}
	if m.intervals[1] != 7*time.Minute {
		t.Fatalf("expected custom interval sorted into choices, got %v", m.intervals)
	}
}

func TestQuitClosesPanel(t *testing.T) {
	m, ctl := loadedModel(t)
	_, cmd := m.Update(key(tea.KeyEsc))
	if cmd == nil || !ctl.closed {
		t.Fatal("expected quit command and closed panel")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestIntervalLabel(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{5 * time.Minute, "5 minutes"},
		{time.Hour, "1 hour"},
		{12 * time.Hour, "12 hours"},
		{90 * time.Minute, "90 minutes"},
	}
	for _, tc := range cases {
		if got := IntervalLabel(tc.in); got != tc.want {
			t.Fatalf("IntervalLabel(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
