package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/panel"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const actionTimeout = 2 * time.Minute

// Controller is what the model drives; *panel.Panel implements it.
type Controller interface {
	Open(ctx context.Context) (panel.View, error)
	Save(ctx context.Context, s domain.Settings) (panel.View, error)
	Extract(ctx context.Context) panel.View
	Refresh(ctx context.Context) panel.View
	PreviewAuto(enabled bool, interval time.Duration) panel.View
	OnChange(fn func(panel.View))
	Close()
}

const (
	focusWebhook = iota
	focusAuto
	focusInterval
	focusCount
)

type viewMsg panel.View

type openedMsg struct {
	view panel.View
	err  error
}

type savedMsg struct {
	view panel.View
	err  error
}

// Model is the terminal rendition of the control panel.
type Model struct {
	ctl     Controller
	updates chan panel.View

	view      panel.View
	webhook   textinput.Model
	auto      bool
	intervals []time.Duration
	interval  int
	focus     int
	loaded    bool
	err       error

	width  int
	height int
}

func NewModel(ctl Controller) *Model {
	in := textinput.New()
	in.Placeholder = domain.DefaultWebhookURL
	in.CharLimit = 2048
	in.Width = 50
	in.Focus()

	m := &Model{
		ctl:       ctl,
		updates:   make(chan panel.View, 16),
		webhook:   in,
		intervals: append([]time.Duration(nil), domain.IntervalChoices...),
		view:      panel.View{Status: panel.StatusReady},
	}
	ctl.OnChange(func(v panel.View) {
		select {
		case m.updates <- v:
		default:
		}
	})
	m.selectInterval(domain.DefaultExtractInterval)
	return m
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.open(), m.waitForView())
}

func (m *Model) waitForView() tea.Cmd {
	return func() tea.Msg {
		return viewMsg(<-m.updates)
	}
}

func (m *Model) open() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		v, err := m.ctl.Open(ctx)
		return openedMsg{view: v, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case viewMsg:
		m.view = panel.View(msg)
		return m, m.waitForView()

	case openedMsg:
		m.err = msg.err
		m.view = msg.view
		if msg.err == nil {
			m.loaded = true
			m.webhook.SetValue(msg.view.WebhookURL)
			m.auto = msg.view.AutoExtractEnabled
			m.selectInterval(msg.view.ExtractInterval)
		}
		return m, nil

	case savedMsg:
		m.err = msg.err
		m.view = msg.view
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focus == focusWebhook {
		var cmd tea.Cmd
		m.webhook, cmd = m.webhook.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.ctl.Close()
		return m, tea.Quit
	case "tab", "down":
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case "shift+tab", "up":
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	case "ctrl+s":
		return m, m.save()
	case "ctrl+e":
		return m, m.run(m.ctl.Extract)
	case "ctrl+r":
		return m, m.run(m.ctl.Refresh)
	}

	switch m.focus {
	case focusWebhook:
		if msg.String() == "enter" {
			return m, m.save()
		}
		var cmd tea.Cmd
		m.webhook, cmd = m.webhook.Update(msg)
		return m, cmd
	case focusAuto:
		switch msg.String() {
		case " ", "enter", "left", "right":
			m.auto = !m.auto
			m.view = m.ctl.PreviewAuto(m.auto, m.selected())
		case "q":
			m.ctl.Close()
			return m, tea.Quit
		}
	case focusInterval:
		switch msg.String() {
		case "left":
			m.interval = (m.interval + len(m.intervals) - 1) % len(m.intervals)
			m.previewInterval()
		case "right", " ":
			m.interval = (m.interval + 1) % len(m.intervals)
			m.previewInterval()
		case "enter":
			return m, m.save()
		case "q":
			m.ctl.Close()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) previewInterval() {
	if m.auto {
		m.view = m.ctl.PreviewAuto(true, m.selected())
	}
}

func (m *Model) setFocus(f int) {
	m.focus = f
	if f == focusWebhook {
		m.webhook.Focus()
	} else {
		m.webhook.Blur()
	}
}

// Settings is what Save would persist right now.
func (m *Model) Settings() domain.Settings {
	return domain.Settings{
		WebhookURL:         strings.TrimSpace(m.webhook.Value()),
		AutoExtractEnabled: m.auto,
		ExtractInterval:    m.selected(),
	}
}

func (m *Model) save() tea.Cmd {
	s := m.Settings()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		v, err := m.ctl.Save(ctx, s)
		return savedMsg{view: v, err: err}
	}
}

func (m *Model) run(action func(ctx context.Context) panel.View) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return savedMsg{view: action(ctx)}
	}
}

func (m *Model) selected() time.Duration {
	return m.intervals[m.interval]
}

// selectInterval picks d, adding it to the choices when it was set elsewhere.
func (m *Model) selectInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	for i, c := range m.intervals {
		if c == d {
			m.interval = i
			return
		}
	}
	m.intervals = append(m.intervals, d)
	sort.Slice(m.intervals, func(i, j int) bool { return m.intervals[i] < m.intervals[j] })
	m.selectInterval(d)
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("DEXScreener Data Extractor"))
	b.WriteString("\n")

	b.WriteString(m.label("Webhook URL", focusWebhook))
	b.WriteString(m.webhook.View())
	b.WriteString("\n")

	b.WriteString(m.label("Auto-extract", focusAuto))
	if m.auto {
		b.WriteString("[x] enabled")
	} else {
		b.WriteString("[ ] disabled")
	}
	b.WriteString("\n")

	b.WriteString(m.label("Interval", focusInterval))
	b.WriteString("< " + IntervalLabel(m.selected()) + " >")
	b.WriteString("\n\n")

	lines := []string{statusStyle(m.view.Status).Render(m.view.Status)}
	if m.view.NextExtraction != "" {
		lines = append(lines, m.view.NextExtraction)
	}
	if m.view.LastExtraction != "" {
		lines = append(lines, mutedStyle.Render(m.view.LastExtraction))
	}
	if m.err != nil {
		lines = append(lines, errorStyle.Render("Error: "+m.err.Error()))
	}
	b.WriteString(boxStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n\n")

	b.WriteString(helpStyle.Render("tab: next field • space/←/→: change • enter/ctrl+s: save • ctrl+e: extract now • ctrl+r: refresh page • esc: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) label(name string, field int) string {
	if m.focus == field {
		return focusedLabelStyle.Render(name)
	}
	return labelStyle.Render(name)
}

// IntervalLabel matches the wording of the interval picker.
func IntervalLabel(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	default:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
}

func statusStyle(status string) lipgloss.Style {
	switch {
	case strings.HasPrefix(status, "Error"), status == panel.StatusNoTab:
		return errorStyle
	case strings.HasSuffix(status, "..."):
		return workingStyle
	case status == panel.StatusReady:
		return mutedStyle
	default:
		return successStyle
	}
}
