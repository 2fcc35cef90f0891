package bot

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/panel"

	"github.com/charmbracelet/log"
	tele "gopkg.in/telebot.v3"
)

const commandTimeout = 2 * time.Minute

// ControlPanel is the subset of panel.Panel the bot drives.
type ControlPanel interface {
	Open(ctx context.Context) (panel.View, error)
	Save(ctx context.Context, s domain.Settings) (panel.View, error)
	Extract(ctx context.Context) panel.View
	Refresh(ctx context.Context) panel.View
}

var newBot = tele.NewBot

// Commands renders the replies for every bot command. It holds no
// Telegram state so replies can be produced without a live bot.
type Commands struct {
	panel ControlPanel
}

func NewCommands(p ControlPanel) *Commands {
	return &Commands{panel: p}
}

func (c *Commands) Status(ctx context.Context) string {
	v, err := c.panel.Open(ctx)
	if err != nil {
		return "Error: " + err.Error()
	}
	return FormatView(v)
}

func (c *Commands) Extract(ctx context.Context) string {
	v := c.panel.Extract(ctx)
	if v.LastExtraction == "" {
		return v.Status
	}
	return v.Status + "\n" + v.LastExtraction
}

func (c *Commands) Refresh(ctx context.Context) string {
	return c.panel.Refresh(ctx).Status
}

func (c *Commands) Settings(ctx context.Context) string {
	v, err := c.panel.Open(ctx)
	if err != nil {
		return "Error: " + err.Error()
	}
	return fmt.Sprintf(
		"Webhook: %s\nAuto-extract: %s\nInterval: %s\n\nChange with /webhook URL, /auto on|off, /interval MINUTES",
		v.WebhookURL, onOff(v.AutoExtractEnabled), intervalLabel(v.ExtractInterval),
	)
}

func (c *Commands) Auto(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /auto on|off"
	}
	var enabled bool
	switch strings.ToLower(args[0]) {
	case "on", "true", "1", "yes":
		enabled = true
	case "off", "false", "0", "no":
	default:
		return "Usage: /auto on|off"
	}
	return c.save(ctx, func(s *domain.Settings) { s.AutoExtractEnabled = enabled })
}

func (c *Commands) Interval(ctx context.Context, args []string) string {
	usage := "Usage: /interval MINUTES\nChoices: " + choices()
	if len(args) == 0 {
		return usage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return usage
	}
	interval := time.Duration(n) * time.Minute
	if !allowedInterval(interval) {
		return usage
	}
	return c.save(ctx, func(s *domain.Settings) { s.ExtractInterval = interval })
}

func (c *Commands) Webhook(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /webhook https://example.com/hook"
	}
	u, err := url.Parse(args[0])
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "Webhook must be an http(s) URL"
	}
	return c.save(ctx, func(s *domain.Settings) { s.WebhookURL = u.String() })
}

// save re-reads the current values so a single-field command never clobbers
// the other two.
func (c *Commands) save(ctx context.Context, mutate func(s *domain.Settings)) string {
	v, err := c.panel.Open(ctx)
	if err != nil {
		return "Error: " + err.Error()
	}
	s := domain.Settings{
		WebhookURL:         v.WebhookURL,
		AutoExtractEnabled: v.AutoExtractEnabled,
		ExtractInterval:    v.ExtractInterval,
	}
	mutate(&s)
	v, err = c.panel.Save(ctx, s)
	if err != nil {
		return "Error: " + err.Error()
	}
	return FormatView(v)
}

// FormatView renders a panel view as a chat message.
func FormatView(v panel.View) string {
	lines := []string{
		v.Status,
		"Webhook: " + v.WebhookURL,
		fmt.Sprintf("Auto-extract: %s (every %s)", onOff(v.AutoExtractEnabled), intervalLabel(v.ExtractInterval)),
	}
	if v.NextExtraction != "" {
		lines = append(lines, v.NextExtraction)
	}
	if v.LastExtraction != "" {
		lines = append(lines, v.LastExtraction)
	}
	return strings.Join(lines, "\n")
}

// Register binds the commands to b.
func (c *Commands) Register(b *tele.Bot) {
	reply := func(fn func(ctx context.Context, args []string) string) tele.HandlerFunc {
		return func(tc tele.Context) error {
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			return tc.Send(fn(ctx, tc.Args()))
		}
	}
	noArgs := func(fn func(ctx context.Context) string) func(context.Context, []string) string {
		return func(ctx context.Context, _ []string) string { return fn(ctx) }
	}

	b.Handle("/ping", func(tc tele.Context) error { return tc.Send("pong") })
	b.Handle("/start", reply(noArgs(c.Status)))
	b.Handle("/status", reply(noArgs(c.Status)))
	b.Handle("/extract", reply(noArgs(c.Extract)))
	b.Handle("/refresh", reply(noArgs(c.Refresh)))
	b.Handle("/settings", reply(noArgs(c.Settings)))
	b.Handle("/auto", reply(c.Auto))
	b.Handle("/interval", reply(c.Interval))
	b.Handle("/webhook", reply(c.Webhook))
}

// StartTelegramBot starts long polling in the background and returns the
// bot, or nil when no token is configured or the bot cannot be created.
func StartTelegramBot(token string, p ControlPanel) *tele.Bot {
	logger := log.Default().WithPrefix("telegram")
	if token == "" {
		logger.Info("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	b, err := newBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		logger.Error("failed to create Telegram bot", "err", err)
		return nil
	}

	NewCommands(p).Register(b)
	logger.Info("Telegram bot started")
	go b.Start()
	return b
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func intervalLabel(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d min", int(d/time.Minute))
}

func allowedInterval(d time.Duration) bool {
	for _, c := range domain.IntervalChoices {
		if c == d {
			return true
		}
	}
	return false
}

func choices() string {
	out := make([]string, 0, len(domain.IntervalChoices))
	for _, c := range domain.IntervalChoices {
		out = append(out, strconv.Itoa(int(c/time.Minute)))
	}
	return strings.Join(out, ", ")
}
