package browser

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodBrowser drives real Chromium tabs, so client-rendered tables are visible.
type RodBrowser struct {
	browser *rod.Browser
	reg     *registry
}

// NewRodBrowser connects to controlURL, or launches a local headless
// Chromium when controlURL is empty.
func NewRodBrowser(ctx context.Context, controlURL string) (*RodBrowser, error) {
	if controlURL == "" {
		u, err := launcher.New().Headless(true).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chromium: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	log.Info("connected to browser", "control_url", controlURL)
	return &RodBrowser{browser: b, reg: newRegistry()}, nil
}

func (b *RodBrowser) Open(ctx context.Context, url string, background bool) (Page, error) {
	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url, Background: background})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		log.Warn("page load wait failed", "url", url, "err", err)
	}
	// Detach the page from the request context so it outlives it.
	p := &rodPage{page: page.Context(context.Background()), onClose: b.reg.remove}
	b.reg.add(p, !background)
	return p, nil
}

func (b *RodBrowser) Get(id string) (Page, bool) { return b.reg.get(id) }
func (b *RodBrowser) Pages() []Page              { return b.reg.list() }
func (b *RodBrowser) Active() (Page, bool)       { return b.reg.active() }

func (b *RodBrowser) Activate(id string) error {
	p, ok := b.reg.get(id)
	if !ok {
		return ErrPageNotFound
	}
	if _, err := p.(*rodPage).page.Activate(); err != nil {
		return fmt.Errorf("activate %s: %w", id, err)
	}
	return b.reg.activate(id)
}

func (b *RodBrowser) Close() error {
	return b.browser.Close()
}

type rodPage struct {
	page    *rod.Page
	onClose func(id string)
}

func (p *rodPage) ID() string { return string(p.page.TargetID) }

func (p *rodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *rodPage) Reload(ctx context.Context) error {
	pg := p.page.Context(ctx)
	if err := pg.Reload(); err != nil {
		return err
	}
	return pg.WaitLoad()
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return err
	}
	return pg.WaitLoad()
}

func (p *rodPage) Close(ctx context.Context) error {
	p.onClose(p.ID())
	return p.page.Context(ctx).Close()
}
