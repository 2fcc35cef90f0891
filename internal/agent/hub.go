package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dexscreener-extractor/internal/browser"

	"github.com/charmbracelet/log"
)

var ErrNoActivePage = errors.New("no active page")

// ActivePageID can be passed wherever a page id is expected.
const ActivePageID = "active"

type PageInfo struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// Hub attaches one agent to every page of a browser and routes commands to them.
type Hub struct {
	ctx     context.Context
	browser browser.Browser
	deps    Deps
	timings Timings

	mu     sync.Mutex
	agents map[string]*Agent
}

func NewHub(ctx context.Context, b browser.Browser, deps Deps, timings Timings) *Hub {
	return &Hub{
		ctx:     ctx,
		browser: b,
		deps:    deps,
		timings: timings,
		agents:  make(map[string]*Agent),
	}
}

// Attach starts a fresh agent on page, replacing any previous one.
func (h *Hub) Attach(page browser.Page) *Agent {
	id := page.ID()
	a := New(h.ctx, page, h.deps, h.timings, func(ctx context.Context) error {
		return h.Reload(ctx, id)
	})

	h.mu.Lock()
	old := h.agents[id]
	h.agents[id] = a
	h.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	a.Start()
	return a
}

// Open opens url in a new page and attaches an agent to it.
func (h *Hub) Open(ctx context.Context, url string, background bool) (*Agent, error) {
	page, err := h.browser.Open(ctx, url, background)
	if err != nil {
		return nil, err
	}
	return h.Attach(page), nil
}

// OpenPage is Open for callers that only need the page id.
func (h *Hub) OpenPage(ctx context.Context, url string, background bool) (string, error) {
	a, err := h.Open(ctx, url, background)
	if err != nil {
		return "", err
	}
	return a.PageID(), nil
}

// FindTarget returns the id of the first page showing the target site.
func (h *Hub) FindTarget(ctx context.Context, prefix string) (string, bool) {
	p, ok := browser.FindTarget(ctx, h.browser, prefix)
	if !ok {
		return "", false
	}
	return p.ID(), true
}

// WaitReady polls page id until its table has rows or max elapses.
func (h *Hub) WaitReady(ctx context.Context, id string, max time.Duration) (bool, error) {
	a, err := h.Agent(id)
	if err != nil {
		return false, err
	}
	return browser.WaitFor(ctx, a.page, a.hasRows, max, h.timings.PollInterval)
}

// Navigate points page id at url without reloading its agent. The agent's
// navigation watcher notices the change.
func (h *Hub) Navigate(ctx context.Context, id, url string) error {
	a, err := h.Agent(id)
	if err != nil {
		return err
	}
	return a.page.Navigate(ctx, url)
}

// Agent resolves id, or ActivePageID, to its agent.
func (h *Hub) Agent(id string) (*Agent, error) {
	if id == ActivePageID {
		page, ok := h.browser.Active()
		if !ok {
			return nil, ErrNoActivePage
		}
		id = page.ID()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	a, ok := h.agents[id]
	if !ok {
		if id == "" {
			return nil, ErrNoActivePage
		}
		return nil, fmt.Errorf("%w: %s", browser.ErrPageNotFound, id)
	}
	return a, nil
}

// Ready resolves id like Agent and then waits until the agent has restored
// the persisted settings. A freshly attached agent still holds the defaults.
func (h *Hub) Ready(ctx context.Context, id string) (*Agent, error) {
	a, err := h.Agent(id)
	if err != nil {
		return nil, err
	}
	select {
	case <-a.Initialized():
		return a, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) Send(ctx context.Context, id string, cmd Command) (Result, error) {
	a, err := h.Ready(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.Handle(ctx, cmd)
}

// Reload reloads the page and reinitializes its agent. The old agent's
// session state, including its local timer, is discarded.
func (h *Hub) Reload(ctx context.Context, id string) error {
	a, err := h.Agent(id)
	if err != nil {
		return err
	}
	a.Stop()
	if err := a.page.Reload(ctx); err != nil {
		// keep an agent attached to whatever the page still shows
		h.Attach(a.page)
		return fmt.Errorf("reload %s: %w", a.page.ID(), err)
	}
	h.Attach(a.page)
	return nil
}

func (h *Hub) Close(ctx context.Context, id string) error {
	a, err := h.Agent(id)
	if err != nil {
		return err
	}
	h.mu.Lock()
	delete(h.agents, a.page.ID())
	h.mu.Unlock()

	a.Stop()
	return a.page.Close(ctx)
}

// Active returns the page the control panels talk to.
func (h *Hub) Active(ctx context.Context) (PageInfo, error) {
	a, err := h.Agent(ActivePageID)
	if err != nil {
		if errors.Is(err, browser.ErrPageNotFound) {
			return PageInfo{}, ErrNoActivePage
		}
		return PageInfo{}, err
	}
	u, _ := a.page.URL(ctx)
	return PageInfo{ID: a.page.ID(), URL: u, Active: true}, nil
}

func (h *Hub) Activate(id string) error {
	return h.browser.Activate(id)
}

func (h *Hub) Pages(ctx context.Context) []PageInfo {
	activeID := ""
	if p, ok := h.browser.Active(); ok {
		activeID = p.ID()
	}
	pages := h.browser.Pages()
	out := make([]PageInfo, 0, len(pages))
	for _, p := range pages {
		u, _ := p.URL(ctx)
		out = append(out, PageInfo{ID: p.ID(), URL: u, Active: p.ID() == activeID})
	}
	return out
}

// Shutdown stops every agent. Pages are left to the browser's own Close.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	agents := make([]*Agent, 0, len(h.agents))
	for _, a := range h.agents {
		agents = append(agents, a)
	}
	h.agents = make(map[string]*Agent)
	h.mu.Unlock()

	for _, a := range agents {
		a.Stop()
	}
	log.Info("all page agents stopped", "count", len(agents))
}
