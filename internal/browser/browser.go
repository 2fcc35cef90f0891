package browser

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var ErrPageNotFound = errors.New("page not found")

// Page is one open document, the equivalent of a browser tab.
type Page interface {
	ID() string
	URL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Reload(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
	Close(ctx context.Context) error
}

// Browser owns a set of pages and tracks which one is active.
type Browser interface {
	Open(ctx context.Context, url string, background bool) (Page, error)
	Get(id string) (Page, bool)
	Pages() []Page
	Active() (Page, bool)
	Activate(id string) error
	Close() error
}

// MatchesTarget reports whether url belongs to the target site.
func MatchesTarget(url, targetPrefix string) bool {
	return url != "" && strings.HasPrefix(url, targetPrefix)
}

// FindTarget returns the first open page whose URL matches the target prefix.
func FindTarget(ctx context.Context, b Browser, targetPrefix string) (Page, bool) {
	for _, p := range b.Pages() {
		u, err := p.URL(ctx)
		if err == nil && MatchesTarget(u, targetPrefix) {
			return p, true
		}
	}
	return nil, false
}

// WaitFor polls page HTML until ready holds or max elapses. It returns
// whether the predicate held; running out of time is not an error.
func WaitFor(ctx context.Context, p Page, ready func(html string) bool, max, poll time.Duration) (bool, error) {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	deadline := time.NewTimer(max)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		if html, err := p.HTML(ctx); err == nil && ready(html) {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-ticker.C:
		}
	}
}

// registry keeps pages in open order plus the active id. It is shared by the
// browser implementations. Pages opened in the background only become active
// through an explicit activate.
type registry struct {
	mu       sync.Mutex
	order    []string
	pages    map[string]Page
	shown    map[string]bool
	activeID string
}

func newRegistry() *registry {
	return &registry{pages: make(map[string]Page), shown: make(map[string]bool)}
}

func (r *registry) add(p Page, activate bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, p.ID())
	r.pages[p.ID()] = p
	if activate {
		r.shown[p.ID()] = true
		r.activeID = p.ID()
	}
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pages, id)
	delete(r.shown, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.activeID == id {
		r.activeID = ""
		for i := len(r.order) - 1; i >= 0; i-- {
			if r.shown[r.order[i]] {
				r.activeID = r.order[i]
				break
			}
		}
	}
}

func (r *registry) get(id string) (Page, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pages[id]
	return p, ok
}

func (r *registry) list() []Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Page, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.pages[id])
	}
	return out
}

func (r *registry) active() (Page, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeID == "" {
		return nil, false
	}
	p, ok := r.pages[r.activeID]
	return p, ok
}

func (r *registry) activate(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pages[id]; !ok {
		return ErrPageNotFound
	}
	r.shown[id] = true
	r.activeID = id
	return nil
}
