package browser

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// HTTPBrowser serves pages fetched with plain GET requests. It sees only the
// server-rendered document, which is enough when the table is in the initial HTML.
type HTTPBrowser struct {
	client *resty.Client
	reg    *registry
	seq    atomic.Int64
}

func NewHTTPBrowser(client *resty.Client) *HTTPBrowser {
	if client == nil {
		client = resty.New().SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) dexscreener-extractor")
	}
	return &HTTPBrowser{client: client, reg: newRegistry()}
}

func (b *HTTPBrowser) Open(ctx context.Context, url string, background bool) (Page, error) {
	p := &httpPage{
		id:      "page-" + strconv.FormatInt(b.seq.Add(1), 10),
		client:  b.client,
		url:     url,
		onClose: b.reg.remove,
	}
	if err := p.Navigate(ctx, url); err != nil {
		return nil, err
	}
	b.reg.add(p, !background)
	return p, nil
}

func (b *HTTPBrowser) Get(id string) (Page, bool) { return b.reg.get(id) }
func (b *HTTPBrowser) Pages() []Page              { return b.reg.list() }
func (b *HTTPBrowser) Active() (Page, bool)       { return b.reg.active() }
func (b *HTTPBrowser) Activate(id string) error   { return b.reg.activate(id) }

func (b *HTTPBrowser) Close() error {
	for _, p := range b.reg.list() {
		_ = p.Close(context.Background())
	}
	return nil
}

type httpPage struct {
	id      string
	client  *resty.Client
	onClose func(id string)

	mu   sync.RWMutex
	url  string
	html string
}

func (p *httpPage) ID() string { return p.id }

func (p *httpPage) URL(ctx context.Context) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.url, nil
}

func (p *httpPage) HTML(ctx context.Context) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.html, nil
}

func (p *httpPage) Reload(ctx context.Context) error {
	u, _ := p.URL(ctx)
	return p.Navigate(ctx, u)
}

func (p *httpPage) Navigate(ctx context.Context, url string) error {
	resp, err := p.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}

	final := url
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL.String()
	}

	p.mu.Lock()
	p.url = final
	p.html = resp.String()
	p.mu.Unlock()
	return nil
}

func (p *httpPage) Close(ctx context.Context) error {
	p.onClose(p.id)
	return nil
}
