package agent

import (
	"context"
	"fmt"
	"time"

	"dexscreener-extractor/internal/browser"
)

// watchNavigation polls the page URL. After an in-page navigation it waits for
// the table and reports the row count; nothing is sent.
func (a *Agent) watchNavigation(ctx context.Context) {
	if a.timings.WatchInterval <= 0 {
		return
	}
	ticker := time.NewTicker(a.timings.WatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.checkNavigation(ctx)
		}
	}
}

func (a *Agent) checkNavigation(ctx context.Context) {
	u, err := a.page.URL(ctx)
	if err != nil {
		return
	}

	a.mu.Lock()
	changed := a.lastURL != "" && u != a.lastURL
	a.lastURL = u
	a.mu.Unlock()
	if !changed {
		return
	}

	a.log.Debug("page navigated", "url", u)
	if _, err := browser.WaitFor(ctx, a.page, a.hasRows, a.timings.InitWait, a.timings.PollInterval); err != nil {
		return
	}
	if n, err := a.CountRows(ctx); err == nil && n > 0 {
		a.setStatus(fmt.Sprintf("Found %d rows on new page", n), LevelInfo)
	}
}
