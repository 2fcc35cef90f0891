package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dexscreener-extractor/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// Handle dispatches cmd to its handler.
func (a *Agent) Handle(ctx context.Context, cmd Command) (Result, error) {
	ctx, span := a.deps.Tracer.Start(ctx, "agent.handle")
	defer span.End()
	span.SetAttributes(attribute.String("action", cmd.Action()))

	switch c := cmd.(type) {
	case Extract:
		return a.handleExtract(ctx, c)
	case Refresh:
		return a.handleRefresh(ctx)
	case UpdateWebhook:
		return a.handleUpdateWebhook(ctx, c), nil
	case UpdateAutoExtract:
		return a.handleUpdateAutoExtract(ctx, c), nil
	case UpdateExtractInterval:
		return a.handleUpdateExtractInterval(ctx, c), nil
	case GetStatus:
		return a.handleGetStatus(), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidCommand, cmd)
	}
}

// handleExtract runs a full cycle, waits the response delay and answers with
// a fresh row count. Empty tables and webhook failures still answer success;
// only an unreadable page does not.
func (a *Agent) handleExtract(ctx context.Context, c Extract) (ExtractResult, error) {
	if _, err := a.ExtractAndSend(ctx, c.AutoClose); err != nil && !errors.Is(err, ErrNoData) {
		a.log.Warn("extract command cycle failed", "err", err)
	}

	select {
	case <-ctx.Done():
		return ExtractResult{}, ctx.Err()
	case <-time.After(a.timings.ResponseDelay):
	}

	count, err := a.CountRows(ctx)
	if err != nil {
		return ExtractResult{Success: false, Error: err.Error()}, nil
	}
	return ExtractResult{Success: true, Count: count}, nil
}

func (a *Agent) handleRefresh(ctx context.Context) (RefreshResult, error) {
	if a.reload == nil {
		return RefreshResult{}, errors.New("page reload not available")
	}
	a.setStatus("Refreshing page...", LevelWorking)

	// The reload replaces this agent, so it must not run on the agent's context.
	go func() {
		if err := a.reload(context.WithoutCancel(ctx)); err != nil {
			a.log.Warn("page refresh failed", "err", err)
		}
	}()
	return RefreshResult{Success: true, Message: "Page refresh initiated"}, nil
}

func (a *Agent) handleUpdateWebhook(ctx context.Context, c UpdateWebhook) UpdateWebhookResult {
	a.mu.Lock()
	a.webhookURL = c.WebhookURL
	a.mu.Unlock()
	a.setStatus("Webhook URL updated", LevelInfo)

	url := c.WebhookURL
	a.persist(ctx, domain.SettingsPatch{WebhookURL: &url})
	return UpdateWebhookResult{Success: true}
}

func (a *Agent) handleUpdateAutoExtract(ctx context.Context, c UpdateAutoExtract) UpdateAutoExtractResult {
	a.applyAutoExtract(c.Enabled)

	enabled := c.Enabled
	a.persist(ctx, domain.SettingsPatch{AutoExtractEnabled: &enabled})
	return UpdateAutoExtractResult{Success: true, AutoExtractEnabled: enabled}
}

func (a *Agent) handleUpdateExtractInterval(ctx context.Context, c UpdateExtractInterval) UpdateExtractIntervalResult {
	a.mu.Lock()
	a.interval = c.Interval
	rearmed := a.autoEnabled
	if rearmed {
		a.timer.Arm(a.ctx, a.interval)
		a.status = fmt.Sprintf("Extract interval updated to %s minutes.", minutes(a.interval))
		a.level = LevelInfo
	}
	a.mu.Unlock()
	a.publish()

	interval := c.Interval
	a.persist(ctx, domain.SettingsPatch{ExtractInterval: &interval})
	return UpdateExtractIntervalResult{Success: true, ExtractInterval: interval.Milliseconds()}
}

func (a *Agent) handleGetStatus() StatusResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	res := StatusResult{
		Success:            true,
		AutoExtractEnabled: a.autoEnabled,
		ExtractInterval:    a.interval.Milliseconds(),
		WebhookURL:         a.webhookURL,
	}
	if next, ok := a.timer.Next(); ok {
		s := domain.FormatTimestamp(next)
		res.NextExtraction = &s
	}
	return res
}
