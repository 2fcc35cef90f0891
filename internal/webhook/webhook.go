package webhook

import (
	"context"
	"fmt"
	"time"

	"dexscreener-extractor/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server responded with %d", e.Code)
}

// Client delivers extraction batches. Each Send is exactly one POST; failed
// deliveries are not retried or queued.
type Client struct {
	http   *resty.Client
	tracer trace.Tracer
}

func New(http *resty.Client, tracer trace.Tracer) *Client {
	if http == nil {
		http = resty.New().SetTimeout(30 * time.Second)
	}
	return &Client{http: http, tracer: tracer}
}

func (c *Client) Send(ctx context.Context, url string, payload domain.WebhookPayload) error {
	ctx, span := c.tracer.Start(ctx, "webhook.send")
	defer span.End()
	span.SetAttributes(
		attribute.Int("rows", len(payload.Data)),
		attribute.Bool("automatic", payload.IsAutomatic),
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("post webhook: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	if !resp.IsSuccess() {
		err := &StatusError{Code: resp.StatusCode()}
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
