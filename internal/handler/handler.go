package handler

import (
	"context"
	"errors"
	"net/http"

	"dexscreener-extractor/internal/agent"
	"dexscreener-extractor/internal/browser"
	"dexscreener-extractor/internal/job"
	"dexscreener-extractor/internal/repository"
	"dexscreener-extractor/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"
)

type AlarmReporter interface {
	Status() job.AlarmStatus
}

type ArchiveReader interface {
	RecentBatches(ctx context.Context, limit int) ([]repository.ArchivedBatch, error)
}

type Handler struct {
	tracer    trace.Tracer
	store     store.Store
	hub       *agent.Hub
	targetURL string
	exportDir string
	scheduler AlarmReporter
	archive   ArchiveReader
	upgrader  websocket.Upgrader
}

func New(tracer trace.Tracer, st store.Store, hub *agent.Hub, targetURL, exportDir string) *Handler {
	return &Handler{
		tracer:    tracer,
		store:     st,
		hub:       hub,
		targetURL: targetURL,
		exportDir: exportDir,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// WithScheduler exposes the alarm state on /api/scheduler.
func (h *Handler) WithScheduler(s AlarmReporter) *Handler {
	h.scheduler = s
	return h
}

// WithArchive enables /api/archive. Leave unset when Postgres is not configured.
func (h *Handler) WithArchive(a ArchiveReader) *Handler {
	h.archive = a
	return h
}

// RegisterRoutes mounts the control API. Everything under /api requires the
// API key when one is configured.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/settings", h.GetSettings)
	api.PUT("/settings", h.UpdateSettings)
	api.GET("/history", h.GetHistory)
	api.GET("/archive", h.GetArchive)
	api.GET("/scheduler", h.GetScheduler)

	api.GET("/pages", h.ListPages)
	api.POST("/pages", h.OpenPage)
	api.GET("/pages/:id", h.GetPage)
	api.DELETE("/pages/:id", h.ClosePage)
	api.POST("/pages/:id/activate", h.ActivatePage)
	api.POST("/pages/:id/reload", h.ReloadPage)
	api.POST("/pages/:id/navigate", h.NavigatePage)
	api.POST("/pages/:id/commands", h.SendCommand)

	api.GET("/pages/:id/panel", h.GetPanel)
	api.POST("/pages/:id/panel/extract", h.PanelExtract)
	api.POST("/pages/:id/panel/auto-extract", h.PanelToggleAutoExtract)
	api.POST("/pages/:id/panel/visibility", h.PanelToggleVisibility)
	api.POST("/pages/:id/panel/webhook", h.PanelSetWebhook)
	api.GET("/pages/:id/export", h.ExportBatch)
	api.GET("/pages/:id/status/stream", h.StreamStatus)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrNoActivePage),
		errors.Is(err, browser.ErrPageNotFound),
		errors.Is(err, store.ErrNoHistory),
		errors.Is(err, agent.ErrNothingToExport):
		return http.StatusNotFound
	case errors.Is(err, agent.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, agent.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, agent.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
