package handler

import (
	"errors"
	"net/http"
	"strconv"

	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/job"
	"dexscreener-extractor/internal/store"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetSettings godoc
// @Summary      Get settings
// @Description  Returns the shared settings with defaults filled in. extractInterval is in milliseconds
// @Tags         settings
// @Produce      json
// @Success      200  {object}  domain.Settings
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/settings [get]
func (h *Handler) GetSettings(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-settings")
	defer span.End()

	settings, err := store.Settings(ctx, h.store)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary      Update settings
// @Description  Writes the fields present in the body. Subscribers such as the scheduler are notified
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        patch  body  domain.SettingsPatch  true  "Fields to change"
// @Success      200  {object}  domain.Settings
// @Failure      400  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/settings [put]
func (h *Handler) UpdateSettings(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.update-settings")
	defer span.End()

	var patch domain.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings: " + err.Error()})
		return
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no settings to update"})
		return
	}
	if patch.ExtractInterval != nil && *patch.ExtractInterval <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "extractInterval must be positive"})
		return
	}
	if patch.WebhookURL != nil && *patch.WebhookURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "webhookUrl must not be empty"})
		return
	}

	if err := h.store.SaveSettings(ctx, patch); err != nil {
		abortWithError(c, err)
		return
	}
	settings, err := store.Settings(ctx, h.store)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetHistory godoc
// @Summary      Extraction history
// @Description  Returns up to the last 100 extraction records, oldest first
// @Tags         settings
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     ApiKeyAuth
// @Router       /api/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	history, err := h.store.History(ctx)
	if err != nil && !errors.Is(err, store.ErrNoHistory) {
		abortWithError(c, err)
		return
	}
	if history == nil {
		history = []domain.ExtractionRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// GetArchive godoc
// @Summary      Archived batches
// @Description  Returns the most recent batches archived in Postgres
// @Tags         settings
// @Produce      json
// @Param        limit  query  int  false  "Number of batches (default 20, max 500)"  default(20)
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/archive [get]
func (h *Handler) GetArchive(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-archive")
	defer span.End()

	limit := 20
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	span.SetAttributes(attribute.Int("limit", limit))

	batches, err := h.archive.RecentBatches(ctx, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

// GetScheduler godoc
// @Summary      Scheduler alarm
// @Description  Reports whether the recurring extraction alarm is armed and when it fires next
// @Tags         settings
// @Produce      json
// @Success      200  {object}  job.AlarmStatus
// @Security     ApiKeyAuth
// @Router       /api/scheduler [get]
func (h *Handler) GetScheduler(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusOK, job.AlarmStatus{})
		return
	}
	c.JSON(http.StatusOK, h.scheduler.Status())
}
