package handler

import (
	"errors"
	"fmt"
	"net/http"

	"dexscreener-extractor/internal/agent"

	"github.com/gin-gonic/gin"
)

type webhookRequest struct {
	WebhookURL string `json:"webhookUrl" binding:"required"`
}

// GetPanel godoc
// @Summary      On-page panel state
// @Tags         panel
// @Produce      json
// @Param        id  path  string  true  "Page id or active"
// @Success      200  {object}  agent.PanelState
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/pages/{id}/panel [get]
func (h *Handler) GetPanel(c *gin.Context) {
	a, err := h.hub.Agent(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.Snapshot())
}

// PanelExtract godoc
// @Summary      Press the on-page extract button
// @Description  Runs a manual extraction and returns the panel state. Refused with 409 while one is running
// @Tags         panel
// @Produce      json
// @Param        id  path  string  true  "Page id or active"
// @Success      200  {object}  agent.PanelState
// @Failure      409  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/pages/{id}/panel/extract [post]
func (h *Handler) PanelExtract(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.panel-extract")
	defer span.End()

	a, err := h.hub.Ready(ctx, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if _, err := a.PressExtract(ctx); err != nil && (errors.Is(err, agent.ErrBusy) || errors.Is(err, agent.ErrNoData)) {
		abortWithError(c, err)
		return
	}
	// Delivery failures are reported through the panel status line.
	c.JSON(http.StatusOK, a.Snapshot())
}

// PanelToggleAutoExtract godoc
// @Summary      Flip the on-page auto-extract toggle
// @Tags         panel
// @Produce      json
// @Param        id  path  string  true  "Page id or active"
// @Success      200  {object}  agent.PanelState
// @Security     ApiKeyAuth
// @Router       /api/pages/{id}/panel/auto-extract [post]
func (h *Handler) PanelToggleAutoExtract(c *gin.Context) {
	a, err := h.hub.Ready(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	a.ToggleAutoExtract(c.Request.Context())
	c.JSON(http.StatusOK, a.Snapshot())
}

// PanelToggleVisibility godoc
// @Summary      Show or hide the on-page panel
// @Tags         panel
// @Produce      json
// @Param        id  path  string  true  "Page id or active"
// @Success      200  {object}  agent.PanelState
// @Security     ApiKeyAuth
// @Router       /api/pages/{id}/panel/visibility [post]
func (h *Handler) PanelToggleVisibility(c *gin.Context) {
	a, err := h.hub.Agent(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	a.ToggleVisibility(c.Request.Context())
	c.JSON(http.StatusOK, a.Snapshot())
}

// PanelSetWebhook godoc
// @Summary      Edit the webhook from the on-page settings control
// @Description  Only the page's session uses the new URL; shared settings are untouched
// @Tags         panel
// @Accept       json
// @Produce      json
// @Param        id    path  string          true  "Page id or active"
// @Param        body  body  webhookRequest  true  "Webhook"
// @Success      200  {object}  agent.PanelState
// @Failure      400  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/pages/{id}/panel/webhook [post]
func (h *Handler) PanelSetWebhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	a, err := h.hub.Ready(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	a.SetWebhookURL(req.WebhookURL)
	c.JSON(http.StatusOK, a.Snapshot())
}

// ExportBatch godoc
// @Summary      Save the last manual batch locally
// @Description  Downloads the rows as pretty-printed JSON, or with save=true writes them to the export directory
// @Tags         panel
// @Produce      json
// @Param        id    path   string  true   "Page id or active"
// @Param        save  query  bool    false  "Write to the server export directory"
// @Success      200  {array}   domain.ExtractedRow
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/pages/{id}/export [get]
func (h *Handler) ExportBatch(c *gin.Context) {
	a, err := h.hub.Agent(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	if c.Query("save") == "true" {
		path, err := a.SaveExport(h.exportDir)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"path": path})
		return
	}

	name, data, err := a.Export()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/json", data)
}
