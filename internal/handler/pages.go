package handler

import (
	"context"
	"fmt"
	"net/http"

	"dexscreener-extractor/internal/agent"
	"dexscreener-extractor/internal/browser"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type openPageRequest struct {
	URL        string `json:"url"`
	Background bool   `json:"background"`
}

type navigateRequest struct {
	URL string `json:"url" binding:"required"`
}

// ListPages godoc
// @Summary      List open pages
// @Tags         pages
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     ApiKeyAuth
// @Router       /api/pages [get]
func (h *Handler) ListPages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pages": h.hub.Pages(c.Request.Context())})
}

// OpenPage godoc
// @Summary      Open a page
// @Description  Opens url (the target site by default) and attaches a page agent to it
// @Tags         pages
// @Accept       json
// @Produce      json
// @Param        page  body  openPageRequest  false  "Page to open"
// @Success      201  {object}  agent.PageInfo
// @Failure      502  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/pages [post]
func (h *Handler) OpenPage(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.open-page")
	defer span.End()

	var req openPageRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
	}
	if req.URL == "" {
		req.URL = h.targetURL
	}
	span.SetAttributes(attribute.String("url", req.URL), attribute.Bool("background", req.Background))

	// The page outlives the request.
	a, err := h.hub.Open(context.WithoutCancel(ctx), req.URL, req.Background)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	info, err := h.pageInfo(ctx, a.PageID())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

// GetPage godoc
// @Summary      Describe a page
// @Description  id may be "active" for the page the control panels talk to
// @Tags         pages
// @Produce      json
// @Param        id  path  string  true  "Page id or active"
// @Success      200  {object}  agent.PageInfo
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/pages/{id} [get]
func (h *Handler) GetPage(c *gin.Context) {
	info, err := h.pageInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) pageInfo(ctx context.Context, id string) (agent.PageInfo, error) {
	if id == agent.ActivePageID {
		return h.hub.Active(ctx)
	}
	for _, p := range h.hub.Pages(ctx) {
		if p.ID == id {
			return p, nil
		}
	}
	return agent.PageInfo{}, fmt.Errorf("%w: %s", browser.ErrPageNotFound, id)
}

// ActivatePage godoc
// @Summary      Make a page active
// @Tags         pages
// @Param        id  path  string  true  "Page id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/pages/{id}/activate [post]
func (h *Handler) ActivatePage(c *gin.Context) {
	if err := h.hub.Activate(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReloadPage godoc
// @Summary      Reload a page
// @Description  Reloads the page and re-initializes its agent; session-only state is lost
// @Tags         pages
// @Param        id  path  string  true  "Page id or active"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/pages/{id}/reload [post]
func (h *Handler) ReloadPage(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.reload-page")
	defer span.End()

	if err := h.hub.Reload(ctx, c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// NavigatePage godoc
// @Summary      Navigate a page in place
// @Description  Changes the page URL without re-attaching its agent, as in-page navigation does
// @Tags         pages
// @Accept       json
// @Param        id    path  string           true  "Page id or active"
// @Param        body  body  navigateRequest  true  "Destination"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/pages/{id}/navigate [post]
func (h *Handler) NavigatePage(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.navigate-page")
	defer span.End()

	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := h.hub.Navigate(ctx, c.Param("id"), req.URL); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClosePage godoc
// @Summary      Close a page
// @Tags         pages
// @Param        id  path  string  true  "Page id or active"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/pages/{id} [delete]
func (h *Handler) ClosePage(c *gin.Context) {
	if err := h.hub.Close(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SendCommand godoc
// @Summary      Send a command to a page agent
// @Description  Body is the command envelope {action, webhookUrl?, enabled?, interval?, autoClose?}
// @Tags         pages
// @Accept       json
// @Produce      json
// @Param        id       path  string          true  "Page id or active"
// @Param        command  body  agent.Envelope  true  "Command"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/pages/{id}/commands [post]
func (h *Handler) SendCommand(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.send-command")
	defer span.End()

	var env agent.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid command: " + err.Error()})
		return
	}
	cmd, err := env.Decode()
	if err != nil {
		abortWithError(c, err)
		return
	}
	span.SetAttributes(attribute.String("action", cmd.Action()), attribute.String("page", c.Param("id")))

	res, err := h.hub.Send(ctx, c.Param("id"), cmd)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
