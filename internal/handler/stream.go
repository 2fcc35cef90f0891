package handler

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamPingInterval = 30 * time.Second
)

// StreamStatus godoc
// @Summary      Stream on-page panel state
// @Description  Upgrades to a websocket and sends the panel state as JSON on every change
// @Tags         panel
// @Param        id  path  string  true  "Page id or active"
// @Success      101
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/pages/{id}/status/stream [get]
func (h *Handler) StreamStatus(c *gin.Context) {
	a, err := h.hub.Agent(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	states := a.Subscribe(ctx)

	// Reads only detect the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case state, ok := <-states:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "page agent stopped"))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(state); err != nil {
				return
			}
		}
	}
}
