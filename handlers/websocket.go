package handlers

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"collection-service/middleware"
	"collection-service/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades connections onto the status update hub.
type WebSocketHandler struct {
	hub *services.WebSocketHub
}

func NewWebSocketHandler(hub *services.WebSocketHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ListenStatusUpdates handles GET /ws: a live feed of status changes for
// collections the user is party to.
func (h *WebSocketHandler) ListenStatusUpdates(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Error upgrading connection to WebSocket: %v", err)
		return
	}

	h.hub.RegisterClient(conn, userID)
}
