// internal/websocket/handlers.go
// WebSocket connection handlers

package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, implement proper origin checking
		return true
	},
}

// HandleConnection handles new WebSocket connections
func HandleConnection(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Upgrade HTTP connection to WebSocket
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.logger.Warnf("Failed to upgrade connection: %v", err)
			return
		}

		client := &Client{
			hub:         hub,
			conn:        conn,
			send:        make(chan []byte, 256),
			tournaments: make(map[string]bool),
		}

		// Optional initial subscription via query parameter
		if tournamentID := c.Query("tournament_id"); tournamentID != "" {
			client.tournaments[tournamentID] = true
		}

		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}
