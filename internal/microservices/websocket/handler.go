package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HTTP upgrade handler for browser panel sessions

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the panel pages are served from this host, but layouts are often opened
	// from a LAN address or a kiosk hostname, so any origin is accepted
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades the request and runs a relay session on it until the
// browser or the upstream goes away.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already replied with an HTTP error
			return
		}

		client := NewClient(conn, hub)
		_ = hub.Serve(client) // errors are logged by the session
	}
}
