package echo

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Echo service: every frame a peer sends comes straight back to it.

const ( // 2-way heartbeat, same budget as the browser sessions
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10 // ping before the pong wait expires
	MaxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// echo is a test fixture for any origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades the request and echoes until the peer goes away.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade has already written an HTTP error response
			slog.Warn("echo_upgrade_failed", "error", err)
			return
		}
		Serve(conn)
	}
}

// Serve runs the echo loop on an upgraded connection and closes it on return.
func Serve(conn *websocket.Conn) {
	id := uuid.NewString()
	logger := slog.With("echo_id", id, "remote_addr", conn.RemoteAddr().String())
	logger.Info("echo_client_connected")

	defer conn.Close()

	conn.SetReadLimit(MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go keepAlive(conn, done)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("echo_read_error", "error", err)
			}
			logger.Info("echo_client_disconnected")
			return
		}
		conn.SetReadDeadline(time.Now().Add(PongWait))

		conn.SetWriteDeadline(time.Now().Add(WriteWait))
		if err := conn.WriteMessage(msgType, data); err != nil {
			logger.Warn("echo_write_error", "error", err)
			return
		}
	}
}

// pings the peer so idle connections survive the read deadline
func keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WriteWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// NewRouter returns a bare router serving the echo endpoint at "/" and "/echo".
func NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/", Handler())
	r.GET("/echo", Handler())
	return r
}
