package relay

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultURL is the public echo service the panel front end talks to
// when no upstream is configured.
const DefaultURL = "wss://echo.websocket.org"

const (
	WriteWait   = 10 * time.Second // max time to write a frame to the peer
	DialTimeout = 15 * time.Second
)

// Socket is the network side of the relay: one full-duplex connection.
type Socket interface {
	Send(message string) error
	Receive() (string, error)
	Close() error
}

// CloseWriter is a Socket that can stop sending while still receiving, so
// replies already in flight can be read until the peer closes.
type CloseWriter interface {
	CloseWrite() error
}

// WSSocket adapts a gorilla websocket connection to Socket.
// Send is safe for concurrent use; Receive must be called from one goroutine.
type WSSocket struct {
	conn *websocket.Conn
	mu   sync.Mutex // gorilla allows one concurrent writer
}

// NewWSSocket wraps an already established connection
func NewWSSocket(conn *websocket.Conn) *WSSocket {
	return &WSSocket{conn: conn}
}

// Dial opens the single persistent connection to url.
func Dial(ctx context.Context, url string, header http.Header) (*WSSocket, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: DialTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWSSocket(conn), nil
}

// Send writes message as a single text frame.
func (s *WSSocket) Send(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(WriteWait))
	return s.conn.WriteMessage(websocket.TextMessage, []byte(message))
}

// Receive blocks until the next data frame arrives. Text and binary frames
// are both returned as strings.
func (s *WSSocket) Receive() (string, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Close sends a normal closure frame and closes the connection.
func (s *WSSocket) Close() error {
	s.mu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(WriteWait))
	s.mu.Unlock()
	return s.conn.Close()
}

// CloseWrite starts the closing handshake. Frames the peer sent earlier are
// still delivered by Receive, which then reports the peer's close.
func (s *WSSocket) CloseWrite() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	return s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(WriteWait))
}

// Conn exposes the underlying connection
func (s *WSSocket) Conn() *websocket.Conn { return s.conn }
