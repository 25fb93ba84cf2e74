package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"canpi-panel/internal/port"
	"canpi-panel/internal/relay"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// One browser connection = one panel application session.
// The browser's frames feed the app's sendMessage port, the app's
// messageReceiver port writes back to the browser, and a relay joins the
// ports to a single upstream socket.

const ( // ping pong(2-way heartbeat) to keep the browser connection alive
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10 // 90% of pong wait, leaves room for jitter
	MaxMessageSize = 64 * 1024           // maximum message size allowed from the browser
)

// DialFunc opens the upstream socket for a session
type DialFunc func(ctx context.Context, url string) (relay.Socket, error)

// DefaultDial opens url with relay.Open (ws, wss or tcp)
func DefaultDial(ctx context.Context, url string) (relay.Socket, error) {
	return relay.Open(ctx, url)
}

type Client struct {
	ID        string          // unique session ID
	Conn      *websocket.Conn // browser connection
	App       *port.App       // ports of this session's application
	Hub       *Hub            // reference to the central Hub
	Connected time.Time

	browser *relay.WSSocket
	link    atomic.Pointer[relay.Relay]
	logger  *slog.Logger
}

// returned by ReadPump so the errgroup cancels the relay
var errBrowserGone = errors.New("browser disconnected")

// constructor new client
func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	id := uuid.NewString()
	return &Client{
		ID:        id,
		Conn:      conn,
		App:       port.NewApp(),
		Hub:       hub,
		Connected: time.Now(),
		browser:   relay.NewWSSocket(conn),
		logger:    slog.With("session_id", id),
	}
}

// Run dials upstream and relays until either side goes away.
func (c *Client) Run(ctx context.Context, upstreamURL string, dial DialFunc) error {
	defer c.Conn.Close()

	upstream, err := dial(ctx, upstreamURL)
	if err != nil {
		c.logger.Error("upstream_dial_failed", "url", upstreamURL, "error", err)
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "upstream unavailable")
		_ = c.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(WriteWait))
		return err
	}
	c.logger.Info("session_started", "upstream", upstreamURL, "remote_addr", c.Conn.RemoteAddr().String())

	unsubscribe := c.App.Inbound().Subscribe(c.deliver)
	defer unsubscribe()

	r := relay.New(c.App.Outbound(), c.App.Inbound(), upstream, relay.WithLogger(c.logger))
	c.link.Store(r)

	g, gctx := errgroup.WithContext(ctx)
	relayDone := make(chan struct{})

	g.Go(func() error {
		defer close(relayDone)
		err := r.Run(gctx)
		// upstream gone: take the browser down with it
		_ = c.browser.Close()
		return err
	})
	g.Go(func() error {
		select {
		case <-r.Ready():
		case <-gctx.Done():
			return nil
		}
		return c.ReadPump(gctx)
	})
	g.Go(func() error {
		c.keepAlive(relayDone)
		return nil
	})

	err = g.Wait()
	if errors.Is(err, errBrowserGone) {
		err = nil
	}
	c.logger.Info("session_stopped", "duration", time.Since(c.Connected).String())
	return err
}

// ReadPump feeds browser frames into the app's sendMessage port.
// Returning cancels the session context, which stops the relay.
func (c *Client) ReadPump(ctx context.Context) error {
	c.Conn.SetReadLimit(MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	for {
		msg, err := c.browser.Receive()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				c.logger.Warn("browser_read_error", "error", err)
			}
			return errBrowserGone
		}
		c.Conn.SetReadDeadline(time.Now().Add(PongWait))
		c.App.Outbound().Send(msg)
	}
}

// deliver writes an inbound payload to the browser
func (c *Client) deliver(payload string) {
	if err := c.browser.Send(payload); err != nil {
		c.logger.Debug("browser_send_failed", "error", err)
	}
}

func (c *Client) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WriteWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// Stats returns relay counters, zero before the upstream is connected
func (c *Client) Stats() relay.Stats {
	r := c.link.Load()
	if r == nil {
		return relay.Stats{}
	}
	return r.Stats()
}

// Close drops the browser connection, which ends Run.
func (c *Client) Close() error {
	return c.browser.Close()
}
