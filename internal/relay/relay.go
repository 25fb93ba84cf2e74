package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"canpi-panel/internal/port"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Relay forwards payloads between an application's ports and a socket.
// Nothing is transformed, buffered, retried or deduplicated.
type Relay struct {
	outbound port.Outbound
	inbound  port.Inbound
	socket   Socket
	logger   *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once

	sent    atomic.Int64
	dropped atomic.Int64
	recv    atomic.Int64
}

// Option configures a Relay
type Option func(*Relay)

// WithLogger sets the logger used for relay events
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) { r.logger = l }
}

// New creates a relay between outbound/inbound and socket.
func New(outbound port.Outbound, inbound port.Inbound, socket Socket, opts ...Option) *Relay {
	r := &Relay{
		outbound: outbound,
		inbound:  inbound,
		socket:   socket,
		logger:   slog.Default(),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stats is a snapshot of relay counters.
type Stats struct {
	Sent     int64 `json:"sent"`     // outbound payloads written to the socket
	Dropped  int64 `json:"dropped"`  // outbound payloads the socket refused
	Received int64 `json:"received"` // socket messages delivered inbound
}

// Stats returns the current counters
func (r *Relay) Stats() Stats {
	return Stats{
		Sent:     r.sent.Load(),
		Dropped:  r.dropped.Load(),
		Received: r.recv.Load(),
	}
}

// Ready is closed once Run has subscribed to the outbound port. Payloads
// sent on that port before then have no subscriber and are dropped.
func (r *Relay) Ready() <-chan struct{} { return r.ready }

// Run subscribes to the outbound port and pumps socket messages to the
// inbound port until the socket stops delivering or ctx is cancelled.
// Cancelling ctx closes the socket. A normal close and cancellation both
// return nil.
func (r *Relay) Run(ctx context.Context) error {
	unsubscribe := r.outbound.Subscribe(r.forward)
	defer unsubscribe()
	r.readyOnce.Do(func() { close(r.ready) })

	r.logger.Debug("relay_started")

	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(done)
		return r.pump(gctx)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			_ = r.socket.Close()
		case <-done:
		}
		return nil
	})

	err := g.Wait()
	stats := r.Stats()
	r.logger.Debug("relay_stopped",
		"sent", stats.Sent,
		"dropped", stats.Dropped,
		"received", stats.Received,
	)
	return err
}

// outbound rule: payload goes to the socket verbatim
func (r *Relay) forward(payload string) {
	if err := r.socket.Send(payload); err != nil {
		r.dropped.Add(1)
		r.logger.Warn("relay_send_failed",
			"size", len(payload),
			"error", err,
		)
		return
	}
	r.sent.Add(1)
}

// inbound rule: socket message goes to the inbound port verbatim
func (r *Relay) pump(ctx context.Context) error {
	for {
		msg, err := r.socket.Receive()
		if err != nil {
			if ctx.Err() != nil || isNormalClose(err) {
				return nil
			}
			return fmt.Errorf("relay receive: %w", err)
		}
		r.recv.Add(1)
		r.inbound.Send(msg)
	}
}

func isNormalClose(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return true
	}
	return errors.Is(err, net.ErrClosed)
}
