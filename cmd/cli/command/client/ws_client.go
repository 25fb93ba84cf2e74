package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"canpi-panel/internal/port"
	"canpi-panel/internal/relay"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"
)

// ws_client.go = terminal side of the relay. stdin plays the application
// sending on sendMessage, stdout plays the messageReceiver subscriber.

var (
	recvColor = color.New(color.FgCyan)
	infoColor = color.New(color.FgYellow)
)

// drainTimeout bounds the wait for replies once stdin is exhausted
const drainTimeout = 5 * time.Second

// RunRelay dials url (ws://, wss:// or tcp://) once and relays until ctx is
// cancelled or the upstream closes. When in hits EOF the sending half is
// closed and replies already on their way are still printed.
func RunRelay(ctx context.Context, url string, in io.Reader, out io.Writer) error {
	if url == "" {
		url = relay.DefaultURL
	}

	infoColor.Fprintf(out, "connecting to %s...\n", url)
	socket, err := relay.Open(ctx, url)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer socket.Close()
	infoColor.Fprintln(out, "connected, type messages (Ctrl-D to quit)")

	app := port.NewApp()

	var mu sync.Mutex // serialises writes to out
	unsubscribe := app.Inbound().Subscribe(func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		recvColor.Fprintf(out, "< %s\n", msg)
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rl := relay.New(app.Outbound(), app.Inbound(), socket)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// relay returning means the upstream is gone
		defer cancel()
		return rl.Run(gctx)
	})
	g.Go(func() error {
		select {
		case <-rl.Ready():
		case <-gctx.Done():
			return nil
		}
		readLines(gctx, in, app.Outbound())
		if gctx.Err() == nil {
			drain(gctx, socket)
		}
		cancel()
		return nil
	})

	err = g.Wait()
	stats := rl.Stats()
	slog.Debug("relay_client_finished", "sent", stats.Sent, "received", stats.Received, "dropped", stats.Dropped)
	return err
}

// drain half-closes socket and waits for the upstream to finish replying
func drain(ctx context.Context, socket relay.Socket) {
	cw, ok := socket.(relay.CloseWriter)
	if !ok {
		return
	}
	if err := cw.CloseWrite(); err != nil {
		slog.Debug("relay_half_close_failed", "error", err)
		return
	}
	timer := time.NewTimer(drainTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
		slog.Debug("relay_drain_timeout", "timeout", drainTimeout)
	}
}

// readLines feeds each stdin line to the outbound port. A blocked read on in
// outlives ctx; the caller does not wait for it beyond returning.
func readLines(ctx context.Context, in io.Reader, outbound *port.Port) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			outbound.Send(line)
		}
	}
}
