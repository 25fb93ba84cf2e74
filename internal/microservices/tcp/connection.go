package tcp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const MaxMessageSize = 64 * 1024            // longest accepted frame line
const MaxDeadlineDuration = 5 * time.Minute // idle clients are dropped after this
const WriteWait = 10 * time.Second

type ClientConnection struct {
	ID      string // unique identifier = key in map
	conn    net.Conn
	Writer  *bufio.Writer
	wmu     sync.Mutex // Writer is shared by every broadcaster
	Manager *ConnectionManager
	Limiter *rate.Limiter // frames per second from this client
}

// constructor for Connection
func NewClientConnection(conn net.Conn, manager *ConnectionManager) *ClientConnection {
	return &ClientConnection{
		ID:      uuid.NewString(),
		conn:    conn,
		Writer:  bufio.NewWriter(conn),
		Manager: manager,
		Limiter: rate.NewLimiter(rate.Limit(100), 200), // a busy layout bursts on startup
	}
}

// Listen reads newline terminated frames and broadcasts each one until the
// client disconnects or idles out. A line longer than MaxMessageSize is
// discarded up to its newline without being buffered.
func (c *ClientConnection) Listen() {
	defer c.conn.Close()
	reader := bufio.NewReaderSize(c.conn, MaxMessageSize)
	logger := c.Manager.logger.With("client_id", c.ID)

	logger.Info("client_started_listening", "remote_addr", c.conn.RemoteAddr().String())
	c.conn.SetReadDeadline(time.Now().Add(MaxDeadlineDuration))

	for {
		line, err := reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			size, err := skipLine(reader, len(line))
			logger.Warn("message_too_large", "size", size, "max_size", MaxMessageSize)
			if err != nil {
				c.logReadError(logger, err)
				return
			}
			c.conn.SetReadDeadline(time.Now().Add(MaxDeadlineDuration))
			continue
		}
		if err != nil {
			c.logReadError(logger, err)
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(MaxDeadlineDuration))

		frame := bytes.TrimRight(line, "\r\n")
		if len(frame) == 0 {
			continue
		}

		if !c.Limiter.Allow() {
			logger.Warn("rate_limit_exceeded")
			continue
		}

		// ReadSlice reuses its buffer on the next read
		c.Manager.Broadcast(c.ID, bytes.Clone(frame))
	}
}

// skipLine discards the rest of an oversized line, returning its full size
func skipLine(reader *bufio.Reader, size int) (int, error) {
	for {
		chunk, err := reader.ReadSlice('\n')
		size += len(chunk)
		if !errors.Is(err, bufio.ErrBufferFull) {
			return size, err
		}
	}
}

func (c *ClientConnection) logReadError(logger *slog.Logger, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		logger.Info("client_disconnected")
	case errors.As(err, &netErr) && netErr.Timeout():
		logger.Warn("client_read_timeout")
	default:
		logger.Error("client_read_error", "error", err)
	}
}

// Send writes data plus a newline and flushes
func (c *ClientConnection) Send(data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
	if _, err := c.Writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := c.Writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := c.Writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	return nil
}

// method to close the connection
func (c *ClientConnection) Close() {
	c.conn.Close()
}
