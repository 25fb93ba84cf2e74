package relay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"
)

// MaxLineSize bounds one newline-terminated message on a TCP socket
const MaxLineSize = 64 * 1024

// ErrLineBreak rejects payloads a line framed socket cannot carry intact
var ErrLineBreak = errors.New("payload contains a line break")

// TCPSocket carries one message per line over a plain TCP connection,
// the framing used by CAN grid servers.
type TCPSocket struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
}

func NewTCPSocket(conn net.Conn) *TCPSocket {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), MaxLineSize)
	return &TCPSocket{conn: conn, scanner: scanner}
}

// DialTCP connects to host:port
func DialTCP(ctx context.Context, addr string) (*TCPSocket, error) {
	d := net.Dialer{Timeout: DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewTCPSocket(conn), nil
}

// Send writes message followed by a newline. A message containing CR or LF
// would reach the peer as more than one frame and is refused.
func (s *TCPSocket) Send(message string) error {
	if strings.ContainsAny(message, "\r\n") {
		return ErrLineBreak
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(WriteWait))
	_, err := s.conn.Write([]byte(message + "\n"))
	return err
}

// Receive returns the next line without its terminator
func (s *TCPSocket) Receive() (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", net.ErrClosed
	}
	return strings.TrimSuffix(s.scanner.Text(), "\r"), nil
}

// CloseWrite shuts down the sending half; the peer sees EOF.
func (s *TCPSocket) CloseWrite() error {
	cw, ok := s.conn.(interface{ CloseWrite() error })
	if !ok {
		return fmt.Errorf("half close not supported on %T", s.conn)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cw.CloseWrite()
}

func (s *TCPSocket) Close() error {
	return s.conn.Close()
}

// Open dials rawURL with the socket matching its scheme: ws and wss use
// websockets, tcp uses newline framed TCP.
func Open(ctx context.Context, rawURL string) (Socket, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "ws", "wss":
		sock, err := Dial(ctx, rawURL, nil)
		if err != nil {
			return nil, err
		}
		return sock, nil
	case "tcp":
		sock, err := DialTCP(ctx, u.Host)
		if err != nil {
			return nil, err
		}
		return sock, nil
	default:
		return nil, fmt.Errorf("unsupported scheme %q in %s", u.Scheme, rawURL)
	}
}
