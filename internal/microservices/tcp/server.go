package tcp

import (
	"errors"
	"fmt"
	"net"
	"sync"
)

// TCPServer is a line oriented CAN grid standin: every frame a client sends
// is broadcast to the other connected clients.
type TCPServer struct {
	Addr string
	// custom manager for handling connections, shared by every handler goroutine
	Manager *ConnectionManager

	listener net.Listener
	quitChan chan struct{} // closed by Stop
	stopOnce sync.Once
	mu       sync.Mutex     // orders wg.Add in track against Stop
	wg       sync.WaitGroup // one per connection handler
}

// constructor for Server
func NewServer(addr string) *TCPServer {
	return &TCPServer{
		Addr:     addr,
		Manager:  NewConnectionManager(),
		quitChan: make(chan struct{}),
	}
}

// Listen binds the server address
func (s *TCPServer) Listen() error {
	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to start TCP server, error: %w", err)
	}
	s.listener = listener
	s.Manager.logger.Info("grid_server_started", "addr", listener.Addr().String())
	return nil
}

// ListenAddr is the bound address, useful when Addr asked for port 0
func (s *TCPServer) ListenAddr() string {
	if s.listener == nil {
		return s.Addr
	}
	return s.listener.Addr().String()
}

// Serve accepts connections until Stop is called
func (s *TCPServer) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quitChan:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.Manager.logger.Warn("accept_failed", "error", err)
			continue
		}
		if !s.track(conn) {
			return nil
		}
		go func(conn net.Conn) {
			defer s.wg.Done()
			s.handleConnection(conn)
		}(conn)
	}
}

// Start listens and serves, blocking until Stop
func (s *TCPServer) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// track counts conn as a live handler, or closes it if Stop has begun
func (s *TCPServer) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quitChan:
		conn.Close()
		return false
	default:
	}
	s.wg.Add(1)
	return true
}

// handle connections/lifecycle of single client connection
func (s *TCPServer) handleConnection(conn net.Conn) {
	client := NewClientConnection(conn, s.Manager)
	s.Manager.AddConnection(client)
	client.Listen()
	s.Manager.RemoveConnection(client)
}

// Stop closes the listener and every client, then waits for the handlers
func (s *TCPServer) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		close(s.quitChan)
		s.mu.Unlock()
		if s.listener != nil {
			s.listener.Close()
		}
		s.Manager.CloseAllConnections()
		s.wg.Wait()
		s.Manager.logger.Info("grid_server_stopped")
	})
}
