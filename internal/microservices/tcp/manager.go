package tcp

import (
	"log/slog"
	"sync"
)

type ConnectionManager struct {
	clients map[string]*ClientConnection
	// key: client ID, value: ClientConnection pointer
	mu     sync.RWMutex // read-write mutex for concurrent access
	logger *slog.Logger

	// EchoToSender also delivers a frame back to the client that sent it
	EchoToSender bool
}

// constructor for ConnectionManager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*ClientConnection),
		logger:  slog.Default(),
	}
}

// method to add a new connection
func (m *ConnectionManager) AddConnection(client *ClientConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[client.ID] = client
	m.logger.Info("client_added",
		"client_id", client.ID,
		"clients", len(m.clients),
	)
}

// method to remove a connection
func (m *ConnectionManager) RemoveConnection(client *ClientConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, client.ID)
	m.logger.Info("client_removed",
		"client_id", client.ID,
	)
}

// Count returns the number of connected clients
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// method to close all connections
func (m *ConnectionManager) CloseAllConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, client := range m.clients {
		client.Close()
		m.logger.Info("client_connection_closed",
			"client_id", id,
		)
	}
	m.clients = make(map[string]*ClientConnection)
}

// Broadcast sends frame to every client except from (unless EchoToSender)
func (m *ConnectionManager) Broadcast(from string, frame []byte) {
	// read lock: broadcasts from different clients may run concurrently
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, c := range m.clients {
		if id == from && !m.EchoToSender {
			continue
		}
		if err := c.Send(frame); err != nil {
			m.logger.Warn("failed_to_send_broadcast",
				"client_id", id,
				"error", err.Error(),
			)
		}
	}
}
