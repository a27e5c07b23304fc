package breathing

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// StreamManager tracks live breathing streams by key. A key has at most one
// stream; a newer connection replaces the older. Keys come from the session
// cookie only, so a token sent as a header or query parameter cannot close
// someone else's stream.
type StreamManager struct {
	mu     sync.RWMutex
	active map[string]*websocket.Conn
}

// NewStreamManager creates a new stream manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		active: make(map[string]*websocket.Conn),
	}
}

// GetActive returns the live connection for a session.
func (m *StreamManager) GetActive(sessionID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[sessionID]
}

// Count returns the number of live streams.
func (m *StreamManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// Register records conn as the stream for sessionID, closing any previous one.
func (m *StreamManager) Register(sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.active[sessionID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "session replaced")
	}

	m.active[sessionID] = conn
	slog.Info("Breathing stream registered", "session_id", sessionID)
}

// Unregister removes conn if it is still the stream for sessionID.
func (m *StreamManager) Unregister(sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, exists := m.active[sessionID]; exists && current == conn {
		delete(m.active, sessionID)
		slog.Info("Breathing stream unregistered", "session_id", sessionID)
	}
}

// CloseAll terminates every live stream, e.g. on shutdown.
func (m *StreamManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for sid, conn := range m.active {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		slog.Info("Breathing stream closed", "session_id", sid)
	}
	m.active = make(map[string]*websocket.Conn)
}
