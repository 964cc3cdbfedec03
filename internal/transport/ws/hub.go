// Package ws lets observers watch a session's live stream over WebSocket.
// Every stream event emitted for a session is mirrored to its observers.
package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection is a single observer connection bound to one session.
type Connection struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
	mu        sync.Mutex
}

// WriteMessage writes to the underlying connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// Close closes the underlying connection.
func (c *Connection) Close() error {
	return c.Conn.Close()
}

// Hub tracks observer connections keyed by session and fans stream events
// out to them. A slow observer whose buffer fills is dropped rather than
// stalling the stream.
type Hub struct {
	connections map[string]*Connection
	sessions    map[string]map[string]bool

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *sessionMessage

	mu sync.RWMutex
}

type sessionMessage struct {
	sessionID string
	data      []byte
}

// NewHub creates an empty hub. Run must be started before use.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		sessions:    make(map[string]map[string]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *sessionMessage, 256),
	}
}

// Run is the hub's main loop. It owns the connection and session maps'
// mutations.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if h.sessions[conn.SessionID] == nil {
				h.sessions[conn.SessionID] = make(map[string]bool)
			}
			h.sessions[conn.SessionID][conn.ID] = true
			h.mu.Unlock()
			log.Printf("Observer connected: %s (session: %s)", conn.ID, conn.SessionID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				if h.sessions[conn.SessionID] != nil {
					delete(h.sessions[conn.SessionID], conn.ID)
					if len(h.sessions[conn.SessionID]) == 0 {
						delete(h.sessions, conn.SessionID)
					}
				}
				close(conn.Send)
			}
			h.mu.Unlock()
			log.Printf("Observer disconnected: %s", conn.ID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for connID := range h.sessions[msg.sessionID] {
				conn, exists := h.connections[connID]
				if !exists {
					continue
				}
				select {
				case conn.Send <- msg.data:
				default:
					log.Printf("Observer %s buffer full, closing", connID)
					go h.Unregister(conn)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NewConnection wraps an upgraded WebSocket for the given session.
func (h *Hub) NewConnection(ws *websocket.Conn, sessionID string) *Connection {
	return &Connection{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Conn:      ws,
		Send:      make(chan []byte, 256),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Broadcast sends data to all observers of a session.
func (h *Hub) Broadcast(sessionID string, data []byte) {
	h.broadcast <- &sessionMessage{sessionID: sessionID, data: data}
}

// BroadcastJSON marshals v and sends it to all observers of a session.
func (h *Hub) BroadcastJSON(sessionID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(sessionID, data)
	return nil
}

// HasObservers reports whether a session has any live observers.
func (h *Hub) HasObservers(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID]) > 0
}

// ConnectionCount returns the number of active observer connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}
