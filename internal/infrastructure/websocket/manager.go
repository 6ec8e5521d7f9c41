package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"veridax/pkg/logger"
)

// Client represents one WebSocket connection. A user with several open tabs
// has several clients, each with its own room membership.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	closed bool
}

// trySend queues a payload without blocking. Sending and closing are both
// serialized on the client mutex, so a publish racing a disconnect can never
// hit a closed channel. Returns false when the client cannot keep up; a
// payload arriving after the client closed is silently dropped.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return true
	}

	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// Manager owns all active connections and the room membership table. Rooms
// are keyed by conversation ID and exist only in this process; persistence
// and authorization live in the conversation store, not here.
type Manager struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's registration loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client] = true
				m.mutex.Unlock()
				logger.Info("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.removeClient(client)
				logger.Info("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// JoinRoom subscribes a connection to a conversation's room.
func (m *Manager) JoinRoom(client *Client, conversationID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room, ok := m.rooms[conversationID]
	if !ok {
		room = make(map[*Client]bool)
		m.rooms[conversationID] = room
	}
	room[client] = true
}

// LeaveRoom unsubscribes a connection from a conversation's room.
func (m *Manager) LeaveRoom(client *Client, conversationID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, ok := m.rooms[conversationID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(m.rooms, conversationID)
		}
	}
}

// Publish delivers a payload to every connection currently joined to the
// conversation's room, the sender's own connections included. Delivery is
// best-effort: a connection that cannot keep up is dropped, and a
// connection that is not joined simply misses the event.
func (m *Manager) Publish(conversationID string, payload []byte) {
	m.mutex.RLock()
	room := m.rooms[conversationID]
	targets := make([]*Client, 0, len(room))
	for client := range room {
		targets = append(targets, client)
	}
	m.mutex.RUnlock()

	for _, client := range targets {
		if !client.trySend(payload) {
			logger.Warn("Dropping slow WebSocket client %s", client.UserID)
			m.removeClient(client)
		}
	}
}

// RoomSize returns the number of connections joined to a room.
func (m *Manager) RoomSize(conversationID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms[conversationID])
}

// removeClient drops a connection from the client table and every room it
// joined, then closes its send channel.
func (m *Manager) removeClient(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.clients[client]; !ok {
		return
	}
	delete(m.clients, client)
	for conversationID, room := range m.rooms {
		delete(room, client)
		if len(room) == 0 {
			delete(m.rooms, conversationID)
		}
	}

	client.mu.Lock()
	if !client.closed {
		client.closed = true
		close(client.Send)
	}
	client.mu.Unlock()
}

// ReadPump reads frames from the connection until it closes.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket read error: %v", err)
			}
			break
		}

		m.HandleClientMessage(c, message)
	}
}

// WritePump writes queued payloads to the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Error("WebSocket write error: %v", err)
			return
		}
	}
}
