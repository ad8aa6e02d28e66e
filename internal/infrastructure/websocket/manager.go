package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"minimarket/internal/domain/entity"
	"minimarket/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

const MessageTypeAuthEvent = "auth_event"

type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// Client is one socket belonging to a signed-in identity.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{UserID: userID, Conn: conn, Send: make(chan []byte, sendBuffer)}
}

// Manager tracks every open session socket, grouped by identity.
type Manager struct {
	clients    map[string]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	deliver    chan entity.AuthEvent
	done       chan struct{}
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		deliver:    make(chan entity.AuthEvent, 64),
		done:       make(chan struct{}),
	}
}

// Start runs the manager loop until ctx is done, then closes every socket.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if m.clients[client.UserID] == nil {
					m.clients[client.UserID] = make(map[*Client]struct{})
				}
				m.clients[client.UserID][client] = struct{}{}
				m.mutex.Unlock()
				logger.Debug("session socket registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.remove(client)
				logger.Debug("session socket unregistered: %s", client.UserID)

			case event := <-m.deliver:
				m.fanOut(event)

			case <-ctx.Done():
				close(m.done)
				m.closeAll()
				return
			}
		}
	}()
}

// Add registers client. It reports false once the manager has stopped.
func (m *Manager) Add(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) drop(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

// Deliver queues event for the sockets of event.UserID. It never blocks.
func (m *Manager) Deliver(event entity.AuthEvent) {
	select {
	case m.deliver <- event:
	default:
		logger.Warn("session socket queue full, dropping %s for %s", event.Type, event.UserID)
	}
}

func (m *Manager) fanOut(event entity.AuthEvent) {
	payload, err := json.Marshal(WSMessage{
		Type:      MessageTypeAuthEvent,
		Data:      event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("encode auth event: %v", err)
		return
	}

	m.mutex.RLock()
	targets := make([]*Client, 0, len(m.clients[event.UserID]))
	for client := range m.clients[event.UserID] {
		targets = append(targets, client)
	}
	m.mutex.RUnlock()

	for _, client := range targets {
		select {
		case client.Send <- payload:
		default:
			m.remove(client)
			continue
		}
		// A signed-out identity has no session left to observe.
		if event.Type == entity.AuthSignedOut {
			m.remove(client)
		}
	}
}

// remove drops client and closes its send channel exactly once.
func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	set, ok := m.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.Send)
	if len(set) == 0 {
		delete(m.clients, client.UserID)
	}
}

func (m *Manager) closeAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for userID, set := range m.clients {
		for client := range set {
			close(client.Send)
		}
		delete(m.clients, userID)
	}
}

// Connections reports how many sockets userID has open.
func (m *Manager) Connections(userID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID])
}

// ReadPump drains control frames and unregisters the client when the peer
// goes away. Session sockets are push-only; inbound payloads are ignored.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.drop(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("session socket for %s closed: %v", c.UserID, err)
			}
			return
		}
	}
}

// WritePump sends queued events and keepalive pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("session socket write for %s failed: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
