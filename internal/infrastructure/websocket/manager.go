package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"togetherly/internal/domain/repository"
	"togetherly/internal/infrastructure/metrics"
	"togetherly/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBufferSize = 256
)

// ChatStreams is the chat side of what a socket can subscribe to.
type ChatStreams interface {
	ObserveThreads(ctx context.Context, userID string) (<-chan repository.ThreadsEvent, error)
	ObserveMessages(ctx context.Context, userID, threadID string) (<-chan repository.MessagesEvent, error)
	MarkThreadRead(ctx context.Context, userID, threadID string) error
}

// PresenceStreams is the liveness side of what a socket can subscribe to.
type PresenceStreams interface {
	ObserveTyping(ctx context.Context, userID, threadID string) (<-chan repository.TypingEvent, error)
	ObservePresence(ctx context.Context, viewerID, userID string) (<-chan repository.PresenceEvent, error)
	SetTyping(ctx context.Context, userID, threadID string, typing bool) error
	MarkActive(ctx context.Context, userID string) error
}

type subscription struct {
	cancel context.CancelFunc
}

// Client represents a WebSocket connection client
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	closed        bool
	subscriptions map[string]*subscription
}

func NewClient(ctx context.Context, userID string, conn *websocket.Conn) *Client {
	clientCtx, cancel := context.WithCancel(ctx)
	return &Client{
		UserID:        userID,
		Conn:          conn,
		Send:          make(chan []byte, sendBufferSize),
		ctx:           clientCtx,
		cancel:        cancel,
		subscriptions: make(map[string]*subscription),
	}
}

// enqueue drops the message if the client is gone or its buffer is full.
func (c *Client) enqueue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) shutdown() {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// addSubscription replaces any subscription with the same id.
func (c *Client) addSubscription(id string, cancel context.CancelFunc) *subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.subscriptions[id]; ok {
		existing.cancel()
	}
	sub := &subscription{cancel: cancel}
	c.subscriptions[id] = sub
	return sub
}

func (c *Client) removeSubscription(id string, sub *subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.subscriptions[id]; ok && (sub == nil || current == sub) {
		current.cancel()
		delete(c.subscriptions, id)
	}
}

func (c *Client) SubscriptionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscriptions)
}

// Manager manages all active WebSocket connections
type Manager struct {
	clients    map[string]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex

	chat     ChatStreams
	presence PresenceStreams

	ctx context.Context
}

func NewManager() *Manager {
	return &Manager{
		ctx:        context.Background(),
		clients:    make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// SetStreams wires the use cases that back subscriptions. It must be called
// before Start.
func (m *Manager) SetStreams(chat ChatStreams, presence PresenceStreams) {
	m.chat = chat
	m.presence = presence
}

// Context is the parent context for client connections; it ends when the
// manager stops.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Start runs the manager's main loop in a goroutine
func (m *Manager) Start(ctx context.Context) {
	m.ctx = ctx
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
				logger.Info("Client registered: %s", client.UserID)

				if m.presence != nil {
					go func(c *Client) {
						if err := m.presence.MarkActive(c.ctx, c.UserID); err != nil {
							logger.Warn("WebSocket: MarkActive failed for %s: %v", c.UserID, err)
						}
					}(client)
				}

			case client := <-m.Unregister:
				m.mutex.Lock()
				if devices, ok := m.clients[client.UserID]; ok {
					delete(devices, client)
					if len(devices) == 0 {
						delete(m.clients, client.UserID)
					}
				}
				m.mutex.Unlock()
				client.shutdown()
				logger.Info("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				m.mutex.Lock()
				for _, devices := range m.clients {
					for client := range devices {
						client.shutdown()
					}
				}
				m.clients = make(map[string]map[*Client]struct{})
				m.mutex.Unlock()
				return
			}
		}
	}()
}

// RegisterClient hands c to the main loop. It reports false once the manager
// has stopped, in which case c is already shut down.
func (m *Manager) RegisterClient(c *Client) bool {
	select {
	case m.Register <- c:
		return true
	case <-m.ctx.Done():
		c.shutdown()
		return false
	}
}

// unregister never blocks past the manager's lifetime: after Start's context
// ends nothing reads Unregister, so the client is shut down here instead.
func (m *Manager) unregister(c *Client) {
	select {
	case m.Unregister <- c:
	case <-m.ctx.Done():
		c.shutdown()
	}
}

// SendToUser pushes a message to every connection of userID.
func (m *Manager) SendToUser(userID string, message []byte) {
	m.mutex.RLock()
	devices := make([]*Client, 0, len(m.clients[userID]))
	for client := range m.clients[userID] {
		devices = append(devices, client)
	}
	m.mutex.RUnlock()

	for _, client := range devices {
		if !client.enqueue(message) {
			logger.Warn("WebSocket: dropping message for %s, send buffer full or closed", userID)
		}
	}
}

func (m *Manager) IsConnected(userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID]) > 0
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error for %s: %v", c.UserID, err)
			}
			break
		}

		m.HandleClientMessage(c, message)
	}
}

// WritePump sends messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket write error for %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// forward relays subscription events to the client until the subscription
// ends. An error event is reported to the client as subscription_error.
func forward[T any](m *Manager, c *Client, subID, eventType string, sub *subscription, events <-chan repository.Event[T]) {
	metrics.ActiveSubscriptions.Inc()
	defer func() {
		metrics.ActiveSubscriptions.Dec()
		c.removeSubscription(subID, sub)
	}()

	for ev := range events {
		if ev.Err != nil {
			m.sendSubscriptionError(c, subID, ev.Err)
			return
		}
		m.sendToClient(c, WSMessage{
			Type:           eventType,
			SubscriptionID: subID,
			Data:           ev.Items,
		})
	}
}
