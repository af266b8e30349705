package websocket

import (
	"context"
	"encoding/json"
	"time"

	"togetherly/pkg/errors"
	"togetherly/pkg/logger"
)

// Client -> server message types
const (
	MessageTypePing              = "ping"
	MessageTypeSubscribeThreads  = "subscribe_threads"
	MessageTypeSubscribeMessages = "subscribe_messages"
	MessageTypeSubscribeTyping   = "subscribe_typing"
	MessageTypeSubscribePresence = "subscribe_presence"
	MessageTypeUnsubscribe       = "unsubscribe"
	MessageTypeTypingStart       = "typing_start"
	MessageTypeTypingStop        = "typing_stop"
	MessageTypeMarkRead          = "mark_read"
)

// Server -> client message types
const (
	MessageTypePong              = "pong"
	MessageTypeSubscribed        = "subscribed"
	MessageTypeThreads           = "threads"
	MessageTypeMessages          = "messages"
	MessageTypeTyping            = "typing"
	MessageTypePresence          = "presence"
	MessageTypeSubscriptionError = "subscription_error"
	MessageTypeModerationResult  = "moderation_result"
	MessageTypeError             = "error"
)

type WSMessage struct {
	Type           string      `json:"type"`
	Data           interface{} `json:"data,omitempty"`
	ThreadID       string      `json:"thread_id,omitempty"`
	UserID         string      `json:"user_id,omitempty"`
	SubscriptionID string      `json:"subscription_id,omitempty"`
	Timestamp      string      `json:"timestamp"`
}

type SubscriptionErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HandleClientMessage processes incoming WebSocket messages
func (m *Manager) HandleClientMessage(client *Client, messageBytes []byte) {
	var wsMessage WSMessage
	if err := json.Unmarshal(messageBytes, &wsMessage); err != nil {
		logger.Warn("WebSocket: Failed to unmarshal message from client %s: %v", client.UserID, err)
		m.sendErrorToClient(client, "Invalid message format")
		return
	}

	logger.Debug("WebSocket: Received message type '%s' from client %s", wsMessage.Type, client.UserID)

	switch wsMessage.Type {
	case MessageTypePing:
		m.sendToClient(client, WSMessage{Type: MessageTypePong, Data: map[string]string{"status": "alive"}})
		if m.presence != nil {
			if err := m.presence.MarkActive(client.ctx, client.UserID); err != nil {
				logger.Warn("WebSocket: MarkActive failed for %s: %v", client.UserID, err)
			}
		}

	case MessageTypeSubscribeThreads:
		m.subscribeThreads(client)

	case MessageTypeSubscribeMessages:
		m.subscribeMessages(client, wsMessage.ThreadID)

	case MessageTypeSubscribeTyping:
		m.subscribeTyping(client, wsMessage.ThreadID)

	case MessageTypeSubscribePresence:
		m.subscribePresence(client, wsMessage.UserID)

	case MessageTypeUnsubscribe:
		client.removeSubscription(wsMessage.SubscriptionID, nil)

	case MessageTypeTypingStart, MessageTypeTypingStop:
		m.handleTyping(client, wsMessage.ThreadID, wsMessage.Type == MessageTypeTypingStart)

	case MessageTypeMarkRead:
		m.handleMarkRead(client, wsMessage.ThreadID)

	default:
		logger.Warn("WebSocket: Unknown message type '%s' from client %s", wsMessage.Type, client.UserID)
		m.sendErrorToClient(client, "Unknown message type")
	}
}

func (m *Manager) subscribeThreads(client *Client) {
	if m.chat == nil {
		m.sendErrorToClient(client, "Chat subscriptions unavailable")
		return
	}

	subID := MessageTypeThreads + ":" + client.UserID
	ctx, cancel := context.WithCancel(client.ctx)
	events, err := m.chat.ObserveThreads(ctx, client.UserID)
	if err != nil {
		cancel()
		m.sendSubscriptionError(client, subID, err)
		return
	}

	sub := client.addSubscription(subID, cancel)
	m.sendToClient(client, WSMessage{Type: MessageTypeSubscribed, SubscriptionID: subID})
	go forward(m, client, subID, MessageTypeThreads, sub, events)
}

func (m *Manager) subscribeMessages(client *Client, threadID string) {
	if m.chat == nil {
		m.sendErrorToClient(client, "Chat subscriptions unavailable")
		return
	}
	if threadID == "" {
		m.sendErrorToClient(client, "thread_id is required")
		return
	}

	subID := MessageTypeMessages + ":" + threadID
	ctx, cancel := context.WithCancel(client.ctx)
	events, err := m.chat.ObserveMessages(ctx, client.UserID, threadID)
	if err != nil {
		cancel()
		m.sendSubscriptionError(client, subID, err)
		return
	}

	sub := client.addSubscription(subID, cancel)
	m.sendToClient(client, WSMessage{Type: MessageTypeSubscribed, SubscriptionID: subID, ThreadID: threadID})
	go forward(m, client, subID, MessageTypeMessages, sub, events)
}

func (m *Manager) subscribeTyping(client *Client, threadID string) {
	if m.presence == nil {
		m.sendErrorToClient(client, "Presence subscriptions unavailable")
		return
	}
	if threadID == "" {
		m.sendErrorToClient(client, "thread_id is required")
		return
	}

	subID := MessageTypeTyping + ":" + threadID
	ctx, cancel := context.WithCancel(client.ctx)
	events, err := m.presence.ObserveTyping(ctx, client.UserID, threadID)
	if err != nil {
		cancel()
		m.sendSubscriptionError(client, subID, err)
		return
	}

	sub := client.addSubscription(subID, cancel)
	m.sendToClient(client, WSMessage{Type: MessageTypeSubscribed, SubscriptionID: subID, ThreadID: threadID})
	go forward(m, client, subID, MessageTypeTyping, sub, events)
}

func (m *Manager) subscribePresence(client *Client, userID string) {
	if m.presence == nil {
		m.sendErrorToClient(client, "Presence subscriptions unavailable")
		return
	}
	if userID == "" {
		m.sendErrorToClient(client, "user_id is required")
		return
	}

	subID := MessageTypePresence + ":" + userID
	ctx, cancel := context.WithCancel(client.ctx)
	events, err := m.presence.ObservePresence(ctx, client.UserID, userID)
	if err != nil {
		cancel()
		m.sendSubscriptionError(client, subID, err)
		return
	}

	sub := client.addSubscription(subID, cancel)
	m.sendToClient(client, WSMessage{Type: MessageTypeSubscribed, SubscriptionID: subID, UserID: userID})
	go forward(m, client, subID, MessageTypePresence, sub, events)
}

func (m *Manager) handleTyping(client *Client, threadID string, typing bool) {
	if m.presence == nil || threadID == "" {
		m.sendErrorToClient(client, "thread_id is required")
		return
	}
	if err := m.presence.SetTyping(client.ctx, client.UserID, threadID, typing); err != nil {
		logger.Warn("WebSocket: SetTyping failed for %s in %s: %v", client.UserID, threadID, err)
		m.sendErrorToClient(client, "Failed to update typing status")
	}
}

func (m *Manager) handleMarkRead(client *Client, threadID string) {
	if m.chat == nil || threadID == "" {
		m.sendErrorToClient(client, "thread_id is required")
		return
	}
	if err := m.chat.MarkThreadRead(client.ctx, client.UserID, threadID); err != nil {
		logger.Warn("WebSocket: MarkThreadRead failed for %s in %s: %v", client.UserID, threadID, err)
		m.sendErrorToClient(client, "Failed to mark thread as read")
	}
}

func (m *Manager) sendToClient(client *Client, message WSMessage) {
	if message.Timestamp == "" {
		message.Timestamp = time.Now().Format(time.RFC3339)
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		logger.Error("WebSocket: Failed to marshal %s message: %v", message.Type, err)
		return
	}

	if !client.enqueue(messageBytes) {
		logger.Warn("WebSocket: dropping %s message for %s", message.Type, client.UserID)
	}
}

func (m *Manager) sendErrorToClient(client *Client, errorMessage string) {
	m.sendToClient(client, WSMessage{
		Type: MessageTypeError,
		Data: map[string]string{"message": errorMessage},
	})
}

func (m *Manager) sendSubscriptionError(client *Client, subID string, err error) {
	data := SubscriptionErrorData{Code: "INTERNAL_ERROR", Message: "Subscription failed"}
	if appErr, ok := errors.AsAppError(err); ok {
		data = SubscriptionErrorData{Code: appErr.Code, Message: appErr.Message}
	}
	m.sendToClient(client, WSMessage{
		Type:           MessageTypeSubscriptionError,
		SubscriptionID: subID,
		Data:           data,
	})
}

// NotifyUser sends a typed payload to all of userID's connections.
func (m *Manager) NotifyUser(userID, messageType string, data interface{}) {
	messageBytes, err := json.Marshal(WSMessage{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("WebSocket: Failed to marshal %s notification: %v", messageType, err)
		return
	}
	m.SendToUser(userID, messageBytes)
}
