package websocket

import (
	"encoding/json"
	"time"

	"veridax/pkg/logger"
)

// WebSocket frame types
const (
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
	MessageTypeJoinRoom   = "join_room"
	MessageTypeLeaveRoom  = "leave_room"
	MessageTypeNewMessage = "new_message"
	MessageTypeError      = "error"
)

// WSMessage is the frame exchanged over the realtime channel.
type WSMessage struct {
	Type           string      `json:"type"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Data           interface{} `json:"data,omitempty"`
	Timestamp      string      `json:"timestamp"`
}

// NewMessageEvent builds the payload published to a conversation room after
// a message is appended to the store.
func NewMessageEvent(conversationID string, message interface{}) ([]byte, error) {
	return json.Marshal(WSMessage{
		Type:           MessageTypeNewMessage,
		ConversationID: conversationID,
		Data:           message,
		Timestamp:      time.Now().Format(time.RFC3339),
	})
}

// HandleClientMessage processes an inbound frame from a connection. Join and
// leave are the only mutations a client can make at this layer; messages
// themselves go through the REST API.
func (m *Manager) HandleClientMessage(client *Client, messageBytes []byte) {
	var wsMessage WSMessage

	if err := json.Unmarshal(messageBytes, &wsMessage); err != nil {
		logger.Warn("WebSocket: invalid frame from client %s: %v", client.UserID, err)
		m.sendErrorToClient(client, "Invalid message format")
		return
	}

	switch wsMessage.Type {
	case MessageTypePing:
		m.sendToClient(client, WSMessage{
			Type:      MessageTypePong,
			Timestamp: time.Now().Format(time.RFC3339),
		})

	case MessageTypeJoinRoom:
		if wsMessage.ConversationID == "" {
			m.sendErrorToClient(client, "Missing conversation_id")
			return
		}
		m.JoinRoom(client, wsMessage.ConversationID)
		logger.Debug("WebSocket: client %s joined room %s", client.UserID, wsMessage.ConversationID)

	case MessageTypeLeaveRoom:
		if wsMessage.ConversationID == "" {
			m.sendErrorToClient(client, "Missing conversation_id")
			return
		}
		m.LeaveRoom(client, wsMessage.ConversationID)
		logger.Debug("WebSocket: client %s left room %s", client.UserID, wsMessage.ConversationID)

	default:
		logger.Warn("WebSocket: unknown frame type '%s' from client %s", wsMessage.Type, client.UserID)
		m.sendErrorToClient(client, "Unknown message type")
	}
}

func (m *Manager) sendToClient(client *Client, message WSMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		logger.Error("WebSocket: failed to marshal frame for client %s: %v", client.UserID, err)
		return
	}

	if !client.trySend(messageBytes) {
		logger.Warn("WebSocket: client %s send channel full, closing connection", client.UserID)
		m.removeClient(client)
	}
}

func (m *Manager) sendErrorToClient(client *Client, errorMsg string) {
	m.sendToClient(client, WSMessage{
		Type:      MessageTypeError,
		Data:      map[string]string{"error": errorMsg},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
