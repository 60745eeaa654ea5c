package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type        string      `json:"type"`
	CheckStatus *bool       `json:"check_status,omitempty"`
	Message     string      `json:"message,omitempty"`
	Data        interface{} `json:"data,omitempty"`
}

type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections and per-event subscriptions
type WSHub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
	topics  map[string]map[string]struct{}
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[string]*wsClient),
		topics:  make(map[string]map[string]struct{}),
	}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if existing, exists := h.clients[userID]; exists {
		existing.conn.Close()
	}

	h.clients[userID] = &wsClient{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes conn for a user. A newer connection of the same user is left alone.
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, exists := h.clients[userID]
	if !exists || client.conn != conn {
		return
	}
	client.conn.Close()
	delete(h.clients, userID)
	for eventID, subscribers := range h.topics {
		delete(subscribers, userID)
		if len(subscribers) == 0 {
			delete(h.topics, eventID)
		}
	}
	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
}

// Subscribe moves a user's subscription to eventID
func (h *WSHub) Subscribe(userID, eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, subscribers := range h.topics {
		if id != eventID {
			delete(subscribers, userID)
		}
	}
	if h.topics[eventID] == nil {
		h.topics[eventID] = make(map[string]struct{})
	}
	h.topics[eventID][userID] = struct{}{}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.clients[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(userID, client.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.clients[userID]
	return exists
}

// Subscribers returns the users subscribed to an event
func (h *WSHub) Subscribers(eventID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	userIDs := make([]string, 0, len(h.topics[eventID]))
	for userID := range h.topics[eventID] {
		userIDs = append(userIDs, userID)
	}
	return userIDs
}

// Publish sends a notification to every subscriber of its event. Delivery
// failures are logged and dropped.
func (h *WSHub) Publish(n Notification) {
	message := WSMessage{Type: n.Type, Data: n.Data}
	for _, userID := range h.Subscribers(n.EventID) {
		if err := h.SendToUser(userID, message); err != nil {
			log.Warn().
				Err(err).
				Str("user_id", userID).
				Str("event_id", n.EventID).
				Str("type", n.Type).
				Msg("Failed to deliver notification")
		}
	}
}

// Close closes every connection
func (h *WSHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, client := range h.clients {
		client.conn.Close()
		delete(h.clients, userID)
	}
	h.topics = make(map[string]map[string]struct{})
}
