package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/gorilla/websocket"

	"collection-service/models"
)

// StatusUpdateMessage is pushed to connected clients whenever a
// collection request changes status.
type StatusUpdateMessage struct {
	Type       string                   `json:"type"`
	Collection models.CollectionRequest `json:"collection"`
	Timestamp  time.Time                `json:"timestamp"`
}

// WebSocketHub manages websocket connections and broadcasts status
// updates to the requester and collector involved in a collection.
type WebSocketHub struct {
	clients    map[*WebSocketClient]bool
	broadcast  chan StatusUpdateMessage
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	mutex      sync.RWMutex
}

// WebSocketClient represents a single websocket client connection.
type WebSocketClient struct {
	hub    *WebSocketHub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[*WebSocketClient]bool),
		broadcast:  make(chan StatusUpdateMessage, 64),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
	}
}

// Start runs the hub loop. Call in a goroutine.
func (h *WebSocketHub) Start() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Infof("WebSocket client registered for user %s", client.userID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			log.Infof("WebSocket client unregistered for user %s", client.userID)

		case message := <-h.broadcast:
			data := h.serializeMessage(message)
			// Write lock: slow clients get evicted from the map here.
			h.mutex.Lock()
			for client := range h.clients {
				// Only the parties of the collection get the update.
				if client.userID != message.Collection.RequesterID &&
					client.userID != message.Collection.CollectorID {
					continue
				}
				select {
				case client.send <- data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// RegisterClient attaches a new websocket connection for userID.
func (h *WebSocketHub) RegisterClient(conn *websocket.Conn, userID string) {
	client := &WebSocketClient{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastStatusUpdate queues a status update for delivery.
func (h *WebSocketHub) BroadcastStatusUpdate(req models.CollectionRequest) {
	msg := StatusUpdateMessage{
		Type:       "status_update",
		Collection: req,
		Timestamp:  time.Now(),
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Warnf("WebSocket broadcast queue full, dropping update for collection %s", req.ID)
	}
}

// ConnectedClients returns the number of connected clients.
func (h *WebSocketHub) ConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *WebSocketHub) serializeMessage(message StatusUpdateMessage) []byte {
	data, err := json.Marshal(message)
	if err != nil {
		log.Errorf("Failed to serialize status update: %v", err)
		return []byte("{}")
	}
	return data
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Errorf("WebSocket read error for user %s: %v", c.userID, err)
			}
			break
		}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
