package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub fans engine events out to the websocket clients of each game:
// joins, leaves, role changes, tags, sabotage triggers and bounty activity.
// Proximity results are never broadcast here; those stay in the requester's
// own location response.
type Hub struct {
	clients     map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	mutex       sync.RWMutex
	gameService *GameService
}

type Client struct {
	hub      *Hub
	id       string
	socket   *websocket.Conn
	send     chan []byte
	gameID   uint
	playerID uint
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewHub(gameService *GameService) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		gameService: gameService,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Client %s registered for game %d (player %d) - total clients: %d",
				client.id, client.gameID, client.playerID, h.clientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			log.Printf("Client %s unregistered from game %d (player %d)", client.id, client.gameID, client.playerID)
		}
	}
}

// BroadcastToGame sends a typed message to every client of a game.
func (h *Hub) BroadcastToGame(gameID uint, messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s message: %v", messageType, err)
		return
	}

	h.mutex.Lock()
	for client := range h.clients {
		if client.gameID != gameID {
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

// ConnectedPlayers returns the player ids with a live socket for a game.
func (h *Hub) ConnectedPlayers(gameID uint) []uint {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var ids []uint
	for client := range h.clients {
		if client.gameID == gameID {
			ids = append(ids, client.playerID)
		}
	}
	return ids
}

func (h *Hub) clientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) RegisterClient(conn *websocket.Conn, gameID, playerID uint) *Client {
	client := &Client{
		hub:      h,
		id:       fmt.Sprintf("client_%d_%d", playerID, time.Now().UnixNano()),
		socket:   conn,
		send:     make(chan []byte, 256),
		gameID:   gameID,
		playerID: playerID,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) sendStateSync(c *Client) {
	state, err := h.gameService.GetLiveState(c.gameID)
	if err != nil {
		log.Printf("Error getting live state for game %d: %v", c.gameID, err)
		return
	}

	data, err := json.Marshal(Message{Type: "game_state_sync", Payload: state})
	if err != nil {
		log.Printf("Error marshaling state sync: %v", err)
		return
	}

	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message from client %s: %v", c.id, err)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		data, _ := json.Marshal(Message{Type: "pong", Payload: "pong"})
		select {
		case c.send <- data:
		default:
		}

	case "request_game_state":
		c.hub.sendStateSync(c)

	default:
		log.Printf("Unknown message type %q from player %d in game %d", msg.Type, c.playerID, c.gameID)
	}
}
