package ledgerws

import (
	"encoding/json"
	"log"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/mvachon/TeamRosterBack/internal/services"
)

// Hub fans committed ledger events out to websocket clients watching a
// team. Delivery is best-effort: a client that cannot keep up is dropped.
type Hub struct {
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan services.LedgerEvent
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	teamID int64
	send   chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan services.LedgerEvent, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, teamID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		teamID: teamID,
		send:   make(chan []byte, 32),
	}
}

// PublishLedgerEvent implements services.LedgerEventPublisher. It never
// blocks the committing request: when the hub is saturated the event is
// dropped, clients reload state from the ledger endpoints.
func (h *Hub) PublishLedgerEvent(event services.LedgerEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("ledger hub: dropping event for team %d", event.TeamID)
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.teamID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.teamID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.teamID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.teamID)
			}
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) deliver(event services.LedgerEvent) {
	set, ok := h.clients[event.TeamID]
	if !ok {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("ledger hub encode event: %v", err)
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, event.TeamID)
	}
}

// ReadPump drains the connection until the client goes away. The feed is
// server-to-client only; inbound frames are ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
