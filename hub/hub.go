package hub

import (
	"context"
	"log"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/websocket"
)

const (
	EventOnlineUsers     = "online_users"
	EventNewNotification = "new_notification"
)

// Event is the frame pushed to connected clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub tracks at most one live connection per user id. A new connection
// for an already-connected user replaces the old one (last write wins).
// Every connect and disconnect re-broadcasts the full online-user list.
type Hub struct {
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	clients map[string]*Client

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		clients:    make(map[string]*Client),
		ctx:        ctx,
		cancel:     cancel,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	if old, ok := h.clients[c.UserID]; ok && old != c {
		old.Close()
	}
	h.clients[c.UserID] = c
	h.mu.Unlock()

	log.Printf("client %s connected for user %s", c.ID, c.UserID)
	h.broadcastOnline()
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	current, ok := h.clients[c.UserID]
	if ok && current == c {
		delete(h.clients, c.UserID)
	}
	h.mu.Unlock()
	c.Close()

	if ok && current == c {
		log.Printf("client %s disconnected for user %s", c.ID, c.UserID)
		h.broadcastOnline()
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) { h.register <- c }

// Unregister removes a client; a no-op if the user has since reconnected
// on a different client.
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

// OnlineUserIDs returns the ids of currently connected users, sorted for
// stable output.
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	_, ok := h.clients[userID]
	h.mu.RUnlock()
	return ok
}

// PushToUser delivers an event to the user's connection if there is one.
// Fire and forget: a false return means only that the push was missed,
// the recipient picks the data up on the next poll.
func (h *Hub) PushToUser(userID string, ev Event) bool {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return c.Send(ev)
}

func (h *Hub) broadcastOnline() {
	ev := Event{Type: EventOnlineUsers, Data: h.OnlineUserIDs()}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(ev)
	}
}

// Stop shuts down the hub and closes every connection.
func (h *Hub) Stop() {
	h.cancel()
	h.mu.Lock()
	for _, c := range h.clients {
		c.Close()
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and attaches the connection to the hub.
// The caller has already authenticated the user id.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	c := NewClient(userID, conn)
	h.Register(c)
	go c.readPump(h)
	go c.writePump()
}
