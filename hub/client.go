package hub

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = int64(4 * 1024)
	sendBufSize    = 64
	sendTimeout    = 2 * time.Second
)

// Client is one websocket connection belonging to one user.
type Client struct {
	ID     string
	UserID string

	conn   *websocket.Conn
	egress chan Event

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewClient wraps a connection. The read/write pumps are started by
// Hub.ServeWS; a client that never pumps is still safe to register and
// send to, which the tests rely on.
func NewClient(userID string, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		conn:   conn,
		egress: make(chan Event, sendBufSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Send enqueues an event for delivery. Returns false if the client is
// closed or its buffer stayed full past the send timeout.
func (c *Client) Send(ev Event) bool {
	select {
	case <-c.ctx.Done():
		return false
	case c.egress <- ev:
		return true
	case <-time.After(sendTimeout):
		log.Printf("egress full, dropping event for user %s", c.UserID)
		return false
	}
}

// Close cancels the client. The pumps notice the cancellation and close
// the underlying connection.
func (c *Client) Close() {
	c.once.Do(func() {
		c.cancel()
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// readPump drains inbound frames to keep the connection's read side
// healthy. Clients do not send application data; presence and pushes are
// server-driven.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.Unregister(c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("unexpected close for user %s: %v", c.UserID, err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.egress:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Printf("write failed for user %s: %v", c.UserID, err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
