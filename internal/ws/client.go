package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Connection lifecycle: unauthenticated until a successful auth event,
// authenticated afterwards, closed is terminal.
const (
	stateUnauth int32 = iota
	stateAuth
	stateClosed
)

var (
	errClosed = errors.New("connection closed")
	errSlow   = errors.New("send buffer full")
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client owns one websocket for its lifetime. Events arriving on it are
// processed strictly in order by readPump; outbound payloads go through a
// buffered send channel drained by writePump.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	router *Router

	state  atomic.Int32
	userID string
	name   string
}

func newClient(conn *websocket.Conn, router *Router) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		done:   make(chan struct{}),
		router: router,
	}
}

// Serve upgrades the HTTP request and runs the connection. Identity is
// established by the first successful auth event, not at upgrade time.
func Serve(router *Router) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := newClient(conn, router)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) authenticated() bool { return c.state.Load() == stateAuth }

// bindIdentity moves the connection to the authenticated state.
func (c *Client) bindIdentity(userID, name string) {
	c.userID = userID
	c.name = name
	c.state.Store(stateAuth)
}

// Push enqueues a payload without blocking. A slow client that has filled
// its buffer is closed rather than allowed to stall fan-out to others.
func (c *Client) Push(payload []byte) error {
	select {
	case <-c.done:
		return errClosed
	case c.send <- payload:
		return nil
	default:
		log.Warn().Str("user_id", c.userID).Msg("ws send buffer full, dropping connection")
		c.Close()
		return errSlow
	}
}

// PushEvent marshals and enqueues one outbound envelope.
func (c *Client) PushEvent(payload M) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("ws marshal outbound")
		return
	}
	_ = c.Push(b)
}

// Close is idempotent and safe from any goroutine.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) readPump() {
	defer c.shutdown()
	c.conn.SetReadLimit(1 << 20) // 1MB, file payloads ride inline
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.router.Handle(c, data)
	}
}

// shutdown runs when the read side ends. Unregistering is conditional: if
// this connection was superseded by a reconnect, the newer registration
// stays and no presence change happens.
func (c *Client) shutdown() {
	wasAuth := c.state.Swap(stateClosed) == stateAuth
	c.Close()
	if wasAuth && c.router.registry.Unregister(c.userID, c) {
		c.router.presence.WentOffline(c.userID)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
