package stream

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// sendBuffer is how many frames a slow viewer may lag before frames
	// are dropped for it.
	sendBuffer = 8

	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 8192,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	addr string
}

// Hub tracks connected viewers and fans frames out to them.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	controls chan ControlMsg
	logger   *log.Logger
	dropped  uint64
}

// NewHub creates an empty hub. A nil logger discards output.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		clients:  make(map[*client]struct{}),
		controls: make(chan ControlMsg, 32),
		logger:   logger,
	}
}

// Controls delivers control messages from viewers.
func (h *Hub) Controls() <-chan ControlMsg {
	return h.controls
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many messages were skipped for slow viewers.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Broadcast queues msg for every viewer. Viewers with a full buffer miss it.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.dropped++
		}
	}
}

// ServeHTTP upgrades the request and serves the viewer until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	h.HandleWS(conn)
}

// HandleWS registers conn and blocks while it is open.
func (h *Hub) HandleWS(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer), addr: conn.RemoteAddr().String()}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("viewer connected", "remote", c.addr)

	go c.writer()
	c.reader(h)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.logger.Info("viewer disconnected", "remote", c.addr)
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

func (c *client) reader(h *Hub) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("read failed", "remote", c.addr, "err", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.reply(TypeError, StatusMsg{Message: "malformed message"})
			continue
		}

		switch env.Type {
		case TypeControl:
			var ctl ControlMsg
			if err := json.Unmarshal(env.Data, &ctl); err != nil {
				c.reply(TypeError, StatusMsg{Message: "malformed control"})
				continue
			}
			select {
			case h.controls <- ctl:
			default:
				c.reply(TypeError, StatusMsg{Message: "busy, control dropped"})
			}
		default:
			c.reply(TypeError, StatusMsg{Message: "unknown message type: " + env.Type})
		}
	}
}

// reply queues a message for this viewer only.
func (c *client) reply(typ string, v any) {
	out, err := Encode(typ, v)
	if err != nil {
		return
	}
	// Only the reader calls reply, and send is closed after the reader exits.
	select {
	case c.send <- out:
	default:
	}
}

func (c *client) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
