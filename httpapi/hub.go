package httpapi

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/reactordj/config"
	"github.com/xeptore/reactordj/errutil"
	"github.com/xeptore/reactordj/log"
	"github.com/xeptore/reactordj/player"
)

type Message struct {
	Type string          `json:"type"`
	Data player.Snapshot `json:"data"`
}

// Hub pushes session snapshots to connected websocket clients. A client that
// cannot keep up is disconnected.
type Hub struct {
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu          sync.Mutex
	clients     map[string]*client
	lastVersion uint64
	closed      bool
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once

	// guarded by Hub.mu
	delivered bool
	version   uint64
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{ //nolint:exhaustruct
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:      logger.With().Str("module", "httpapi").Str("component", "hub").Logger(),
		mu:          sync.Mutex{},
		clients:     make(map[string]*client),
		lastVersion: 0,
		closed:      false,
	}
}

// Broadcast sends snap to every client. Snapshots older than the last one
// broadcast are dropped. It never blocks, so it can serve as
// player.Options.OnChange.
func (h *Hub) Broadcast(snap player.Snapshot) {
	payload, err := encode(snap)
	if nil != err {
		h.logger.Error().Func(log.Flaw(err)).Uint64("version", snap.Version).Msg("Failed to encode snapshot")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || snap.Version < h.lastVersion {
		return
	}
	h.lastVersion = snap.Version
	for _, c := range h.clients {
		h.deliverLocked(c, snap.Version, payload)
	}
}

// deliverLocked queues payload for c unless c already holds a snapshot at
// least as new. h.mu must be held.
func (h *Hub) deliverLocked(c *client, version uint64, payload []byte) {
	if c.delivered && version <= c.version {
		return
	}
	select {
	case c.send <- payload:
		c.delivered = true
		c.version = version
	default:
		h.logger.Warn().Str("client_id", c.id).Msg("Client is too slow, disconnecting")
		delete(h.clients, c.id)
		c.close()
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		c.close()
	}
}

// Serve upgrades the request and streams snapshots to it until the client
// goes away. The client is registered before current is called, so it starts
// from the newest of current's snapshot and any broadcast racing with it.
func (h *Hub) Serve(c *gin.Context, current func() player.Snapshot) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if nil != err {
		h.logger.Debug().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	cl := &client{
		id:        uuid.NewString(),
		conn:      conn,
		send:      make(chan []byte, config.WebSocketSendBuffer),
		once:      sync.Once{},
		delivered: false,
		version:   0,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[cl.id] = cl
	h.mu.Unlock()

	initial := current()
	payload, err := encode(initial)
	if nil != err {
		h.logger.Error().Func(log.Flaw(err)).Msg("Failed to encode initial snapshot")
		h.forget(cl)
		_ = conn.Close()
		return
	}
	h.mu.Lock()
	if h.clients[cl.id] == cl {
		h.deliverLocked(cl, initial.Version, payload)
	}
	h.mu.Unlock()

	logger := h.logger.With().Str("client_id", cl.id).Logger()
	logger.Debug().Str("remote_addr", c.Request.RemoteAddr).Msg("Websocket client connected")

	go h.writePump(cl, logger)
	h.readPump(cl)

	h.forget(cl)
	logger.Debug().Msg("Websocket client disconnected")
}

func (h *Hub) forget(cl *client) {
	h.mu.Lock()
	if h.clients[cl.id] == cl {
		delete(h.clients, cl.id)
	}
	h.mu.Unlock()
	cl.close()
}

// readPump only keeps the connection alive; clients send commands over HTTP.
func (h *Hub) readPump(cl *client) {
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(config.WebSocketPongTimeout))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(config.WebSocketPongTimeout))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); nil != err {
			return
		}
	}
}

func (h *Hub) writePump(cl *client, logger zerolog.Logger) {
	ticker := time.NewTicker(config.WebSocketPingInterval)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(config.WebSocketWriteTimeout))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, payload); nil != err {
				logger.Debug().Err(err).Msg("Failed to write snapshot")
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(config.WebSocketWriteTimeout))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); nil != err {
				return
			}
		}
	}
}

func encode(snap player.Snapshot) ([]byte, error) {
	b, err := json.Marshal(Message{Type: "snapshot", Data: snap})
	if nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "version": snap.Version}
		return nil, flaw.From(fmt.Errorf("failed to marshal snapshot message: %v", err)).Append(flawP)
	}
	return b, nil
}
