package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/user/staffstream/internal/pkg/auth"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// frame is the wire format pushed to clients.
type frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	rooms []string
}

// Hub is the room-based real-time transport. A connected client joins two
// rooms: its user ID and its role name. Emits are fire-and-forget; a slow
// client drops frames rather than blocking the pipeline.
type Hub struct {
	logger    *slog.Logger
	jwtSecret string

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

// NewHub creates a Hub. It must be constructed in main and injected into
// every component that emits; there is no ambient global handle.
func NewHub(jwtSecret string, logger *slog.Logger) *Hub {
	return &Hub{
		logger:    logger.With("component", "realtime_hub"),
		jwtSecret: jwtSecret,
		rooms:     make(map[string]map[*client]struct{}),
	}
}

// ServeHTTP authenticates and upgrades a websocket connection. The token is
// issued by the API layer; its claims decide which rooms the client joins.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token is required", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateToken(token, h.jwtSecret)
	if err != nil {
		h.logger.Warn("rejected websocket connection", "error", err, "remote_addr", r.RemoteAddr)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	rooms := []string{claims.UserID}
	if claims.Role != "" {
		rooms = append(rooms, claims.Role)
	}

	c := &client{
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		rooms: rooms,
	}
	h.addClient(c)

	go h.writePump(c)
	go h.readPump(c)
}

// EmitToRoom broadcasts a named message to every subscriber of a room.
// Emitting to an empty room is a successful no-op.
func (h *Hub) EmitToRoom(room, event string, payload interface{}) error {
	data, err := json.Marshal(frame{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal realtime frame: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- data:
		default:
			// Client buffer is full; drop the frame for this client
			// rather than blocking the broadcast.
			h.logger.Warn("dropping realtime frame for slow client", "room", room, "event", event)
		}
	}
	return nil
}

// RoomSize reports the number of clients subscribed to a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) addClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range c.rooms {
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*client]struct{})
		}
		h.rooms[room][c] = struct{}{}
	}
	h.logger.Info("realtime client connected", "rooms", c.rooms)
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := false
	for _, room := range c.rooms {
		if _, ok := h.rooms[room][c]; ok {
			delete(h.rooms[room], c)
			removed = true
			if len(h.rooms[room]) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	if removed {
		close(c.send)
		h.logger.Info("realtime client disconnected", "rooms", c.rooms)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; clients only listen. It exists to detect
// disconnects and service pongs.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
