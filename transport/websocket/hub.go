package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/klondike/game/engine"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// viewers never send more than control frames and the odd keepalive
	maxMessageSize = 512

	// clientBuffer frames may wait for a slow viewer before it is cut off
	clientBuffer = 256
	// broadcastBuffer changes may wait for the Run loop before Publish drops them
	broadcastBuffer = 1024

	// EventStateUpdate is sent when a state change carries no engine events
	EventStateUpdate = "state_update"
	// EventConnected opens every stream with the table as it was when the viewer joined
	EventConnected = "connected"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is one frame of a session stream. Event is the last engine event of the change and
// Data carries all of them in order.
type Message struct {
	SessionID string            `json:"session_id"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Event     string            `json:"event,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
}

// Client is one viewer of one session
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// room is the set of viewers of a session
type room map[*Client]struct{}

// Hub fans state changes out to the viewers of each session. rooms is owned by the Run loop.
type Hub struct {
	rooms map[string]room

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	closeOnce  sync.Once

	dropped atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]room),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

// Run delivers registrations and changes until Close
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.join(c)
		case c := <-h.unregister:
			h.leave(c)
		case m := <-h.broadcast:
			h.deliver(m)
		case <-h.quit:
			for _, r := range h.rooms {
				for c := range r {
					h.leave(c)
				}
			}
			return
		}
	}
}

// Close ends Run and disconnects every viewer
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

// ServeWS upgrades the request and streams the session to it. current, when set, is sent
// first so the viewer does not wait for the next change to see the table.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, current *engine.GameState) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, clientBuffer), sessionID: sessionID}
	if current != nil {
		if data, err := json.Marshal(&Message{SessionID: sessionID, GameState: current, Event: EventConnected}); err == nil {
			c.send <- data
		}
	}

	select {
	case h.register <- c:
	case <-h.quit:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// Publish queues a state change for the session's viewers. It never blocks; when the hub is
// saturated the change is dropped and counted.
func (h *Hub) Publish(sessionID string, state *engine.GameState, events []engine.Event) {
	m := &Message{SessionID: sessionID, GameState: state, Event: EventStateUpdate}
	if len(events) > 0 {
		m.Event = string(events[len(events)-1].Type)
		m.Data = events
	}

	select {
	case h.broadcast <- m:
	default:
		if n := h.dropped.Add(1); n == 1 || n%100 == 0 {
			log.Printf("WebSocket hub saturated, dropped %d messages (session %s)", n, sessionID)
		}
	}
}

// Dropped reports how many changes were discarded because the Run loop fell behind
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

func (h *Hub) join(c *Client) {
	r, ok := h.rooms[c.sessionID]
	if !ok {
		r = make(room)
		h.rooms[c.sessionID] = r
	}
	r[c] = struct{}{}
	log.Printf("[WS] session=%s viewer joined (%d watching)", c.sessionID, len(r))
}

// leave closes the viewer's stream. Leaving twice is a no-op.
func (h *Hub) leave(c *Client) {
	r := h.rooms[c.sessionID]
	if _, ok := r[c]; !ok {
		return
	}
	delete(r, c)
	close(c.send)
	if len(r) == 0 {
		delete(h.rooms, c.sessionID)
	}
	log.Printf("[WS] session=%s viewer left (%d watching)", c.sessionID, len(r))
}

func (h *Hub) deliver(m *Message) {
	r := h.rooms[m.SessionID]
	if len(r) == 0 {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}
	for c := range r {
		select {
		case c.send <- data:
		default:
			log.Printf("[WS] session=%s viewer too slow, disconnecting", m.SessionID)
			h.leave(c)
		}
	}
}

// readPump discards whatever the viewer sends and keeps the read deadline fed by pongs
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// writePump writes one JSON document per frame and pings on pingPeriod
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		var err error
		select {
		case data, open := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			err = c.conn.WriteMessage(websocket.TextMessage, data)
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err = c.conn.WriteMessage(websocket.PingMessage, nil)
		}
		if err != nil {
			return
		}
	}
}
