package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/session"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// maxMessageSize bounds one inbound frame; recorder chunks are
	// timesliced well below this.
	maxMessageSize = 8 << 20
)

// Message is the JSON frame pushed to browsers.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Upgrader accepts same-origin candidate pages.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Conn serializes writes to one websocket connection.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *Conn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, data)
}

// Hub fans session events out to every browser tab attached to a
// candidate session.
type Hub struct {
	log *zap.Logger

	mu       sync.RWMutex
	sessions map[string]map[*Conn]bool
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:      log.Named("ws"),
		sessions: make(map[string]map[*Conn]bool),
	}
}

func (h *Hub) AddConnection(sessionID string, ws *websocket.Conn) *Conn {
	conn := &Conn{ws: ws}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[*Conn]bool)
	}
	h.sessions[sessionID][conn] = true
	h.log.Debug("Client connected", zap.String("session", sessionID), zap.Int("total", len(h.sessions[sessionID])))
	return conn
}

func (h *Hub) RemoveConnection(sessionID string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.sessions[sessionID]; ok {
		if _, ok := conns[conn]; !ok {
			return
		}
		delete(conns, conn)
		conn.ws.Close()
		if len(conns) == 0 {
			delete(h.sessions, sessionID)
		}
		h.log.Debug("Client disconnected", zap.String("session", sessionID))
	}
}

// Connections returns the number of open connections for sessionID.
func (h *Hub) Connections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// Broadcast sends message to every connection of sessionID, dropping
// connections whose write fails.
func (h *Hub) Broadcast(sessionID string, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("Failed to marshal message", zap.String("type", message.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.sessions[sessionID]))
	for conn := range h.sessions[sessionID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.write(websocket.TextMessage, data); err != nil {
			h.log.Debug("Write failed, dropping client", zap.String("session", sessionID), zap.Error(err))
			h.RemoveConnection(sessionID, conn)
		}
	}
}

// Publish implements session.Listener.
func (h *Hub) Publish(sessionID string, event session.Event) {
	h.Broadcast(sessionID, Message{Type: event.Type, Data: event.Data})
}

// Serve upgrades the request, attaches it to sessionID and feeds every
// inbound frame to handle until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID string, handle func(messageType int, data []byte)) error {
	ws, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	conn := h.AddConnection(sessionID, ws)
	defer h.RemoveConnection(sessionID, conn)

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(conn, done)

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("Unexpected close", zap.String("session", sessionID), zap.Error(err))
			}
			return nil
		}
		handle(messageType, data)
	}
}

func (h *Hub) keepAlive(conn *Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
