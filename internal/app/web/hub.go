package web

import (
	"sync"
	"time"

	"github.com/far4599/ytgrab/internal/models"
	"github.com/far4599/ytgrab/internal/pkg/log"
	"github.com/gorilla/websocket"
)

type ProgressEvent struct {
	Percent         int   `json:"percent"`
	DownloadedBytes int64 `json:"downloaded"`
	TotalBytes      int64 `json:"total"`
}

func newProgressEvent(p models.Progress) ProgressEvent {
	return ProgressEvent{
		Percent:         p.Percent(),
		DownloadedBytes: p.DownloadedBytes,
		TotalBytes:      p.TotalBytes,
	}
}

// writeWait bounds a single websocket write so a stalled peer cannot hold up
// the download feeding the events.
var writeWait = 5 * time.Second

type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) write(ev ProgressEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return c.conn.WriteJSON(ev)
}

// Hub fans progress events out to the websocket connections of a session.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*websocket.Conn]*wsClient
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]*wsClient),
	}
}

func (h *Hub) Register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[sessionID]
	if !ok {
		conns = make(map[*websocket.Conn]*wsClient)
		h.clients[sessionID] = conns
	}
	conns[conn] = &wsClient{conn: conn}
}

func (h *Hub) Unregister(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.remove(sessionID, conn)
}

// Publish writes ev to every connection of the session. Connections that fail
// or time out are dropped.
func (h *Hub) Publish(sessionID string, ev ProgressEvent) {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients[sessionID]))
	for _, c := range h.clients[sessionID] {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.write(ev); err != nil {
			log.Logger.Debugw("dropping websocket client", "session", sessionID, "error", err)
			h.Unregister(sessionID, c.conn)
		}
	}
}

func (h *Hub) Count(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients[sessionID])
}

func (h *Hub) remove(sessionID string, conn *websocket.Conn) {
	conns, ok := h.clients[sessionID]
	if !ok {
		return
	}

	if _, ok := conns[conn]; ok {
		conn.Close()
		delete(conns, conn)
	}
	if len(conns) == 0 {
		delete(h.clients, sessionID)
	}
}
