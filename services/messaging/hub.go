// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package messaging

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeTimeout bounds a single websocket write so one stalled peer
// cannot wedge delivery.
const writeTimeout = 10 * time.Second

// hubConn serializes writes to one websocket connection. gorilla
// permits at most one concurrent writer per connection.
type hubConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *hubConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}

// Hub fans new messages out to a user's live websocket connections.
// A user may hold several connections (multiple tabs/devices); delivery
// is best-effort and a failed write drops that connection.
//
// The hub mutex guards the registry only. Writes happen outside it, so
// a slow peer delays its own delivery but never blocks registration or
// other users' notifications.
type Hub struct {
	mu    sync.Mutex
	conns map[string][]*hubConn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string][]*hubConn)}
}

// Register attaches a connection to the user's delivery set.
func (h *Hub) Register(userID string, ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[userID] = append(h.conns[userID], &hubConn{ws: ws})
}

// Unregister detaches a connection. Safe to call for connections that
// were never registered.
func (h *Hub) Unregister(userID string, ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.conns[userID]
	for i, c := range conns {
		if c.ws == ws {
			h.conns[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// Notify writes payload as JSON to every live connection of userID.
// Connections that fail are closed and removed.
func (h *Hub) Notify(userID string, payload any) {
	h.mu.Lock()
	snapshot := make([]*hubConn, len(h.conns[userID]))
	copy(snapshot, h.conns[userID])
	h.mu.Unlock()

	for _, c := range snapshot {
		if err := c.writeJSON(payload); err != nil {
			slog.Warn("dropping websocket connection after failed write",
				"userId", userID, "error", err)
			c.ws.Close()
			h.Unregister(userID, c.ws)
		}
	}
}

// ConnectionCount reports the number of live connections, for metrics.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, conns := range h.conns {
		n += len(conns)
	}
	return n
}
