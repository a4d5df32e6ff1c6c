package ws

import (
	"sync"
)

// DefaultHub tracks connections by id and indexes them by user for
// identity-update fan-out.
type DefaultHub struct {
	conns map[string]Conn
	users map[string]map[string]Conn // userId -> connId -> conn
	mu    sync.RWMutex
}

// NewHub creates a connection hub.
func NewHub() Hub {
	return &DefaultHub{
		conns: make(map[string]Conn),
		users: make(map[string]map[string]Conn),
	}
}

func (h *DefaultHub) Register(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[conn.ID()] = conn
	if userId := conn.UserID(); userId != "" {
		if h.users[userId] == nil {
			h.users[userId] = make(map[string]Conn)
		}
		h.users[userId][conn.ID()] = conn
	}
}

func (h *DefaultHub) Unregister(conn Conn) {
	h.mu.Lock()
	if _, ok := h.conns[conn.ID()]; ok {
		delete(h.conns, conn.ID())
		if userId := conn.UserID(); userId != "" {
			delete(h.users[userId], conn.ID())
			if len(h.users[userId]) == 0 {
				delete(h.users, userId)
			}
		}
	}
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *DefaultHub) Broadcast(messageType int, data []byte) {
	for _, conn := range h.snapshot() {
		go func(c Conn) {
			_ = c.WriteMessage(messageType, data)
		}(conn)
	}
}

func (h *DefaultHub) BroadcastJSON(v any) {
	for _, conn := range h.snapshot() {
		go func(c Conn) {
			_ = c.WriteJSON(v)
		}(conn)
	}
}

// SendToUser delivers to every live connection of one user. Delivery is
// best effort; a dead tab drops its own copy.
func (h *DefaultHub) SendToUser(userId string, messageType int, data []byte) error {
	conns := h.UserConns(userId)
	if len(conns) == 0 {
		return ErrUserNotConnected
	}
	for _, conn := range conns {
		go func(c Conn) {
			_ = c.WriteMessage(messageType, data)
		}(conn)
	}
	return nil
}

func (h *DefaultHub) SendToUserJSON(userId string, v any) error {
	conns := h.UserConns(userId)
	if len(conns) == 0 {
		return ErrUserNotConnected
	}
	for _, conn := range conns {
		go func(c Conn) {
			_ = c.WriteJSON(v)
		}(conn)
	}
	return nil
}

func (h *DefaultHub) GetConn(id string) (Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.conns[id]
	return conn, ok
}

func (h *DefaultHub) UserConns(userId string) []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := make([]Conn, 0, len(h.users[userId]))
	for _, conn := range h.users[userId] {
		conns = append(conns, conn)
	}
	return conns
}

func (h *DefaultHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *DefaultHub) snapshot() []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := make([]Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	return conns
}
