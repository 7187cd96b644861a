// Package websocket is the realtime fabric (C10): a room-addressed fan-out
// hub sitting on top of per-connection gorilla/websocket sockets. The
// teacher's equivalent (internal/general/websocket, pre-rework) hard-wired
// two connection kinds (driver/passenger) straight to ride-matching
// business logic and a fixed "notify passenger about this ride" shape. This
// version generalizes that connection-handling style (upgrade, first-frame
// JWT auth, per-connection ping loop and write mutex — all kept) into a
// room model addressed by three prefixes (spec §4.7):
//
//	user:<id>   - a single user's own events (offers, receipts)
//	type:<role> - every connected driver or passenger (broadcast announcements)
//	ride:<id>   - everyone currently party to a ride (status + location feed)
//
// Services join/leave rooms as a ride progresses and publish events to them;
// the hub never touches domain logic itself.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ride-hail/internal/general/jwt"
	"ride-hail/internal/general/logger"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second
	authReadWindow   = 10 * time.Second
	idleReadWindow   = 60 * time.Second
	pingInterval     = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Event is the envelope written to every socket.
type Event struct {
	Type    string    `json:"type"`
	Data    any       `json:"data,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Hub tracks one live connection per user and room membership (user ->
// rooms it currently belongs to beyond its own "user:<id>"/"type:<role>").
type Hub struct {
	logger *logger.Logger
	jwtMgr *jwt.Manager

	mu    sync.RWMutex
	conns map[string]*websocket.Conn // userID -> connection
	rooms map[string]map[string]struct{} // room -> set of userIDs

	writeLocks sync.Map // *websocket.Conn -> *sync.Mutex
}

// NewHub constructs an empty realtime hub.
func NewHub(logger *logger.Logger, jwtMgr *jwt.Manager) *Hub {
	return &Hub{
		logger: logger,
		jwtMgr: jwtMgr,
		conns:  make(map[string]*websocket.Conn),
		rooms:  make(map[string]map[string]struct{}),
	}
}

// JoinRoom adds userID to room's membership. Idempotent.
func (h *Hub) JoinRoom(room, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[room] = members
	}
	members[userID] = struct{}{}
}

// LeaveRoom removes userID from room's membership.
func (h *Hub) LeaveRoom(room, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// IsConnected reports whether userID currently has a live socket.
func (h *Hub) IsConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[userID]
	return ok
}

// Notify sends eventType/data to a single user's own socket ("user:<id>").
// A missing connection is a silent no-op: REST responses are the source of
// truth, the socket is a best-effort accelerator.
func (h *Hub) Notify(ctx context.Context, userID, eventType string, data any) error {
	return h.send(ctx, userID, eventType, data)
}

// Broadcast sends eventType/data to every userID currently joined to room.
func (h *Hub) Broadcast(ctx context.Context, room, eventType string, data any) error {
	h.mu.RLock()
	members := make([]string, 0, len(h.rooms[room]))
	for uid := range h.rooms[room] {
		members = append(members, uid)
	}
	h.mu.RUnlock()

	var firstErr error
	for _, uid := range members {
		if err := h.send(ctx, uid, eventType, data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *Hub) send(ctx context.Context, userID, eventType string, data any) error {
	h.mu.RLock()
	conn, ok := h.conns[userID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}

	evt := Event{Type: eventType, Data: data, SentAt: time.Now().UTC()}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	if err := h.writeJSON(conn, payload); err != nil {
		h.logger.Error(ctx, "ws_send_failed", "Failed to push realtime event", err, map[string]any{
			"user_id": userID, "event": eventType,
		})
		return err
	}
	return nil
}

func (h *Hub) register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[userID] = conn
}

func (h *Hub) unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == conn {
		delete(h.conns, userID)
	}
}

func (h *Hub) writeJSON(conn *websocket.Conn, payload []byte) error {
	mu := h.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *Hub) wsWriteClose(conn *websocket.Conn, code int, reason string) {
	mu := h.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(wsCloseAckWindow))
	h.writeLocks.Delete(conn)
}

func (h *Hub) lockOf(conn *websocket.Conn) *sync.Mutex {
	if v, ok := h.writeLocks.Load(conn); ok {
		if mu, ok := v.(*sync.Mutex); ok && mu != nil {
			return mu
		}
	}
	mu := &sync.Mutex{}
	actual, _ := h.writeLocks.LoadOrStore(conn, mu)
	return actual.(*sync.Mutex)
}
