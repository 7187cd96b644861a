package websocket

import (
	"net/http"
	"time"

	"ride-hail/internal/domain/user"
	"ride-hail/internal/general/jwt"

	"github.com/gorilla/websocket"
)

// ServeDriver upgrades a driver's connection: GET /ws/driver/{driver_id}.
func (h *Hub) ServeDriver(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, user.RoleDriver, "driver_id")
}

// ServePassenger upgrades a rider's connection: GET /ws/passenger/{rider_id}.
func (h *Hub) ServePassenger(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, user.RolePassenger, "rider_id")
}

// serve upgrades the socket, authenticates the first frame as a Bearer JWT
// for the given role, joins "user:<id>" and "type:<role>", then blocks
// reading frames (discarding anything but pong/close) until disconnect.
func (h *Hub) serve(w http.ResponseWriter, r *http.Request, role user.Role, pathParam string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	defer conn.Close()
	defer h.writeLocks.Delete(conn)

	conn.SetReadLimit(1 << 20)
	if err := conn.SetReadDeadline(time.Now().Add(authReadWindow)); err != nil {
		h.logger.Error(r.Context(), "ws_set_deadline_failed", "Failed to set auth read deadline", err, nil)
		return
	}

	mt, frame, err := conn.ReadMessage()
	if err != nil {
		h.logger.Error(r.Context(), "ws_auth_read_failed", "Client disconnected before authentication", err, nil)
		return
	}
	if mt != websocket.TextMessage {
		_ = h.writeJSON(conn, []byte(`{"type":"auth_error","error":"auth message must be text"}`))
		return
	}

	res, err := jwt.ValidateWSAuth(frame, h.jwtMgr, role)
	if err != nil {
		h.logger.Error(r.Context(), "ws_auth_failed", "Invalid auth message or token", err, nil)
		_ = h.writeJSON(conn, []byte(`{"type":"auth_error","error":"authentication failed"}`))
		return
	}

	userID := res.Claims.Subject
	if pathID := r.PathValue(pathParam); pathID != "" && pathID != userID {
		_ = h.writeJSON(conn, []byte(`{"type":"auth_error","error":"path id does not match token subject"}`))
		return
	}

	_ = h.writeJSON(conn, []byte(`{"type":"auth_success"}`))
	h.logger.Info(r.Context(), "ws_connected", "Realtime socket connected", map[string]any{
		"user_id": userID, "role": role.String(),
	})

	h.register(userID, conn)
	h.JoinRoom("type:"+string(role), userID)
	defer func() {
		h.unregister(userID, conn)
		h.LeaveRoom("type:"+string(role), userID)
	}()

	_ = conn.SetReadDeadline(time.Now().Add(idleReadWindow))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(idleReadWindow))
	})

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			mu := h.lockOf(conn)
			mu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(ctrlTimeout))
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
			mu.Unlock()
			if err != nil {
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(idleReadWindow))
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error(r.Context(), "ws_unexpected_close", "Socket closed unexpectedly", err, map[string]any{"user_id": userID})
				h.wsWriteClose(conn, websocket.CloseInternalServerErr, "internal error")
			} else {
				h.wsWriteClose(conn, websocket.CloseNormalClosure, "bye")
			}
			return
		}
		// Inbound frames beyond the auth handshake are not part of the
		// contract: all writes go through the REST services. Frames are
		// read-and-discarded purely to detect disconnects/keep the
		// connection alive between pings.
	}
}
