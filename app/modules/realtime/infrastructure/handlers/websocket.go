package realtimehandlers

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	authhandlers "github.com/Black-And-White-Club/dingleup/app/modules/auth/infrastructure/handlers"
	promodomain "github.com/Black-And-White-Club/dingleup/app/modules/promo/domain"
	realtimeservice "github.com/Black-And-White-Club/dingleup/app/modules/realtime/application"
	"github.com/Black-And-White-Club/dingleup/internal/httpx"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
)

// NewUpgrader accepts any origin when origins is empty or contains "*".
func NewUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 || slices.Contains(origins, "*") {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, origin)
		},
	}
}

// HandleWebSocket authenticates with ?token= or a bearer header, then holds
// the connection open until either side closes it.
func (h *RealtimeHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := r.URL.Query().Get("token")
	if token == "" {
		token = authhandlers.BearerToken(r)
	}
	if token == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	claims, err := h.validator.ValidateToken(ctx, token)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	offset := 0
	if raw := r.URL.Query().Get("tz_offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < -promodomain.MaxOffsetMinutes || offset > promodomain.MaxOffsetMinutes {
			httpx.WriteError(w, http.StatusBadRequest, "invalid tz_offset")
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(ctx, "WebSocket upgrade failed", attr.Error(err))
		return
	}

	client := h.hub.Register(claims.UserUUID, offset)
	h.logger.InfoContext(ctx, "Realtime client connected", attr.UserUUID(claims.UserUUID))

	go h.writePump(conn, client)
	h.readPump(conn, client)
}

// readPump discards client messages and keeps the read deadline fresh.
func (h *RealtimeHandlers) readPump(conn *websocket.Conn, client *realtimeservice.Client) {
	defer func() {
		h.hub.Unregister(client)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Realtime read failed", attr.UserUUID(client.UserUUID()), attr.Error(err))
			}
			return
		}
	}
}

func (h *RealtimeHandlers) writePump(conn *websocket.Conn, client *realtimeservice.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case frame := <-client.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frame); err != nil {
				h.hub.Unregister(client)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.hub.Unregister(client)
				return
			}
		case <-client.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
