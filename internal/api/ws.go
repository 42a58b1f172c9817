package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/seekerror/logw"

	"github.com/franciscoBSalgueiro/chess-workbench/internal/events"
)

// upgrader permits any origin: this gateway serves a local desktop UI, not
// a public multi-tenant API (matching the wide-open CORS policy of §4.7).
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stream upgrades GET /games/:id/ws and forwards every event published on
// that game's bus, in order, until a write to the socket fails, the
// subscription channel is closed, or the GameOver event has been sent
// (§4.7).
func (h *handlers) stream(c *gin.Context) {
	id := c.Param("id")

	bus, subID, ch, err := h.mgr.Subscribe(id)
	if err != nil {
		writeError(c, err)
		return
	}
	defer bus.Unsubscribe(subID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logw.Errorf(c.Request.Context(), "websocket upgrade failed for game %v: %v", id, err)
		return
	}
	defer conn.Close()

	go drainIncoming(conn)

	for ev := range ch {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
		if ev.Type == events.TypeGameOver {
			return
		}
	}
}

// drainIncoming discards client frames so the connection's read deadline
// never trips and close/ping control frames are still processed by the
// gorilla/websocket library's background handling.
func drainIncoming(conn *websocket.Conn) {
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
