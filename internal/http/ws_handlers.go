package httpx

import (
	"net/http"

	"github.com/driftbox/driftbox/internal/ws"
)

// handleEventsWS upgrades the connection and streams the caller's processing
// events until the peer goes away.
func (r *Router) handleEventsWS(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if r.events == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.events.Register(info.UserID, client)
	defer r.events.Unregister(info.UserID, client)

	// Reads are discarded; the socket is one-way. The loop exits when the
	// peer closes or the connection drops.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			client.Close()
			return
		}
	}
}
