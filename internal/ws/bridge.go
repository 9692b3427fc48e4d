package ws

import (
	"encoding/json"
	"log/slog"

	"github.com/driftbox/driftbox/internal/domain"
)

// Bridge forwards job events from a queue subscription to hub subscribers.
// The worker process publishes events over the broker, so this is the only
// path by which pipeline state reaches API-side clients. Blocks until the
// events channel closes.
func Bridge(hub *Hub, events <-chan []byte, log *slog.Logger) {
	for payload := range events {
		var event domain.JobEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Warn("malformed job event", "error", err)
			continue
		}
		if event.OwnerID == "" {
			continue
		}
		hub.Broadcast(event.OwnerID, payload)
	}
}
