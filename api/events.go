/*
events.go - Server-sent events change feed

PURPOSE:
  Streams snapshot changes to connected clients so every open screen
  converges on the latest saved state without polling. Each successful
  save broadcasts the normalized snapshot; this endpoint relays it as
  one SSE "snapshot" event per change.

DELIVERY:
  Best-effort. The broadcaster drops stale intermediate states under
  backpressure, so a slow client always receives the freshest snapshot
  rather than an ordered history. Clients reconcile by full state, not
  by diffs.

SEE ALSO:
  - store/notify.go: Broadcaster semantics
  - server.go: Route registration
*/
package api

import (
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
)

// StreamEvents streams snapshot changes as server-sent events.
// GET /api/events
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	updates, cancel := h.Store.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Send current state immediately so late joiners don't wait for the
	// next save.
	writeEvent(w, flusher, h.Store.Load())

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, open := <-updates:
			if !open {
				return
			}
			writeEvent(w, flusher, snapshot)
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
	flusher.Flush()
}
