package handlers

import "net/http"

// Events upgrades the request to a WebSocket that streams change events.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeJSONError(w, "event stream disabled", http.StatusServiceUnavailable)
		return
	}
	h.hub.ServeWS(w, r)
}
