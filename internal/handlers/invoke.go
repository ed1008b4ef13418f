package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"qc-analytics/internal/commands"
	"qc-analytics/internal/logging"
)

// maxInvokeBody bounds command arguments. Text files written through
// write_text_file are the largest payloads.
const maxInvokeBody = 10 << 20

// invokeResponse is the success envelope of /api/invoke.
type invokeResponse struct {
	Result any `json:"result"`
}

// Invoke runs the command named in the path with the JSON request body as
// its arguments. Success returns {"result": ...}; failure returns
// {"error": "<message>"} with 404 for an unknown command, 400 for invalid
// arguments and 500 for storage or filesystem failures.
func (h *Handlers) Invoke(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["command"]

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxInvokeBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeJSONError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	result, err := h.commands.Invoke(r.Context(), name, body)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, commands.ErrUnknownCommand):
			status = http.StatusNotFound
		case commands.IsClientError(err):
			status = http.StatusBadRequest
		}
		if status == http.StatusInternalServerError {
			logging.Error("command %s failed: %v", name, err)
		}
		writeJSONError(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, invokeResponse{Result: result})
}

// ListCommands returns the names accepted by Invoke.
func (h *Handlers) ListCommands(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, commands.Commands())
}
