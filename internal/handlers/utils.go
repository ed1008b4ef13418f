package handlers

import (
	"encoding/json"
	"net/http"

	"qc-analytics/internal/logging"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding or write errors are only logged; the status line is already out.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes {"error": message} with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// writeJSONStatus writes {"status": status} with the given status code.
func writeJSONStatus(w http.ResponseWriter, status string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"status": status})
}

// NotFound answers requests that match no route.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSONError(w, "not found", http.StatusNotFound)
}

// MethodNotAllowed answers requests whose path matches a route registered
// for other methods.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, "method "+r.Method+" not allowed", http.StatusMethodNotAllowed)
}
