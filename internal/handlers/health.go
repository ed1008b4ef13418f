package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"qc-analytics/internal/startup"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// pingTimeout bounds the database probe behind /health and /readyz.
const pingTimeout = 2 * time.Second

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Ready    bool   `json:"ready"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Stats summary
	TotalSessions int `json:"totalSessions"`
	OpenSessions  int `json:"openSessions"`
	TotalRecords  int `json:"totalRecords"`
	ActiveRecords int `json:"activeRecords"`
	EventClients  int `json:"eventClients"`
}

func (h *Handlers) pingDatabase(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.db.Ping(ctx)
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        true,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Database:     "ok",
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	statusCode := http.StatusOK
	if err := h.pingDatabase(r.Context()); err != nil {
		response.Status = statusUnhealthy
		response.Ready = false
		response.Database = "unreachable"
		response.Error = err.Error()
		statusCode = http.StatusServiceUnavailable
	} else {
		stats := h.db.GetStats()
		response.TotalSessions = stats.TotalSessions
		response.OpenSessions = stats.OpenSessions
		response.TotalRecords = stats.TotalRecords
		response.ActiveRecords = stats.ActiveRecords
	}

	if h.hub != nil {
		response.EventClients = h.hub.ClientCount()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only while the database answers
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.pingDatabase(r.Context()); err != nil {
		writeJSONStatus(w, "not_ready", http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, "ready", http.StatusOK)
}
