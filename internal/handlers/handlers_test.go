package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"

	"qc-analytics/internal/commands"
	"qc-analytics/internal/database"
	"qc-analytics/internal/metrics"
	"qc-analytics/internal/startup"
)

// =============================================================================
// Test doubles
// =============================================================================

type fakeInvoker struct {
	result any
	err    error

	gotName string
	gotArgs string
}

func (f *fakeInvoker) Invoke(_ context.Context, name string, args json.RawMessage) (any, error) {
	f.gotName = name
	f.gotArgs = string(args)
	return f.result, f.err
}

type fakeHealth struct {
	pingErr error
	stats   metrics.Stats
}

func (f *fakeHealth) Ping(context.Context) error { return f.pingErr }
func (f *fakeHealth) GetStats() metrics.Stats    { return f.stats }

func invokeRequest(h *Handlers, command, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/invoke/"+command, strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"command": command})
	w := httptest.NewRecorder()
	h.Invoke(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

// =============================================================================
// Invoke
// =============================================================================

func TestInvokeEnvelope(t *testing.T) {
	t.Parallel()

	inv := &fakeInvoker{result: []string{"a.jpg"}}
	h := New(inv, &fakeHealth{}, nil)

	w := invokeRequest(h, "get_image_files", `{"directory":"/shots"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if inv.gotName != "get_image_files" || inv.gotArgs != `{"directory":"/shots"}` {
		t.Errorf("invoker got (%q, %q)", inv.gotName, inv.gotArgs)
	}

	if got := strings.TrimSpace(w.Body.String()); got != `{"result":["a.jpg"]}` {
		t.Errorf("body = %s", got)
	}
}

func TestInvokeNilResult(t *testing.T) {
	t.Parallel()

	h := New(&fakeInvoker{}, &fakeHealth{}, nil)
	w := invokeRequest(h, "save_app_setting", `{"key":"k","value":"v"}`)

	if got := strings.TrimSpace(w.Body.String()); got != `{"result":null}` {
		t.Errorf("body = %s, want null result", got)
	}
}

func TestInvokeErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown command", fmt.Errorf("%w: %q", commands.ErrUnknownCommand, "nope"), http.StatusNotFound},
		{"validation", &commands.ValidationError{Field: "qcName", Message: "must not be empty"}, http.StatusBadRequest},
		{"storage", errors.New("Failed to save QC record: disk I/O error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&fakeInvoker{err: tt.err}, &fakeHealth{}, nil)
			w := invokeRequest(h, "anything", `{}`)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			body := decodeBody(t, w)
			if body["error"] != tt.err.Error() {
				t.Errorf("error = %v, want %q", body["error"], tt.err.Error())
			}
		})
	}
}

func TestInvokeBodyTooLarge(t *testing.T) {
	t.Parallel()

	h := New(&fakeInvoker{}, &fakeHealth{}, nil)
	big := bytes.Repeat([]byte("x"), maxInvokeBody+1)
	w := invokeRequest(h, "write_text_file", string(big))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestInvokeThroughRealService(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), database.FileName)
	db, err := database.Open(context.Background(), dbPath, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := commands.New(db, nil, dbPath)
	h := New(svc, db, nil)

	router := mux.NewRouter()
	router.HandleFunc("/api/invoke/{command}", h.Invoke).Methods(http.MethodPost)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	post := func(command, body string) (int, map[string]any) {
		t.Helper()
		resp, err := http.Post(srv.URL+"/api/invoke/"+command, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s: %v", command, err)
		}
		defer resp.Body.Close()
		var out map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode %s: %v", command, err)
		}
		return resp.StatusCode, out
	}

	if code, out := post("init_database", ""); code != http.StatusOK {
		t.Fatalf("init_database = %d %v", code, out)
	}

	code, out := post("create_session", `{"payload":{"qcName":"ana","folderPath":"/shots"}}`)
	if code != http.StatusOK {
		t.Fatalf("create_session = %d %v", code, out)
	}
	id, ok := out["result"].(float64)
	if !ok || id < 1 {
		t.Fatalf("create_session result = %v", out["result"])
	}

	rec := fmt.Sprintf(`{"payload":{"sessionId":%d,"filename":"a.jpg","qcName":"ana","qcDecision":"Right","timeSpentSeconds":3.5}}`, int64(id))
	if code, out := post("save_qc_record", rec); code != http.StatusOK {
		t.Fatalf("save_qc_record = %d %v", code, out)
	}

	code, out = post("get_analytics_data", `{"qcName":"ana"}`)
	if code != http.StatusOK {
		t.Fatalf("get_analytics_data = %d %v", code, out)
	}
	want := map[string]any{
		"totalImages":        float64(1),
		"totalRight":         float64(1),
		"totalWrong":         float64(0),
		"averageTimeSeconds": 3.5,
	}
	if diff := cmp.Diff(want, out["result"]); diff != "" {
		t.Errorf("analytics mismatch (-want +got):\n%s", diff)
	}

	code, out = post("save_qc_record", `{"payload":{"sessionId":999,"filename":"a.jpg","qcName":"ana"}}`)
	if code != http.StatusInternalServerError {
		t.Errorf("save for unknown session = %d, want 500", code)
	}
	if msg, _ := out["error"].(string); !strings.HasPrefix(msg, "Failed to save QC record") {
		t.Errorf("error = %q", msg)
	}

	if code, _ := post("create_session", `{"payload":{"qcName":""}}`); code != http.StatusBadRequest {
		t.Errorf("invalid create_session = %d, want 400", code)
	}
	if code, _ := post("drop_tables", `{}`); code != http.StatusNotFound {
		t.Errorf("unknown command = %d, want 404", code)
	}
}

func TestListCommands(t *testing.T) {
	t.Parallel()

	h := New(&fakeInvoker{}, &fakeHealth{}, nil)
	w := httptest.NewRecorder()
	h.ListCommands(w, httptest.NewRequest(http.MethodGet, "/api/commands", http.NoBody))

	var names []string
	if err := json.NewDecoder(w.Body).Decode(&names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(commands.Commands(), names); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

// =============================================================================
// Events
// =============================================================================

func TestEventsDisabled(t *testing.T) {
	t.Parallel()

	h := New(&fakeInvoker{}, &fakeHealth{}, nil)
	w := httptest.NewRecorder()
	h.Events(w, httptest.NewRequest(http.MethodGet, "/api/events", http.NoBody))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

// =============================================================================
// Health
// =============================================================================

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		db         *fakeHealth
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthy",
			db:         &fakeHealth{stats: metrics.Stats{TotalSessions: 2, OpenSessions: 1, TotalRecords: 5, ActiveRecords: 4}},
			wantStatus: http.StatusOK,
			wantBody:   statusHealthy,
		},
		{
			name:       "database down",
			db:         &fakeHealth{pingErr: errors.New("database is closed")},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   statusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&fakeInvoker{}, tt.db, nil)
			w := httptest.NewRecorder()
			h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantBody {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantBody)
			}
			if resp.Version != startup.Version {
				t.Errorf("Version = %q", resp.Version)
			}
			if resp.TotalSessions != tt.db.stats.TotalSessions || resp.ActiveRecords != tt.db.stats.ActiveRecords {
				t.Errorf("stats not reported: %+v", resp)
			}
			if tt.db.pingErr != nil && resp.Error == "" {
				t.Error("expected error detail when database is down")
			}
		})
	}
}

func TestLivenessCheck(t *testing.T) {
	t.Parallel()

	h := New(&fakeInvoker{}, &fakeHealth{pingErr: errors.New("down")}, nil)

	w := httptest.NewRecorder()
	h.LivenessCheck(w, httptest.NewRequest(http.MethodGet, "/livez", http.NoBody))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "alive") {
		t.Errorf("GET /livez = %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.LivenessCheck(w, httptest.NewRequest(http.MethodHead, "/livez", http.NoBody))
	if w.Body.Len() != 0 {
		t.Errorf("HEAD /livez wrote a body: %q", w.Body.String())
	}
}

func TestReadinessCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{"ready", nil, http.StatusOK, "ready"},
		{"not ready", errors.New("down"), http.StatusServiceUnavailable, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&fakeInvoker{}, &fakeHealth{pingErr: tt.pingErr}, nil)
			w := httptest.NewRecorder()
			h.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := decodeBody(t, w)["status"]; got != tt.wantBody {
				t.Errorf("status body = %v, want %q", got, tt.wantBody)
			}
		})
	}
}

// =============================================================================
// Version and metrics
// =============================================================================

func TestGetVersion(t *testing.T) {
	t.Parallel()

	h := &Handlers{}
	w := httptest.NewRecorder()
	h.GetVersion(w, httptest.NewRequest(http.MethodGet, "/version", http.NoBody))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var info startup.BuildInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if diff := cmp.Diff(startup.GetBuildInfo(), info); diff != "" {
		t.Errorf("build info mismatch (-want +got):\n%s", diff)
	}
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	metrics.QCSessionsTotal.Set(3)

	h := &Handlers{}
	w := httptest.NewRecorder()
	h.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "qc_analytics_sessions_total") {
		t.Error("metrics output missing qc_analytics_sessions_total")
	}
}

// =============================================================================
// Utilities
// =============================================================================

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"map", map[string]string{"status": "ok"}, `{"status":"ok"}`},
		{"slice", []string{"a", "b"}, `["a","b"]`},
		{"null", nil, `null`},
		{"empty slice", []string{}, `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.input)
			if got := strings.TrimSpace(w.Body.String()); got != tt.expected {
				t.Errorf("writeJSON() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	writeJSONError(w, "bad", http.StatusTeapot)

	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"error":"bad"}` {
		t.Errorf("body = %s", got)
	}
}
