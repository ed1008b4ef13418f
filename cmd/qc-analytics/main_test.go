package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"qc-analytics/internal/commands"
	"qc-analytics/internal/database"
	"qc-analytics/internal/handlers"
	"qc-analytics/internal/middleware"
	"qc-analytics/internal/startup"
)

func setupHandlers(t *testing.T) (*handlers.Handlers, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), database.FileName)
	db, err := database.Open(context.Background(), dbPath, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitDatabase(context.Background()); err != nil {
		t.Fatalf("InitDatabase() error = %v", err)
	}

	return handlers.New(commands.New(db, nil, dbPath), db, nil), dbPath
}

func TestSetupRouterRoutes(t *testing.T) {
	h, _ := setupHandlers(t)

	routes, err := startup.GetRoutes(setupRouter(h))
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}

	var got []string
	for _, r := range routes {
		if r.Method == "*" {
			continue
		}
		got = append(got, r.Method+" "+r.Path)
	}
	sort.Strings(got)

	want := []string{
		"GET /api/commands",
		"GET /api/events",
		"GET /health",
		"GET /healthz",
		"GET /livez",
		"GET /readyz",
		"GET /version",
		"HEAD /health",
		"HEAD /healthz",
		"HEAD /livez",
		"HEAD /readyz",
		"POST /api/invoke/{command}",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildHandlerServesCommands(t *testing.T) {
	h, dbPath := setupHandlers(t)

	srv := httptest.NewServer(buildHandler(setupRouter(h), false))
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/api/invoke/get_database_path", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get(middleware.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}

	var body struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Result != dbPath {
		t.Errorf("result = %q, want %q", body.Result, dbPath)
	}
}

func TestBuildHandlerRoutingErrors(t *testing.T) {
	h, _ := setupHandlers(t)

	srv := httptest.NewServer(buildHandler(setupRouter(h), false))
	t.Cleanup(srv.Close)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantError  string
	}{
		{"wrong method on invoke", http.MethodGet, "/api/invoke/get_database_path", http.StatusMethodNotAllowed, "method GET not allowed"},
		{"delete on invoke", http.MethodDelete, "/api/invoke/get_database_path", http.StatusMethodNotAllowed, "method DELETE not allowed"},
		{"wrong method on commands", http.MethodPost, "/api/commands", http.StatusMethodNotAllowed, "method POST not allowed"},
		{"wrong method on version", http.MethodDelete, "/version", http.StatusMethodNotAllowed, "method DELETE not allowed"},
		{"unknown path", http.MethodGet, "/api/nope", http.StatusNotFound, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("%s %s error = %v", tt.method, tt.path, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
		})
	}
}

func TestMetricsRouter(t *testing.T) {
	h, _ := setupHandlers(t)

	srv := httptest.NewServer(setupMetricsRouter(h))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
