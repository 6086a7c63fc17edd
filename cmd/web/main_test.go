package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
)

func newTestReporting() *services.Reporting {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	r := services.NewReporting(logger)
	r.SetData([]models.Sale{
		{InvoiceID: "750-67-8428", City: "Yangon", CustomerType: "Member", Gender: "Female", ProductLine: "Health and beauty", Total: 548.97, Rating: 9.1, Time: "13:08:00", Hour: 13},
		{InvoiceID: "226-31-3081", City: "Naypyitaw", CustomerType: "Normal", Gender: "Female", ProductLine: "Electronic accessories", Total: 80.22, Rating: 9.6, Time: "10:29:00", Hour: 10},
		{InvoiceID: "631-41-3108", City: "Mandalay", CustomerType: "Normal", Gender: "Male", ProductLine: "Home and lifestyle", Total: 340.53, Rating: 7.4, Time: "13:23:00", Hour: 13},
	})
	return r
}

func newTestServer() *server.Server {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	reporting := newTestReporting()
	return server.NewServer(reporting, logger, newDashboardHandler(reporting))
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		path           string
		expectedStatus int
		wantJSON       bool
	}{
		{path: "/", expectedStatus: http.StatusOK},
		{path: "/health", expectedStatus: http.StatusOK, wantJSON: true},
		{path: "/admin/stats", expectedStatus: http.StatusOK, wantJSON: true},
		{path: "/api/filters", expectedStatus: http.StatusOK, wantJSON: true},
		{path: "/api/kpis", expectedStatus: http.StatusOK, wantJSON: true},
		{path: "/api/kpis?city=Yangon&gender=Female", expectedStatus: http.StatusOK, wantJSON: true},
		{path: "/api/sales-by-hour", expectedStatus: http.StatusOK, wantJSON: true},
		{path: "/api/sales-by-product-line", expectedStatus: http.StatusOK, wantJSON: true},
		{path: "/sse/dashboard", expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.expectedStatus {
				t.Errorf("GET %s status = %d, want %d", tt.path, rec.Code, tt.expectedStatus)
			}

			if tt.wantJSON {
				if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
					t.Errorf("GET %s Content-Type = %q, want JSON", tt.path, ct)
				}
				var envelope map[string]any
				if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
					t.Errorf("GET %s body is not valid JSON: %v", tt.path, err)
				}
			}
		})
	}
}

func TestDashboardPage(t *testing.T) {
	srv := newTestServer()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	for _, fragment := range []string{
		"<title>Sales Dashboard</title>",
		`id="kpi-strip"`,
		`id="hour-chart"`,
		`id="product-chart"`,
		// Every distinct city appears as a pre-checked filter option.
		"Yangon",
		"Naypyitaw",
		"Mandalay",
		"/sse/dashboard",
	} {
		if !strings.Contains(body, fragment) {
			t.Errorf("dashboard page missing %q", fragment)
		}
	}
}

func TestEndToEndFilterRecompute(t *testing.T) {
	srv := newTestServer()

	// Narrow the view to one city and confirm the hour aggregation only
	// reflects that city's transactions.
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sales-by-hour?city=Naypyitaw", nil))

	var envelope struct {
		Data []models.AggregateRow `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(envelope.Data) != 1 {
		t.Fatalf("got %d hour groups, want 1", len(envelope.Data))
	}
	if envelope.Data[0].Key != "10" || envelope.Data[0].Sum != 80.22 {
		t.Errorf("hour group = %+v, want key 10 sum 80.22", envelope.Data[0])
	}
}
