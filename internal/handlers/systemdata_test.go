package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"pulsewatch/internal/models"
	"pulsewatch/internal/observability"
	"pulsewatch/internal/store"
)

func newTestApp() (*fiber.App, store.Store) {
	st := store.NewMemoryStore(24 * time.Hour)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	h := NewSystemDataHandler(st, metrics)

	app := fiber.New()
	app.Get("/systemdata/health", h.Health)
	app.Get("/systemdata/machines", h.Machines)
	app.Delete("/systemdata/cleanup", h.Cleanup)
	app.Get("/systemdata", h.Query)
	app.Post("/systemdata", h.Ingest)
	return app, st
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	resp.Body.Close()

	var parsed map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			t.Fatalf("parse response %q: %v", raw, err)
		}
	}
	return resp, parsed
}

func validBody() map[string]any {
	return map[string]any{
		"machineId":     "PC-1",
		"cpuPercent":    45.2,
		"ramPercent":    67.8,
		"diskPercent":   23.1,
		"osDescription": "ubuntu 24.04 (x86_64)",
		"uptimeSeconds": 7200,
	}
}

func TestIngestAndQueryRoundTrip(t *testing.T) {
	app, _ := newTestApp()

	resp, body := doRequest(t, app, http.MethodPost, "/systemdata", validBody())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want 201: %v", resp.StatusCode, body)
	}
	data := body["data"].(map[string]any)
	if data["machineId"] != "PC-1" {
		t.Fatalf("POST data = %v", data)
	}
	if data["id"] == "" || data["timestamp"] == "" {
		t.Fatalf("POST response missing id/timestamp: %v", data)
	}

	// Fleet view contains the sample in latest.
	resp, body = doRequest(t, app, http.MethodGet, "/systemdata", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d", resp.StatusCode)
	}
	view := body["data"].(map[string]any)
	latest := view["latest"].([]any)
	if len(latest) != 1 {
		t.Fatalf("latest has %d entries, want 1", len(latest))
	}
	if latest[0].(map[string]any)["machineId"] != "PC-1" {
		t.Fatalf("latest entry = %v", latest[0])
	}
	overview := view["overview"].(map[string]any)
	if overview["avgCpu"].(float64) != 45.2 || overview["totalMachines"].(float64) != 1 {
		t.Fatalf("overview = %v", overview)
	}

	// Machine view returns it as latest and inside historical.
	resp, body = doRequest(t, app, http.MethodGet, "/systemdata?machineId=PC-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET machine status = %d", resp.StatusCode)
	}
	view = body["data"].(map[string]any)
	if view["latest"] == nil {
		t.Fatal("machine view latest is null")
	}
	if len(view["historical"].([]any)) != 1 {
		t.Fatalf("historical = %v", view["historical"])
	}
}

func TestIngestRejections(t *testing.T) {
	app, _ := newTestApp()

	cases := []struct {
		name   string
		mutate func(map[string]any)
		reason string
	}{
		{"cpu above range", func(b map[string]any) { b["cpuPercent"] = 101 }, "OutOfRange"},
		{"cpu below range", func(b map[string]any) { b["cpuPercent"] = -1 }, "OutOfRange"},
		{"missing machineId", func(b map[string]any) { delete(b, "machineId") }, "MissingField"},
		{"missing uptime", func(b map[string]any) { delete(b, "uptimeSeconds") }, "MissingField"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := validBody()
			tc.mutate(b)

			resp, body := doRequest(t, app, http.MethodPost, "/systemdata", b)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %v", resp.StatusCode, body)
			}
			if body["error"] != tc.reason {
				t.Fatalf("error = %v, want %s", body["error"], tc.reason)
			}
			if body["success"] != false {
				t.Fatalf("success = %v, want false", body["success"])
			}
		})
	}

	// Rejected samples never reach the store.
	resp, body := doRequest(t, app, http.MethodGet, "/systemdata/machines", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("machines status = %d", resp.StatusCode)
	}
	if body["count"].(float64) != 0 {
		t.Fatalf("count = %v, want 0", body["count"])
	}
}

func TestQueryHoursValidation(t *testing.T) {
	app, _ := newTestApp()

	for _, target := range []string{
		"/systemdata?hours=0",
		"/systemdata?hours=-3",
		"/systemdata?hours=169",
		"/systemdata?hours=abc",
		"/systemdata/cleanup?hours=0",
	} {
		method := http.MethodGet
		if target == "/systemdata/cleanup?hours=0" {
			method = http.MethodDelete
		}
		resp, body := doRequest(t, app, method, target, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", target, resp.StatusCode)
		}
		if body["error"] != "QueryParameterInvalid" {
			t.Fatalf("%s: error = %v", target, body["error"])
		}
	}
}

func TestMachinesEndpoint(t *testing.T) {
	app, st := newTestApp()

	now := time.Now()
	for _, id := range []string{"b", "a"} {
		st.Append(context.Background(), &models.Sample{MachineID: id, OSDescription: "os", RecordedAt: now})
	}

	resp, body := doRequest(t, app, http.MethodGet, "/systemdata/machines", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["count"].(float64) != 2 {
		t.Fatalf("count = %v, want 2", body["count"])
	}
	data := body["data"].([]any)
	if data[0].(map[string]any)["machineId"] != "a" {
		t.Fatalf("expected machineId-sorted data, got %v", data[0])
	}
}

func TestCleanupEndpoint(t *testing.T) {
	app, st := newTestApp()

	// Empty store purges cleanly.
	resp, body := doRequest(t, app, http.MethodDelete, "/systemdata/cleanup", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["deletedCount"].(float64) != 0 {
		t.Fatalf("deletedCount = %v, want 0", body["deletedCount"])
	}

	st.Append(context.Background(), &models.Sample{MachineID: "old", OSDescription: "os", RecordedAt: time.Now().Add(-3 * time.Hour)})
	st.Append(context.Background(), &models.Sample{MachineID: "new", OSDescription: "os", RecordedAt: time.Now()})

	resp, body = doRequest(t, app, http.MethodDelete, "/systemdata/cleanup?hours=2", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["deletedCount"].(float64) != 1 {
		t.Fatalf("deletedCount = %v, want 1", body["deletedCount"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := newTestApp()
	resp, body := doRequest(t, app, http.MethodGet, "/systemdata/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["success"] != true {
		t.Fatalf("body = %v", body)
	}
}
