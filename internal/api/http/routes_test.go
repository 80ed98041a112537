package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/i474232898/marine-forecast/internal/forecast"
	"github.com/i474232898/marine-forecast/internal/quota"
	"github.com/i474232898/marine-forecast/internal/session"
	"github.com/i474232898/marine-forecast/internal/store"
)

type fakeSession struct {
	engaged any
}

func (f *fakeSession) Current() string         { return "active" }
func (f *fakeSession) Status() string          { return "Forecast updated (basic) at 10:00 UTC" }
func (f *fakeSession) Snapshot() session.State { return session.State{Engaged: f.engaged == true} }
func (f *fakeSession) SetEngagement(_ context.Context, v any) error {
	if _, ok := v.(bool); !ok {
		return session.ErrInvalidCommand
	}
	f.engaged = v
	return nil
}

type fakeAccount struct {
	summary *quota.Summary
}

func (f fakeAccount) Last() (quota.Summary, bool) {
	if f.summary == nil {
		return quota.Summary{}, false
	}
	return *f.summary, true
}

func newTestApp(t *testing.T, account fakeAccount) (*fiber.App, *store.MemoryStore, *fakeSession) {
	t.Helper()
	app := fiber.New()
	st := store.NewMemoryStore(0)
	sess := &fakeSession{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"}))

	RegisterRoutes(app, Deps{
		Session:    sess,
		Forecasts:  st,
		Account:    account,
		Selections: forecast.Selections{{Package: forecast.Basic, Cadence: forecast.Hourly}},
		Registry:   reg,
	})
	return app, st, sess
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func TestHealthAndMetrics(t *testing.T) {
	app, _, _ := newTestApp(t, fakeAccount{})

	resp, _ := do(t, app, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}

	resp, body := do(t, app, http.MethodGet, "/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "test_total") {
		t.Errorf("metrics body missing counter: %s", body)
	}
}

func TestStatus(t *testing.T) {
	app, _, _ := newTestApp(t, fakeAccount{})

	resp, body := do(t, app, http.MethodGet, "/api/v1/status", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got struct {
		State    string   `json:"state"`
		Status   string   `json:"status"`
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.State != "active" || len(got.Packages) != 1 || got.Packages[0] != "basic-1h" {
		t.Errorf("unexpected status body: %s", body)
	}
}

func TestForecastEndpoint(t *testing.T) {
	app, st, _ := newTestApp(t, fakeAccount{})

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"unknown cadence", "/api/v1/forecast/weekly/basic", http.StatusBadRequest},
		{"unknown package", "/api/v1/forecast/hourly/snow", http.StatusBadRequest},
		{"trend has no hourly series", "/api/v1/forecast/hourly/trend", http.StatusBadRequest},
		{"nothing published", "/api/v1/forecast/hourly/basic", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := do(t, app, http.MethodGet, tt.target, "")
			if resp.StatusCode != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}

	sel := forecast.Selection{Package: forecast.Basic, Cadence: forecast.Hourly}
	st.SaveForecast(sel, []forecast.Record{{Time: time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)}})

	resp, body := do(t, app, http.MethodGet, "/api/v1/forecast/hourly/basic", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var entry store.Entry
	if err := json.Unmarshal(body, &entry); err != nil {
		t.Fatal(err)
	}
	if entry.Package != forecast.Basic || len(entry.Records) != 1 {
		t.Errorf("unexpected entry: %s", body)
	}
}

func TestMetadataEndpoint(t *testing.T) {
	app, st, _ := newTestApp(t, fakeAccount{})

	resp, _ := do(t, app, http.MethodGet, "/api/v1/metadata", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before any forecast, got %d", resp.StatusCode)
	}

	st.SaveMetadata(forecast.Metadata{Name: "Solent"})
	resp, body := do(t, app, http.MethodGet, "/api/v1/metadata", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "Solent") {
		t.Fatalf("status %d body %s", resp.StatusCode, body)
	}
}

func TestAccountEndpoint(t *testing.T) {
	app, _, _ := newTestApp(t, fakeAccount{})
	resp, _ := do(t, app, http.MethodGet, "/api/v1/account", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	app, _, _ = newTestApp(t, fakeAccount{summary: &quota.Summary{CreditsUsed: 85, EstimatedLimit: 100, UsagePercentage: 85, Status: quota.StatusWarning}})
	resp, body := do(t, app, http.MethodGet, "/api/v1/account", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got quota.Summary
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.UsagePercentage != 85 || got.Status != quota.StatusWarning {
		t.Errorf("unexpected summary: %+v", got)
	}
}

func TestEngagementEndpoint(t *testing.T) {
	app, _, sess := newTestApp(t, fakeAccount{})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", "yes", http.StatusBadRequest},
		{"missing value", `{}`, http.StatusBadRequest},
		{"string value", `{"value":"true"}`, http.StatusBadRequest},
		{"number value", `{"value":1}`, http.StatusBadRequest},
		{"engage", `{"value":true}`, http.StatusOK},
		{"disengage", `{"value":false}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := do(t, app, http.MethodPut, "/api/v1/engagement", tt.body)
			if resp.StatusCode != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}

	if sess.engaged != false {
		t.Errorf("engaged = %v, want false after last request", sess.engaged)
	}
}
