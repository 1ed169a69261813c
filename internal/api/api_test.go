package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/plantpulse/plantpulse/internal/api"
	"github.com/plantpulse/plantpulse/internal/health"
	"github.com/plantpulse/plantpulse/internal/store"
	"github.com/plantpulse/plantpulse/internal/summary"
)

// --- test helpers -----------------------------------------------------------

func newStore(snaps ...store.Snapshot) *store.Store {
	st := store.New(5 * time.Minute)
	for _, s := range snaps {
		st.Put(s)
	}
	return st
}

func snap(group, state string, score float64) store.Snapshot {
	return store.Snapshot{
		Group: group,
		Metrics: summary.Metrics{
			Count:   120,
			Mean:    65.4,
			GoodPct: 95.0,
		},
		Health:          health.Output{Score: score, State: state},
		AvailabilityPct: 100.0,
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /api/v1/health ---------------------------------------------------------

func TestHealth_EmptyStore(t *testing.T) {
	h := api.New(newStore(), nil)
	rr := get(t, h, "/api/v1/health")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)

	if resp["state"] != "unknown" {
		t.Errorf("state: got %v, want unknown", resp["state"])
	}
	if resp["group_count"].(float64) != 0 {
		t.Errorf("group_count: got %v, want 0", resp["group_count"])
	}
}

func TestHealth_SingleHealthyGroup(t *testing.T) {
	h := api.New(newStore(snap("temperature", "healthy", 92.0)), nil)
	rr := get(t, h, "/api/v1/health")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)

	if resp["state"] != "healthy" {
		t.Errorf("state: got %v, want healthy", resp["state"])
	}
	if resp["overall_score"].(float64) != 92.0 {
		t.Errorf("overall_score: got %v, want 92.0", resp["overall_score"])
	}
	if resp["healthy_count"].(float64) != 1 {
		t.Errorf("healthy_count: got %v, want 1", resp["healthy_count"])
	}
}

func TestHealth_MixedStates(t *testing.T) {
	h := api.New(newStore(
		snap("temperature", "healthy", 90.0),
		snap("pressure", "degraded", 70.0),
		snap("vibration", "critical", 40.0),
	), nil)
	rr := get(t, h, "/api/v1/health")
	var resp map[string]interface{}
	decode(t, rr, &resp)

	if resp["healthy_count"].(float64) != 1 {
		t.Errorf("healthy_count: got %v, want 1", resp["healthy_count"])
	}
	if resp["degraded_count"].(float64) != 1 {
		t.Errorf("degraded_count: got %v, want 1", resp["degraded_count"])
	}
	if resp["critical_count"].(float64) != 1 {
		t.Errorf("critical_count: got %v, want 1", resp["critical_count"])
	}
	// (90 + 70 + 40) / 3 = 66.67 → degraded
	if resp["state"] != "degraded" {
		t.Errorf("state: got %v, want degraded", resp["state"])
	}
}

func TestHealth_UnknownGroupsExcludedFromAverage(t *testing.T) {
	h := api.New(newStore(
		snap("temperature", "healthy", 90.0),
		snap("ghost", "unknown", 0),
	), nil)
	rr := get(t, h, "/api/v1/health")
	var resp map[string]interface{}
	decode(t, rr, &resp)

	// Unknown groups carry no score; the overall average only spans scored ones.
	if resp["overall_score"].(float64) != 90.0 {
		t.Errorf("overall_score: got %v, want 90.0", resp["overall_score"])
	}
	if resp["unknown_count"].(float64) != 1 {
		t.Errorf("unknown_count: got %v, want 1", resp["unknown_count"])
	}
}

// --- /api/v1/sensors --------------------------------------------------------

func TestListSensors(t *testing.T) {
	h := api.New(newStore(
		snap("pressure", "healthy", 91.0),
		snap("temperature", "degraded", 72.0),
	), nil)
	rr := get(t, h, "/api/v1/sensors")

	var resp []map[string]interface{}
	decode(t, rr, &resp)
	if len(resp) != 2 {
		t.Fatalf("sensors: got %d, want 2", len(resp))
	}
	// Store lists groups in lexical order.
	if resp[0]["group"] != "pressure" || resp[1]["group"] != "temperature" {
		t.Errorf("order: got %v, %v", resp[0]["group"], resp[1]["group"])
	}
}

func TestGetSensor(t *testing.T) {
	h := api.New(newStore(snap("temperature", "healthy", 91.0)), nil)
	rr := get(t, h, "/api/v1/sensors/temperature")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)

	if resp["group"] != "temperature" {
		t.Errorf("group: got %v, want temperature", resp["group"])
	}
	if resp["health_score"].(float64) != 91.0 {
		t.Errorf("health_score: got %v, want 91.0", resp["health_score"])
	}
	if resp["count"].(float64) != 120 {
		t.Errorf("count: got %v, want 120", resp["count"])
	}
	if _, err := time.Parse(time.RFC3339, resp["last_seen"].(string)); err != nil {
		t.Errorf("last_seen: %v", err)
	}
}

func TestGetSensor_NotFound(t *testing.T) {
	h := api.New(newStore(snap("temperature", "healthy", 91.0)), nil)
	rr := get(t, h, "/api/v1/sensors/flow_rate")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if resp["error"] == nil {
		t.Error("expected error body")
	}
}

// --- /api/v1/alerts ---------------------------------------------------------

func TestAlerts_NoEngine(t *testing.T) {
	h := api.New(newStore(), nil)
	rr := get(t, h, "/api/v1/alerts")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp []interface{}
	decode(t, rr, &resp)
	if len(resp) != 0 {
		t.Errorf("alerts: got %d, want 0", len(resp))
	}
}

// --- /api/v1/snapshot -------------------------------------------------------

func TestSnapshot(t *testing.T) {
	h := api.New(newStore(
		snap("pressure", "healthy", 91.0),
		snap("temperature", "healthy", 89.0),
	), nil)
	rr := get(t, h, "/api/v1/snapshot")

	var resp map[string]interface{}
	decode(t, rr, &resp)

	sensors := resp["sensors"].([]interface{})
	if len(sensors) != 2 {
		t.Fatalf("sensors: got %d, want 2", len(sensors))
	}
	if _, err := time.Parse(time.RFC3339, resp["generated_at"].(string)); err != nil {
		t.Errorf("generated_at: %v", err)
	}
}

// --- method handling --------------------------------------------------------

func TestNonGET_Rejected(t *testing.T) {
	h := api.New(newStore(), nil)
	for _, path := range []string{
		"/api/v1/health",
		"/api/v1/sensors",
		"/api/v1/sensors/temperature",
		"/api/v1/alerts",
		"/api/v1/snapshot",
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, nil))
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: got %d, want 405", path, rr.Code)
		}
	}
}

// --- auth middleware --------------------------------------------------------

func TestAPIKeyMiddleware(t *testing.T) {
	inner := api.New(newStore(), nil)
	h := api.APIKeyMiddleware("apikey", "x-api-key", "supersecret")(inner)

	// Missing key rejected.
	rr := get(t, h, "/api/v1/health")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("no key: got %d, want 401", rr.Code)
	}

	// Wrong key rejected.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("x-api-key", "wrong")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: got %d, want 401", rr.Code)
	}

	// Correct key passes.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("x-api-key", "supersecret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("correct key: got %d, want 200", rr.Code)
	}
}

func TestAPIKeyMiddleware_DisabledModePassesThrough(t *testing.T) {
	inner := api.New(newStore(), nil)
	h := api.APIKeyMiddleware("none", "x-api-key", "supersecret")(inner)

	rr := get(t, h, "/api/v1/health")
	if rr.Code != http.StatusOK {
		t.Errorf("disabled auth: got %d, want 200", rr.Code)
	}
}
