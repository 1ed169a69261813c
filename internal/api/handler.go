package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/plantpulse/plantpulse/internal/alerts"
	"github.com/plantpulse/plantpulse/internal/health"
	"github.com/plantpulse/plantpulse/internal/store"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
// It reads group state from the snapshot store and returns JSON responses.
type Handler struct {
	store  *store.Store
	engine *alerts.Engine
	mux    *http.ServeMux
}

// New creates a Handler wired to the snapshot store and alert engine and
// registers all routes. engine may be nil when alerting is not configured.
func New(st *store.Store, engine *alerts.Engine) http.Handler {
	h := &Handler{store: st, engine: engine, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/sensors", h.listSensors)
	h.mux.HandleFunc("/api/v1/sensors/", h.getSensor) // subtree: extracts {group}
	h.mux.HandleFunc("/api/v1/alerts", h.alerts)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: overall health score and state counts.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := h.store.List()
	resp := HealthResponse{
		GroupCount: len(entries),
		AlertCount: h.activeAlertCount(),
	}

	if len(entries) == 0 {
		resp.State = health.StateUnknown
		jsonResp(w, http.StatusOK, resp)
		return
	}

	var totalScore float64
	scored := 0
	for _, e := range entries {
		switch e.Snapshot.Health.State {
		case health.StateHealthy:
			resp.HealthyCount++
		case health.StateDegraded:
			resp.DegradedCount++
		case health.StateCritical:
			resp.CriticalCount++
		default:
			resp.UnknownCount++
			continue
		}
		totalScore += e.Snapshot.Health.Score
		scored++
	}

	if scored == 0 {
		resp.State = health.StateUnknown
		jsonResp(w, http.StatusOK, resp)
		return
	}

	resp.OverallScore = totalScore / float64(scored)
	resp.State = health.StateFromScore(resp.OverallScore)
	jsonResp(w, http.StatusOK, resp)
}

// listSensors returns GET /api/v1/sensors: all live groups.
func (h *Handler) listSensors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := h.store.List()
	out := make([]SensorResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toSensorResponse(e))
	}
	jsonResp(w, http.StatusOK, out)
}

// getSensor returns GET /api/v1/sensors/{group}: a single live group.
func (h *Handler) getSensor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	group := strings.TrimPrefix(r.URL.Path, "/api/v1/sensors/")
	if group == "" {
		// Redirect bare /api/v1/sensors/ to list handler.
		h.listSensors(w, r)
		return
	}

	e, ok := h.store.Get(group)
	if !ok {
		jsonErr(w, http.StatusNotFound, "sensor group not found")
		return
	}
	// Exclude stale entries: treat them as not found.
	if time.Since(e.UpdatedAt) > h.store.TTL() {
		jsonErr(w, http.StatusNotFound, "sensor group not found")
		return
	}

	jsonResp(w, http.StatusOK, toSensorResponse(e))
}

// alerts returns GET /api/v1/alerts: firing and recently resolved alerts.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.engine == nil {
		jsonResp(w, http.StatusOK, []struct{}{})
		return
	}
	jsonResp(w, http.StatusOK, h.engine.Active())
}

// snapshot returns GET /api/v1/snapshot: full JSON dump of all live groups.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildSnapshot(h.store))
}

// BuildSnapshot assembles the full-state payload from the store. The
// websocket hub broadcasts the same shape on every pipeline cycle.
func BuildSnapshot(st *store.Store) SnapshotResponse {
	entries := st.List()
	sensors := make([]SensorResponse, 0, len(entries))
	for _, e := range entries {
		sensors = append(sensors, toSensorResponse(e))
	}
	return SnapshotResponse{
		Sensors:     sensors,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func (h *Handler) activeAlertCount() int {
	if h.engine == nil {
		return 0
	}
	n := 0
	for _, a := range h.engine.Active() {
		if a.State == "firing" {
			n++
		}
	}
	return n
}

// toSensorResponse maps a store.Entry to its JSON representation.
func toSensorResponse(e *store.Entry) SensorResponse {
	snap := e.Snapshot
	m := snap.Metrics
	return SensorResponse{
		Group:     snap.Group,
		Count:     m.Count,
		NullCount: m.NullCount,
		Mean:      m.Mean,
		Std:       m.Std,
		Min:       m.Min,
		Max:       m.Max,
		Median:    m.Median,

		GoodPct:      m.GoodPct,
		BadPct:       m.BadPct,
		UncertainPct: m.UncertainPct,

		Analyzed:         m.Analyzed,
		AnomalyCount:     m.AnomalyCount,
		AnomalyRate:      m.AnomalyRate,
		MeanAnomalyScore: m.MeanAnomalyScore,

		HealthScore:     snap.Health.Score,
		State:           snap.Health.State,
		AvailabilityPct: snap.AvailabilityPct,
		LastSeen:        e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
