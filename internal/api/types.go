package api

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	OverallScore  float64 `json:"overall_score"`
	State         string  `json:"state"`
	GroupCount    int     `json:"group_count"`
	HealthyCount  int     `json:"healthy_count"`
	DegradedCount int     `json:"degraded_count"`
	CriticalCount int     `json:"critical_count"`
	UnknownCount  int     `json:"unknown_count"`
	AlertCount    int     `json:"alert_count"`
}

// SensorResponse is one group entry in GET /api/v1/sensors or
// GET /api/v1/sensors/{group}.
type SensorResponse struct {
	Group     string  `json:"group"`
	Count     int     `json:"count"`
	NullCount int     `json:"null_count"`
	Mean      float64 `json:"mean"`
	Std       float64 `json:"std"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Median    float64 `json:"median"`

	GoodPct      float64 `json:"good_pct"`
	BadPct       float64 `json:"bad_pct"`
	UncertainPct float64 `json:"uncertain_pct"`

	Analyzed         bool    `json:"analyzed"`
	AnomalyCount     int     `json:"anomaly_count"`
	AnomalyRate      float64 `json:"anomaly_rate"`
	MeanAnomalyScore float64 `json:"mean_anomaly_score"`

	HealthScore     float64 `json:"health_score"`
	State           string  `json:"state"`
	AvailabilityPct float64 `json:"availability_pct"`
	LastSeen        string  `json:"last_seen"` // RFC3339
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and the body of
// every websocket snapshot event.
type SnapshotResponse struct {
	Sensors     []SensorResponse `json:"sensors"`
	GeneratedAt string           `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
