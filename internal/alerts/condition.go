package alerts

import (
	"strconv"
	"strings"

	"github.com/plantpulse/plantpulse/internal/store"
)

// evalCondition evaluates a rule condition string against a group snapshot.
//
// Supported expressions (field operator value):
//
//	anomaly_rate > 0.1
//	anomaly_count > 5
//	health_score < 60
//	null_pct > 20
//	good_pct < 90
//	availability_pct < 99
//	mean > 700
//	std > 50
//	count < 10
//	state == critical
//	state == degraded
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, snap store.Snapshot) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if field == "state" {
		if op == "==" {
			return snap.Health.State == rhs, 0
		}
		return false, 0
	}

	v, ok := numericField(field, snap)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// numericField maps a field name to its value in the snapshot.
func numericField(field string, snap store.Snapshot) (float64, bool) {
	m := snap.Metrics
	switch field {
	case "anomaly_rate":
		return m.AnomalyRate, true
	case "anomaly_count":
		return float64(m.AnomalyCount), true
	case "health_score":
		return snap.Health.Score, true
	case "null_pct":
		return m.NullPct(), true
	case "good_pct":
		return m.GoodPct, true
	case "availability_pct":
		return snap.AvailabilityPct, true
	case "mean":
		return m.Mean, true
	case "std":
		return m.Std, true
	case "count":
		return float64(m.Count), true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
