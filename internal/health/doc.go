// Package health derives a composite data-health verdict for a sensor from
// its latest summary metrics.
//
// score.go provides the pure Compute(Input) function that combines quality
// share (40%), anomaly rate (30%), completeness (20%), and acquisition
// availability (10%) into a 0–100 score with a named state.
//
// tracker.go provides the Tracker that records recent acquisition outcomes
// per source and reports the availability percentage fed into Compute.
//
// State thresholds: Healthy ≥85, Degraded 60–84, Critical <60, Unknown when
// a group holds no observations at all.
package health
