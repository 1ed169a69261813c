package health

// Weight constants for the data-health score formula.
// They must sum to 1.0.
const (
	weightQuality      = 0.40
	weightAnomaly      = 0.30
	weightCompleteness = 0.20
	weightAvailability = 0.10
)

// State constants returned by the score calculator.
const (
	StateHealthy  = "healthy"
	StateDegraded = "degraded"
	StateCritical = "critical"
	StateUnknown  = "unknown"
)

// Thresholds that map a score to a health state.
const (
	ThresholdHealthy  = 85.0
	ThresholdDegraded = 60.0
)

// Input holds the normalised values fed into the data-health score formula.
// All percentage fields are in the range 0–100; AnomalyRate is 0–1.
type Input struct {
	// Observations is the number of rows the summary saw for this group,
	// nulls included. Zero observations yield the "unknown" state.
	Observations int

	// GoodPct is the share of readings carrying the GOOD quality flag.
	GoodPct float64

	// AnomalyRate is the fraction of usable readings flagged anomalous.
	// 0 = clean series, 1 = everything flagged.
	AnomalyRate float64

	// NullPct is the share of readings with a missing measurement value.
	NullPct float64

	// AvailabilityPct is the share of recent acquisition attempts that
	// produced a batch. 100 = every read succeeded.
	AvailabilityPct float64
}

// Output is the result of the data-health score calculation.
type Output struct {
	// Score is the composite health score in the range 0–100.
	Score float64

	// State is the health state derived from Score.
	// One of: "healthy", "degraded", "critical", "unknown".
	State string

	// The four factor values (each 0–1) used to compute Score.
	QualityFactor      float64
	AnomalyFactor      float64
	CompletenessFactor float64
	AvailabilityFactor float64
}

// Compute calculates the data-health score from the given inputs.
//
// Formula:
//
//	score = (
//	    good_pct/100            * 0.40  +
//	    (1 - anomaly_rate)      * 0.30  +
//	    (1 - null_pct/100)      * 0.20  +
//	    availability_pct/100    * 0.10
//	) * 100
//
// A group with zero observations has no statistical basis for a verdict and
// returns the "unknown" state.
func Compute(in Input) Output {
	if in.Observations == 0 {
		return Output{State: StateUnknown}
	}

	qualityFactor := clamp01(in.GoodPct / 100)
	anomalyFactor := 1 - clamp01(in.AnomalyRate)
	completenessFactor := 1 - clamp01(in.NullPct/100)
	availabilityFactor := clamp01(in.AvailabilityPct / 100)

	score := (qualityFactor*weightQuality +
		anomalyFactor*weightAnomaly +
		completenessFactor*weightCompleteness +
		availabilityFactor*weightAvailability) * 100

	return Output{
		Score:              score,
		State:              StateFromScore(score),
		QualityFactor:      qualityFactor,
		AnomalyFactor:      anomalyFactor,
		CompletenessFactor: completenessFactor,
		AvailabilityFactor: availabilityFactor,
	}
}

// StateFromScore maps a numeric score to a named health state.
func StateFromScore(score float64) string {
	switch {
	case score >= ThresholdHealthy:
		return StateHealthy
	case score >= ThresholdDegraded:
		return StateDegraded
	default:
		return StateCritical
	}
}

// clamp01 restricts v to the range [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
