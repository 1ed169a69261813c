package reading

import (
	"math"
	"time"
)

// Quality is the trustworthiness flag attached to every reading by the
// acquisition layer.
type Quality string

// The three quality levels produced by industrial acquisition stacks.
const (
	QualityGood      Quality = "GOOD"
	QualityBad       Quality = "BAD"
	QualityUncertain Quality = "UNCERTAIN"
)

// Valid reports whether q is one of the three known quality levels.
func (q Quality) Valid() bool {
	switch q {
	case QualityGood, QualityBad, QualityUncertain:
		return true
	}
	return false
}

// Reading is one timestamped measurement from one sensor.
//
// Value may be NaN: a sensor that answered but delivered no usable number is
// a legitimate state (typically flagged BAD or UNCERTAIN), not a structural
// defect. Timestamp and Sensor are required; strict ingestion rejects rows
// where either is missing.
type Reading struct {
	Timestamp time.Time
	Sensor    string
	Value     float64
	Unit      string
	Quality   Quality
}

// Missing reports whether the reading carries no usable measurement value.
func (r Reading) Missing() bool { return math.IsNaN(r.Value) }

// Batch is the ordered sequence of readings produced by one acquisition
// attempt. A nil Batch represents an acquisition that failed outright;
// ingestion skips nil batches without error.
type Batch []Reading

// Annotated is a Reading augmented with the output of anomaly detection.
//
// Detection is the method label ("zscore", "iqr", "rolling") and is empty for
// rows that were never analyzed. Score is NaN for rows the detector could not
// score (wrong sensor, missing value); it is never negative.
type Annotated struct {
	Reading
	IsAnomaly bool
	Score     float64
	Detection string
}

// Wrap lifts a plain reading into an unanalyzed Annotated row.
func Wrap(r Reading) Annotated {
	return Annotated{Reading: r, Score: math.NaN()}
}

// WrapAll lifts a consolidated table into unanalyzed Annotated rows so it can
// be summarized without running a detector first.
func WrapAll(rows []Reading) []Annotated {
	out := make([]Annotated, len(rows))
	for i, r := range rows {
		out[i] = Wrap(r)
	}
	return out
}
