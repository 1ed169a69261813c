package anomaly

import (
	"errors"
	"fmt"
	"math"

	"github.com/plantpulse/plantpulse/internal/reading"
)

// Method selects the detection algorithm.
type Method string

// Supported detection methods.
const (
	MethodZScore  Method = "zscore"
	MethodIQR     Method = "iqr"
	MethodRolling Method = "rolling"
)

// Valid reports whether m names a supported method.
func (m Method) Valid() bool {
	switch m {
	case MethodZScore, MethodIQR, MethodRolling:
		return true
	}
	return false
}

// Default sensitivity parameters per method.
const (
	DefaultZScoreThreshold = 3.0
	DefaultIQRFactor       = 1.5
)

// Adaptive rolling-window bounds, applied when Options.Window is zero.
const (
	minWindow = 5
	maxWindow = 20
)

// minObservations is the smallest number of non-NaN values the estimators
// need before any score can be nonzero.
const minObservations = 2

// Invalid-argument errors. Degenerate data (zero variance, too few points)
// never produces an error; it produces zero scores.
var (
	ErrUnknownMethod = errors.New("anomaly: unknown method")
	ErrUnknownSensor = errors.New("anomaly: unknown sensor")
)

// Options carries the method selector and its sensitivity parameters.
// Thresholds default per method when zero, so tests and callers can run with
// distinct parameters without touching process-wide state.
type Options struct {
	// Method defaults to MethodZScore when empty.
	Method Method

	// Threshold is the sensitivity parameter. For zscore and rolling it is
	// the minimum score to flag; for iqr it is the fence multiplier k.
	// Zero or negative selects the method default.
	Threshold float64

	// Window is the rolling window size in observations. Windows are
	// centered on each point, so an even value is widened by one to keep
	// the same number of neighbors on both sides. Zero selects an adaptive
	// size from the series length, clamped to [5, 20].
	// Ignored by the other methods.
	Window int
}

// Detect returns rows annotated with anomaly flags and scores for the named
// sensor. The output preserves input order and length; rows of other sensors
// keep an empty detection label, and rows of the target sensor with a NaN
// value keep a NaN score and a false flag. The input table is not modified.
func Detect(rows []reading.Reading, sensor string, opts Options) ([]reading.Annotated, error) {
	if sensor == "" {
		return nil, fmt.Errorf("%w: empty sensor name", ErrUnknownSensor)
	}

	method := opts.Method
	if method == "" {
		method = MethodZScore
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	threshold := opts.Threshold
	if threshold <= 0 {
		if method == MethodIQR {
			threshold = DefaultIQRFactor
		} else {
			threshold = DefaultZScoreThreshold
		}
	}

	out := make([]reading.Annotated, len(rows))
	var (
		idx  []int // positions of scoreable rows
		vals []float64
		seen bool
	)
	for i, r := range rows {
		out[i] = reading.Wrap(r)
		if r.Sensor != sensor {
			continue
		}
		seen = true
		out[i].Detection = string(method)
		if r.Missing() {
			continue // NaN rows stay at score NaN, flag false
		}
		idx = append(idx, i)
		vals = append(vals, r.Value)
	}
	if !seen {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSensor, sensor)
	}

	var scores []float64
	switch method {
	case MethodZScore:
		scores = zscoreScores(vals)
	case MethodIQR:
		scores = iqrScores(vals, threshold)
	case MethodRolling:
		scores = rollingScores(vals, opts.Window)
	}

	for j, i := range idx {
		out[i].Score = scores[j]
		if method == MethodIQR {
			// For IQR the fences already encode the threshold: any nonzero
			// score is outside the bounds.
			out[i].IsAnomaly = scores[j] > 0
		} else {
			out[i].IsAnomaly = scores[j] > threshold
		}
	}
	return out, nil
}

// zscoreScores returns |v − mean| / std for each value, over the whole series.
func zscoreScores(vals []float64) []float64 {
	scores := make([]float64, len(vals))
	if len(vals) < minObservations {
		return scores
	}
	m := mean(vals)
	s := stddev(vals, m)
	if s == 0 {
		return scores // constant series: no statistical basis to flag anything
	}
	for i, v := range vals {
		scores[i] = math.Abs(v-m) / s
	}
	return scores
}

// iqrScores returns the distance outside [Q1 − k·IQR, Q3 + k·IQR] normalized
// by IQR, and 0 for values inside the fences.
func iqrScores(vals []float64, k float64) []float64 {
	scores := make([]float64, len(vals))
	if len(vals) < minObservations {
		return scores
	}
	q1 := quantile(vals, 0.25)
	q3 := quantile(vals, 0.75)
	iqr := q3 - q1
	if iqr == 0 {
		return scores // over half the series is one constant: zero spread
	}
	lo := q1 - k*iqr
	hi := q3 + k*iqr
	for i, v := range vals {
		switch {
		case v < lo:
			scores[i] = (lo - v) / iqr
		case v > hi:
			scores[i] = (v - hi) / iqr
		}
	}
	return scores
}

// rollingScores returns a z-score against a centered moving window at each
// position. Each interior window spans window/2 neighbors on either side of
// the point, so an even window size covers window+1 observations. The window
// shrinks at the sequence boundaries instead of requiring symmetric
// neighbors.
func rollingScores(vals []float64, window int) []float64 {
	scores := make([]float64, len(vals))
	if len(vals) < minObservations {
		return scores
	}
	if window <= 0 {
		window = adaptiveWindow(len(vals))
	}
	half := window / 2
	for i, v := range vals {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half + 1
		if hi > len(vals) {
			hi = len(vals)
		}
		win := vals[lo:hi]
		if len(win) < minObservations {
			continue
		}
		m := mean(win)
		s := stddev(win, m)
		if s == 0 {
			continue
		}
		scores[i] = math.Abs(v-m) / s
	}
	return scores
}

// adaptiveWindow picks a rolling window size from the series length:
// one tenth of the series, clamped to [minWindow, maxWindow].
func adaptiveWindow(n int) int {
	w := n / 10
	if w < minWindow {
		w = minWindow
	}
	if w > maxWindow {
		w = maxWindow
	}
	return w
}
