package summary

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/plantpulse/plantpulse/internal/reading"
)

// Invalid-argument errors.
var (
	ErrEmptyTable   = errors.New("summary: empty table")
	ErrUnknownGroup = errors.New("summary: unknown group field")
)

// Group fields accepted by Options.GroupBy.
const (
	GroupBySensor  = "sensor"
	GroupByUnit    = "unit"
	GroupByQuality = "quality"
)

// Options selects the grouping of the summary.
type Options struct {
	// GroupBy is the categorical field to group on: "sensor" (default),
	// "unit", or "quality".
	GroupBy string

	// Bucket is the time bucket width. Zero disables time grouping; a
	// positive value composes with GroupBy into "<group>|<bucket>" keys.
	Bucket time.Duration
}

// Metrics is the aggregate record for one group.
//
// Count and the descriptive statistics cover non-NaN values only; NullCount
// counts the NaN rows. A group with no usable values reports Count 0 and
// zeroed statistics. The quality proportions cover all rows of the group,
// nulls included. The anomaly fields are meaningful only when Analyzed is
// true, i.e. at least one row of the group carries detector output.
type Metrics struct {
	Count     int
	NullCount int
	Mean      float64
	Std       float64
	Min       float64
	Max       float64
	Median    float64

	GoodPct      float64
	BadPct       float64
	UncertainPct float64

	Analyzed         bool
	AnomalyCount     int
	AnomalyRate      float64
	MeanAnomalyScore float64
}

// TotalCount returns the number of rows the group held, nulls included.
func (m Metrics) TotalCount() int { return m.Count + m.NullCount }

// NullPct returns the share of rows with a missing value as a percentage
// of all rows in the group. An empty group reports 0.
func (m Metrics) NullPct() float64 {
	total := m.TotalCount()
	if total == 0 {
		return 0
	}
	return float64(m.NullCount) / float64(total) * 100
}

// Summarize computes fresh metrics for every group in rows.
//
// Keys are the group value alone, or "<group>|<bucket start RFC3339>" when
// Options.Bucket is positive. An empty table or an unknown GroupBy field is
// an invalid-argument error; degenerate groups are not.
func Summarize(rows []reading.Annotated, opts Options) (map[string]Metrics, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	groupBy := opts.GroupBy
	if groupBy == "" {
		groupBy = GroupBySensor
	}
	keyOf, err := groupKeyFunc(groupBy)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]reading.Annotated)
	for _, r := range rows {
		k := keyOf(r.Reading)
		if opts.Bucket > 0 {
			bucket := r.Timestamp.Truncate(opts.Bucket).UTC()
			k = k + "|" + bucket.Format(time.RFC3339)
		}
		groups[k] = append(groups[k], r)
	}

	out := make(map[string]Metrics, len(groups))
	for k, g := range groups {
		out[k] = aggregate(g)
	}
	return out, nil
}

// groupKeyFunc maps a GroupBy selector to a key extractor.
func groupKeyFunc(groupBy string) (func(reading.Reading) string, error) {
	switch groupBy {
	case GroupBySensor:
		return func(r reading.Reading) string { return r.Sensor }, nil
	case GroupByUnit:
		return func(r reading.Reading) string { return r.Unit }, nil
	case GroupByQuality:
		return func(r reading.Reading) string { return string(r.Quality) }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, groupBy)
	}
}

// aggregate computes the metrics record for one group. Callers guarantee the
// group is non-empty; it may still contain only NaN values.
func aggregate(g []reading.Annotated) Metrics {
	var m Metrics

	vals := make([]float64, 0, len(g))
	var good, bad, uncertain int
	var analyzed, flagged int
	var scoreSum float64
	var scored int

	for _, r := range g {
		switch r.Quality {
		case reading.QualityGood:
			good++
		case reading.QualityBad:
			bad++
		case reading.QualityUncertain:
			uncertain++
		}

		if r.Missing() {
			m.NullCount++
		} else {
			vals = append(vals, r.Value)
		}

		if r.Detection != "" {
			analyzed++
			if r.IsAnomaly {
				flagged++
			}
			if !math.IsNaN(r.Score) {
				scoreSum += r.Score
				scored++
			}
		}
	}

	m.Count = len(vals)
	if len(vals) > 0 {
		m.Mean = meanOf(vals)
		m.Std = stddevOf(vals, m.Mean) // 0 for single-value groups
		m.Min, m.Max = minMax(vals)
		m.Median = medianOf(vals)
	}

	total := float64(len(g))
	m.GoodPct = float64(good) / total * 100
	m.BadPct = float64(bad) / total * 100
	m.UncertainPct = float64(uncertain) / total * 100

	if analyzed > 0 {
		m.Analyzed = true
		m.AnomalyCount = flagged
		if m.Count > 0 {
			m.AnomalyRate = float64(flagged) / float64(m.Count)
		}
		if scored > 0 {
			m.MeanAnomalyScore = scoreSum / float64(scored)
		}
	}
	return m
}

func meanOf(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func stddevOf(vals []float64, mean float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

func minMax(vals []float64) (lo, hi float64) {
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func medianOf(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
