package ingest

import (
	"fmt"
	"math"
	"sort"

	"github.com/plantpulse/plantpulse/internal/reading"
)

// Options controls ingestion behavior.
type Options struct {
	// Strict enables structural validation: every row must carry a non-zero
	// timestamp, a non-empty sensor id, and a known quality flag. A NaN value
	// is never a structural defect.
	Strict bool
}

// ValidationError reports a structurally invalid row, naming the batch and
// row it was found in and the field that failed.
type ValidationError struct {
	Batch int
	Row   int
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ingest: batch %d row %d: field %q %s", e.Batch, e.Row, e.Field, e.Msg)
}

// Consolidate merges batches into one clean table.
//
// Nil batches (failed acquisitions) are skipped. With Options.Strict, the
// first structurally invalid row aborts ingestion with a *ValidationError.
// Deduplication runs in two passes: exact duplicates first, then rows that
// share (timestamp, sensor) but disagree on the measurement, keeping the
// first-seen occurrence. The result is always stable-sorted by timestamp,
// strict or not, because downstream time-series logic requires it.
//
// Zero batches, or all batches nil or empty, return an empty non-nil table.
func Consolidate(batches []reading.Batch, opts Options) ([]reading.Reading, error) {
	total := 0
	for _, b := range batches {
		total += len(b)
	}

	rows := make([]reading.Reading, 0, total)
	for i, b := range batches {
		if b == nil {
			continue // failed acquisition, nothing to merge
		}
		if opts.Strict {
			if err := validateBatch(i, b); err != nil {
				return nil, err
			}
		}
		rows = append(rows, b...)
	}

	rows = dropExactDuplicates(rows)
	rows = dropConflictingDuplicates(rows)

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
	return rows, nil
}

// validateBatch checks every row of one batch for structural defects.
func validateBatch(batch int, b reading.Batch) error {
	for i, r := range b {
		switch {
		case r.Timestamp.IsZero():
			return &ValidationError{Batch: batch, Row: i, Field: "timestamp", Msg: "is missing"}
		case r.Sensor == "":
			return &ValidationError{Batch: batch, Row: i, Field: "sensor", Msg: "is empty"}
		case !r.Quality.Valid():
			return &ValidationError{
				Batch: batch, Row: i, Field: "quality",
				Msg: fmt.Sprintf("has unknown value %q", r.Quality),
			}
		}
	}
	return nil
}

// exactKey identifies a reading by every field. Value is compared by bit
// pattern so that two NaN readings dedupe against each other.
type exactKey struct {
	ts      int64
	sensor  string
	bits    uint64
	unit    string
	quality reading.Quality
}

func dropExactDuplicates(rows []reading.Reading) []reading.Reading {
	seen := make(map[exactKey]struct{}, len(rows))
	out := rows[:0]
	for _, r := range rows {
		k := exactKey{
			ts:      r.Timestamp.UnixNano(),
			sensor:  r.Sensor,
			bits:    math.Float64bits(r.Value),
			unit:    r.Unit,
			quality: r.Quality,
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// timeKey identifies a reading by (timestamp, sensor) only.
type timeKey struct {
	ts     int64
	sensor string
}

// dropConflictingDuplicates collapses rows that share (timestamp, sensor) but
// differ in measurement, unit, or quality. First occurrence wins.
func dropConflictingDuplicates(rows []reading.Reading) []reading.Reading {
	seen := make(map[timeKey]struct{}, len(rows))
	out := rows[:0]
	for _, r := range rows {
		k := timeKey{ts: r.Timestamp.UnixNano(), sensor: r.Sensor}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
