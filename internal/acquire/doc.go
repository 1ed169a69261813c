// Package acquire provides the batch acquisition sources feeding the
// pipeline. Each source implements one ReadBatch call that either yields a
// batch of readings or fails outright; the ingestion stage treats failed
// reads as missing batches.
//
// Implemented sources: a flaky industrial simulator (simulator.go) with
// configurable dropout, missing values, spikes, timestamp jitter, and
// duplicate rows; and a Prometheus exposition adapter (prometheus.go) that
// maps configured metric families to sensor readings.
//
// Factory: New(config.Source) returns the correct Source. Collect performs a
// fixed number of reads, converting per-read failures into nil batches so
// callers can hand the whole slice to ingestion unchanged.
package acquire
