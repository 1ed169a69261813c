// Package summary aggregates an (optionally anomaly-annotated) table into
// per-group descriptive and data-quality metrics.
//
// Summarize groups rows by a categorical field (sensor by default) and
// optionally by a time bucket; the two compose into a single key of the form
// "<group>|<bucket start, RFC3339>". Each group yields count, null count,
// mean/std/min/max/median over non-NaN values, quality-flag proportions over
// all rows, and anomaly statistics when the table carries detector output.
//
// All-NaN groups and empty groups are data, not faults: they resolve to
// zeroed statistics instead of propagating NaN into the result. Summaries are
// recomputed from scratch on every call; the source table is never mutated.
package summary
