// Package ingest consolidates raw acquisition batches into one validated,
// deduplicated, chronologically sorted table.
//
// Consolidate(batches, opts) concatenates all non-nil batches in acquisition
// order, optionally validates row structure (Options.Strict), removes exact
// duplicates and then rows that share (timestamp, sensor), and finally
// stable-sorts by timestamp. Failed acquisitions are represented as nil
// batches and skipped silently; zero usable input yields an empty table, not
// an error.
//
// Tie-break for (timestamp, sensor) conflicts: the first occurrence in
// acquisition order wins. At that point the table is not yet time-sorted, so
// "first" means the order batches were supplied in.
package ingest
