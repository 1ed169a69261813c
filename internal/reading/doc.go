// Package reading defines the shared domain types of the pipeline: a single
// sensor Reading, an acquisition Batch, and the Annotated row produced by
// anomaly detection. These are the canonical in-memory representations passed
// between the acquisition, ingestion, detection, and summarization stages.
package reading
