// Package config loads and watches the daemon configuration file
// (config.yaml).
//
// Top-level types:
//   - Config{Pipeline, Sources, Server}: full config tree parsed from YAML
//   - PipelineConfig: cycle_interval, batches_per_cycle, strict, group_by,
//     summary_bucket, targets []
//   - TargetConfig: sensor, method (zscore|iqr|rolling), threshold, window
//   - Source: id, type (simulator|prometheus), plus per-type settings:
//     sensor profiles and dropout for the simulator, endpoint and metric
//     mappings for prometheus
//   - ServerConfig, AuthConfig, AlertsConfig: HTTP port, snapshot TTL,
//     API-key auth, alert rules and webhook targets
//
// Load(path) reads the YAML file, applies defaults (30s cycle, 5 batches,
// port 8080, 5m TTL), then validates required fields and enums with errors
// naming the offending field.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename/create pattern
// used by atomic-save editors by re-adding the watch after each reload.
package config
