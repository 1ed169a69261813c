// Package alerts implements the rule evaluation engine and webhook delivery
// for PlantPulse alerting. Rules are evaluated against per-group snapshots;
// webhooks are delivered to Slack, Teams, or generic HTTP targets.
package alerts
