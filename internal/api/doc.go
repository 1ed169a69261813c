// Package api implements the HTTP JSON endpoints that expose the latest
// pipeline state: overall plant health, per-group sensor summaries,
// active alerts, and the full snapshot used by the websocket feed.
package api
