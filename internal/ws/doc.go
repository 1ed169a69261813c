// Package ws implements the WebSocket feed for the PlantPulse server.
//
// Hub manages a set of connected clients and broadcasts the current sensor
// snapshot to them on a configurable interval (default 5s). A client
// receives every group by default; it can narrow its feed by sending a
// subscribe request naming the groups it renders:
//
//	{ "action": "subscribe", "groups": ["temperature", "pressure"] }
//
// An empty group list restores the full feed. Every broadcast carries the
// envelope
//
//	{
//	  "event": "snapshot",
//	  "data":  { /* same schema as GET /api/v1/snapshot, possibly filtered */ }
//	}
//
// New(store, interval) creates a Hub. Hub.Run(ctx) starts the broadcast
// ticker; it blocks until ctx is cancelled, then closes all active
// connections. Hub.ServeHTTP upgrades an HTTP connection to WebSocket and
// sends the current snapshot immediately on connect.
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. WebSocket endpoint is mounted at /ws/stream by the server.
package ws
