// Package store holds the latest per-group pipeline state in memory. It
// provides a thread-safe snapshot store with TTL eviction so groups that
// stop producing readings age out of the serving surface.
package store
