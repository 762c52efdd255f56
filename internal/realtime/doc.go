// Package realtime pushes task change notifications to connected websocket
// clients.
//
// A Registry tracks the live sessions and owns delivery: every send goes
// through it, and a session whose transport fails a write is evicted on the
// spot. The Broadcaster turns domain events into messages and decides which
// sessions receive them. The Handler runs one session's lifecycle:
// authenticate, register, answer control frames, unregister.
package realtime
