// Package events carries study-session lifecycle notifications from the
// session machine to whoever is interested, without a global bus.
//
// The session machine is handed an Emitter explicitly. Handlers register on
// an InMemoryEmitter; LogHandler is the one wired by default.
package events
