package health

import "sync/atomic"

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady toggles the readiness gate. Flipping it to false makes Ready
// report 503 regardless of dependency health, so load balancers drain the
// instance before graceful shutdown closes the listener.
func SetReady(v bool) { ready.Store(v) }

// IsReady reports the current state of the readiness gate.
func IsReady() bool { return ready.Load() }
