// Package ratelimit guards the login entry point with a persisted
// exponential-backoff lockout counter and a short inter-attempt throttle.
//
// # State model
//
// One JSON blob per installation in the storage backend. Every public call
// re-reads it first, so counters survive restarts and tolerate concurrent
// writers from other instances over the same backend (last writer wins).
// State older than 24 hours is discarded wholesale.
//
// # Escalation
//
// Attempts since the last lockout drive the hard threshold; consecutive
// failures — reset only by a successful login — drive the escalating
// lockout duration. Waiting out a lockout and failing again immediately is
// punished progressively harder, up to a 24-hour ceiling.
//
// # Defense in depth
//
// This engine slows a client-side brute force; it is not a substitute for
// the server's own rate limiting. A server-asserted lockout deadline always
// wins over the locally computed one.
package ratelimit
