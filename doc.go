// Package goSession provides a client-side session engine for applications
// that authenticate against a remote HTTP auth API: token storage with an
// obfuscated persisted backup, proactive refresh scheduling, single-flight
// refresh coordination, and a persisted login rate-limit gate.
//
// The package is designed for concurrent application workloads: Client
// methods are safe to call from multiple goroutines after initialization
// through [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Client], [Builder], [Config],
// and value types (LoginResult, ValidationResult, MetricsSnapshot, etc.).
// All internal coordination — token storage, credential obfuscation, rate
// limiting, refresh single-flighting, transport — lives in sub-packages and
// is composed here.
//
// # What this package must NOT do
//
//   - Treat the obfuscated backup as confidential storage; it deters casual
//     inspection only.
//   - Decide token validity on its own. The remote server is the source of
//     truth; local expiry checks exist to refresh proactively, not to
//     authorize.
//   - Enforce rate limits for the server. The local gate spares the backend
//     and the user, nothing more.
package goSession
