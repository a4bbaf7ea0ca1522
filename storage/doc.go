// Package storage abstracts the persistent key-value store behind the token
// backup and the rate-limit counters.
//
// The contract is deliberately small — get, set-with-optional-TTL, delete by
// string key — because the consumer environment only guarantees an
// origin-scoped, size-limited synchronous store. Three backends ship with
// the module:
//
//   - [Memory]: process-local map, for tests and ephemeral sessions.
//   - [Bolt]: single-file embedded store, the default for desktop consumers.
//   - [Redis]: shared store for kiosk or multi-host deployments.
//
// # Architecture boundaries
//
// Backends persist opaque strings. They must not interpret, decode, or
// validate values — obfuscation lives in credential, serialization in
// session and ratelimit.
package storage
