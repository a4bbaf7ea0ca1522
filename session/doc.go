// Package session owns the in-memory session record and its obfuscated
// persistent backup.
//
// # Ownership model
//
// The in-memory [Record] is authoritative. The persisted backup is a cache:
// written on every store/update, read lazily only when memory is empty,
// deleted on clear. A corrupted backup reads as "no session" and is removed.
//
// # Refresh scheduling
//
// The [Store] arms at most one timer per instance, firing at
// expiresAt − refreshThreshold. Firing raises the injected refresh-needed
// callback; the Store never contacts the transport itself. Every mutation
// bumps a generation counter so late results from an already-cleared
// session are discarded instead of resurrecting state.
//
// # What this package must NOT do
//
//   - Import goSession, transport, or refresh (no upward imports).
//   - Issue network calls of any kind.
//   - Treat the persisted backup as authoritative over memory.
package session
