// Package refresh coordinates access-token renewal so that at most one
// network refresh is in flight at any time.
//
// # Single flight
//
// Concurrent callers of Coordinator.Refresh — the proactive timer, a request
// interceptor, a validation check — join the flight already in progress and
// share its settled outcome. The flight resets after settlement, so the next
// call starts a fresh attempt.
//
// # Failure semantics
//
// A missing refresh token fails fast with ErrNoRefreshToken without touching
// the transport. Unauthorized or forbidden responses from the server are
// terminal: the token store is cleared and callers receive
// ErrReauthenticationRequired. Anything else is transient: stored credentials
// are left untouched and the caller decides whether to retry. A result that
// arrives after the session was cleared mid-flight is discarded; the store's
// generation tag prevents resurrecting a logged-out session.
//
// # Architecture boundaries
//
// This package owns refresh concurrency and outcome classification. It does
// not schedule refreshes (the session store arms the timer) and does not
// persist anything itself.
//
// # What this package must NOT do
//
//   - Import goSession (the root package) or ratelimit.
//   - Retry transient failures on its own.
//   - Cache tokens outside the session store.
package refresh
