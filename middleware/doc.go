// Package middleware exposes HTTP middleware adapters that gate routes on
// the goSession.Client session state.
//
// # Guards
//
//   - [Guard] — requires a valid session, redirecting unauthenticated
//     navigation to the configured login path.
//   - [RequireRole] — Guard plus a role-membership check.
//
// Each guard validates the session (refreshing through the coordinator when
// the access token is past its threshold) and injects the validation result
// into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Client calls. It does NOT
// implement session logic itself — all decisions are delegated to
// Client.ValidateSession and Client.HasRole.
//
// # What this package must NOT do
//
//   - Read or write tokens directly (delegates to the Client).
//   - Talk to storage or the auth API.
//   - Make authorization decisions beyond pass/redirect/reject.
package middleware
