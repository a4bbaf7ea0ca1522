// Package transport is the wire boundary to the remote auth API.
//
// # Contract
//
// Three endpoints: POST /auth/login, POST /auth/refresh, POST /auth/logout.
// Failures surface as [*StatusError] carrying the HTTP status and the
// optional server-supplied message and lockout deadline; anything without a
// status (DNS, timeout, connection refused) wraps [ErrNetwork].
//
// # Response normalization
//
// Deployed API versions disagree on where the token lives (accessToken vs
// token, top-level vs under data) and whether user identity comes in a user
// object. [Normalize] is the single function that resolves the ambiguity
// into a tagged [TokenResponse]; nothing above this package sniffs response
// shapes.
package transport
