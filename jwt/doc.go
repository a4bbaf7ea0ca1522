// Package jwt extracts identity claims from access tokens without verifying
// their signature.
//
// The session layer is a client of the auth API, not its issuer: it holds no
// verification keys and never trusts a token on its own. Claims peeked here
// are a display and bookkeeping fallback for servers that omit the user id
// or role from the login payload. Authorization is always enforced
// server-side.
//
// # What this package must NOT do
//
//   - Verify signatures or hold signing keys.
//   - Reject tokens on exp/nbf grounds; token lifetime is the store's job.
//   - Import any other goSession package.
package jwt
