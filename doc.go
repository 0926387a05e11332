// Package ledger implements the bookkeeping backend core: user registration
// and login, refresh-token session lifecycle, signed bearer tokens, and the
// owner-scoped repositories for categories, transactions, and tax rules.
//
// Session lifecycle:
//   - SessionManager orchestrates login, registration, refresh, logout, and
//     logout-all over the Users and RefreshTokens repositories. Refresh tokens
//     are persisted rows whose authority storage can revoke independently of
//     their cryptographic validity; rows are flipped to revoked, never deleted,
//     so the audit trail survives.
//   - TokenService issues and verifies HS256 bearer tokens carrying a subject
//     and a type discriminator. Verification failures are swallowed into nil so
//     callers treat every failure uniformly as unauthenticated.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by SessionManager to
//     describe login, registration, refresh, and logout events. Sinks run
//     best-effort (errors are logged) so you can forward to a database or queue
//     without blocking authentication.
//
// The request guard lives in middleware/authware and attaches the resolved
// identity to the request context for downstream handlers.
package ledger
