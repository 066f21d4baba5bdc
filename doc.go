// Package authcore is a username/password authentication engine with
// HS256 access and refresh tokens, automatic account lockout, email OTP
// second factor and security-question password recovery.
//
// An [Engine] is built once through [Builder] and is safe for concurrent
// use. Persistence is pluggable through [UserStore] and [RoleStore]; the
// store/memory and store/postgres packages provide implementations. One-time
// challenges and the login rate limiter live in process memory unless a
// Redis client is supplied with [Builder.WithRedis].
//
// # Errors
//
// Every operation returns either nil, a domain error that can be matched
// with errors.Is against the exported Err* values, or an error wrapping
// [ErrBackendUnavailable]. [KindOf] maps any returned error to a stable
// [ErrorKind] for transports.
//
// # Lockout
//
// Failed password checks are counted per account. The attempt that reaches
// Lockout.MaxFailedAttempts moves the account to LOCKED; only an
// administrator can set it back to ACTIVE. Counting and locking for one
// account are serialized inside the process, so concurrent failures are
// never lost.
//
// # What this package must NOT do
//
//   - Log or audit passwords, one-time secrets, security answers, hashes or
//     tokens.
//   - Reveal whether a username exists on the login, MFA or refresh paths.
package authcore
