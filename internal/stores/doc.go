// Package stores holds short-lived one-time challenges used by the MFA and
// account recovery flows.
//
// # Design
//
// A challenge is created with a random id and a random numeric secret; only
// a SHA-256 digest of the secret is kept. Consume is an atomic
// compare-and-remove: a record of another payload kind is reported as not
// found and left in place, a matching secret removes the record and
// returns it, a wrong secret leaves it in place, an expired record is
// removed and reported as expired. Exactly one concurrent Consume can win.
//
// Two implementations share the [ChallengeStore] interface: an in-process
// sharded map and a Redis store using WATCH/MULTI with retry on contention.
// Expiry is evaluated lazily against an injected clock.
//
// # What this package must NOT do
//
//   - Import authcore or make authentication decisions.
//   - Log or expose plaintext secrets after Create returns.
//   - Use non-constant-time comparisons for secret matching.
package stores
