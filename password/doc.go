// Package password implements secret hashing and verification.
//
// # Output formats
//
// [Argon2] encodes hashes in PHC string format with unpadded base64:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Bcrypt] produces standard $2a$ modular-crypt strings.
//
// Both support parameter upgrades: NeedsUpgrade returns true when a stored
// hash was produced with weaker parameters than the current configuration.
// The Engine rehashes on the next successful login when it does.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (length,
// character classes) is enforced by the Engine, so the same hashers also
// serve short inputs such as security answers.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other authcore package.
//   - Log plaintext inputs.
package password
