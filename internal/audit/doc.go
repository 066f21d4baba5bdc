// Package audit implements async event dispatching for security-relevant operations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event]: structured audit record with timestamp, type, username, client IP, metadata.
//   - [RedactMetadata]: masks values whose keys name a secret.
//
// # What this package must NOT do
//
//   - Decide which events to emit; the Engine does that.
//   - Import authcore or any sibling internal package.
//   - Forward metadata that has not been passed through [RedactMetadata].
package audit
