// Package internal contains helpers that are private to authcore: secure
// random generation for challenges and the per-key lock used to serialize
// account mutations.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: the failed-attempt state machine behind account lockout
//   - rate: fixed-window login limiters (memory and Redis)
//   - stores: one-time challenge stores (memory and Redis)
//
// Nothing here is part of the public authcore API.
package internal
