// Package flows holds the pure state transitions behind engine operations.
// Nothing here performs I/O; callers load, apply and persist.
package flows
