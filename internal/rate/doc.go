// Package rate implements the fixed-window login limiter.
//
// # Window semantics
//
// Each client key owns a (windowStart, count) pair. A request at or after
// windowStart+Window opens a new window with count 1; otherwise the count
// is incremented. A count above MaxRequests is rejected with ErrRateLimited.
//
// MemoryLimiter keeps one mutex-guarded counter per client in a sync.Map,
// so different clients never share a lock. Counters are never evicted.
// RedisLimiter sends INCR and EXPIRE NX in one MULTI/EXEC; the window
// follows the Redis server clock.
//
// # What this package must NOT do
//
//   - Know about credentials or accounts.
//   - Be imported outside the authcore module.
package rate
