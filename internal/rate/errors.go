package rate

import "errors"

var (
	ErrRateLimited      = errors.New("too many requests")
	ErrRedisUnavailable = errors.New("rate limiter backend unavailable")
)
