package authcore

import "context"

type clientIPContextKey struct{}

// unknownClient is the rate-limit bucket for callers without a client IP.
const unknownClient = "unknown"

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it
// as the login rate-limit key and in audit events and logs.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func rateLimitKey(ctx context.Context) string {
	if ip := clientIPFromContext(ctx); ip != "" {
		return ip
	}
	return unknownClient
}
