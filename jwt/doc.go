// Package jwt issues and verifies the HMAC-SHA256 access and refresh tokens
// used by authcore. Every token carries a "typ" claim; parsing a token of the
// wrong type fails with [ErrInvalidTokenType], and every other verification
// failure collapses to [ErrInvalidToken].
package jwt
