// Package middleware adapts [authcore.Engine] access-token validation to
// net/http.
//
// [RequireAccess] reads the bearer token, calls Engine.ValidateAccess and
// stores the claims in the request context. [RequireRole] then gates on the
// roles claim. Neither touches the user store.
package middleware
