package ratelimit

import "net/http"

// KeyBySession derives a rate limit key from a session cookie, falling back
// to the given function (typically the client IP) for requests without one.
// Carts are session scoped, so limits follow the cart token instead of
// punishing everyone behind a shared NAT address.
func KeyBySession(prefix, cookie string, fallback func(*http.Request) string) func(*http.Request) string {
	return func(r *http.Request) string {
		if c, err := r.Cookie(cookie); err == nil && c.Value != "" {
			return prefix + c.Value
		}
		return prefix + fallback(r)
	}
}
