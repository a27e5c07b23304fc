package middleware

import "net/http"

// SecurityHeaders sets conservative browser security headers on every
// response. connectSrc lists extra origins the SPA may call.
func SecurityHeaders(isDev bool, connectSrc ...string) func(http.Handler) http.Handler {
	csp := "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data:; font-src 'self' data:; object-src 'none'; frame-ancestors 'none'; " +
		"base-uri 'self'; form-action 'self'; connect-src 'self' ws: wss:"
	for _, src := range connectSrc {
		if src != "" {
			csp += " " + src
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("X-DNS-Prefetch-Control", "off")
			if !isDev {
				h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
