package httpmiddleware

import "net/http"

// secureHeaders are set on every response before the handler runs.
var secureHeaders = [][2]string{
	{"Content-Security-Policy", "default-src 'self';base-uri 'self';frame-ancestors 'self';object-src 'none'"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
	{"Referrer-Policy", "no-referrer"},
	{"Strict-Transport-Security", "max-age=15552000; includeSubDomains"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Dns-Prefetch-Control", "off"},
	{"X-Download-Options", "noopen"},
	{"X-Frame-Options", "SAMEORIGIN"},
	{"X-Permitted-Cross-Domain-Policies", "none"},
	{"X-Xss-Protection", "0"},
}

// SecureHeaders returns a middleware that sets conservative security headers
// and hides the server implementation.
func SecureHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range secureHeaders {
				h.Set(kv[0], kv[1])
			}
			h.Del("X-Powered-By")
			next.ServeHTTP(w, r)
		})
	}
}
