package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// Origins allowed to make cross-origin requests. Empty or "*" allows any.
	Origins []string
	// Methods advertised on preflight. Defaults to the catalog verbs.
	Methods []string
	// Headers advertised on preflight. When empty the requested headers are
	// echoed back.
	Headers []string
	// Credentials sets Access-Control-Allow-Credentials. A wildcard origin is
	// never sent together with credentials; the request origin is echoed.
	Credentials bool
	// MaxAge of a preflight result in seconds. Zero omits the header.
	MaxAge int
}

type corsPolicy struct {
	any         bool
	origins     map[string]string // lowercase -> configured spelling
	methods     string
	headers     string
	credentials bool
	maxAge      string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	p := corsPolicy{
		any:         len(cfg.Origins) == 0,
		origins:     make(map[string]string, len(cfg.Origins)),
		methods:     strings.Join(cfg.Methods, ", "),
		headers:     strings.Join(cfg.Headers, ", "),
		credentials: cfg.Credentials,
	}
	for _, o := range cfg.Origins {
		if o == "*" {
			p.any = true
			continue
		}
		p.origins[strings.ToLower(o)] = o
	}
	if p.methods == "" {
		p.methods = "GET, HEAD, PUT, POST, DELETE"
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or ""
// when origin is rejected.
func (p corsPolicy) allowOrigin(origin string) string {
	if p.any {
		if p.credentials {
			return origin
		}
		return "*"
	}
	return p.origins[strings.ToLower(origin)]
}

// CORS returns a middleware that answers preflight requests and decorates
// cross-origin responses.
func CORS(cfg CORSConfig) Middleware {
	p := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if !p.any || p.credentials {
				h.Add("Vary", "Origin")
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			allow := p.allowOrigin(origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Headers")
				if allow != "" {
					h.Set("Access-Control-Allow-Origin", allow)
					h.Set("Access-Control-Allow-Methods", p.methods)
					if p.headers != "" {
						h.Set("Access-Control-Allow-Headers", p.headers)
					} else if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
						h.Set("Access-Control-Allow-Headers", req)
					}
					if p.credentials {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
					if p.maxAge != "" {
						h.Set("Access-Control-Max-Age", p.maxAge)
					}
				}
				h.Set("Content-Length", "0")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allow != "" {
				h.Set("Access-Control-Allow-Origin", allow)
				if p.credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
