package cors

import (
	"net/http"

	"go.acuvity.ai/bahamut"
)

// Middleware returns a middleware applying Handle
// with the given policy before calling the next handler.
func Middleware(policy *bahamut.CORSPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !Handle(w, req, policy) {
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// Handle sets the security headers and the CORS headers from the
// given policy. It returns false when the request is a preflight
// that has been fully answered.
func Handle(w http.ResponseWriter, req *http.Request, policy *bahamut.CORSPolicy) bool {

	if req.TLS != nil {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if policy == nil {
		return true
	}

	origin := req.Header.Get("Origin")

	if req.Method == http.MethodOptions {
		policy.Inject(w.Header(), origin, true)
		w.WriteHeader(http.StatusNoContent)
		return false
	}

	policy.Inject(w.Header(), origin, false)

	return true
}
