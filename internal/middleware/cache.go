package middleware

import "net/http"

// NoStore keeps per-user clinical data out of shared caches. Responses vary
// on the bearer token, so an intermediary that ignores no-store still
// cannot serve one user's scores to another.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-store, private, max-age=0")
		h.Add("Vary", "Authorization")
		h.Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}
