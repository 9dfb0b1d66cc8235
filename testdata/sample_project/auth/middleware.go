package auth

import (
	"crypto/subtle"
	"net/http"
	"os"
)

// RequireKey rejects requests whose X-Api-Key header does not match the
// SAMPLE_API_KEY environment variable.
func RequireKey(next http.Handler) http.Handler {
	want := []byte(os.Getenv("SAMPLE_API_KEY"))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("X-Api-Key"))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
