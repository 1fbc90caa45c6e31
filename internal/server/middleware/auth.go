package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// Auth guards the API with a shared key. Callers present it as a Bearer
// token or in X-API-Key. An empty apiKey disables the check, and paths in
// public plus CORS preflights always pass.
func Auth(apiKey string, public ...string) func(http.Handler) http.Handler {
	open := make(map[string]struct{}, len(public))
	for _, p := range public {
		open[p] = struct{}{}
	}
	want := []byte(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, isPublic := open[r.URL.Path]
			if apiKey == "" || isPublic || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			got := presentedKey(r)
			switch {
			case got == "":
				writeError(w, http.StatusUnauthorized, "missing API key", "unauthorized")
			case subtle.ConstantTimeCompare([]byte(got), want) != 1:
				writeError(w, http.StatusUnauthorized, "invalid API key", "unauthorized")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func presentedKey(r *http.Request) string {
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// writeError sends the API's {error, category} body.
func writeError(w http.ResponseWriter, status int, msg, category string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "category": category})
}
