package kit

import (
	"fmt"
	"net/http"
)

const VersionHeader = "X-API-Version"

// APIVersion rejects requests whose X-API-Version header is missing (400)
// or does not match the expected version (426).
func APIVersion(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := r.Header.Get(VersionHeader)
			if v == "" {
				WriteError(w, r, http.StatusBadRequest, "Missing X-API-Version header", nil)
				return
			}
			if v != expected {
				msg := fmt.Sprintf("Unsupported API version %s. Expected %s", v, expected)
				WriteError(w, r, http.StatusUpgradeRequired, msg, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
