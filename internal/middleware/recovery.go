// File: internal/middleware/recovery.go
package middleware

import (
	"log"
	"net/http"
	"runtime/debug"
)

// RecoverPanic converts a handler panic into a 500 response. The log
// line carries the request ID and route so the failing request can be
// traced from the client's X-Request-ID.
func RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[PANIC] %s %s (ID: %s): %v\n%s",
					r.Method, r.URL.Path, requestIDFrom(r), err, debug.Stack())
				w.Header().Set("Connection", "close")
				http.Error(w, "Something went wrong on our end.", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
