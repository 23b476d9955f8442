package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"imagination-site-api/pkg/apierror"
)

// Recovery is a middleware that recovers from panics.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Printf("PANIC [%s] %s %s: %v\n%s", GetRequestID(r.Context()), r.Method, r.URL.Path, err, debug.Stack())
				writeError(w, r, apierror.InternalError("internal server error"))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
