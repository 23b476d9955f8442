package middleware

import (
	"crypto/subtle"
	"net/http"

	"imagination-site-api/pkg/apierror"
)

// AdminKeyHeader carries the operator key on admin requests.
const AdminKeyHeader = "X-Admin-Key"

// AdminKey guards admin routes with a shared key. An empty key disables the
// routes entirely: they answer 404 as if they did not exist.
func AdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				writeError(w, r, apierror.NotFound(""))
				return
			}

			given := r.Header.Get(AdminKeyHeader)
			if given == "" {
				writeError(w, r, apierror.Unauthorized("Admin key required. Use the X-Admin-Key header."))
				return
			}
			if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
				writeError(w, r, apierror.Unauthorized("Invalid admin key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an API error tagged with the request ID.
func writeError(w http.ResponseWriter, r *http.Request, err *apierror.Error) {
	if id := GetRequestID(r.Context()); id != "" {
		err = err.WithRequestID(id)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}
