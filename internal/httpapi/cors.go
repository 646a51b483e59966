package httpapi

import (
	"net/http"

	"github.com/go-chi/cors"
)

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	defaultCORSHeaders = []string{"Accept", "Content-Type", "X-Request-Id", "X-Log-Level"}
)

// corsMiddleware returns the configured CORS handler, or nil when CORS is off.
func corsMiddleware() func(http.Handler) http.Handler {
	if !corsEnabled {
		return nil
	}
	origins := corsAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := corsAllowedMethods
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	headers := corsAllowedHeaders
	if len(headers) == 0 {
		headers = defaultCORSHeaders
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: methods,
		AllowedHeaders: headers,
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
}
