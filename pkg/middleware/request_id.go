package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/synthetica/platform/pkg/requestid"
)

// RequestID takes the request ID from the x-request-id header, or from chi's
// own middleware if it already generated one, or mints a new UUID, and injects
// it into the request context so every layer below can tag logs and responses
// with it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("x-request-id")

		if requestID == "" {
			requestID = middleware.GetReqID(r.Context())
		}

		if requestID == "" {
			requestID = requestid.Generate()
		}

		ctx := requestid.ToContext(r.Context(), requestID)
		r = r.WithContext(ctx)

		next.ServeHTTP(w, r)
	})
}
