package httptransport

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"realmgate/pkg/requestcontext"
)

// requestContext stamps every request with an ID and arrival time, echoing
// the ID back so callers can correlate logs.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())

		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
