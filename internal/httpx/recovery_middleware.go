package httpx

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
)

// RecoveryMiddleware converts panics into structured 500 responses. When
// Sentry is initialized the panic is reported with its stack.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				sentry.WithScope(func(scope *sentry.Scope) {
					scope.SetExtra("panic", rec)
					scope.SetExtra("stack", string(debug.Stack()))
					scope.SetTag("request_id", RequestIDFrom(r))
					sentry.CaptureMessage("panic in request")
				})

				log.Printf("panic recovered: request_id=%s path=%s error=%v", RequestIDFrom(r), r.URL.Path, rec)

				var wroteHeader bool
				if rw, ok := w.(*responseWriter); ok {
					wroteHeader = rw.wroteHeader()
				}
				if !wroteHeader {
					JSONError(w, http.StatusInternalServerError, "An internal error occurred")
				}
			}
		}()
		next.ServeHTTP(w, r)
	})
}
