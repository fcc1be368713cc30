package web

import (
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/banboard/internal/logging"
)

// requestLogger stores base in each request context so that handlers and the
// gateway log through the server's logger with the request id attached.
func requestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.WithLogger(r.Context(), base)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// loggerFor returns the request-scoped logger.
func loggerFor(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context())
}
