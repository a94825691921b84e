package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/handlers"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Timeout cancels the request context after timeout. When the deadline
// passes and the handler has not written a response, the client gets a 504
// error envelope with kind InternalError.
func Timeout(timeout time.Duration, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			if !errors.Is(ctx.Err(), context.DeadlineExceeded) || ww.Status() != 0 {
				return
			}
			logger.WarnContext(r.Context(), "request timed out",
				"path", r.URL.Path,
				"timeout", timeout.String(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
			handlers.WriteJSON(w, http.StatusGatewayTimeout, handlers.Envelope{
				Error: &handlers.APIError{Kind: handlers.KindInternal, Message: "request timed out after " + timeout.String()},
			}, logger)
		})
	}
}
