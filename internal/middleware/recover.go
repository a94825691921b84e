package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/handlers"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Recover turns a panic in a handler into a 500 error envelope with kind
// InternalError, so clients always receive the usual response shape.
func Recover(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.ErrorContext(r.Context(), "panic recovered",
					"panic", rvr,
					"path", r.URL.Path,
					"request_id", chimiddleware.GetReqID(r.Context()),
					"stack", string(debug.Stack()),
				)
				if r.Header.Get("Connection") == "Upgrade" {
					return
				}
				handlers.WriteJSON(w, http.StatusInternalServerError, handlers.Envelope{
					Error: &handlers.APIError{Kind: handlers.KindInternal, Message: fmt.Sprint(rvr)},
				}, logger)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
