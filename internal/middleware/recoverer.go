// AngelaMos | 2026
// recoverer.go

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
)

// Recoverer converts a handler panic into the JSON 500 envelope.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					"panic", fmt.Sprint(rec),
					"request_id", GetRequestID(r.Context()),
					"stack", string(debug.Stack()),
				)
				core.Fail(w, http.StatusInternalServerError, core.MsgInternal)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
