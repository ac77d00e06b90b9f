// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
)

const IdentityKey contextKey = "identity"

// IdentityResolver turns a bearer token into the caller it belongs to.
type IdentityResolver interface {
	Authenticate(ctx context.Context, token string) (*core.Identity, error)
}

// Authenticator rejects requests without a valid bearer token and stores
// the resolved identity in the request context.
func Authenticator(
	resolver IdentityResolver,
	logger *slog.Logger,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.Unauthorized(w, core.MsgUnauthorized)
				return
			}

			identity, err := resolver.Authenticate(r.Context(), token)
			if err != nil {
				handleAuthError(w, r, logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole must run after Authenticator.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := core.Authorize(GetIdentity(r.Context()), roles...)

			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, core.ErrForbidden):
				core.Forbidden(w, "")
			default:
				core.Unauthorized(w, "")
			}
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(core.RoleAdmin)(next)
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// handleAuthError keeps the failure class in the log and out of the body.
func handleAuthError(
	w http.ResponseWriter,
	r *http.Request,
	logger *slog.Logger,
	err error,
) {
	switch {
	case errors.Is(err, core.ErrServiceUnavailable):
		core.InternalServerError(w, err)
	case core.IsTokenError(err), errors.Is(err, core.ErrUnauthorized):
		logger.Debug("authentication rejected",
			"kind", core.TokenErrorKind(err),
			"error", err,
			"request_id", GetRequestID(r.Context()),
		)
		core.Unauthorized(w, core.MsgTokenInvalid)
	default:
		core.InternalServerError(w, err)
	}
}

func WithIdentity(ctx context.Context, identity *core.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func GetIdentity(ctx context.Context) *core.Identity {
	if identity, ok := ctx.Value(IdentityKey).(*core.Identity); ok {
		return identity
	}
	return nil
}
