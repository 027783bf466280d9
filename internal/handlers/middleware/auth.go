package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/akitada/filedepot/internal/apperrors"
	"github.com/akitada/filedepot/internal/handlers/render"
	"github.com/akitada/filedepot/internal/handlers/tokenctx"
	"github.com/akitada/filedepot/internal/models"
)

type authService interface {
	// Resolve a presented token value to a live token
	// Empty value: apperrors.ErrInvalidRequest
	// Unknown, revoked or expired: apperrors.ErrTokenInvalid
	Authenticate(ctx context.Context, value string) (models.AccessToken, error)

	// Check the token covers the required scope
	// On deny: apperrors.ErrInsufficientScope
	Authorize(token models.AccessToken, required models.Scope) error
}

// RequireScope is the per-request authorization pipeline: extract the
// bearer credential, validate it, check the endpoint's scope, then run
// the handler with the token in the request context. It short-circuits
// on the first failure and holds no state between requests.
func RequireScope(as authService, scope models.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value, ok := bearerToken(r)
			if !ok {
				render.Problem(w, http.StatusBadRequest, "invalid_request")
				return
			}

			token, err := as.Authenticate(r.Context(), value)
			if err != nil {
				switch {
				case errors.Is(err, apperrors.ErrInvalidRequest):
					render.Problem(w, http.StatusBadRequest, "invalid_request")
				case errors.Is(err, apperrors.ErrTokenInvalid):
					render.Problem(w, http.StatusUnauthorized, "invalid_token")
				default:
					render.Problem(w, http.StatusInternalServerError, "")
				}
				return
			}

			if err := as.Authorize(token, scope); err != nil {
				render.ProblemScope(w, http.StatusForbidden, "insufficient_scope", string(scope))
				return
			}

			ctx := tokenctx.New(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken pulls a single bare credential out of the Authorization
// header. Only 'Bearer <value>' is accepted; a credential accompanied
// by auxiliary key=value options (RFC 7235 auth-params) is malformed
// here, not a different scheme.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	value := strings.TrimSpace(rest)
	if value == "" || strings.ContainsAny(value, " \t,\"") {
		return "", false
	}

	// '=' is only legal as base64 padding at the end of the value;
	// anywhere else it means an auth-param snuck in (e.g. token=xyz).
	if strings.Contains(strings.TrimRight(value, "="), "=") {
		return "", false
	}

	return value, true
}
