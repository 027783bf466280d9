package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/akitada/filedepot/internal/apperrors"
	"github.com/akitada/filedepot/internal/handlers/render"
	"github.com/akitada/filedepot/internal/logger"
	"github.com/akitada/filedepot/internal/models"
	"github.com/akitada/filedepot/internal/service/auth"
)

type authService interface {
	// Issue a token for the user; the only path that creates tokens
	Issue(ctx context.Context, userID uuid.UUID, opts auth.IssueOptions) (models.AccessToken, error)

	// Resolve a presented value to a live token
	Authenticate(ctx context.Context, value string) (models.AccessToken, error)

	// Check the token covers the required scope
	Authorize(token models.AccessToken, required models.Scope) error

	// Revoke the token with the given value, idempotently
	// Unknown value: apperrors.ErrTokenNotFound
	Revoke(ctx context.Context, value string) error
}

// AuthHandler owns the password-grant issuance and revocation endpoints
type AuthHandler struct {
	auth   authService
	users  userService
	logger logger.Logger
}

func NewAuth(auth authService, users userService, l logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, logger: l}
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// signin implements the OAuth 2.0 resource owner password credentials
// grant (form-encoded). Parameter presence is checked before values:
// a missing grant_type is invalid_request even with bad credentials.
func (h *AuthHandler) signin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render.Problem(w, http.StatusBadRequest, "invalid_request")
		return
	}

	for _, required := range []string{"grant_type", "username", "password"} {
		if !r.PostForm.Has(required) {
			render.Problem(w, http.StatusBadRequest, "invalid_request")
			return
		}
	}

	if r.PostForm.Get("grant_type") != "password" {
		render.Problem(w, http.StatusBadRequest, "unsupported_grant_type")
		return
	}

	user, err := h.users.Authenticate(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			render.Problem(w, http.StatusBadRequest, "invalid_grant")
			return
		}
		h.logger.Error("credential check failed", "error", err.Error())
		render.Problem(w, http.StatusInternalServerError, "")
		return
	}

	opts := auth.IssueOptions{Scope: r.PostForm.Get("scope")}
	if r.PostForm.Has("expires_in") {
		expiresIn, err := strconv.Atoi(r.PostForm.Get("expires_in"))
		if err != nil {
			render.Problem(w, http.StatusBadRequest, "invalid_request")
			return
		}
		opts.ExpiresIn = &expiresIn
	}

	token, err := h.auth.Issue(r.Context(), user.ID, opts)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrScopeInvalid):
			render.Problem(w, http.StatusBadRequest, "invalid_scope")
		case errors.Is(err, apperrors.ErrExpiresInInvalid):
			render.Problem(w, http.StatusBadRequest, "invalid_request")
		default:
			h.logger.Error("token issuance failed", "error", err.Error())
			render.Problem(w, http.StatusInternalServerError, "")
		}
		return
	}

	// The body carries a secret, forbid caching on any path
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	render.JSON(w, accessTokenResponse{
		AccessToken: token.Token,
		TokenType:   "bearer",
		ExpiresIn:   token.ExpiresIn,
		Scope:       token.Scope,
	})
}

// signout revokes the token named by the 'token' form param. Knowing
// the value suffices; the call is not authenticated by the token
// itself. Revoking an already revoked token succeeds and changes
// nothing.
func (h *AuthHandler) signout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render.Problem(w, http.StatusBadRequest, "invalid_request")
		return
	}

	err := h.auth.Revoke(r.Context(), r.PostForm.Get("token"))
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenNotFound) {
			render.Problem(w, http.StatusBadRequest, "invalid_request")
			return
		}
		h.logger.Error("token revocation failed", "error", err.Error())
		render.Problem(w, http.StatusInternalServerError, "")
		return
	}

	w.WriteHeader(http.StatusOK)
}
