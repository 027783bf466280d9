package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/akitada/filedepot/internal/apperrors"
	"github.com/akitada/filedepot/internal/handlers/render"
	"github.com/akitada/filedepot/internal/logger"
	"github.com/akitada/filedepot/internal/models"
)

type userService interface {
	// Create a user with a hashed password
	// Duplicate email: apperrors.ErrUserAlreadyExists
	Register(ctx context.Context, name string, email string, password string) (models.User, error)

	// Resolve email+password to a user
	// Bad credentials: apperrors.ErrUserNotFound
	Authenticate(ctx context.Context, email string, password string) (models.User, error)
}

type UserHandler struct {
	users  userService
	logger logger.Logger
}

func NewUser(users userService, l logger.Logger) *UserHandler {
	return &UserHandler{users: users, logger: l}
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	type registerRequest struct {
		Name     string `json:"name" validate:"required,max=64"`
		Email    string `json:"email" validate:"required,email,max=128"`
		Password string `json:"password" validate:"required,min=16,max=128"`
	}

	data, err := render.BindAndValidate[registerRequest](w, r)
	if err != nil {
		return
	}

	user, err := h.users.Register(r.Context(), data.Name, data.Email, data.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserAlreadyExists) {
			render.ProblemFields(w, http.StatusUnprocessableEntity, []render.FieldError{
				{Name: "email", Reason: "has already been taken"},
			})
			return
		}
		h.logger.Error("user registration failed", "error", err.Error())
		render.Problem(w, http.StatusInternalServerError, "")
		return
	}

	render.JSONWithStatus(w, userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}, http.StatusCreated)
}
