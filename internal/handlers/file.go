package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/akitada/filedepot/internal/apperrors"
	"github.com/akitada/filedepot/internal/handlers/render"
	"github.com/akitada/filedepot/internal/logger"
	"github.com/akitada/filedepot/internal/models"
	"github.com/akitada/filedepot/internal/repository"
	"github.com/akitada/filedepot/internal/service/item"
)

// Memory budget for multipart parsing; bigger uploads spill to disk
// before the size limit check rejects them.
const maxUploadMemory = 4 << 20

type fileService interface {
	Create(ctx context.Context, userID uuid.UUID, params item.UploadParams) (models.Item, error)
	Get(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Item, error)
	List(ctx context.Context, userID uuid.UUID, opts repository.ListItemsOptions) ([]models.Item, error)
	Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, params item.UploadParams) (models.Item, error)
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
}

type FileHandler struct {
	files  fileService
	logger logger.Logger
}

func NewFile(files fileService, l logger.Logger) *FileHandler {
	return &FileHandler{files: files, logger: l}
}

type fileResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toFileResponse(i models.Item) fileResponse {
	return fileResponse{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Size:        i.ByteSize,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func (h *FileHandler) list(w http.ResponseWriter, r *http.Request) {
	type listResponse struct {
		Files []fileResponse `json:"files"`
	}

	token := mustToken(r.Context())

	items, err := h.files.List(r.Context(), token.UserID, listOptions(r))
	if err != nil {
		h.logger.Error("file listing failed", "error", err.Error())
		render.Problem(w, http.StatusInternalServerError, "")
		return
	}

	files := make([]fileResponse, 0, len(items))
	for _, i := range items {
		files = append(files, toFileResponse(i))
	}

	render.JSON(w, listResponse{Files: files})
}

func (h *FileHandler) show(w http.ResponseWriter, r *http.Request) {
	token := mustToken(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.Problem(w, http.StatusNotFound, "")
		return
	}

	found, err := h.files.Get(r.Context(), token.UserID, id)
	if err != nil {
		h.renderItemError(w, err)
		return
	}

	render.JSON(w, toFileResponse(found))
}

func (h *FileHandler) create(w http.ResponseWriter, r *http.Request) {
	token := mustToken(r.Context())

	params, err := uploadParams(r)
	if err != nil {
		render.ProblemFields(w, http.StatusUnprocessableEntity, []render.FieldError{
			{Name: "file", Reason: err.Error()},
		})
		return
	}

	created, err := h.files.Create(r.Context(), token.UserID, params)
	if err != nil {
		h.renderItemError(w, err)
		return
	}

	render.JSONWithStatus(w, toFileResponse(created), http.StatusCreated)
}

func (h *FileHandler) update(w http.ResponseWriter, r *http.Request) {
	token := mustToken(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.Problem(w, http.StatusNotFound, "")
		return
	}

	params, err := uploadParams(r)
	if err != nil {
		render.ProblemFields(w, http.StatusUnprocessableEntity, []render.FieldError{
			{Name: "file", Reason: err.Error()},
		})
		return
	}

	updated, err := h.files.Update(r.Context(), token.UserID, id, params)
	if err != nil {
		h.renderItemError(w, err)
		return
	}

	render.JSON(w, toFileResponse(updated))
}

func (h *FileHandler) delete(w http.ResponseWriter, r *http.Request) {
	token := mustToken(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.Problem(w, http.StatusNotFound, "")
		return
	}

	if err := h.files.Delete(r.Context(), token.UserID, id); err != nil {
		h.renderItemError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FileHandler) renderItemError(w http.ResponseWriter, err error) {
	var validationErr *item.ValidationError

	switch {
	case errors.Is(err, apperrors.ErrItemNotFound):
		render.Problem(w, http.StatusNotFound, "")
	case errors.Is(err, apperrors.ErrItemNameTaken):
		render.ProblemFields(w, http.StatusUnprocessableEntity, []render.FieldError{
			{Name: "name", Reason: "has already been taken"},
		})
	case errors.As(err, &validationErr):
		fields := make([]render.FieldError, 0, len(validationErr.Fields))
		for _, f := range validationErr.Fields {
			fields = append(fields, render.FieldError{Name: f.Name, Reason: f.Reason})
		}
		render.ProblemFields(w, http.StatusUnprocessableEntity, fields)
	default:
		h.logger.Error("file operation failed", "error", err.Error())
		render.Problem(w, http.StatusInternalServerError, "")
	}
}

// uploadParams reads name/description/file out of a multipart form.
// A missing file part leaves Content nil (meaningful for updates);
// plain form bodies are accepted for metadata-only updates.
func uploadParams(r *http.Request) (item.UploadParams, error) {
	var params item.UploadParams

	err := r.ParseMultipartForm(maxUploadMemory)
	switch {
	case errors.Is(err, http.ErrNotMultipart):
		if err := r.ParseForm(); err != nil {
			return params, errors.New("request body is malformed")
		}
	case err != nil:
		return params, errors.New("multipart body is malformed")
	}

	params.Name = r.PostFormValue("name")
	params.Description = r.PostFormValue("description")

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return params, nil
	case err != nil:
		return params, errors.New("file part is malformed")
	}
	defer func() { _ = file.Close() }()

	// Read one byte past the cap so the service can tell 'at limit'
	// from 'over limit'.
	content, err := io.ReadAll(io.LimitReader(file, models.MaxItemFileSize+1))
	if err != nil {
		return params, errors.New("file part could not be read")
	}

	params.Filename = header.Filename
	params.Content = content
	return params, nil
}
