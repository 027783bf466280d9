package item

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/akitada/filedepot/internal/models"
	"github.com/akitada/filedepot/internal/repository"
)

// ValidationError reports upload parameters that failed model rules,
// field by field, so handlers can echo them back.
type ValidationError struct {
	Fields []FieldError
}

type FieldError struct {
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Name)
	}
	return "invalid item: " + strings.Join(names, ", ")
}

type Service struct {
	items repository.ItemRepo
}

func NewService(items repository.ItemRepo) *Service {
	return &Service{items: items}
}

type UploadParams struct {
	Name        string
	Description string
	Filename    string
	Content     []byte
}

// Create stores a new file for the user. A blank name falls back to
// the uploaded filename.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, params UploadParams) (models.Item, error) {
	if params.Name == "" {
		params.Name = params.Filename
	}

	if err := validate(params); err != nil {
		return models.Item{}, err
	}

	item := models.Item{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        params.Name,
		Description: params.Description,
		Filename:    params.Filename,
		Content:     params.Content,
		ByteSize:    int64(len(params.Content)),
	}

	created, err := s.items.Create(ctx, item)
	if err != nil {
		return models.Item{}, fmt.Errorf("create item: %w", err)
	}

	return created, nil
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Item, error) {
	return s.items.GetByID(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, opts repository.ListItemsOptions) ([]models.Item, error) {
	return s.items.List(ctx, userID, opts)
}

// Update replaces metadata and, when new content is supplied, the
// stored file. Unset params keep their current value.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, params UploadParams) (models.Item, error) {
	current, err := s.items.GetByID(ctx, userID, id)
	if err != nil {
		return models.Item{}, err
	}

	if params.Name != "" {
		current.Name = params.Name
	}
	if params.Description != "" {
		current.Description = params.Description
	}
	if params.Content != nil {
		current.Filename = params.Filename
		current.Content = params.Content
		current.ByteSize = int64(len(params.Content))
	}

	if err := validate(UploadParams{
		Name:        current.Name,
		Description: current.Description,
		Filename:    current.Filename,
		Content:     current.Content,
	}); err != nil {
		return models.Item{}, err
	}

	updated, err := s.items.Update(ctx, current)
	if err != nil {
		return models.Item{}, fmt.Errorf("update item: %w", err)
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	return s.items.Delete(ctx, userID, id)
}

func validate(params UploadParams) error {
	var fields []FieldError

	switch {
	case params.Name == "":
		fields = append(fields, FieldError{Name: "name", Reason: "can't be blank"})
	case len(params.Name) > models.MaxItemNameLength:
		fields = append(fields, FieldError{Name: "name", Reason: fmt.Sprintf("is too long (maximum is %d characters)", models.MaxItemNameLength)})
	}

	if len(params.Description) > models.MaxItemDescriptionLength {
		fields = append(fields, FieldError{Name: "description", Reason: fmt.Sprintf("is too long (maximum is %d characters)", models.MaxItemDescriptionLength)})
	}

	// A present-but-empty upload is fine; only a missing part fails.
	switch {
	case params.Content == nil:
		fields = append(fields, FieldError{Name: "file", Reason: "must be attached"})
	case len(params.Content) > models.MaxItemFileSize:
		fields = append(fields, FieldError{Name: "file", Reason: "is too large (maximum is 1 MiB)"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
