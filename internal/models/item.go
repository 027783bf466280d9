package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is a user-owned uploaded file. Content lives in the database
// next to the metadata; uploads are capped at MaxItemFileSize.
type Item struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description string
	Filename    string
	Content     []byte
	ByteSize    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	MaxItemNameLength        = 128
	MaxItemDescriptionLength = 1024
	MaxItemFileSize          = 1 << 20 // 1 MiB
)
