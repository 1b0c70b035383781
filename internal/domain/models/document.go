package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded file owned by a single user. Documents are
// immutable once created; re-uploading produces a new Document.
type Document struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	SourceURL string    `json:"source_url" db:"source_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
