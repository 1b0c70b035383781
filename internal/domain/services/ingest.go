package services

import (
	"context"

	"docchat/internal/domain/models"
)

// IngestRequest carries one document upload.
type IngestRequest struct {
	OwnerID  string `json:"-"`
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

// IngestService runs the upload pipeline: store the raw file, split it into
// chunks, embed all chunks in one batched call, and persist the document
// with its chunks atomically.
type IngestService interface {
	Ingest(ctx context.Context, req *IngestRequest) (*models.Document, error)
}

// DocumentService covers the read/delete side of uploaded documents.
type DocumentService interface {
	List(ctx context.Context, ownerID string) ([]models.Document, error)

	// Delete removes a document, cascading to its chunks and any source
	// links pointing at them. The stored object is not scrubbed.
	Delete(ctx context.Context, id string, ownerID string) error
}
