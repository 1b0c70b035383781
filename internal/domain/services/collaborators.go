package services

import (
	"context"

	"docchat/internal/domain/models"
)

// ObjectStore persists raw uploaded files and returns a durable URL.
// Deleting stored objects is not part of this interface: document deletion
// removes store rows only and leaves the uploaded file behind.
type ObjectStore interface {
	Store(ctx context.Context, data []byte, filename string) (url string, err error)
}

// VectorIndex is the nearest-neighbor search primitive over the global
// chunk index. TopK ranks globally by similarity and takes no scope
// parameter; scoping is applied by the retriever after the call.
type VectorIndex interface {
	TopK(ctx context.Context, vector []float32, k int) ([]models.Chunk, error)
}
