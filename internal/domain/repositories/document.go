package repositories

import (
	"context"

	"github.com/google/uuid"

	"docchat/internal/domain/models"
)

// DocumentRepository defines data access for uploaded documents.
type DocumentRepository interface {
	// Create inserts a new document and fills in its generated id.
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document scoped to its owner.
	// Returns domain.ErrNotFound if missing or owned by someone else.
	GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*models.Document, error)

	// List retrieves all documents owned by a user, newest first.
	// Returns an empty slice when the user has no documents.
	List(ctx context.Context, ownerID string) ([]models.Document, error)

	// Delete removes a document; chunks and their source links go with it
	// via cascade. Returns domain.ErrNotFound if missing or not owned.
	Delete(ctx context.Context, id uuid.UUID, ownerID string) error
}

// ChunkRepository defines data access for document chunks.
type ChunkRepository interface {
	// CreateBatch inserts all chunks of a document in one batch, filling in
	// generated ids. Callers run this inside the same transaction as the
	// document insert so a failed chunk write rolls the document back.
	CreateBatch(ctx context.Context, chunks []*models.Chunk) error

	// GetByIDs retrieves chunks by id, in no particular order.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Chunk, error)

	// CountByDocument reports how many chunks a document has.
	CountByDocument(ctx context.Context, documentID uuid.UUID) (int, error)
}
