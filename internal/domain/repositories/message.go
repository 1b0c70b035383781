package repositories

import (
	"context"

	"github.com/google/uuid"

	"docchat/internal/domain/models"
)

// MessageRepository defines data access for thread messages and their
// source links.
type MessageRepository interface {
	// Create inserts a message and fills in its generated id.
	Create(ctx context.Context, msg *models.Message) error

	// ListByThread retrieves every message in a thread ordered by creation
	// time, ties broken by id so the order is deterministic.
	ListByThread(ctx context.Context, threadID uuid.UUID) ([]models.Message, error)

	// ListByThreadWithSources retrieves the ordered messages of a thread
	// with each assistant message's citations resolved through its source
	// links to the owning chunk and document. Every message appears exactly
	// once regardless of how many sources it has.
	ListByThreadWithSources(ctx context.Context, threadID uuid.UUID) ([]models.MessageWithSources, error)

	// CreateSources links an assistant message to the chunks that grounded
	// it. Callers run this inside the same transaction as the message
	// insert; an assistant message must never be committed without its
	// source links having been attempted.
	CreateSources(ctx context.Context, messageID uuid.UUID, chunkIDs []uuid.UUID) error
}
