package repositories

import (
	"context"

	"github.com/google/uuid"

	"docchat/internal/domain/models"
)

// ThreadRepository defines data access for conversation threads.
type ThreadRepository interface {
	// Create inserts a new thread and fills in its generated id.
	Create(ctx context.Context, thread *models.Thread) error

	// GetByID retrieves a thread scoped to its owner.
	// Returns domain.ErrNotFound if missing or owned by someone else.
	GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*models.Thread, error)

	// List retrieves all threads owned by a user, newest first.
	List(ctx context.Context, ownerID string) ([]models.Thread, error)

	// Rename updates a thread's name.
	// Returns domain.ErrNotFound if missing or not owned.
	Rename(ctx context.Context, id uuid.UUID, ownerID, name string) error

	// Delete removes a thread and, via cascade, its messages.
	// Returns domain.ErrNotFound if missing or not owned.
	Delete(ctx context.Context, id uuid.UUID, ownerID string) error
}
