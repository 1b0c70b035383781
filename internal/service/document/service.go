package document

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"docchat/internal/domain"
	"docchat/internal/domain/models"
	"docchat/internal/domain/repositories"
	"docchat/internal/domain/services"
)

// Service implements DocumentService (list and delete around ingest).
type Service struct {
	docRepo repositories.DocumentRepository
	logger  *slog.Logger
}

func NewService(docRepo repositories.DocumentRepository, logger *slog.Logger) services.DocumentService {
	return &Service{docRepo: docRepo, logger: logger}
}

func (s *Service) List(ctx context.Context, ownerID string) ([]models.Document, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("listing documents requires an authenticated user: %w", domain.ErrUnauthorized)
	}
	return s.docRepo.List(ctx, ownerID)
}

// Delete removes the document row; chunks and source links cascade in the
// database. The raw file in object storage is left behind.
func (s *Service) Delete(ctx context.Context, id string, ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("deleting documents requires an authenticated user: %w", domain.ErrUnauthorized)
	}
	docID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid document id %q", domain.ErrValidation, id)
	}

	if err := s.docRepo.Delete(ctx, docID, ownerID); err != nil {
		return err
	}

	s.logger.Info("document deleted", "id", docID, "owner_id", ownerID)
	return nil
}
