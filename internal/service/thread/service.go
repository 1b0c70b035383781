package thread

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"docchat/internal/config"
	"docchat/internal/domain"
	"docchat/internal/domain/models"
	"docchat/internal/domain/repositories"
	"docchat/internal/domain/services"
)

// Service implements ThreadService: the CRUD surface around conversation
// threads. Thread creation itself happens inside the answer pipeline.
type Service struct {
	threadRepo repositories.ThreadRepository
	logger     *slog.Logger
}

func NewService(threadRepo repositories.ThreadRepository, logger *slog.Logger) services.ThreadService {
	return &Service{threadRepo: threadRepo, logger: logger}
}

func (s *Service) List(ctx context.Context, ownerID string) ([]models.Thread, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("listing threads requires an authenticated user: %w", domain.ErrUnauthorized)
	}
	return s.threadRepo.List(ctx, ownerID)
}

func (s *Service) Rename(ctx context.Context, id uuid.UUID, ownerID, name string) error {
	if ownerID == "" {
		return fmt.Errorf("renaming threads requires an authenticated user: %w", domain.ErrUnauthorized)
	}
	name = strings.TrimSpace(name)
	if err := validation.Validate(name,
		validation.Required,
		validation.Length(1, config.MaxThreadNameLength),
	); err != nil {
		return fmt.Errorf("%w: thread name: %v", domain.ErrValidation, err)
	}

	if err := s.threadRepo.Rename(ctx, id, ownerID, name); err != nil {
		return err
	}

	s.logger.Info("thread renamed", "id", id, "owner_id", ownerID)
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("deleting threads requires an authenticated user: %w", domain.ErrUnauthorized)
	}
	if err := s.threadRepo.Delete(ctx, id, ownerID); err != nil {
		return err
	}

	s.logger.Info("thread deleted", "id", id, "owner_id", ownerID)
	return nil
}
