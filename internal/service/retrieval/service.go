package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"docchat/internal/domain/models"
	"docchat/internal/domain/services"
)

// Service implements the Retriever interface on top of the nearest-neighbor
// index.
//
// Scoping is applied AFTER the top-k search: the index is asked for the k
// globally closest chunks and the result is filtered down to the allowed
// documents. When the k nearest chunks all belong to excluded documents the
// caller legitimately gets fewer than k (possibly zero) results even though
// in-scope documents hold relevant content. Pre-filtering would fix that at
// the cost of scanning instead of using the index; the post-filter policy is
// kept on purpose and callers must treat zero results as a value.
type Service struct {
	index  services.VectorIndex
	k      int
	logger *slog.Logger
}

// NewService creates a retriever over the given index. k is fixed per
// deployment.
func NewService(index services.VectorIndex, k int, logger *slog.Logger) *Service {
	return &Service{
		index:  index,
		k:      k,
		logger: logger,
	}
}

// Retrieve returns the in-scope chunks among the k globally nearest to
// vector. Zero results is not an error.
func (s *Service) Retrieve(ctx context.Context, vector []float32, allowedDocumentIDs []uuid.UUID) ([]models.Chunk, error) {
	hits, err := s.index.TopK(ctx, vector, s.k)
	if err != nil {
		return nil, fmt.Errorf("vector index top-k: %w", err)
	}

	allowed := make(map[uuid.UUID]struct{}, len(allowedDocumentIDs))
	for _, id := range allowedDocumentIDs {
		allowed[id] = struct{}{}
	}

	scoped := make([]models.Chunk, 0, len(hits))
	for _, chunk := range hits {
		if _, ok := allowed[chunk.DocumentID]; ok {
			scoped = append(scoped, chunk)
		}
	}

	s.logger.Debug("retrieval complete",
		"global_hits", len(hits),
		"in_scope", len(scoped),
		"k", s.k,
	)

	return scoped, nil
}
