package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docchat/internal/config"
	"docchat/internal/domain"
	"docchat/internal/domain/models"
	"docchat/internal/domain/repositories"
	"docchat/internal/domain/services"
)

// Service implements the IngestService interface: store the raw file, split
// it, embed every chunk in one batched call, then persist the document and
// its chunks in a single transaction.
//
// The embedding call happens outside the transaction; no lock is held
// across the slow network call. If embedding or chunk persistence fails the
// document row is rolled back with everything else, never left silently
// referencing zero chunks.
type Service struct {
	docRepo   repositories.DocumentRepository
	chunkRepo repositories.ChunkRepository
	txManager repositories.TransactionManager
	chunker   services.Chunker
	embedder  services.Embedder
	store     services.ObjectStore
	logger    *slog.Logger
}

// NewService creates the ingest pipeline.
func NewService(
	docRepo repositories.DocumentRepository,
	chunkRepo repositories.ChunkRepository,
	txManager repositories.TransactionManager,
	chunker services.Chunker,
	embedder services.Embedder,
	store services.ObjectStore,
	logger *slog.Logger,
) services.IngestService {
	return &Service{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		txManager: txManager,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		logger:    logger,
	}
}

// Ingest runs the upload pipeline for one document.
func (s *Service) Ingest(ctx context.Context, req *services.IngestRequest) (*models.Document, error) {
	if req.OwnerID == "" {
		return nil, fmt.Errorf("ingest requires an authenticated user: %w", domain.ErrUnauthorized)
	}
	if err := s.validateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	url, err := s.store.Store(ctx, []byte(req.Content), req.FileName)
	if err != nil {
		return nil, fmt.Errorf("store raw file: %w", err)
	}

	segments := s.chunker.Split(req.Content)

	// One batched request for all chunk contents; the response is
	// order-preserving, so embeddings[i] belongs to segments[i].
	var embeddings [][]float32
	if len(segments) > 0 {
		texts := make([]string, len(segments))
		for i, seg := range segments {
			texts[i] = seg.Content
		}
		embeddings, err = s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
		}
		if len(embeddings) != len(segments) {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d chunks",
				domain.ErrEmbedding, len(embeddings), len(segments))
		}
	}

	doc := &models.Document{
		OwnerID:   req.OwnerID,
		Name:      req.FileName,
		SourceURL: url,
		CreatedAt: time.Now(),
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if len(segments) == 0 {
			return nil
		}

		chunks := make([]*models.Chunk, len(segments))
		for i, seg := range segments {
			chunks[i] = &models.Chunk{
				DocumentID: doc.ID,
				Content:    seg.Content,
				Embedding:  embeddings[i],
				Position: models.PositionMetadata{
					Name:     req.FileName,
					LineFrom: seg.LineFrom,
					LineTo:   seg.LineTo,
				},
			}
		}
		if err := s.chunkRepo.CreateBatch(txCtx, chunks); err != nil {
			return fmt.Errorf("create chunks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	s.logger.Info("document ingested",
		"id", doc.ID,
		"name", doc.Name,
		"owner_id", doc.OwnerID,
		"chunks", len(segments),
	)

	return doc, nil
}

func (s *Service) validateRequest(req *services.IngestRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.FileName,
			validation.Required,
			validation.Length(1, config.MaxDocumentNameLength),
		),
		validation.Field(&req.Content,
			validation.Length(0, config.MaxDocumentBytes),
		),
	)
}
