package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"docchat/internal/config"
	"docchat/internal/domain"
	"docchat/internal/domain/models"
	"docchat/internal/domain/repositories"
	"docchat/internal/domain/services"
)

// systemPrompt is the fixed instruction prepended to every generator call.
// It is never persisted.
const systemPrompt = "You are a conversational assistant that answers questions " +
	"about the user's uploaded documents. Each question comes with sources; a " +
	"source is a part of a document. Read the sources in detail and ground your " +
	"answer in them. If you don't find the answer in the sources, say that you " +
	"don't know. Use three sentences maximum and keep the answer concise."

// Service implements the AnswerService interface: the retrieval-augmented
// answer pipeline and the conversation read path.
//
// The pipeline is fail-closed: when retrieval yields zero in-scope chunks no
// message is persisted and no answer is generated. A failure after the user
// message is written but before the assistant turn commits leaves the user
// message behind; the conversation then shows the question was asked even
// though answering failed.
type Service struct {
	threadRepo  repositories.ThreadRepository
	messageRepo repositories.MessageRepository
	docRepo     repositories.DocumentRepository
	txManager   repositories.TransactionManager
	embedder    services.Embedder
	retriever   services.Retriever
	generator   services.Generator
	logger      *slog.Logger
}

// NewService wires the answer pipeline.
func NewService(
	threadRepo repositories.ThreadRepository,
	messageRepo repositories.MessageRepository,
	docRepo repositories.DocumentRepository,
	txManager repositories.TransactionManager,
	embedder services.Embedder,
	retriever services.Retriever,
	generator services.Generator,
	logger *slog.Logger,
) services.AnswerService {
	return &Service{
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		docRepo:     docRepo,
		txManager:   txManager,
		embedder:    embedder,
		retriever:   retriever,
		generator:   generator,
		logger:      logger,
	}
}

// Answer runs the full pipeline for one question.
func (s *Service) Answer(ctx context.Context, req *services.AnswerRequest) (*services.AnswerResult, error) {
	if req.OwnerID == "" {
		return nil, fmt.Errorf("asking questions requires an authenticated user: %w", domain.ErrUnauthorized)
	}
	if err := s.validateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Verify the referenced thread up front; creation of a missing thread
	// is deferred until retrieval has produced sources, so a fail-closed
	// question never leaves an empty thread behind.
	thread, err := s.resolveThread(ctx, req.OwnerID, req.ThreadID)
	if err != nil {
		return nil, err
	}

	// Retrieval scope must be the caller's own documents. A selected id
	// belonging to another user is rejected, never silently dropped.
	docNames, err := s.authorizeScope(ctx, req.OwnerID, req.SelectedDocumentIDs)
	if err != nil {
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, req.Question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}

	chunks, err := s.retriever.Retrieve(ctx, vector, req.SelectedDocumentIDs)
	if err != nil {
		return nil, fmt.Errorf("retrieve sources: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no relevant sources in the selected documents: %w", domain.ErrNoSources)
	}

	if thread == nil {
		thread = &models.Thread{
			OwnerID:   req.OwnerID,
			Name:      threadNameFrom(req.Question),
			CreatedAt: time.Now(),
		}
		if err := s.threadRepo.Create(ctx, thread); err != nil {
			return nil, fmt.Errorf("%w: create thread: %v", domain.ErrPersistence, err)
		}
		s.logger.Info("thread created", "id", thread.ID, "owner_id", req.OwnerID)
	}

	userMsg := &models.Message{
		ThreadID:  thread.ID,
		OwnerID:   req.OwnerID,
		Role:      models.RoleUser,
		Content:   req.Question,
		CreatedAt: time.Now(),
	}
	if err := s.messageRepo.Create(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("%w: create user message: %v", domain.ErrPersistence, err)
	}

	history, err := s.messageRepo.ListByThread(ctx, thread.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: load history: %v", domain.ErrPersistence, err)
	}

	prompt := buildPrompt(history, req.Question, chunks)

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	assistantMsg := &models.Message{
		ThreadID:  thread.ID,
		OwnerID:   req.OwnerID,
		Role:      models.RoleAssistant,
		Content:   answer,
		CreatedAt: time.Now(),
	}
	chunkIDs := make([]uuid.UUID, len(chunks))
	for i, c := range chunks {
		chunkIDs[i] = c.ID
	}

	// Assistant message and its source links commit together: the message
	// must never exist without its links having been attempted.
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.messageRepo.Create(txCtx, assistantMsg); err != nil {
			return fmt.Errorf("create assistant message: %w", err)
		}
		if err := s.messageRepo.CreateSources(txCtx, assistantMsg.ID, chunkIDs); err != nil {
			return fmt.Errorf("create source links: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	sources := make([]models.ResolvedSource, len(chunks))
	for i, c := range chunks {
		sources[i] = models.ResolvedSource{
			ChunkID:      c.ID,
			DocumentID:   c.DocumentID,
			DocumentName: docNames[c.DocumentID],
			LineFrom:     c.Position.LineFrom,
			LineTo:       c.Position.LineTo,
		}
	}

	s.logger.Info("question answered",
		"thread_id", thread.ID,
		"owner_id", req.OwnerID,
		"sources", len(sources),
	)

	return &services.AnswerResult{Message: *assistantMsg, Sources: sources}, nil
}

// ListMessages returns the ordered conversation with resolved citations.
func (s *Service) ListMessages(ctx context.Context, ownerID string, threadID uuid.UUID) ([]models.MessageWithSources, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("reading messages requires an authenticated user: %w", domain.ErrUnauthorized)
	}

	if _, err := s.threadRepo.GetByID(ctx, threadID, ownerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("thread %s is not accessible: %w", threadID, domain.ErrForbidden)
		}
		return nil, err
	}

	return s.messageRepo.ListByThreadWithSources(ctx, threadID)
}

// resolveThread verifies the referenced thread belongs to the caller.
// A nil threadID means "create one later" and resolves to nil. A thread
// that is missing or owned by someone else resolves to Forbidden; callers
// cannot tell the two cases apart, so thread ids leak no existence info.
func (s *Service) resolveThread(ctx context.Context, ownerID string, threadID *uuid.UUID) (*models.Thread, error) {
	if threadID == nil {
		return nil, nil
	}
	thread, err := s.threadRepo.GetByID(ctx, *threadID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("thread %s is not accessible: %w", threadID, domain.ErrForbidden)
		}
		return nil, err
	}
	return thread, nil
}

// authorizeScope checks every selected document against the caller's own
// documents and returns a name lookup for citation resolution.
func (s *Service) authorizeScope(ctx context.Context, ownerID string, selected []uuid.UUID) (map[uuid.UUID]string, error) {
	owned, err := s.docRepo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents for scope check: %w", err)
	}

	names := make(map[uuid.UUID]string, len(owned))
	for _, doc := range owned {
		names[doc.ID] = doc.Name
	}
	for _, id := range selected {
		if _, ok := names[id]; !ok {
			return nil, fmt.Errorf("document %s is not accessible: %w", id, domain.ErrForbidden)
		}
	}
	return names, nil
}

// buildPrompt assembles the ordered message list for the generator: the
// fixed system instruction, the persisted history, and the latest user
// message with the retrieved source text appended. The augmentation exists
// only in this in-memory list; the persisted message keeps the bare
// question.
func buildPrompt(history []models.Message, question string, chunks []models.Chunk) []services.PromptMessage {
	prompt := make([]services.PromptMessage, 0, len(history)+1)
	prompt = append(prompt, services.PromptMessage{
		Role:    models.RoleSystem,
		Content: systemPrompt,
	})
	for _, msg := range history {
		prompt = append(prompt, services.PromptMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
	}
	augmented := question + "\nSources: " + strings.Join(contents, "\n")
	if len(history) == 0 {
		// History always holds at least the just-persisted user turn; if a
		// concurrent delete raced it away, still send the question.
		return append(prompt, services.PromptMessage{Role: models.RoleUser, Content: augmented})
	}
	prompt[len(prompt)-1].Content = augmented

	return prompt
}

// threadNameFrom derives a thread name from the first question.
func threadNameFrom(question string) string {
	name := strings.TrimSpace(question)
	if len(name) > config.MaxThreadNameLength {
		cut := config.MaxThreadNameLength
		for cut > 0 && name[cut]&0xC0 == 0x80 {
			cut--
		}
		name = name[:cut]
	}
	if name == "" {
		name = "New thread"
	}
	return name
}

func (s *Service) validateRequest(req *services.AnswerRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Question,
			validation.Required,
			validation.Length(1, config.MaxQuestionLength),
		),
	)
}
