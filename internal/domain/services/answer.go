package services

import (
	"context"

	"github.com/google/uuid"

	"docchat/internal/domain/models"
)

// AnswerRequest is the validated body of one question. ThreadID is optional;
// when absent a thread is created lazily and named from the question.
// SelectedDocumentIDs is the retrieval scope: the documents the answer may
// draw sources from.
type AnswerRequest struct {
	OwnerID             string      `json:"-"`
	ThreadID            *uuid.UUID  `json:"thread_id,omitempty"`
	Question            string      `json:"question"`
	SelectedDocumentIDs []uuid.UUID `json:"selected_document_ids"`
}

// AnswerResult is the persisted assistant message plus resolved citations.
type AnswerResult struct {
	Message models.Message          `json:"message"`
	Sources []models.ResolvedSource `json:"sources"`
}

// AnswerService runs the retrieval-augmented answer pipeline and the
// conversation read path.
type AnswerService interface {
	// Answer resolves the thread, embeds the question, retrieves in-scope
	// chunks (failing closed on zero), persists the user turn, assembles
	// the conversation, generates a completion and persists the assistant
	// turn with its source links.
	Answer(ctx context.Context, req *AnswerRequest) (*AnswerResult, error)

	// ListMessages returns the ordered messages of a thread with resolved
	// sources, after verifying the caller owns the thread.
	ListMessages(ctx context.Context, ownerID string, threadID uuid.UUID) ([]models.MessageWithSources, error)
}

// ThreadService covers thread CRUD around the answer pipeline.
type ThreadService interface {
	List(ctx context.Context, ownerID string) ([]models.Thread, error)
	Rename(ctx context.Context, id uuid.UUID, ownerID, name string) error
	Delete(ctx context.Context, id uuid.UUID, ownerID string) error
}

// Retriever returns the most similar in-scope chunks for a query vector.
// Zero results is a legitimate outcome, not an error.
type Retriever interface {
	Retrieve(ctx context.Context, vector []float32, allowedDocumentIDs []uuid.UUID) ([]models.Chunk, error)
}
