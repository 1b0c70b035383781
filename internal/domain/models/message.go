package models

import (
	"time"

	"github.com/google/uuid"
)

// Message roles. Only user and assistant messages are persisted; the system
// role exists solely in the prompt assembled for the generator.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn inside a thread. Ordering within a thread is by
// creation time with the id as a deterministic tie-break. Content is
// immutable after creation.
type Message struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ThreadID  uuid.UUID `json:"thread_id" db:"thread_id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MessageSource links one assistant message to a chunk that grounded it.
// Composite key; rows are written in the same transaction as the assistant
// message and never updated.
type MessageSource struct {
	MessageID uuid.UUID `json:"message_id" db:"message_id"`
	ChunkID   uuid.UUID `json:"chunk_id" db:"chunk_id"`
}

// ResolvedSource is the citation metadata returned to callers for one
// grounding chunk: the owning document plus the chunk's line range.
type ResolvedSource struct {
	ChunkID      uuid.UUID `json:"chunk_id"`
	DocumentID   uuid.UUID `json:"document_id"`
	DocumentName string    `json:"document_name"`
	LineFrom     int       `json:"line_from"`
	LineTo       int       `json:"line_to"`
}

// MessageWithSources is a message expanded with its resolved citations.
// A message linked to N chunks appears once, with N sources.
type MessageWithSources struct {
	Message
	Sources []ResolvedSource `json:"sources"`
}
