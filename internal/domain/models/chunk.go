package models

import (
	"github.com/google/uuid"
)

// PositionMetadata records where a chunk came from in its source document.
// Line numbers are 1-based and inclusive; they drive citation highlighting
// in the document viewer, so they must index the original text exactly.
type PositionMetadata struct {
	Name     string `json:"name"`
	LineFrom int    `json:"line_from"`
	LineTo   int    `json:"line_to"`
}

// Chunk is a fixed-size overlapping segment of a document's text together
// with its embedding. Content and embedding are immutable after ingest.
type Chunk struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	DocumentID uuid.UUID        `json:"document_id" db:"document_id"`
	Content    string           `json:"content" db:"content"`
	Embedding  []float32        `json:"-" db:"embedding"`
	Position   PositionMetadata `json:"position" db:"position"`
}
