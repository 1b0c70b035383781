package config

const (
	// EmbeddingDim is the fixed dimensionality of every embedding vector,
	// constant process-wide. Matches text-embedding-3-small and the
	// vector(1536) column on the chunk table; changing it requires
	// re-ingesting every document.
	EmbeddingDim = 1536

	// RetrievalTopK is the number of globally nearest chunks fetched per
	// question. Fixed per deployment, not user-configurable.
	RetrievalTopK = 3

	// ChunkSize is the maximum chunk length in characters.
	ChunkSize = 1000

	// ChunkOverlap is the number of characters consecutive chunks share.
	ChunkOverlap = 200

	// MaxDocumentNameLength is the maximum length for document names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxDocumentNameLength = 255

	// MaxThreadNameLength is the maximum length for thread names. Names
	// auto-derived from question text are truncated to this.
	MaxThreadNameLength = 255

	// MaxQuestionLength bounds the question text accepted by the answer
	// pipeline.
	MaxQuestionLength = 4000

	// MaxDocumentBytes bounds the raw text accepted by ingest.
	MaxDocumentBytes = 5 << 20
)
