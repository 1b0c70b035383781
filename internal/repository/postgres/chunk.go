package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"docchat/internal/domain/models"
	"docchat/internal/domain/repositories"
)

// PostgresChunkRepository implements the ChunkRepository interface using
// PostgreSQL with pgvector. It doubles as the VectorIndex: the HNSW index
// on the embedding column serves the nearest-neighbor queries.
type PostgresChunkRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewChunkRepository creates a new PostgresChunkRepository
func NewChunkRepository(config *RepositoryConfig) *PostgresChunkRepository {
	return &PostgresChunkRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

var _ repositories.ChunkRepository = (*PostgresChunkRepository)(nil)

// CreateBatch inserts all chunks in one round trip using a pgx batch.
// Generated ids are written back into the chunks in order.
func (r *PostgresChunkRepository) CreateBatch(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, content, embedding, position_name, line_from, line_to)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, r.tables.Chunks)

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(query,
			chunk.DocumentID,
			chunk.Content,
			pgvector.NewVector(chunk.Embedding),
			chunk.Position.Name,
			chunk.Position.LineFrom,
			chunk.Position.LineTo,
		)
	}

	executor := GetExecutor(ctx, r.pool)
	results := executor.SendBatch(ctx, batch)
	defer results.Close()

	for _, chunk := range chunks {
		if err := results.QueryRow().Scan(&chunk.ID); err != nil {
			return fmt.Errorf("create chunk: %w", err)
		}
	}

	return nil
}

// GetByIDs retrieves chunks by id, in no particular order
func (r *PostgresChunkRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Chunk, error) {
	if len(ids) == 0 {
		return []models.Chunk{}, nil
	}

	query := fmt.Sprintf(`
		SELECT id, document_id, content, embedding, position_name, line_from, line_to
		FROM %s
		WHERE id = ANY($1)
	`, r.tables.Chunks)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// CountByDocument reports how many chunks a document has
func (r *PostgresChunkRepository) CountByDocument(ctx context.Context, documentID uuid.UUID) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s WHERE document_id = $1
	`, r.tables.Chunks)

	var count int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, documentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}

	return count, nil
}

// TopK returns the k chunks closest to the query vector by cosine distance,
// ranked across the whole index. Callers apply any document scoping on the
// result.
func (r *PostgresChunkRepository) TopK(ctx context.Context, vector []float32, k int) ([]models.Chunk, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, content, embedding, position_name, line_from, line_to
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, r.tables.Chunks)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

func scanChunks(rows pgx.Rows) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for rows.Next() {
		var chunk models.Chunk
		var embedding pgvector.Vector
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Content,
			&embedding,
			&chunk.Position.Name,
			&chunk.Position.LineFrom,
			&chunk.Position.LineTo,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunk.Embedding = embedding.Slice()
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	if chunks == nil {
		chunks = []models.Chunk{}
	}

	return chunks, nil
}
