package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docchat/internal/domain/models"
	"docchat/internal/domain/repositories"
)

// PostgresMessageRepository implements the MessageRepository interface using PostgreSQL
type PostgresMessageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewMessageRepository creates a new PostgresMessageRepository
func NewMessageRepository(config *RepositoryConfig) repositories.MessageRepository {
	return &PostgresMessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a message
func (r *PostgresMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (thread_id, owner_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		msg.ThreadID,
		msg.OwnerID,
		msg.Role,
		msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt)

	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

// ListByThread retrieves every message in a thread in creation order
func (r *PostgresMessageRepository) ListByThread(ctx context.Context, threadID uuid.UUID) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, thread_id, owner_id, role, content, created_at
		FROM %s
		WHERE thread_id = $1
		ORDER BY created_at, id
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ThreadID,
			&msg.OwnerID,
			&msg.Role,
			&msg.Content,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	if msgs == nil {
		msgs = []models.Message{}
	}

	return msgs, nil
}

// ListByThreadWithSources retrieves the thread's messages with citations
// resolved. The left joins fan each assistant message out to one row per
// source link; rows are folded back so every message appears exactly once
// with its sources aggregated, in the same order ListByThread uses.
func (r *PostgresMessageRepository) ListByThreadWithSources(ctx context.Context, threadID uuid.UUID) ([]models.MessageWithSources, error) {
	query := fmt.Sprintf(`
		SELECT
			m.id, m.thread_id, m.owner_id, m.role, m.content, m.created_at,
			c.id, c.document_id, d.name, c.line_from, c.line_to
		FROM %s m
		LEFT JOIN %s ms ON ms.message_id = m.id
		LEFT JOIN %s c ON c.id = ms.chunk_id
		LEFT JOIN %s d ON d.id = c.document_id
		WHERE m.thread_id = $1
		ORDER BY m.created_at, m.id, c.id
	`, r.tables.Messages, r.tables.MessageSources, r.tables.Chunks, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages with sources: %w", err)
	}
	defer rows.Close()

	var out []models.MessageWithSources
	index := make(map[uuid.UUID]int)

	for rows.Next() {
		var msg models.Message
		var chunkID, documentID *uuid.UUID
		var documentName *string
		var lineFrom, lineTo *int

		err := rows.Scan(
			&msg.ID,
			&msg.ThreadID,
			&msg.OwnerID,
			&msg.Role,
			&msg.Content,
			&msg.CreatedAt,
			&chunkID,
			&documentID,
			&documentName,
			&lineFrom,
			&lineTo,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message with sources: %w", err)
		}

		i, seen := index[msg.ID]
		if !seen {
			i = len(out)
			index[msg.ID] = i
			out = append(out, models.MessageWithSources{
				Message: msg,
				Sources: []models.ResolvedSource{},
			})
		}

		// A chunk row can be absent (message without sources) or point at
		// a chunk whose document survived but whose row was deleted; only
		// fully resolved citations are returned.
		if chunkID != nil && documentID != nil && documentName != nil {
			out[i].Sources = append(out[i].Sources, models.ResolvedSource{
				ChunkID:      *chunkID,
				DocumentID:   *documentID,
				DocumentName: *documentName,
				LineFrom:     *lineFrom,
				LineTo:       *lineTo,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages with sources: %w", err)
	}

	if out == nil {
		out = []models.MessageWithSources{}
	}

	return out, nil
}

// CreateSources links an assistant message to its grounding chunks
func (r *PostgresMessageRepository) CreateSources(ctx context.Context, messageID uuid.UUID, chunkIDs []uuid.UUID) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (message_id, chunk_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, r.tables.MessageSources)

	batch := &pgx.Batch{}
	for _, chunkID := range chunkIDs {
		batch.Queue(query, messageID, chunkID)
	}

	executor := GetExecutor(ctx, r.pool)
	results := executor.SendBatch(ctx, batch)
	defer results.Close()

	for range chunkIDs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("create message source: %w", err)
		}
	}

	return nil
}
