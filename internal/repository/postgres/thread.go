package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"docchat/internal/domain"
	"docchat/internal/domain/models"
	"docchat/internal/domain/repositories"
)

// PostgresThreadRepository implements the ThreadRepository interface using PostgreSQL
type PostgresThreadRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewThreadRepository creates a new PostgresThreadRepository
func NewThreadRepository(config *RepositoryConfig) repositories.ThreadRepository {
	return &PostgresThreadRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new thread
func (r *PostgresThreadRepository) Create(ctx context.Context, thread *models.Thread) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, r.tables.Threads)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		thread.OwnerID,
		thread.Name,
	).Scan(&thread.ID, &thread.CreatedAt)

	if err != nil {
		return fmt.Errorf("create thread: %w", err)
	}

	return nil
}

// GetByID retrieves a thread scoped to its owner
func (r *PostgresThreadRepository) GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*models.Thread, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, name, created_at
		FROM %s
		WHERE id = $1 AND owner_id = $2
	`, r.tables.Threads)

	var thread models.Thread
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, ownerID).Scan(
		&thread.ID,
		&thread.OwnerID,
		&thread.Name,
		&thread.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get thread: %w", err)
	}

	return &thread, nil
}

// List retrieves all threads owned by a user, newest first
func (r *PostgresThreadRepository) List(ctx context.Context, ownerID string) ([]models.Thread, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, name, created_at
		FROM %s
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, r.tables.Threads)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var threads []models.Thread
	for rows.Next() {
		var thread models.Thread
		err := rows.Scan(
			&thread.ID,
			&thread.OwnerID,
			&thread.Name,
			&thread.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		threads = append(threads, thread)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threads: %w", err)
	}

	if threads == nil {
		threads = []models.Thread{}
	}

	return threads, nil
}

// Rename updates a thread's name
func (r *PostgresThreadRepository) Rename(ctx context.Context, id uuid.UUID, ownerID, name string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1
		WHERE id = $2 AND owner_id = $3
	`, r.tables.Threads)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, name, id, ownerID)
	if err != nil {
		return fmt.Errorf("rename thread: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a thread; messages and their source links cascade
func (r *PostgresThreadRepository) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND owner_id = $2
	`, r.tables.Threads)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
