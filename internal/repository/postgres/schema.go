package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"docchat/internal/config"
)

// InitSchema creates the tables and indexes for one environment prefix if
// they do not exist yet. It needs the pgvector extension, which in turn
// needs a role allowed to create extensions; on managed Postgres the
// extension is usually pre-installed and the statement is a no-op.
func InitSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				owner_id TEXT NOT NULL,
				name TEXT NOT NULL,
				source_url TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`, tables.Documents),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_owner_idx ON %s (owner_id, created_at DESC)
		`, tables.Documents, tables.Documents),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				document_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				content TEXT NOT NULL,
				embedding vector(%d) NOT NULL,
				position_name TEXT NOT NULL,
				line_from INT NOT NULL,
				line_to INT NOT NULL
			)
		`, tables.Chunks, tables.Documents, config.EmbeddingDim),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_document_idx ON %s (document_id)
		`, tables.Chunks, tables.Chunks),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s
			USING hnsw (embedding vector_cosine_ops)
		`, tables.Chunks, tables.Chunks),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				owner_id TEXT NOT NULL,
				name TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`, tables.Threads),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_owner_idx ON %s (owner_id, created_at DESC)
		`, tables.Threads, tables.Threads),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				thread_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				owner_id TEXT NOT NULL,
				role TEXT NOT NULL,
				content TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`, tables.Messages, tables.Threads),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_thread_idx ON %s (thread_id, created_at, id)
		`, tables.Messages, tables.Messages),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				message_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				chunk_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				PRIMARY KEY (message_id, chunk_id)
			)
		`, tables.MessageSources, tables.Messages, tables.Chunks),
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}
