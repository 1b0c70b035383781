package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"docchat/internal/config"
	"docchat/internal/domain/services"
	"docchat/internal/llm"
	"docchat/internal/repository/postgres"
	"docchat/internal/service/chunker"
	"docchat/internal/service/ingest"
	"docchat/internal/storage"
)

// Bulk ingest tool: indexes local text files for one user without going
// through the HTTP API. Useful for seeding dev environments and for
// loading a corpus before demos.
func main() {
	owner := flag.String("owner", "", "User id the documents are ingested for (required)")
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before ingesting (fresh start)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}
	if *owner == "" {
		log.Fatalf("--owner is required")
	}
	if flag.NArg() == 0 {
		log.Fatalf("usage: ingest --owner <user-id> file [file...]")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	tuning, err := config.LoadTuning(os.Getenv("TUNING_FILE"))
	if err != nil {
		log.Fatalf("Failed to load tuning: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Printf("Dropping tables (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	if err := postgres.InitSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	chunkRepo := postgres.NewChunkRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	var embedder services.Embedder
	if cfg.Provider == "lorem" {
		embedder = llm.NewLoremProvider()
		logger.Warn("using lorem provider: embeddings are fake")
	} else {
		client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:        cfg.OpenAIBaseURL,
			APIKey:         cfg.OpenAIAPIKey,
			EmbeddingModel: cfg.EmbeddingModel,
			Logger:         logger,
		})
		if err != nil {
			log.Fatalf("Failed to setup embedder: %v", err)
		}
		embedder = client
	}

	store, err := storage.NewDiskStore(cfg.StorageDir, logger)
	if err != nil {
		log.Fatalf("Failed to setup storage: %v", err)
	}

	splitter := chunker.New(tuning.ChunkSize, tuning.ChunkOverlap)
	ingestService := ingest.NewService(docRepo, chunkRepo, txManager, splitter, embedder, store, logger)

	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", path, err)
		}

		doc, err := ingestService.Ingest(ctx, &services.IngestRequest{
			OwnerID:  *owner,
			FileName: filepath.Base(path),
			Content:  string(data),
		})
		if err != nil {
			log.Fatalf("Failed to ingest %s: %v", path, err)
		}

		chunks, err := chunkRepo.CountByDocument(ctx, doc.ID)
		if err != nil {
			log.Fatalf("Failed to count chunks for %s: %v", path, err)
		}
		log.Printf("Ingested %s as %s (%d chunks)", path, doc.ID, chunks)
	}

	log.Printf("Done: %d documents ingested for %s", flag.NArg(), *owner)
}

// dropAllTables removes the environment's tables in dependency order.
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	names := []string{
		tables.MessageSources,
		tables.Messages,
		tables.Threads,
		tables.Chunks,
		tables.Documents,
	}
	for _, name := range names {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", name)); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}
