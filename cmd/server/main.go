package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"docchat/internal/auth"
	"docchat/internal/config"
	"docchat/internal/domain/services"
	"docchat/internal/handler"
	"docchat/internal/llm"
	"docchat/internal/middleware"
	"docchat/internal/repository/postgres"
	"docchat/internal/service/chunker"
	"docchat/internal/service/conversation"
	"docchat/internal/service/document"
	"docchat/internal/service/ingest"
	"docchat/internal/service/retrieval"
	"docchat/internal/service/thread"
	"docchat/internal/storage"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	tuning, err := config.LoadTuning(os.Getenv("TUNING_FILE"))
	if err != nil {
		log.Fatalf("Failed to load tuning: %v", err)
	}

	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if err := postgres.InitSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	logger.Info("database connected")

	// Repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	chunkRepo := postgres.NewChunkRepository(repoConfig)
	threadRepo := postgres.NewThreadRepository(repoConfig)
	messageRepo := postgres.NewMessageRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Model collaborators
	embedder, generator, err := setupProvider(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup LLM provider: %v", err)
	}

	// Object storage
	store, err := setupStorage(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup object storage: %v", err)
	}

	// Services
	splitter := chunker.New(tuning.ChunkSize, tuning.ChunkOverlap)
	retriever := retrieval.NewService(chunkRepo, tuning.TopK, logger)
	ingestService := ingest.NewService(docRepo, chunkRepo, txManager, splitter, embedder, store, logger)
	docService := document.NewService(docRepo, logger)
	threadService := thread.NewService(threadRepo, logger)
	answerService := conversation.NewService(threadRepo, messageRepo, docRepo, txManager, embedder, retriever, generator, logger)

	// Handlers
	docHandler := handler.NewDocumentHandler(ingestService, docService, logger)
	threadHandler := handler.NewThreadHandler(threadService, logger)
	answerHandler := handler.NewAnswerHandler(answerService, logger)

	logger.Info("services initialized", "provider", cfg.Provider, "storage", cfg.StorageBackend)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", docHandler.HealthCheck)

	mux.HandleFunc("POST /api/documents", docHandler.IngestDocument)
	mux.HandleFunc("GET /api/documents", docHandler.ListDocuments)
	mux.HandleFunc("DELETE /api/documents/{id}", docHandler.DeleteDocument)

	mux.HandleFunc("GET /api/threads", threadHandler.ListThreads)
	mux.HandleFunc("PATCH /api/threads/{id}", threadHandler.RenameThread)
	mux.HandleFunc("DELETE /api/threads/{id}", threadHandler.DeleteThread)
	mux.HandleFunc("GET /api/threads/{id}/messages", answerHandler.ListMessages)

	mux.HandleFunc("POST /api/answer", answerHandler.Answer)
	mux.HandleFunc("GET /api/answer", answerHandler.ListMessagesByQuery)

	// Middleware chain: CORS → Recovery → Auth → Routes
	var root http.Handler = mux
	root = middleware.AuthMiddleware(jwtVerifier, logger)(root)
	root = middleware.Recovery(logger)(root)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupProvider selects the embedding and generation backend. The lorem
// provider keeps development working without API keys.
func setupProvider(cfg *config.Config, logger *slog.Logger) (services.Embedder, services.Generator, error) {
	switch cfg.Provider {
	case "lorem":
		provider := llm.NewLoremProvider()
		logger.Warn("using lorem provider: answers and embeddings are fake")
		return provider, provider, nil
	default:
		client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:        cfg.OpenAIBaseURL,
			APIKey:         cfg.OpenAIAPIKey,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Logger:         logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	}
}

func setupStorage(cfg *config.Config, logger *slog.Logger) (services.ObjectStore, error) {
	switch cfg.StorageBackend {
	case "cloudinary":
		return storage.NewCloudinaryStore(
			cfg.CloudinaryCloudName,
			cfg.CloudinaryAPIKey,
			cfg.CloudinaryAPISecret,
			cfg.Environment,
			logger,
		)
	default:
		return storage.NewDiskStore(cfg.StorageDir, logger)
	}
}
