// Package main provides the policy assistant HTTP server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bull/policy-assistant/internal/answer"
	"github.com/bull/policy-assistant/internal/api"
	"github.com/bull/policy-assistant/internal/citation"
	"github.com/bull/policy-assistant/internal/config"
	"github.com/bull/policy-assistant/internal/embedding"
	"github.com/bull/policy-assistant/internal/index"
	"github.com/bull/policy-assistant/internal/ingest"
	mcpserver "github.com/bull/policy-assistant/internal/mcp"
	"github.com/bull/policy-assistant/internal/pdf"
	"github.com/bull/policy-assistant/internal/retriever"
	"github.com/bull/policy-assistant/internal/service"
	"github.com/bull/policy-assistant/internal/splitter"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize embedding client (also provides the OpenAI client for
	// answer generation)
	embedder, err := embedding.NewEmbedder(cfg.Embedder.BatchSize)
	if err != nil {
		log.Fatalf("failed to create embedder: %v", err)
	}

	// Initialize the vector store backend
	var store index.Store
	var persister ingest.Persister
	switch cfg.Store.Type {
	case "qdrant":
		qs, err := index.NewQdrantStore(
			cfg.Store.Qdrant.Host,
			cfg.Store.Qdrant.Port,
			cfg.Store.Qdrant.Collection,
			embedding.Dimension,
		)
		if err != nil {
			log.Fatalf("failed to connect to Qdrant: %v", err)
		}
		defer qs.Close()
		if err := qs.EnsureCollection(ctx); err != nil {
			log.Fatalf("failed to ensure collection: %v", err)
		}
		store = qs
	default:
		ls, err := index.OpenLocalStore(cfg.Paths.IndexDir)
		if err != nil {
			logger.Info("no persisted index found, starting empty",
				"dir", cfg.Paths.IndexDir, "reason", err)
			ls = index.NewLocalStore()
		} else {
			count, _ := ls.Count(ctx)
			logger.Info("loaded persisted index", "dir", cfg.Paths.IndexDir, "chunks", count)
		}
		store = ls
		persister = ls
	}

	// Answer generation shares the embedder's OpenAI client
	completer := answer.NewOpenAICompleter(embedder.Client(), cfg.LLM.Model)
	generator := answer.NewGenerator(completer)

	retr := retriever.New(store, embedder, cfg.Retriever.TopK)
	gate := citation.NewGate(cfg.Citation.MinMatches)
	assistant := service.NewAssistant(store, retr, generator, gate, logger)

	// Background reindexing for uploaded documents
	extractor := pdf.NewExtractor(logger)
	split := splitter.NewSplitter(splitter.DefaultChunkSize, splitter.DefaultOverlap)
	pipeline := ingest.NewPipeline(extractor, split, embedder, store, persister, cfg.Paths.IndexDir, logger)

	publish := func() {
		assistant.Reload(retriever.New(store, embedder, cfg.Retriever.TopK))
	}
	reindexer := ingest.NewReindexer(pipeline, publish, logger, ingest.DefaultQueueSize)
	reindexer.Start(ctx)

	// HTTP server with the REST API and the MCP endpoint
	apiServer := api.NewServer(assistant, reindexer, store, cfg.Paths.DocsDir, logger)
	mcpSrv := mcpserver.NewServer(&mcpserver.Config{Assistant: assistant})

	mux := http.NewServeMux()
	mux.Handle("/", apiServer.Handler())
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(mcpSrv, nil))

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	// Stdio mode runs MCP over stdin/stdout for local clients, with the
	// HTTP endpoints serving in the background
	if getEnv("MCP_STDIO", "false") == "true" {
		go func() {
			logger.Info("starting HTTP server", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "error", err)
			}
		}()
		logger.Info("starting MCP server (stdio mode)")
		if err := mcpSrv.Run(ctx); err != nil {
			logger.Error("stdio server error", "error", err)
		}
		reindexer.Wait()
		return
	}

	logger.Info("starting HTTP server", "addr", addr,
		"api", "/ask", "mcp", "/mcp", "health", "/health")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server error: %v", err)
	}

	// Let an in-flight reindex finish before exiting
	reindexer.Wait()
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
