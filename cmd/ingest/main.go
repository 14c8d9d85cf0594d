// Package main provides the ingestion CLI for the policy assistant index.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/policy-assistant/internal/config"
	"github.com/bull/policy-assistant/internal/embedding"
	"github.com/bull/policy-assistant/internal/index"
	"github.com/bull/policy-assistant/internal/ingest"
	"github.com/bull/policy-assistant/internal/pdf"
	"github.com/bull/policy-assistant/internal/splitter"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "policy-ingest",
	Short: "Policy document indexing tool",
	Long:  "CLI tool for building the policy assistant vector index from PDF documents",
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Rebuild the index from all PDFs in the documents directory",
	Long: `Rebuilds the vector index from scratch out of every PDF in the
documents directory.

This command:
1. Reads every PDF in the documents directory
2. Extracts text page by page and splits it into overlapping chunks
3. Generates an embedding for each chunk
4. Writes the chunks to the configured store (local files or Qdrant)

Environment variables:
  OPENAI_API_KEY OpenAI API key for embeddings (required)
  CONFIG_PATH    Config file path (default: config.yaml)`,
	RunE: runIngest,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (overrides CONFIG_PATH)")
	rootCmd.AddCommand(ingestCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	fmt.Println("Starting ingest...")
	fmt.Println()

	path := configPath
	if path == "" {
		path = getEnv("CONFIG_PATH", "config.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 1. Initialize embedding client
	embedder, err := embedding.NewEmbedder(cfg.Embedder.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	// 2. Initialize the store, empty
	var store index.Store
	var persister ingest.Persister
	switch cfg.Store.Type {
	case "qdrant":
		fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.Store.Qdrant.Host, cfg.Store.Qdrant.Port)
		qs, err := index.NewQdrantStore(
			cfg.Store.Qdrant.Host,
			cfg.Store.Qdrant.Port,
			cfg.Store.Qdrant.Collection,
			embedding.Dimension,
		)
		if err != nil {
			return fmt.Errorf("failed to connect to Qdrant: %w", err)
		}
		defer qs.Close()
		fmt.Println("Qdrant healthy")

		if err := qs.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("failed to ensure collection: %w", err)
		}
		fmt.Println("Clearing existing collection...")
		if err := qs.ClearCollection(ctx); err != nil {
			return fmt.Errorf("failed to clear collection: %w", err)
		}
		store = qs
	default:
		ls := index.NewLocalStore()
		store = ls
		persister = ls
	}

	// 3. Initialize pipeline and run ingestion
	logger := slog.Default()
	extractor := pdf.NewExtractor(logger)
	split := splitter.NewSplitter(splitter.DefaultChunkSize, splitter.DefaultOverlap)
	pipeline := ingest.NewPipeline(extractor, split, embedder, store, persister, cfg.Paths.IndexDir, logger)

	fmt.Println()
	fmt.Printf("Indexing documents from %s...\n", cfg.Paths.DocsDir)
	result, err := pipeline.BulkIngest(ctx, cfg.Paths.DocsDir)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	// 4. Print results
	fmt.Println()
	fmt.Println("Ingest complete!")
	fmt.Printf("  Documents: %d/%d\n", result.SuccessfulDocs, result.TotalDocs)
	fmt.Printf("  Chunks: %d\n", result.TotalChunks)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))
	if cfg.Store.Type == "local" {
		fmt.Printf("  Index: %s\n", cfg.Paths.IndexDir)
	}

	// 5. Print failed documents if any
	if len(result.FailedDocs) > 0 {
		fmt.Println()
		fmt.Println("Failed documents:")
		for _, failed := range result.FailedDocs {
			fmt.Printf("  - %s: %s\n", failed.Filename, failed.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))

	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
