// cmd/tools/knowledge-loader/main.go
//
// Loads the local knowledge base into the vector index: reads .txt files,
// splits them into paragraph chunks, embeds each chunk and indexes it.
//
// Usage:
//
//	knowledge-loader [-dir path/to/documents] [-index local_knowledge]
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"agri-officer/internal/common/config"
	"agri-officer/internal/common/database"
	"agri-officer/internal/common/logger"
	"agri-officer/internal/retrieval"

	"github.com/google/uuid"
)

func main() {
	dirFlag := flag.String("dir", "", "directory of .txt documents (defaults to retrieval.document_path)")
	indexFlag := flag.String("index", "", "target index name (defaults to retrieval.index)")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	dir := *dirFlag
	if dir == "" {
		dir = cfg.Retrieval.DocumentPath
	}
	if dir == "" {
		zapLog.Fatal("no document directory given: set -dir or retrieval.document_path")
	}

	indexName := *indexFlag
	if indexName == "" {
		indexName = cfg.Retrieval.Index
	}

	ctx := context.Background()

	embedder, err := retrieval.NewGeminiEmbedder(ctx, cfg.APIs.Embedding.APIKey, cfg.APIs.Embedding.Model, retrieval.TaskRetrievalDocument)
	if err != nil {
		zapLog.Fatal("embedding client init failed", zap.Error(err))
	}

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch init failed", zap.Error(err))
	}
	if err := es.Ping(); err != nil {
		zapLog.Fatal("elasticsearch unreachable", zap.Error(err))
	}

	index := retrieval.NewIndex(es, indexName)

	entries, err := os.ReadDir(dir)
	if err != nil {
		zapLog.Fatal("failed to read document directory", zap.Error(err), zap.String("dir", dir))
	}

	var ensured bool
	var total int
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			zapLog.Error("failed to read document, skipping", zap.Error(err), zap.String("file", entry.Name()))
			continue
		}

		chunks := splitChunks(string(data))
		zapLog.Info("Indexing document", zap.String("file", entry.Name()), zap.Int("chunks", len(chunks)))

		for _, chunk := range chunks {
			vector, err := embedder.Embed(ctx, chunk)
			if err != nil {
				zapLog.Error("embedding failed, skipping chunk", zap.Error(err), zap.String("file", entry.Name()))
				continue
			}

			if !ensured {
				if err := index.EnsureMapping(ctx, len(vector)); err != nil {
					zapLog.Fatal("failed to create index mapping", zap.Error(err))
				}
				ensured = true
			}

			if err := index.IndexChunk(ctx, uuid.NewString(), entry.Name(), chunk, vector); err != nil {
				zapLog.Error("indexing failed, skipping chunk", zap.Error(err), zap.String("file", entry.Name()))
				continue
			}
			total++
		}
	}

	zapLog.Info("Knowledge base loaded", zap.Int("chunks", total), zap.String("index", indexName))
}

// splitChunks splits a document on blank lines and drops empty chunks.
func splitChunks(text string) []string {
	parts := strings.Split(text, "\n\n")
	chunks := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks
}
