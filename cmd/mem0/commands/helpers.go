package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/vk8459698/mem0-ai/internal/embedder"
	"github.com/vk8459698/mem0-ai/internal/memory"
	"github.com/vk8459698/mem0-ai/internal/store"
)

// buildVectorStore constructs the vector store selected by MEMORY_BACKEND:
// "qdrant" (default) or "memory" for the in-process non-persistent store.
// The returned close function is safe to call on every path.
func buildVectorStore(ctx context.Context, log *slog.Logger) (memory.VectorStore, func(), error) {
	backend := getEnvOrDefault("MEMORY_BACKEND", "qdrant")

	switch backend {
	case "memory":
		log.Info("memory: using in-process store (non-persistent)")
		ms := memory.NewMemStore()
		return ms, func() { _ = ms.Close() }, nil

	case "qdrant":
		host := getEnvOrDefault("QDRANT_HOST", "localhost")
		port := getEnvInt("QDRANT_PORT", 6334)
		collection := getEnvOrDefault("QDRANT_COLLECTION", "mem0-knowledge")
		embBackend := getEnvOrDefault("EMBEDDING_PROVIDER", getEnvOrDefault("MODEL_PROVIDER", "ollama"))
		vectorSize := uint64(embedder.DefaultDimensions(embBackend)) //nolint:gosec // dimensions are bounded

		qs, err := memory.NewQdrantStore(ctx, &memory.QdrantConfig{
			Host:       host,
			Port:       port,
			Collection: collection,
			VectorSize: vectorSize,
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			UseTLS:     os.Getenv("QDRANT_TLS") == "true",
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
		}
		log.Info("qdrant store ready",
			slog.String("host", host),
			slog.Int("port", port),
			slog.String("collection", collection),
		)
		return qs, func() { _ = qs.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown MEMORY_BACKEND %q (want qdrant or memory)", backend)
	}
}

// buildRetriever wires the embedder and vector store into a confidence-
// filtered retriever. MEMORY_TOP_K and MEMORY_MIN_SCORE tune retrieval.
func buildRetriever(vs memory.VectorStore) (*memory.DefaultRetriever, memory.Embedder, error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}

	r, err := memory.NewRetriever(emb, vs, &memory.RetrieverConfig{
		TopK:     getEnvInt("MEMORY_TOP_K", 0),
		MinScore: getEnvFloat32("MEMORY_MIN_SCORE", 0),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create retriever: %w", err)
	}
	return r, emb, nil
}

// buildHistory opens the conversation history store. MEM0_HISTORY_DB
// overrides the default path (~/.mem0/history.db); "disabled" turns
// persistence off. Failures degrade to no history rather than aborting.
func buildHistory(log *slog.Logger) (store.ConversationStore, func()) {
	dbPath := os.Getenv("MEM0_HISTORY_DB")
	if dbPath == "disabled" {
		log.Info("history: disabled via MEM0_HISTORY_DB=disabled")
		return nil, func() {}
	}

	if dbPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, func() {}
		}
		dbPath = p
	}

	hs, err := store.Open(dbPath)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil, func() {}
	}
	log.Info("history: store opened", slog.String("path", dbPath))
	return hs, func() { _ = hs.Close() }
}

// getEnvOrDefault returns the env var value or fallback when unset.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the env var parsed as int, or fallback when unset or
// unparseable.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvFloat32 returns the env var parsed as float32, or fallback when
// unset or unparseable.
func getEnvFloat32(key string, fallback float32) float32 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}
