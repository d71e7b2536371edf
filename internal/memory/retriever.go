package memory

import (
	"context"
	"fmt"
)

// DefaultTopK is the number of documents returned when the caller passes 0.
const DefaultTopK = 5

// DefaultMinScore is the similarity floor below which a retrieved document
// is considered irrelevant and dropped. 0.35 is conservative for cosine
// similarity over normalised sentence embeddings — low enough to keep
// paraphrases, high enough to drop topic-adjacent noise.
const DefaultMinScore = 0.35

// DefaultRetriever implements Retriever by combining an Embedder and a
// VectorStore. It embeds the query at retrieval time, delegates similarity
// search to the store, and filters the results by the confidence threshold.
type DefaultRetriever struct {
	// embedder converts query text to a dense vector.
	embedder Embedder

	// store performs the vector similarity search.
	store VectorStore

	// topK is the number of results to request when the caller passes 0.
	topK int

	// minScore is the similarity floor; documents scoring below it are dropped.
	minScore float32
}

// RetrieverConfig holds the tunables for a DefaultRetriever.
type RetrieverConfig struct {
	// TopK is the fallback result count when Retrieve is called with topK=0.
	// Defaults to DefaultTopK if zero.
	TopK int

	// MinScore is the confidence threshold. Documents scoring below it are
	// dropped from the result. Defaults to DefaultMinScore if zero; set to
	// a negative value to disable filtering entirely.
	MinScore float32
}

// NewRetriever constructs a DefaultRetriever from the given Embedder and VectorStore.
func NewRetriever(embedder Embedder, store VectorStore, cfg *RetrieverConfig) (*DefaultRetriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("memory: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("memory: store must not be nil")
	}
	if cfg == nil {
		cfg = &RetrieverConfig{}
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	minScore := cfg.MinScore
	if minScore == 0 {
		minScore = DefaultMinScore
	}
	if minScore < 0 {
		minScore = 0
	}
	return &DefaultRetriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
		minScore: minScore,
	}, nil
}

// Retrieve embeds the query, searches the store, and returns the documents
// that clear the confidence threshold, highest score first. An empty result
// with a nil error means the memory holds nothing relevant — callers decide
// whether to fall back rather than generate ungrounded.
func (r *DefaultRetriever) Retrieve(ctx context.Context, query string, topK int) ([]Document, error) {
	if topK <= 0 {
		topK = r.topK
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("memory: embedding query failed: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("memory: embedder returned empty result for query")
	}

	docs, err := r.store.Search(ctx, embeddings[0], topK)
	if err != nil {
		return nil, fmt.Errorf("memory: vector search failed: %w", err)
	}

	// Confidence filtering happens here, not in the store, so every backend
	// gets the same threshold semantics.
	kept := docs[:0]
	for _, doc := range docs {
		if doc.Score >= r.minScore {
			kept = append(kept, doc)
		}
	}

	return kept, nil
}
