package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemStore is an in-memory VectorStore using brute-force cosine similarity.
// It backs the "memory" backend for local single-process use and is the
// store of choice in tests — no external Qdrant instance is needed.
// Linear scan is fine at this scale; the store is not meant to hold more
// than a few tens of thousands of chunks.
type MemStore struct {
	// mu protects docs and vectors.
	mu sync.RWMutex

	// docs maps document ID to the stored document.
	docs map[string]Document

	// vectors maps document ID to its embedding, parallel to docs.
	vectors map[string][]float32
}

// NewMemStore constructs an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		docs:    make(map[string]Document),
		vectors: make(map[string][]float32),
	}
}

// Upsert stores or replaces documents keyed by their IDs.
func (s *MemStore) Upsert(_ context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("memory: %d documents but %d embeddings", len(docs), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("memory: document %d has empty ID", i)
		}
		vec := make([]float32, len(embeddings[i]))
		copy(vec, embeddings[i])
		s.docs[doc.ID] = doc
		s.vectors[doc.ID] = vec
	}
	return nil
}

// Search scores every stored document against the query embedding and
// returns the top-k by cosine similarity, highest first.
func (s *MemStore) Search(_ context.Context, queryEmbedding []float32, topK int) ([]Document, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]Document, 0, len(s.docs))
	for id, vec := range s.vectors {
		doc := s.docs[id]
		doc.Score = cosine(queryEmbedding, vec)
		scored = append(scored, doc)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID // stable order for equal scores
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// Delete removes documents by ID. Unknown IDs are ignored.
func (s *MemStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.docs, id)
		delete(s.vectors, id)
	}
	return nil
}

// Count returns the number of stored documents.
func (s *MemStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.docs)), nil
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error { return nil }

// cosine returns the cosine similarity of a and b, or 0 when either vector
// is zero-length or zero-magnitude. Mismatched dimensions score 0 rather
// than erroring — a dimension mismatch means the stored vector came from a
// different embedding model and can never be a meaningful match.
func cosine(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
