// Package memory defines the grounded-memory primitives: vector storage,
// document retrieval, and embedding. Concrete backends (Qdrant, in-memory)
// satisfy these interfaces so the generator layer never depends on a
// specific store.
package memory

import (
	"context"
)

// Document is a unit of retrievable knowledge stored in memory.
type Document struct {
	// ID is the unique identifier for this document chunk.
	ID string

	// Content is the raw text of the chunk.
	Content string

	// Source is the origin URI or label of the document.
	Source string

	// Metadata holds arbitrary key-value pairs (doc type, topic, etc.).
	Metadata map[string]string

	// Score is the cosine similarity assigned during retrieval (0.0–1.0).
	// Zero value means the score was not computed.
	Score float32
}

// VectorStore persists and searches document embeddings.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores or updates a batch of documents with their pre-computed
	// embeddings. embeddings[i] is the vector for docs[i]; mismatched
	// lengths are an error.
	Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search returns the top-k documents most similar to the query
	// embedding, highest score first.
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of documents currently stored.
	Count(ctx context.Context) (uint64, error)

	// Close releases any resources held by the store.
	Close() error
}

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever fetches relevant grounding context for a question. It combines
// embedding, vector search, and confidence filtering.
// Implementations must be safe to call from multiple goroutines.
type Retriever interface {
	// Retrieve returns up to topK documents relevant to the query.
	// Documents scoring below the retriever's confidence threshold are
	// dropped — an empty result means the memory holds nothing the caller
	// should ground an answer on.
	Retrieve(ctx context.Context, query string, topK int) ([]Document, error)
}
