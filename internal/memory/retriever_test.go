package memory

import (
	"context"
	"errors"
	"testing"
)

// fakeEmbedder returns a fixed vector for any input text.
type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

// seedStore builds a MemStore holding three documents at known similarities
// to the query vector {1, 0}: "close" ≈ 1.0, "mid" ≈ 0.71, "far" = 0.
func seedStore(t *testing.T) *MemStore {
	t.Helper()

	s := NewMemStore()
	docs := []Document{
		{ID: "close", Content: "highly relevant"},
		{ID: "mid", Content: "somewhat relevant"},
		{ID: "far", Content: "irrelevant"},
	}
	embeddings := [][]float32{
		{1, 0},
		{1, 1},
		{0, 1},
	}
	if err := s.Upsert(context.Background(), docs, embeddings); err != nil {
		t.Fatalf("seed Upsert() error: %v", err)
	}
	return s
}

func TestRetriever_FiltersBelowMinScore(t *testing.T) {
	t.Parallel()

	s := seedStore(t)
	r, err := NewRetriever(&fakeEmbedder{vec: []float32{1, 0}}, s, &RetrieverConfig{MinScore: 0.5})
	if err != nil {
		t.Fatalf("NewRetriever() error: %v", err)
	}

	got, err := r.Retrieve(context.Background(), "question", 10)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}

	// "far" scores 0 and must be dropped; "close" and "mid" survive.
	if len(got) != 2 {
		t.Fatalf("expected 2 documents above threshold, got %d", len(got))
	}
	for _, doc := range got {
		if doc.Score < 0.5 {
			t.Errorf("document %q returned with score %v below threshold", doc.ID, doc.Score)
		}
	}
}

func TestRetriever_EmptyWhenNothingRelevant(t *testing.T) {
	t.Parallel()

	s := seedStore(t)
	r, err := NewRetriever(&fakeEmbedder{vec: []float32{1, 0}}, s, &RetrieverConfig{MinScore: 0.999})
	if err != nil {
		t.Fatalf("NewRetriever() error: %v", err)
	}

	got, err := r.Retrieve(context.Background(), "question", 10)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only the near-exact match, got %d documents", len(got))
	}
	if got[0].ID != "close" {
		t.Errorf("expected %q, got %q", "close", got[0].ID)
	}
}

func TestRetriever_DefaultTopK(t *testing.T) {
	t.Parallel()

	s := seedStore(t)
	r, err := NewRetriever(&fakeEmbedder{vec: []float32{1, 0}}, s, &RetrieverConfig{TopK: 1, MinScore: -1})
	if err != nil {
		t.Fatalf("NewRetriever() error: %v", err)
	}

	got, err := r.Retrieve(context.Background(), "question", 0)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected configured topK=1 to apply, got %d documents", len(got))
	}
}

func TestRetriever_EmbedderError(t *testing.T) {
	t.Parallel()

	r, err := NewRetriever(&fakeEmbedder{err: errors.New("backend down")}, NewMemStore(), nil)
	if err != nil {
		t.Fatalf("NewRetriever() error: %v", err)
	}

	if _, err := r.Retrieve(context.Background(), "question", 3); err == nil {
		t.Fatal("expected error when embedder fails")
	}
}

func TestNewRetriever_NilDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewRetriever(nil, NewMemStore(), nil); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := NewRetriever(&fakeEmbedder{}, nil, nil); err == nil {
		t.Error("expected error for nil store")
	}
}
