package memory

import (
	"context"
	"testing"
)

func TestMemStore_UpsertAndSearch(t *testing.T) {
	t.Parallel()

	s := NewMemStore()
	ctx := context.Background()

	docs := []Document{
		{ID: "a", Content: "grounded generation retrieves context first", Source: "essay"},
		{ID: "b", Content: "unrelated cooking recipe", Source: "blog"},
		{ID: "c", Content: "retrieval augmented generation reduces hallucinations", Source: "essay"},
	}
	embeddings := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
	}

	if err := s.Upsert(ctx, docs, embeddings); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	got, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != "a" {
		t.Errorf("expected best match %q, got %q", "a", got[0].ID)
	}
	if got[1].ID != "c" {
		t.Errorf("expected second match %q, got %q", "c", got[1].ID)
	}
	if got[0].Score < got[1].Score {
		t.Errorf("results not sorted by score: %v then %v", got[0].Score, got[1].Score)
	}
}

func TestMemStore_UpsertLengthMismatch(t *testing.T) {
	t.Parallel()

	s := NewMemStore()
	err := s.Upsert(context.Background(), []Document{{ID: "a"}}, nil)
	if err == nil {
		t.Fatal("expected error for mismatched docs/embeddings lengths")
	}
}

func TestMemStore_UpsertReplacesExisting(t *testing.T) {
	t.Parallel()

	s := NewMemStore()
	ctx := context.Background()

	if err := s.Upsert(ctx, []Document{{ID: "a", Content: "old"}}, [][]float32{{1, 0}}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if err := s.Upsert(ctx, []Document{{ID: "a", Content: "new"}}, [][]float32{{0, 1}}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 document after replace, got %d", n)
	}

	got, err := s.Search(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if got[0].Content != "new" {
		t.Errorf("expected replaced content %q, got %q", "new", got[0].Content)
	}
}

func TestMemStore_Delete(t *testing.T) {
	t.Parallel()

	s := NewMemStore()
	ctx := context.Background()

	docs := []Document{{ID: "a"}, {ID: "b"}}
	if err := s.Upsert(ctx, docs, [][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	if err := s.Delete(ctx, []string{"a", "missing"}); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("expected 1 document after delete, got %d", n)
	}
}

func Test_Cosine(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cosine(tc.a, tc.b)
			if diff := got - tc.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("cosine(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
