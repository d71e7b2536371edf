package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vk8459698/mem0-ai/internal/memory"
)

// fakeEmbedder returns a fixed-size vector per input text.
type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

// captureStore records upserted documents.
type captureStore struct {
	memory.VectorStore
	docs       []memory.Document
	embeddings [][]float32
}

func (c *captureStore) Upsert(_ context.Context, docs []memory.Document, embeddings [][]float32) error {
	c.docs = append(c.docs, docs...)
	c.embeddings = append(c.embeddings, embeddings...)
	return nil
}

func TestIngest_FromHTTPSource(t *testing.T) {
	t.Parallel()

	content := strings.Repeat("grounded answers cite their sources. ", 40)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(content))
	}))
	defer srv.Close()

	store := &captureStore{}
	p, err := NewPipeline(&fakeEmbedder{}, store, &Config{ChunkSize: 500, ChunkOverlap: 50})
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}

	err = p.Ingest(context.Background(), []Source{{Location: srv.URL, Topic: "rag"}}, nil)
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	if len(store.docs) == 0 {
		t.Fatal("no documents upserted")
	}
	if len(store.docs) != len(store.embeddings) {
		t.Fatalf("%d docs but %d embeddings", len(store.docs), len(store.embeddings))
	}
	for i, doc := range store.docs {
		if _, err := uuid.Parse(doc.ID); err != nil {
			t.Errorf("doc %d ID %q is not a UUID: %v", i, doc.ID, err)
		}
		if doc.Source != srv.URL {
			t.Errorf("doc %d source = %q, want %q", i, doc.Source, srv.URL)
		}
		if doc.Metadata["topic"] != "rag" {
			t.Errorf("doc %d topic = %q, want rag", i, doc.Metadata["topic"])
		}
	}
}

func TestIngest_FromLocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "rag-notes.md")
	if err := os.WriteFile(path, []byte("Retrieval grounds the model in real documents."), 0o600); err != nil {
		t.Fatal(err)
	}

	store := &captureStore{}
	p, err := NewPipeline(&fakeEmbedder{}, store, nil)
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}

	if err := p.Ingest(context.Background(), []Source{{Location: path}}, nil); err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	if len(store.docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(store.docs))
	}
	if store.docs[0].Metadata["doc_type"] != "note" {
		t.Errorf("doc_type = %q, want note", store.docs[0].Metadata["doc_type"])
	}
	if store.docs[0].Metadata["topic"] != "rag-notes" {
		t.Errorf("topic = %q, want rag-notes", store.docs[0].Metadata["topic"])
	}
}

func TestIngest_FetchErrorAborts(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	emb := &fakeEmbedder{}
	p, err := NewPipeline(emb, &captureStore{}, nil)
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}

	err = p.Ingest(context.Background(), []Source{{Location: srv.URL}}, nil)
	if err == nil || !strings.Contains(err.Error(), "fetch failed") {
		t.Errorf("error = %v, want fetch failure", err)
	}
	if emb.calls != 0 {
		t.Error("embedder must not be called when fetch fails")
	}
}

func TestIngest_SkipsEmptySource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, []byte("   \n"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := &captureStore{}
	p, err := NewPipeline(&fakeEmbedder{}, store, nil)
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}

	if err := p.Ingest(context.Background(), []Source{{Location: path}}, nil); err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if len(store.docs) != 0 {
		t.Errorf("empty source produced %d docs", len(store.docs))
	}
}

func TestChunk_Overlap(t *testing.T) {
	t.Parallel()

	p, err := NewPipeline(&fakeEmbedder{}, &captureStore{}, &Config{ChunkSize: 10, ChunkOverlap: 2})
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}

	chunks := p.chunk("abcdefghijklmnopqrstuvwxyz")
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	if chunks[0] != "abcdefghij" {
		t.Errorf("first chunk = %q", chunks[0])
	}
	// Consecutive chunks share the configured overlap.
	if !strings.HasPrefix(chunks[1], chunks[0][8:]) {
		t.Errorf("chunk 1 %q does not overlap chunk 0 %q", chunks[1], chunks[0])
	}
}

func TestChunk_MultiByteRunesStayIntact(t *testing.T) {
	t.Parallel()

	p, err := NewPipeline(&fakeEmbedder{}, &captureStore{}, &Config{ChunkSize: 4, ChunkOverlap: 1})
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}

	// Each rune here is multi-byte; byte-offset chunking would split one
	// mid-sequence and emit invalid UTF-8.
	chunks := p.chunk("日本語のテキストを分割する")
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, c)
		}
	}
	if got := []rune(chunks[0]); len(got) != 4 {
		t.Errorf("first chunk has %d runes, want 4: %q", len(got), chunks[0])
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	t.Parallel()

	a := ChunkID("https://example.com/doc", 0)
	b := ChunkID("https://example.com/doc", 0)
	c := ChunkID("https://example.com/doc", 1)

	if a != b {
		t.Errorf("same input produced different IDs: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different chunk indices produced the same ID")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("chunk ID %q is not a UUID: %v", a, err)
	}
}

func TestInferMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		location string
		topic    string
		docType  string
	}{
		{"wikipedia article", "https://en.wikipedia.org/wiki/Retrieval-augmented_generation", "retrieval-augmented-generation", "encyclopedia"},
		{"arxiv paper", "https://arxiv.org/abs/2005.11401", "2005.11401", "paper"},
		{"docs host", "https://docs.example.com/guide/indexing", "indexing", "reference"},
		{"plain url", "https://example.com/blog/why-grounding-matters", "why-grounding-matters", "article"},
		{"markdown file", "notes/rag_basics.md", "rag-basics", "note"},
		{"bare url", "https://example.com", "general", "article"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := InferMetadata(tt.location)
			if m.Topic != tt.topic {
				t.Errorf("Topic = %q, want %q", m.Topic, tt.topic)
			}
			if m.DocType != tt.docType {
				t.Errorf("DocType = %q, want %q", m.DocType, tt.docType)
			}
		})
	}
}
