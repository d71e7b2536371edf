// Package ingestion implements the knowledge ingestion pipeline.
// It fetches source documents, chunks the text, embeds each chunk, and
// upserts the results into the vector store. This pipeline is invoked
// by the `mem0 ingest` CLI command.
package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vk8459698/mem0-ai/internal/memory"
)

// Source describes a knowledge source to be ingested.
type Source struct {
	// Location is an HTTP(S) URL or a local file path.
	Location string

	// Topic labels the subject area of the document (e.g. "rag",
	// "company-handbook"). Empty means inferred from the location.
	Topic string

	// DocType classifies the document kind (paper, article, reference,
	// note). Empty means inferred from the location.
	DocType string
}

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of characters per document chunk.
	// Defaults to 1000 if zero.
	ChunkSize int

	// ChunkOverlap is the number of characters to overlap between consecutive chunks.
	// Defaults to 100 if zero.
	ChunkOverlap int

	// HTTPTimeout is the timeout for each document fetch request.
	// Defaults to 30s if zero.
	HTTPTimeout time.Duration

	// UserAgent is the HTTP User-Agent header sent with fetch requests.
	UserAgent string
}

// Pipeline orchestrates the fetch → chunk → embed → upsert flow for a set
// of knowledge sources.
type Pipeline struct {
	embedder memory.Embedder
	store    memory.VectorStore
	cfg      *Config

	// httpClient is the HTTP client used for fetching remote sources.
	httpClient *http.Client
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder memory.Embedder, store memory.VectorStore, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 10
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "mem0-ai/1.0 (knowledge ingestion)"
	}

	return &Pipeline{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}, nil
}

// Ingest fetches, chunks, embeds, and stores all provided sources.
// It processes sources sequentially and returns the first error encountered.
// Progress is reported via the optional progress callback.
func (p *Pipeline) Ingest(ctx context.Context, sources []Source, progress func(msg string)) error {
	if progress == nil {
		progress = func(string) {}
	}

	for _, src := range sources {
		progress(fmt.Sprintf("fetching %s", src.Location))

		content, err := p.fetch(ctx, src.Location)
		if err != nil {
			return fmt.Errorf("ingestion: fetch failed for %s: %w", src.Location, err)
		}

		chunks := p.chunk(content)
		if len(chunks) == 0 {
			progress(fmt.Sprintf("skipping empty source %s", src.Location))
			continue
		}
		progress(fmt.Sprintf("chunked %s into %d chunks", src.Location, len(chunks)))

		embeddings, err := p.embedder.Embed(ctx, chunks)
		if err != nil {
			return fmt.Errorf("ingestion: embedding failed for %s: %w", src.Location, err)
		}

		inferred := InferMetadata(src.Location)
		topic := src.Topic
		if topic == "" {
			topic = inferred.Topic
		}
		docType := src.DocType
		if docType == "" {
			docType = inferred.DocType
		}

		docs := make([]memory.Document, 0, len(chunks))
		for i, chunk := range chunks {
			docs = append(docs, memory.Document{
				ID:      ChunkID(src.Location, i),
				Content: chunk,
				Source:  src.Location,
				Metadata: map[string]string{
					"topic":       topic,
					"doc_type":    docType,
					"chunk_index": fmt.Sprintf("%d", i),
				},
			})
		}

		if err := p.store.Upsert(ctx, docs, embeddings); err != nil {
			return fmt.Errorf("ingestion: upsert failed for %s: %w", src.Location, err)
		}

		progress(fmt.Sprintf("ingested %d chunks from %s", len(chunks), src.Location))
	}

	return nil
}

// fetch retrieves the raw text content of a URL or local file.
func (p *Pipeline) fetch(ctx context.Context, location string) (string, error) {
	if !isRemote(location) {
		data, err := os.ReadFile(location)
		if err != nil {
			return "", fmt.Errorf("reading file: %w", err)
		}
		return string(data), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "text/plain, text/html")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, location)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	return string(body), nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// chunk splits text into overlapping chunks of cfg.ChunkSize characters.
// Boundaries are counted in runes, not bytes, so a multi-byte character
// is never split across chunks into invalid UTF-8 fragments.
func (p *Pipeline) chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	size := p.cfg.ChunkSize
	overlap := p.cfg.ChunkOverlap

	var chunks []string
	for start := 0; start < len(runes); start += size - overlap {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks
}

// ChunkID derives a deterministic UUID for a document chunk from its
// source location and chunk index, so re-ingesting a source overwrites
// its previous chunks instead of duplicating them. Qdrant only accepts
// UUID or integer point IDs.
func ChunkID(location string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", location, index))).String()
}
