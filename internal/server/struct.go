package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vk8459698/mem0-ai/internal/generator"
	"github.com/vk8459698/mem0-ai/internal/ingestion"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// AskTimeout caps the total duration of a single /api/ask request,
	// retrieval and generation included. Defaults to 5 minutes.
	AskTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// MetricsRegistry receives all server metric registrations. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs GET /metrics. Defaults to prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// answerer is the interface handleAsk calls to stream a grounded answer.
// *generator.Generator satisfies it; tests inject a fake.
type answerer interface {
	// Answer streams the answer text for question to w and returns the
	// structured result with citations.
	Answer(ctx context.Context, question, session string, w io.Writer) (*generator.Answer, error)
}

// ingester is the interface handleDocumentsAdd calls to run ingestion.
// *ingestion.Pipeline satisfies it; tests inject a fake.
type ingester interface {
	Ingest(ctx context.Context, sources []ingestion.Source, progress func(msg string)) error
}

// documentStore is the subset of memory.VectorStore the document
// management handlers need.
type documentStore interface {
	Delete(ctx context.Context, ids []string) error
	Count(ctx context.Context) (uint64, error)
}

// Server is the HTTP server that exposes the grounded question-answering API.
type Server struct {
	// answerer produces grounded answers for /api/ask.
	answerer answerer
	// ingester runs the ingestion pipeline for POST /api/documents.
	// Nil disables the endpoint (405 is returned by the mux pattern miss).
	ingester ingester
	// docs backs document count and deletion. Nil disables the endpoints.
	docs documentStore
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds all Prometheus metrics owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// askRequest is the JSON body for POST /api/ask.
type askRequest struct {
	// Question is the user's natural language question.
	Question string `json:"question"`
	// Session groups questions into a conversation for history injection.
	// Empty means stateless.
	Session string `json:"session,omitempty"`
}

// sourceSpec describes one knowledge source in POST /api/documents.
type sourceSpec struct {
	// Location is an HTTP(S) URL or a server-local file path.
	Location string `json:"location"`
	// Topic overrides the inferred subject label.
	Topic string `json:"topic,omitempty"`
	// DocType overrides the inferred document kind.
	DocType string `json:"docType,omitempty"`
}

// addDocumentsRequest is the JSON body for POST /api/documents.
type addDocumentsRequest struct {
	Sources []sourceSpec `json:"sources"`
}

// addDocumentsResponse is the JSON response for POST /api/documents.
type addDocumentsResponse struct {
	// Ingested is the number of sources processed.
	Ingested int `json:"ingested"`
	// Log contains the pipeline progress messages, oldest first.
	Log []string `json:"log,omitempty"`
}

// deleteDocumentsRequest is the JSON body for DELETE /api/documents.
type deleteDocumentsRequest struct {
	// IDs is the list of document chunk IDs to remove.
	IDs []string `json:"ids"`
}

// documentsResponse is the JSON response for GET /api/documents.
type documentsResponse struct {
	// Count is the number of document chunks currently stored.
	Count uint64 `json:"count"`
}
