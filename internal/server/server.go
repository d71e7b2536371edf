// Package server implements the HTTP server that exposes grounded
// question answering via a REST/SSE API. Answers stream as SSE data
// frames; the citation list arrives as a trailing "sources" event so
// clients can render the answer first and the evidence after.
// The server is started by the `mem0 serve` CLI command.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vk8459698/mem0-ai/internal/ingestion"
)

// New constructs a Server from the provided dependencies and config.
// docs and ing may be nil when the deployment is answer-only; the
// document management endpoints then return 404.
func New(ans answerer, docs documentStore, ing ingester, cfg *Config) (*Server, error) {
	if ans == nil {
		return nil, fmt.Errorf("server: answerer must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must be long enough for streaming responses.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.AskTimeout == 0 {
		cfg.AskTimeout = 5 * time.Minute
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.DefaultRegisterer
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.APIKey == "" {
		log.Warn("server: API key not set, authentication disabled")
	}

	s := &Server{
		answerer: ans,
		ingester: ing,
		docs:     docs,
		cfg:      cfg,
		log:      log,
		pingers:  cfg.Pingers,
		metrics:  newServerMetrics(cfg.MetricsRegistry),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	protected := func(name string, h http.HandlerFunc) http.Handler {
		return s.metrics.instrument(name,
			authMiddleware(cfg.APIKey, rl.middleware(h)))
	}
	open := func(name string, h http.HandlerFunc) http.Handler {
		return s.metrics.instrument(name, h)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/ask", protected("ask", s.handleAsk))
	if s.docs != nil {
		mux.Handle("GET /api/documents", protected("documents", s.handleDocumentsCount))
		mux.Handle("DELETE /api/documents", protected("documents", s.handleDocumentsDelete))
	}
	if s.ingester != nil {
		mux.Handle("POST /api/documents", protected("documents", s.handleDocumentsAdd))
	}
	mux.Handle("GET /api/health", open("health", s.handleHealth))
	mux.Handle("GET /api/ready", open("ready", s.handleReady))
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleAsk handles POST /api/ask requests. The answer text streams as
// Server-Sent Events so the client can render tokens as they arrive; the
// citation list follows as a "sources" event once generation completes.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	// Set SSE headers so the client receives a streaming response.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.AskTimeout)
	defer cancel()

	s.metrics.askActiveStreams.Inc()
	defer s.metrics.askActiveStreams.Dec()
	start := time.Now()

	sw := &sseWriter{w: w, flusher: flusher}

	ans, err := s.answerer.Answer(ctx, req.Question, req.Session, sw)
	if err != nil {
		outcome := "error"
		if ctx.Err() == context.DeadlineExceeded {
			outcome = "timeout"
		}
		s.metrics.askRequestsTotal.WithLabelValues(outcome).Inc()
		s.metrics.askDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", err.Error())
		flusher.Flush()
		return
	}

	s.metrics.askRequestsTotal.WithLabelValues("ok").Inc()
	s.metrics.askDurationSeconds.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	s.metrics.answersTotal.WithLabelValues(groundedLabel(ans.Grounded)).Inc()

	// Citations arrive as a single JSON array after the answer text.
	if len(ans.Sources) > 0 {
		data, err := json.Marshal(ans.Sources)
		if err == nil {
			fmt.Fprintf(w, "event: sources\ndata: %s\n\n", data)
		}
	}
	if !ans.Grounded {
		fmt.Fprintf(w, "event: fallback\ndata: true\n\n")
	}
	// Signal stream completion.
	fmt.Fprintf(w, "event: done\ndata: [DONE]\n\n")
	flusher.Flush()
}

func groundedLabel(grounded bool) string {
	if grounded {
		return "grounded"
	}
	return "fallback"
}

// handleDocumentsAdd handles POST /api/documents. It runs the ingestion
// pipeline synchronously and returns the progress log.
func (s *Server) handleDocumentsAdd(w http.ResponseWriter, r *http.Request) {
	var req addDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Sources) == 0 {
		http.Error(w, "at least one source is required", http.StatusBadRequest)
		return
	}

	srcs := make([]ingestion.Source, 0, len(req.Sources))
	for i, spec := range req.Sources {
		if strings.TrimSpace(spec.Location) == "" {
			http.Error(w, fmt.Sprintf("source %d: location is required", i), http.StatusBadRequest)
			return
		}
		srcs = append(srcs, ingestion.Source{Location: spec.Location, Topic: spec.Topic, DocType: spec.DocType})
	}

	var progress []string
	err := s.ingester.Ingest(r.Context(), srcs, func(msg string) {
		progress = append(progress, msg)
	})
	if err != nil {
		s.log.Error("ingestion failed", slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.metrics.documentsIngestedTotal.Add(float64(len(req.Sources)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(addDocumentsResponse{
		Ingested: len(req.Sources),
		Log:      progress,
	})
}

// handleDocumentsDelete handles DELETE /api/documents.
func (s *Server) handleDocumentsDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		http.Error(w, "at least one id is required", http.StatusBadRequest)
		return
	}

	if err := s.docs.Delete(r.Context(), req.IDs); err != nil {
		s.log.Error("document delete failed", slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDocumentsCount handles GET /api/documents.
func (s *Server) handleDocumentsCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.docs.Count(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(documentsResponse{Count: count})
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// sseWriter wraps an http.ResponseWriter to emit Server-Sent Event data frames.
type sseWriter struct {
	// w is the underlying response writer.
	w http.ResponseWriter

	// flusher flushes buffered data to the client after each write.
	flusher http.Flusher
}

// Write formats p as one or more SSE data lines and flushes to the client.
// Each newline in p is prefixed with "data: " so multi-line chunks never
// break the SSE frame boundary.
func (s *sseWriter) Write(p []byte) (n int, err error) {
	chunk := strings.TrimRight(string(bytes.Clone(p)), "\n")
	lines := strings.Split(chunk, "\n")
	var buf strings.Builder
	for _, line := range lines {
		buf.WriteString("data: ")
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
	if _, err = fmt.Fprint(s.w, buf.String()); err != nil {
		return 0, err
	}
	s.flusher.Flush()
	return len(p), nil
}
