package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vk8459698/mem0-ai/internal/generator"
)

// fakeAnswerer implements the answerer interface for tests.
// It writes a fixed response to the writer and returns configurable values.
type fakeAnswerer struct {
	// response is written verbatim to the writer on each Answer call.
	response string
	// answer is returned as the structured result.
	answer *generator.Answer
	// err is returned as the error value.
	err error
}

func (f *fakeAnswerer) Answer(_ context.Context, _, _ string, w io.Writer) (*generator.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	_, _ = fmt.Fprint(w, f.response)
	if f.answer != nil {
		return f.answer, nil
	}
	return &generator.Answer{Text: f.response, Grounded: true}, nil
}

// newAskTestServer builds a *Server wired with the given answerer fake and
// an isolated metrics registry.
func newAskTestServer(a answerer) *Server {
	return &Server{
		answerer: a,
		cfg:      &Config{Port: 8080, AskTimeout: time.Minute},
		log:      slog.Default(),
		metrics:  newServerMetrics(prometheus.NewRegistry()),
	}
}

func TestHandleAsk_MissingQuestion(t *testing.T) {
	t.Parallel()

	s := newAskTestServer(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ask",
		strings.NewReader(`{"session":"s1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleAsk(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleAsk_InvalidJSON(t *testing.T) {
	t.Parallel()

	s := newAskTestServer(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ask",
		strings.NewReader(`not-json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleAsk(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// TestHandleAsk_Success verifies that a valid request produces an SSE stream
// with the answer text, a "sources" event, and a "done" event.
// httptest.ResponseRecorder implements http.Flusher so the handler's flusher
// check passes without a real connection.
func TestHandleAsk_Success(t *testing.T) {
	t.Parallel()

	a := &fakeAnswerer{
		response: "RAG was introduced in 2020 [1].",
		answer: &generator.Answer{
			Text:     "RAG was introduced in 2020 [1].",
			Grounded: true,
			Sources: []generator.Citation{
				{Index: 1, Source: "https://example.com/rag-paper", Score: 0.91},
			},
		},
	}
	s := newAskTestServer(a)

	req := httptest.NewRequest(http.MethodPost, "/api/ask",
		strings.NewReader(`{"question":"when was RAG introduced?"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleAsk(w, req)

	body := w.Body.String()

	if !strings.Contains(body, "data: RAG was introduced in 2020 [1].") {
		t.Errorf("expected answer text in SSE body, got: %s", body)
	}
	if !strings.Contains(body, "event: sources") {
		t.Errorf("expected sources event in body, got: %s", body)
	}
	if !strings.Contains(body, "https://example.com/rag-paper") {
		t.Errorf("expected citation source in body, got: %s", body)
	}
	if !strings.Contains(body, "event: done") {
		t.Errorf("expected SSE done event in body, got: %s", body)
	}
	if strings.Contains(body, "event: fallback") {
		t.Errorf("grounded answer must not emit fallback event, got: %s", body)
	}
}

// TestHandleAsk_Fallback verifies that a fallback answer emits a
// "fallback" event and no "sources" event.
func TestHandleAsk_Fallback(t *testing.T) {
	t.Parallel()

	a := &fakeAnswerer{
		response: generator.FallbackAnswer,
		answer:   &generator.Answer{Text: generator.FallbackAnswer, Grounded: false},
	}
	s := newAskTestServer(a)

	req := httptest.NewRequest(http.MethodPost, "/api/ask",
		strings.NewReader(`{"question":"unknown topic"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleAsk(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "event: fallback") {
		t.Errorf("expected fallback event in body, got: %s", body)
	}
	if strings.Contains(body, "event: sources") {
		t.Errorf("fallback must not emit sources event, got: %s", body)
	}
	if !strings.Contains(body, "event: done") {
		t.Errorf("expected done event in body, got: %s", body)
	}
}

// TestHandleAsk_AnswererError verifies that when the answerer returns an
// error, the SSE stream includes an "error" event and the response is still
// 200 (SSE errors are delivered in-band, not via HTTP status).
func TestHandleAsk_AnswererError(t *testing.T) {
	t.Parallel()

	a := &fakeAnswerer{err: fmt.Errorf("LLM unavailable")}
	s := newAskTestServer(a)

	req := httptest.NewRequest(http.MethodPost, "/api/ask",
		strings.NewReader(`{"question":"anything"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleAsk(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "event: error") {
		t.Errorf("expected error event in body, got: %s", body)
	}
	if !strings.Contains(body, "LLM unavailable") {
		t.Errorf("expected error message in body, got: %s", body)
	}
}

func TestSSEWriter_MultilineChunk(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	sw := &sseWriter{w: rec, flusher: rec}

	if _, err := sw.Write([]byte("line one\nline two\n")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	want := "data: line one\ndata: line two\n\n"
	if rec.Body.String() != want {
		t.Errorf("frame = %q, want %q", rec.Body.String(), want)
	}
}
