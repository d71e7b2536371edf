// Package tracing wires optional Langfuse observability into the eino
// callback chain, so every retrieval-grounded generation shows up as a
// trace with its prompt, context excerpts, and streamed completion.
package tracing

import (
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"

	"github.com/vk8459698/mem0-ai/internal/version"
)

// Setup initialises the Langfuse callback handler if LANGFUSE_PUBLIC_KEY
// and LANGFUSE_SECRET_KEY are set. Traces are tagged with the binary
// version so regressions in grounding behaviour can be pinned to a
// release. Returns a flush function that must be called before process
// exit to ensure all traces are sent. If Langfuse is not configured,
// both return values are nil and tracing is silently disabled.
func Setup() (callbacks.Handler, func(), bool) {
	host := os.Getenv("LANGFUSE_HOST")
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")

	if publicKey == "" || secretKey == "" {
		return nil, nil, false
	}
	if host == "" {
		host = "http://localhost:3000"
	}

	handler, flusher := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      host,
		PublicKey: publicKey,
		SecretKey: secretKey,
		Name:      "mem0",
		Release:   version.Version,
	})

	return handler, flusher, true
}
