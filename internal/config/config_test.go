package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoFile(t *testing.T) {
	t.Parallel()

	log := slog.Default()
	path, err := Load("/nonexistent/path/config.yaml", log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path, got %q", path)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
model:
  provider: azure
  max_tokens: 8192
  temperature: 0.1
  azure:
    endpoint: https://my-resource.openai.azure.com
    deployment: gpt-4o
    api_version: "2025-04-01-preview"
embedding:
  provider: ollama
  model: nomic-embed-text
memory:
  backend: qdrant
  top_k: 8
  min_score: 0.4
qdrant:
  host: qdrant.internal
  port: 6334
  collection: knowledge
logging:
  level: debug
  format: text
`)

	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	// Clear env vars that the YAML should set.
	envKeys := []string{
		"MODEL_PROVIDER", "MODEL_MAX_TOKENS", "MODEL_TEMPERATURE",
		"AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_DEPLOYMENT", "AZURE_OPENAI_API_VERSION",
		"EMBEDDING_PROVIDER", "EMBEDDING_MODEL",
		"MEMORY_BACKEND", "MEMORY_TOP_K", "MEMORY_MIN_SCORE",
		"QDRANT_HOST", "QDRANT_PORT", "QDRANT_COLLECTION",
		"LOG_LEVEL", "LOG_FORMAT",
	}
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	path, err := Load(cfgPath, slog.Default())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != cfgPath {
		t.Errorf("loaded path = %q, want %q", path, cfgPath)
	}

	want := map[string]string{
		"MODEL_PROVIDER":          "azure",
		"MODEL_MAX_TOKENS":        "8192",
		"MODEL_TEMPERATURE":       "0.1",
		"AZURE_OPENAI_ENDPOINT":   "https://my-resource.openai.azure.com",
		"AZURE_OPENAI_DEPLOYMENT": "gpt-4o",
		"EMBEDDING_PROVIDER":      "ollama",
		"EMBEDDING_MODEL":         "nomic-embed-text",
		"MEMORY_BACKEND":          "qdrant",
		"MEMORY_TOP_K":            "8",
		"MEMORY_MIN_SCORE":        "0.4",
		"QDRANT_HOST":             "qdrant.internal",
		"QDRANT_PORT":             "6334",
		"QDRANT_COLLECTION":       "knowledge",
		"LOG_LEVEL":               "debug",
		"LOG_FORMAT":              "text",
	}
	for k, v := range want {
		if got := os.Getenv(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestLoad_EnvWins(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
model:
  provider: openai
memory:
  backend: qdrant
`)
	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MODEL_PROVIDER", "ollama")
	t.Setenv("MEMORY_BACKEND", "")
	os.Unsetenv("MEMORY_BACKEND")

	if _, err := Load(cfgPath, slog.Default()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := os.Getenv("MODEL_PROVIDER"); got != "ollama" {
		t.Errorf("env var overridden: MODEL_PROVIDER = %q, want ollama", got)
	}
	if got := os.Getenv("MEMORY_BACKEND"); got != "qdrant" {
		t.Errorf("MEMORY_BACKEND = %q, want qdrant from YAML", got)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("model: ["), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(cfgPath, slog.Default()); err == nil {
		t.Error("expected parse error")
	}
}

func TestResolveConfigPath_EnvVar(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(cfgPath, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MEM0_CONFIG", cfgPath)

	if got := resolveConfigPath(""); got != cfgPath {
		t.Errorf("resolveConfigPath() = %q, want %q", got, cfgPath)
	}
}
