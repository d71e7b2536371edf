package provider

import (
	"testing"
)

func TestConfigFromEnv_Defaults(t *testing.T) {
	// Not parallel — mutates process env.
	t.Setenv("MODEL_PROVIDER", "")
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("OLLAMA_MODEL", "")
	t.Setenv("MODEL_MAX_TOKENS", "")
	t.Setenv("MODEL_TEMPERATURE", "")

	cfg := ConfigFromEnv()

	if cfg.Backend != BackendOllama {
		t.Errorf("default backend = %q, want %q", cfg.Backend, BackendOllama)
	}
	if cfg.BaseURL != "http://localhost:11434" {
		t.Errorf("default base URL = %q", cfg.BaseURL)
	}
	if cfg.Model != "llama3" {
		t.Errorf("default model = %q", cfg.Model)
	}
	if cfg.MaxTokens != 4096 {
		t.Errorf("default max tokens = %d", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.1 {
		t.Errorf("default temperature = %v", cfg.Temperature)
	}
}

func TestConfigFromEnv_OpenAI(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("MODEL_TEMPERATURE", "0.3")

	cfg := ConfigFromEnv()

	if cfg.Backend != BackendOpenAI {
		t.Errorf("backend = %q, want openai", cfg.Backend)
	}
	if cfg.APIKey != "sk-test" {
		t.Errorf("api key not picked up from env")
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", cfg.Model)
	}
	if cfg.Temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", cfg.Temperature)
	}
}

func TestConfigFromEnv_Azure(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "azure")
	t.Setenv("AZURE_OPENAI_API_KEY", "azkey")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT", "gpt-4.1")
	t.Setenv("AZURE_OPENAI_API_VERSION", "")

	cfg := ConfigFromEnv()

	if cfg.AzureDeployment != "gpt-4.1" {
		t.Errorf("deployment = %q", cfg.AzureDeployment)
	}
	if cfg.AzureAPIVersion != "2024-02-01" {
		t.Errorf("default api version = %q", cfg.AzureAPIVersion)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		backend Backend
		wantErr bool
	}{
		{BackendOllama, false},
		{BackendOpenAI, false},
		{BackendAzure, false},
		{BackendBedrock, false},
		{BackendGemini, false},
		{Backend("groq"), true},
		{Backend(""), true},
	}

	for _, tc := range cases {
		cfg := &Config{Backend: tc.backend}
		err := cfg.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("Validate() backend=%q error=%v, wantErr=%v", tc.backend, err, tc.wantErr)
		}
	}
}
