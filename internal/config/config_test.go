package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "ALLOWED_ORIGINS", "REQUEST_TIMEOUT",
		"LLM_PROVIDER", "MODEL_NAME", "API_KEY", "LLM_BASE_URL", "GEMINI_API_KEY", "GOOGLE_API_KEY",
		"EMBED_PROVIDER", "EMBED_MODEL", "EMBED_DIM", "OLLAMA_HOST", "EMBED_CACHE_SIZE", "EMBED_CACHE_TTL",
		"INDEX_BACKEND", "INDEX_PATH", "INDEX_VERIFY", "DATABASE_URL",
		"TOP_K", "CITATION_MODE", "DONT_KNOW_TEXT", "ASK_ON_EMPTY_CONTEXT", "PROMPT_LANGUAGE_HINT",
		"COMPLETION_TIMEOUT", "RETRY_MAX_ATTEMPTS", "RETRY_BACKOFF",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "groq", cfg.LLM.Provider)
	require.Equal(t, "llama3-8b-8192", cfg.LLM.Model)
	require.Equal(t, "local", cfg.Index.Backend)
	require.True(t, cfg.Index.Verify)
	require.Equal(t, 4, cfg.RAG.TopK)
	require.Equal(t, "top1", cfg.RAG.CitationMode)
	require.Equal(t, 1, cfg.RAG.RetryMaxAttempts)
	require.Equal(t, 30*time.Second, cfg.RAG.CompletionTimeout)
	require.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "secret")
	t.Setenv("TOP_K", "6")
	t.Setenv("CITATION_MODE", "ALL")
	t.Setenv("INDEX_VERIFY", "false")
	t.Setenv("RETRY_MAX_ATTEMPTS", "2")
	t.Setenv("RETRY_BACKOFF", "1s")
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "secret", cfg.LLM.APIKey)
	require.Equal(t, "g-key", cfg.LLM.GeminiAPIKey)
	require.Equal(t, 6, cfg.RAG.TopK)
	require.Equal(t, "all", cfg.RAG.CitationMode)
	require.False(t, cfg.Index.Verify)
	require.Equal(t, 2, cfg.RAG.RetryMaxAttempts)
	require.Equal(t, time.Second, cfg.RAG.RetryBackoff)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad int", key: "TOP_K", value: "four"},
		{name: "non positive top k", key: "TOP_K", value: "0"},
		{name: "bad duration", key: "COMPLETION_TIMEOUT", value: "soon"},
		{name: "bad bool", key: "INDEX_VERIFY", value: "maybe"},
		{name: "unknown citation mode", key: "CITATION_MODE", value: "top3"},
		{name: "unknown provider", key: "LLM_PROVIDER", value: "llamafile"},
		{name: "unknown backend", key: "INDEX_BACKEND", value: "faiss"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_ProviderModelDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("EMBED_PROVIDER", "gemini")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	require.Equal(t, "text-embedding-004", cfg.Embed.Model)

	clearEnv(t)
	cfg, err = Load()
	require.NoError(t, err)
	require.Equal(t, "all-minilm", cfg.Embed.Model)
}
