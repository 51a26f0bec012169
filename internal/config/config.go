package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port              string
	SearxngURL        string
	LLMProvider       string
	LLMModel          string
	LLMBaseURL        string
	OpenAIAPIKey      string
	OpenRouterAPIKey  string
	OllamaBaseURL     string
	EmbeddingModel    string
	EmbeddingBaseURL  string
	EmbeddingAPIKey   string
	PostgresURL       string
	LinkChunkChars    int
	LinkFetchParallel int
}

func Load() Config {
	embeddingKey := getEnv("EMBEDDING_API_KEY", "")
	if embeddingKey == "" {
		embeddingKey = getEnv("OPENAI_API_KEY", "")
	}
	return Config{
		Port:              getEnv("PLANAI_PORT", "3001"),
		SearxngURL:        getEnv("SEARXNG_API_URL", "http://localhost:8080"),
		LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
		LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingAPIKey:   embeddingKey,
		PostgresURL:       getEnv("POSTGRES_URL", ""),
		LinkChunkChars:    getEnvInt("LINK_CHUNK_CHARS", 1500),
		LinkFetchParallel: getEnvInt("LINK_FETCH_PARALLEL", 4),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
