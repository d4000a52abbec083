package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gramacare/backend/internal/service/ai"
)

// Config aggregates every setting the service reads.
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Watsonx   ai.GraniteConfig
	Embedding EmbeddingConfig
	Retrieval RetrievalConfig
	Translate TranslateConfig
	Gate      GateConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	gate, err := loadGateConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Backend:   loadBackendConfig(),
		Watsonx:   loadWatsonxConfig(),
		Embedding: loadEmbeddingConfig(),
		Retrieval: loadRetrievalConfig(),
		Translate: loadTranslateConfig(),
		Gate:      gate,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5050"
	}

	if strings.Contains(port, ":") {
		// Accept ":5050" or "127.0.0.1:5050" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// BackendConfig points the conversation orchestrator at its question
// endpoint. By default that is this same process.
type BackendConfig struct {
	BaseURL string
}

func loadBackendConfig() BackendConfig {
	return BackendConfig{
		BaseURL: getEnvOrDefault("BACKEND_BASE_URL", "http://localhost:5050"),
	}
}

func loadWatsonxConfig() ai.GraniteConfig {
	return ai.GraniteConfig{
		URL:       strings.TrimSpace(os.Getenv("WATSONX_URL")),
		APIKey:    strings.TrimSpace(os.Getenv("WATSONX_API_KEY")),
		ProjectID: strings.TrimSpace(os.Getenv("WATSONX_PROJECT_ID")),
		ModelID:   getEnvOrDefault("WATSONX_MODEL_ID", "ibm/granite-3-8b-instruct"),
	}
}

// EmbeddingConfig describes the embeddings endpoint used for retrieval.
type EmbeddingConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Enabled reports whether embeddings can be requested.
func (c EmbeddingConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

func loadEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		APIKey:  strings.TrimSpace(os.Getenv("EMBEDDING_API_KEY")),
		BaseURL: strings.TrimSpace(os.Getenv("EMBEDDING_BASE_URL")),
		Model:   getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
	}
}

// RetrievalConfig locates the prebuilt vector index.
type RetrievalConfig struct {
	IndexPath string
	TopK      int
}

func loadRetrievalConfig() RetrievalConfig {
	topK := 3
	if raw := strings.TrimSpace(os.Getenv("RETRIEVAL_TOP_K")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			topK = parsed
		}
	}
	return RetrievalConfig{
		IndexPath: getEnvOrDefault("INDEX_PATH", "data/index.gob"),
		TopK:      topK,
	}
}

// TranslateConfig points at a LibreTranslate-compatible endpoint. Empty
// means no translation; answers stay in English.
type TranslateConfig struct {
	Endpoint string
}

func loadTranslateConfig() TranslateConfig {
	return TranslateConfig{
		Endpoint: strings.TrimSpace(os.Getenv("TRANSLATE_ENDPOINT")),
	}
}

// GateConfig toggles the healthcare keyword filter on /chat.
type GateConfig struct {
	Enabled bool
}

func loadGateConfig() (GateConfig, error) {
	enabled, err := parseBoolEnv("HEALTH_GATE_ENABLED", true)
	if err != nil {
		return GateConfig{}, err
	}
	return GateConfig{Enabled: enabled}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
