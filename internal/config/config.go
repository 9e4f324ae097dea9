// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

// #region imports
import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// #endregion

// #region settings

// Settings is the full runtime configuration.
type Settings struct {
	DBPath string

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string
	EmbedModel string

	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	QdrantDims       uint64
}

// Load reads settings from the environment. A .env file in the working
// directory is merged in first when present; real env vars win.
func Load() Settings {
	_ = godotenv.Load()

	return Settings{
		DBPath: envOr("MATHPILOT_DB", "mathpilot.db"),

		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMBaseURL: envOr("LLM_BASE_URL", ""),
		LLMModel:   envOr("LLM_MODEL", "llama-3.3-70b-versatile"),
		EmbedModel: envOr("EMBEDDING_MODEL", "text-embedding-3-small"),

		QdrantURL:        envOr("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		QdrantCollection: envOr("QDRANT_COLLECTION", "math_knowledge"),
		QdrantDims:       envUintOr("QDRANT_DIMS", 1536),
	}
}

// #endregion

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUintOr(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

// #endregion
