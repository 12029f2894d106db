// Package embeddings produces vector embeddings for messages via OpenAI or a
// local Ollama runtime.
package embeddings

import (
	"context"
	"fmt"

	"github.com/echohq/echo-engine/config"
)

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmbedder selects the embedding backend from configuration.
func NewEmbedder(cfg config.Config) (Embedder, error) {
	switch cfg.Embeddings.Provider {
	case config.ProviderOllama:
		return newOllamaEmbedder(cfg.OllamaHost, cfg.Embeddings.Model, cfg.Embeddings.Dimension), nil
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return newOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Embeddings.Model, cfg.Embeddings.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Embeddings.Provider)
	}
}
