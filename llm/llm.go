// Package llm provides the chat-completion client used to voice the Echo
// persona, backed by OpenAI or a local Ollama runtime.
package llm

import (
	"context"
	"fmt"

	"github.com/echohq/echo-engine/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// StreamingClient is implemented by backends that can deliver the reply
// incrementally.
type StreamingClient interface {
	Client
	GenerateStream(ctx context.Context, messages []Message, fn func(string) error) error
}

// NewClient selects the chat backend from configuration.
func NewClient(cfg config.Config) (Client, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOllama:
		return newOllamaClient(cfg.OllamaHost, cfg.LLM.Model), nil
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return newOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.LLM.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}
