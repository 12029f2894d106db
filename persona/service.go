package persona

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/echohq/echo-engine/embeddings"
	"github.com/echohq/echo-engine/llm"
)

const defaultContextLimit = 5

type Service struct {
	vectors  VectorStore
	graph    GraphStore
	stats    StatsStore
	embedder embeddings.Embedder
	llm      llm.Client
	logger   *log.Logger
}

type Config struct {
	ContextLimit int
}

func NewService(vectors VectorStore, graph GraphStore, stats StatsStore, embedder embeddings.Embedder, llmClient llm.Client, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		vectors:  vectors,
		graph:    graph,
		stats:    stats,
		embedder: embedder,
		llm:      llmClient,
		logger:   logger,
	}
}

// Chat generates one Echo reply for the user.
func (s *Service) Chat(ctx context.Context, userID, message string, cfg Config) (Response, error) {
	resp, _, err := s.chat(ctx, userID, message, cfg, nil, nil)
	return resp, err
}

// ChatStream runs the chat workflow while optionally streaming the reply.
// The history slice contains prior conversation turns (excluding the system
// prompt) and is extended with the latest user/assistant messages on success.
// When the LLM implementation does not support streaming, the callback
// receives the full reply once.
func (s *Service) ChatStream(
	ctx context.Context,
	userID, message string,
	cfg Config,
	history []llm.Message,
	streamFn func(string) error,
) (Response, []llm.Message, error) {
	return s.chat(ctx, userID, message, cfg, history, streamFn)
}

func (s *Service) chat(
	ctx context.Context,
	userID, message string,
	cfg Config,
	history []llm.Message,
	streamFn func(string) error,
) (Response, []llm.Message, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Response{}, nil, fmt.Errorf("message cannot be empty")
	}
	if userID == "" {
		return Response{}, nil, fmt.Errorf("user id cannot be empty")
	}
	if s.embedder == nil {
		return Response{}, nil, fmt.Errorf("embedder is not configured")
	}
	if s.vectors == nil {
		return Response{}, nil, fmt.Errorf("vector store is not configured")
	}
	if s.llm == nil {
		return Response{}, nil, fmt.Errorf("llm client is not configured")
	}

	limit := cfg.ContextLimit
	if limit <= 0 {
		limit = defaultContextLimit
	}

	var stats Stats
	if s.stats != nil {
		loaded, found, err := s.stats.UserStats(ctx, userID)
		if err != nil {
			return Response{}, nil, fmt.Errorf("load echo stats: %w", err)
		}
		if found {
			stats = loaded
		}
	}
	if stats.TotalMessages == 0 {
		return Response{}, nil, fmt.Errorf("no processed messages for user %s; upload an export first", userID)
	}

	vectors, err := s.embedder.Embed(ctx, []string{message})
	if err != nil {
		return Response{}, nil, fmt.Errorf("embed message: %w", err)
	}
	if len(vectors) == 0 {
		return Response{}, nil, fmt.Errorf("embedder returned no vectors")
	}

	examples, err := s.vectors.SimilarMessages(ctx, userID, vectors[0], limit)
	if err != nil {
		return Response{}, nil, fmt.Errorf("vector search: %w", err)
	}
	if len(examples) == 0 {
		s.logger.Printf("no stored messages matched for user %s, replying from style profile only", userID)
	}

	insight := Insight{}
	if s.graph != nil {
		insight, err = s.graph.UserInsight(ctx, userID)
		if err != nil {
			return Response{}, nil, fmt.Errorf("persona insight: %w", err)
		}
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: buildPersonaPrompt(stats, insight, examples),
	})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	reply, err := s.generate(ctx, messages, streamFn)
	if err != nil {
		return Response{}, nil, fmt.Errorf("generate reply: %w", err)
	}

	history = append(history, llm.Message{Role: llm.RoleUser, Content: message})
	history = append(history, llm.Message{Role: llm.RoleAssistant, Content: reply})

	return Response{
		Reply:       reply,
		ContextUsed: examples,
		Confidence:  stats.AccuracyScore,
	}, history, nil
}

func (s *Service) generate(ctx context.Context, messages []llm.Message, streamFn func(string) error) (string, error) {
	if streamFn != nil {
		if streamer, ok := s.llm.(llm.StreamingClient); ok {
			var builder strings.Builder
			err := streamer.GenerateStream(ctx, messages, func(chunk string) error {
				builder.WriteString(chunk)
				return streamFn(chunk)
			})
			if err != nil {
				return "", err
			}
			return builder.String(), nil
		}
	}

	reply, err := s.llm.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	if streamFn != nil {
		if err := streamFn(reply); err != nil {
			return "", err
		}
	}
	return reply, nil
}

// buildPersonaPrompt turns the stored style profile and retrieved messages
// into the system prompt that makes the model write as the user.
func buildPersonaPrompt(stats Stats, insight Insight, examples []MessageResult) string {
	var b strings.Builder

	b.WriteString("You are the user's Echo: a digital twin that writes exactly like them.\n")
	b.WriteString("Reply as the user would, in their voice. Never mention being an AI or an Echo.\n\n")

	fmt.Fprintf(&b, "Style profile (from %d of their real messages):\n", stats.TotalMessages)
	fmt.Fprintf(&b, "- Typical message length: about %.0f characters.\n", stats.AvgMessageLength)
	if len(stats.CommonStarters) > 0 {
		fmt.Fprintf(&b, "- They often start messages with: %s.\n", strings.Join(stats.CommonStarters, ", "))
	}
	if len(insight.Sources) > 0 {
		fmt.Fprintf(&b, "- Their writing comes from: %s.\n", strings.Join(insight.Sources, ", "))
	}
	if len(insight.Senders) > 0 {
		fmt.Fprintf(&b, "- They go by: %s.\n", strings.Join(insight.Senders, ", "))
	}

	if len(examples) > 0 {
		b.WriteString("\nReal messages they wrote, most relevant first:\n")
		for _, example := range examples {
			fmt.Fprintf(&b, "- %s\n", example.Content)
		}
	}

	b.WriteString("\nMatch their length, punctuation and tone. Do not be more formal than the examples.")
	return b.String()
}
