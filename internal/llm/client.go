package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"research-rag/internal/config"
)

// Generator produces an answer from an assembled prompt under a system
// instruction that constrains the model to the supplied context.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// Client is a Generator backed by a langchaingo chat model.
type Client struct {
	model llms.Model
}

func NewClient(cfg *config.LLMConfig) (*Client, error) {
	var model llms.Model
	var err error
	switch cfg.Provider {
	case "ollama":
		model, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "", "openai":
		model, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &Client{model: model}, nil
}

func (c *Client) Generate(ctx context.Context, prompt, system string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: system}},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	res, err := c.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return res.Choices[0].Content, nil
}
