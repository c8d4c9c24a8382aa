package ai

import (
	"context"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/sashabaranov/go-openai"
	"log/slog"
	"time"
)

// DefaultMaxTokens leaves room for a full analysis with drafted documents.
const DefaultMaxTokens = 4096

type Config struct {
	APIKey string
	// BaseURL points the client at an OpenAI compatible endpoint. Empty uses the OpenAI API.
	BaseURL   string
	Model     string
	MaxTokens int
}

// Client is the reasoning capability: it turns a prompt into a single text completion.
type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo1106
	}
	return &Client{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Complete sends prompt as a single user message and returns the content of the first choice. There is no streaming,
// conversation state or retry.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:     c.model,
			MaxTokens: c.maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "create chat completion", slog.String("model", c.model))
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("completion without choices", slog.String("model", c.model))
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, "completion finished",
		slog.String("model", c.model),
		slog.Int("prompt_tokens", completion.Usage.PromptTokens),
		slog.Int("completion_tokens", completion.Usage.CompletionTokens),
		slog.String("finish_reason", string(completion.Choices[0].FinishReason)),
		slog.Duration("duration", time.Since(start)))
	return completion.Choices[0].Message.Content, nil
}
