package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/thomasbaier2/SecondBrain/internal/config"
)

// OpenAIClient generates text using the OpenAI chat completions API.
type OpenAIClient struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIClient creates an OpenAI generation client.
func NewOpenAIClient(cfg config.LLMConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY)")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}, nil
}

// Generate produces free text for a prompt.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI generate failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}

	text := completion.Choices[0].Message.Content
	c.logger.Debug("openai generation complete",
		zap.String("model", c.model),
		zap.Int("response_len", len(text)))
	return text, nil
}

// GenerateJSON asks the model for a JSON object and unmarshals it into out.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string, out any) error {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return fmt.Errorf("OpenAI structured generate failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return fmt.Errorf("OpenAI returned no choices")
	}

	return decodeJSON(completion.Choices[0].Message.Content, out)
}
