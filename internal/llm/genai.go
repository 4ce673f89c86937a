package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/thomasbaier2/SecondBrain/internal/config"
)

// GenAIClient generates text using Google's Gemini API.
type GenAIClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGenAIClient creates a GenAI generation client.
func NewGenAIClient(cfg config.LLMConfig, logger *zap.Logger) (*GenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required (set GEMINI_API_KEY)")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIClient{client: client, model: model, logger: logger}, nil
}

// Generate produces free text for a prompt.
func (c *GenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("GenAI returned an empty response")
	}

	c.logger.Debug("genai generation complete",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Int("response_len", len(text)))
	return text, nil
}

// GenerateJSON asks the model for a JSON object and unmarshals it into out.
func (c *GenAIClient) GenerateJSON(ctx context.Context, prompt string, out any) error {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return fmt.Errorf("GenAI structured generate failed: %w", err)
	}

	return decodeJSON(result.Text(), out)
}
