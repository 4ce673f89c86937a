// Package llm provides the text-generation capability used by the dispatcher
// and synthesizer. Two backends are supported: Google GenAI and OpenAI.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/thomasbaier2/SecondBrain/internal/config"
)

// Client is the minimal generation interface the orchestration core consumes.
type Client interface {
	// Generate produces free text for a prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateJSON asks the model for a JSON object matching out's shape and
	// unmarshals the response into out.
	GenerateJSON(ctx context.Context, prompt string, out any) error
}

// New creates a generation client based on configuration.
func New(cfg config.LLMConfig, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "genai", "gemini", "":
		return NewGenAIClient(cfg, logger)
	case "openai":
		return NewOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s (use 'genai' or 'openai')", cfg.Provider)
	}
}

// stripFences removes a markdown code fence around a JSON payload. Models
// regularly wrap structured output in ```json fences even when told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// decodeJSON unmarshals a model response into out, tolerating fenced output.
func decodeJSON(raw string, out any) error {
	cleaned := stripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("failed to parse model JSON output: %w", err)
	}
	return nil
}
