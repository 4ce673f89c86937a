package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/thomasbaier2/SecondBrain/internal/config"
)

// OpenAIEmbedder generates embeddings using the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIEmbedder creates an OpenAI embedding backend.
func NewOpenAIEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY)")
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  model,
		logger: logger,
	}, nil
}

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: e.model,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embed failed: %w", err)
	}

	vecs := make([][]float32, 0, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		vecs = append(vecs, vec)
	}

	vec := FirstVector(vecs)
	if vec == nil {
		return nil, fmt.Errorf("no embeddings returned")
	}

	e.logger.Debug("openai embedding complete",
		zap.String("model", e.model), zap.Int("dimensions", len(vec)))
	return vec, nil
}

// Name returns the backend name.
func (e *OpenAIEmbedder) Name() string { return "openai:" + e.model }
