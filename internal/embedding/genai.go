package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/thomasbaier2/SecondBrain/internal/config"
)

// GenAIEmbedder generates embeddings using Google's Gemini API.
type GenAIEmbedder struct {
	client   *genai.Client
	model    string
	taskType string
	logger   *zap.Logger
}

// NewGenAIEmbedder creates a GenAI embedding backend.
func NewGenAIEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) (*GenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required (set GEMINI_API_KEY)")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	var task string
	switch cfg.TaskType {
	case "SEMANTIC_SIMILARITY", "":
		task = "SEMANTIC_SIMILARITY"
	case "RETRIEVAL_DOCUMENT":
		task = "RETRIEVAL_DOCUMENT"
	case "RETRIEVAL_QUERY":
		task = "RETRIEVAL_QUERY"
	default:
		task = "SEMANTIC_SIMILARITY"
	}

	return &GenAIEmbedder{client: client, model: model, taskType: task, logger: logger}, nil
}

// Embed generates an embedding for a single text.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: e.taskType,
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}

	vecs := make([][]float32, 0, len(result.Embeddings))
	for _, emb := range result.Embeddings {
		vecs = append(vecs, emb.Values)
	}

	vec := FirstVector(vecs)
	if vec == nil {
		return nil, fmt.Errorf("no embeddings returned")
	}

	e.logger.Debug("genai embedding complete",
		zap.String("model", e.model), zap.Int("dimensions", len(vec)))
	return vec, nil
}

// Name returns the backend name.
func (e *GenAIEmbedder) Name() string { return "genai:" + e.model }
