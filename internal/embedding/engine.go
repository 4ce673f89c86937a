// Package embedding provides vector embedding generation for conversational
// memory. Supported backends: Google GenAI and OpenAI.
package embedding

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/thomasbaier2/SecondBrain/internal/config"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name returns the backend name.
	Name() string
}

// New creates an embedder based on configuration.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	switch cfg.Provider {
	case "genai", "gemini", "":
		return NewGenAIEmbedder(cfg, logger)
	case "openai":
		return NewOpenAIEmbedder(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'genai' or 'openai')", cfg.Provider)
	}
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|). It never fails: mismatched
// lengths, missing vectors, and zero-magnitude vectors all score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// FirstVector defensively unwraps a provider's embedding response. Some
// providers return a single-element batch ([[...]]) where a plain vector is
// expected; this returns the first usable vector, or nil if there is none.
func FirstVector(vecs [][]float32) []float32 {
	for _, v := range vecs {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}
