// Package memory implements the conversational similarity index: an
// append-only, file-backed collection of (text, vector, metadata) records
// ranked against queries by cosine similarity. Suitable for collections well
// under 10k records; every write rewrites the whole file.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thomasbaier2/SecondBrain/internal/embedding"
	"github.com/thomasbaier2/SecondBrain/internal/types"
)

// Index is a file-backed vector index over conversational memory. Records are
// immutable once indexed; there is no delete operation.
type Index struct {
	mu       sync.RWMutex
	path     string
	embedder embedding.Embedder
	logger   *zap.Logger
	records  []types.MemoryRecord
}

// NewIndex opens (or creates) the index at path. A corrupt or missing file
// yields an empty index rather than an error.
func NewIndex(path string, embedder embedding.Embedder, logger *zap.Logger) (*Index, error) {
	idx := &Index{
		path:     path,
		embedder: embedder,
		logger:   logger,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read memory file: %w", err)
		}
		return idx, nil
	}

	if err := json.Unmarshal(data, &idx.records); err != nil {
		logger.Warn("memory file corrupt, starting empty",
			zap.String("path", path), zap.Error(err))
		idx.records = nil
		return idx, nil
	}

	logger.Info("memory loaded", zap.Int("records", len(idx.records)))
	return idx, nil
}

// Len returns the number of indexed records.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.records)
}

// Index embeds text, appends the record, and persists the collection
// synchronously before returning.
func (idx *Index) Index(ctx context.Context, text string, metadata map[string]any) error {
	vec, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed text: %w", err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.records = append(idx.records, types.MemoryRecord{
		Text:      text,
		Embedding: vec,
		Metadata:  metadata,
		Timestamp: time.Now(),
	})

	if err := idx.save(); err != nil {
		return err
	}

	idx.logger.Debug("memory indexed",
		zap.Int("vector_len", len(vec)), zap.Int("total", len(idx.records)))
	return nil
}

// Search embeds the query and returns the top limit records by descending
// cosine similarity. No threshold filtering is applied; that is a caller
// concern. If no usable query vector can be obtained, the result is empty
// rather than an error.
func (idx *Index) Search(ctx context.Context, query string, limit int) ([]types.ScoredRecord, error) {
	if limit <= 0 {
		limit = 3
	}

	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(queryVec) == 0 {
		idx.logger.Warn("no query vector generated", zap.String("query", query))
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	scored := make([]types.ScoredRecord, 0, len(idx.records))
	for _, rec := range idx.records {
		scored = append(scored, types.ScoredRecord{
			MemoryRecord: rec,
			Score:        embedding.CosineSimilarity(queryVec, rec.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// save writes the full collection to disk. Caller holds the write lock.
func (idx *Index) save() error {
	data, err := json.MarshalIndent(idx.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal memory: %w", err)
	}
	if err := os.WriteFile(idx.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write memory file: %w", err)
	}
	return nil
}
