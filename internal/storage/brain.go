// Package storage implements the personal brain store: a single JSON file
// holding tasks, free-form contexts, and learned preferences. Every mutation
// rewrites the whole file; the process is assumed to be the only writer.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thomasbaier2/SecondBrain/internal/priority"
	"github.com/thomasbaier2/SecondBrain/internal/types"
)

// ErrNotFound is returned when an item id does not exist.
var ErrNotFound = errors.New("item not found")

// Context is one free-form remembered note.
type Context struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MemoryIndex is the similarity index seam consumed for index-on-write and
// semantic queries. Record deletion is not part of the contract: removing a
// task leaves its indexed snippet behind.
type MemoryIndex interface {
	Index(ctx context.Context, text string, metadata map[string]any) error
	Search(ctx context.Context, query string, limit int) ([]types.ScoredRecord, error)
}

// TaskFilter narrows Tasks results. Empty or "all" fields match everything.
type TaskFilter struct {
	Category string
	Status   string
	Priority string
}

type fileData struct {
	Tasks       []types.Task                `json:"tasks"`
	Contexts    []Context                   `json:"contexts"`
	Preferences map[string]types.Preference `json:"preferences"`
}

// BrainStore is the on-disk store. All access goes through its mutex; there
// is no file locking, so a second writer process would race.
type BrainStore struct {
	mu     sync.RWMutex
	path   string
	data   fileData
	index  MemoryIndex // optional
	engine *priority.Engine
	logger *zap.Logger
}

// Open loads (or creates) the store at path. A corrupt file is logged and
// replaced with an empty structure rather than failing.
func Open(path string, engine *priority.Engine, index MemoryIndex, logger *zap.Logger) (*BrainStore, error) {
	s := &BrainStore{
		path:   path,
		index:  index,
		engine: engine,
		logger: logger,
		data:   fileData{Preferences: map[string]types.Preference{}},
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read brain file: %w", err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		logger.Warn("brain file corrupt, starting empty", zap.String("path", path), zap.Error(err))
		s.data = fileData{Preferences: map[string]types.Preference{}}
		return s, nil
	}
	if s.data.Preferences == nil {
		s.data.Preferences = map[string]types.Preference{}
	}

	logger.Info("brain loaded",
		zap.Int("tasks", len(s.data.Tasks)),
		zap.Int("contexts", len(s.data.Contexts)))
	return s, nil
}

// save writes the whole structure to disk. Caller holds the write lock.
func (s *BrainStore) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal brain: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write brain file: %w", err)
	}
	return nil
}

// =============================================================================
// TASKS
// =============================================================================

// StoreTask persists a new task, filling defaults: generated id, status open,
// priority medium, auto-detected type. The stored task is indexed for
// semantic search when an index is configured.
func (s *BrainStore) StoreTask(ctx context.Context, task types.Task) (types.Task, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = types.StatusOpen
	}
	if task.Priority == "" {
		task.Priority = types.PriorityMedium
	}
	if task.Type == "" {
		task.Type = detectType(task)
	}
	task.Timestamp = time.Now()

	s.mu.Lock()
	s.data.Tasks = append(s.data.Tasks, task)
	err := s.save()
	s.mu.Unlock()
	if err != nil {
		return types.Task{}, err
	}

	s.indexText(ctx, strings.TrimSpace(task.Title+" "+task.Description), map[string]any{
		"type":    "brain_task",
		"brainId": task.ID,
	})
	return task, nil
}

// UpdateTask applies non-zero fields of updates to the task with the given
// id. The update timestamp is set automatically.
func (s *BrainStore) UpdateTask(ctx context.Context, id string, apply func(*types.Task)) (types.Task, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.data.Tasks {
		if s.data.Tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return types.Task{}, fmt.Errorf("update task %s: %w", id, ErrNotFound)
	}

	apply(&s.data.Tasks[idx])
	nowT := time.Now()
	s.data.Tasks[idx].UpdatedAt = &nowT
	updated := s.data.Tasks[idx]
	err := s.save()
	s.mu.Unlock()
	if err != nil {
		return types.Task{}, err
	}

	s.indexText(ctx, strings.TrimSpace(updated.Title+" "+updated.Description), map[string]any{
		"type":    "brain_task",
		"brainId": updated.ID,
	})
	return updated, nil
}

// DeleteTask removes a task. The similarity index keeps any snippet indexed
// for it; index deletion is not implemented.
func (s *BrainStore) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.data.Tasks)
	kept := s.data.Tasks[:0]
	for _, t := range s.data.Tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.data.Tasks = kept

	if len(s.data.Tasks) == before {
		return fmt.Errorf("delete task %s: %w", id, ErrNotFound)
	}
	return s.save()
}

// Tasks returns the stored tasks matching the filter.
func (s *BrainStore) Tasks(filter TaskFilter) []types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := func(want, have string) bool {
		return want == "" || want == "all" || want == have
	}

	var out []types.Task
	for _, t := range s.data.Tasks {
		if !matches(filter.Category, t.Category) {
			continue
		}
		if !matches(filter.Status, string(t.Status)) {
			continue
		}
		if !matches(filter.Priority, string(t.Priority)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// detectType mirrors the intake heuristic: fixed-time entries are termine or
// events, anything under ten minutes is a todo, the rest are aufgaben.
func detectType(task types.Task) string {
	if task.TerminAt != nil {
		return "termin"
	}
	if task.EventAt != nil {
		return "event"
	}
	totalMinutes := task.DurationH*60 + task.DurationM
	if totalMinutes > 0 && totalMinutes < 10 {
		return "todo"
	}
	return "aufgabe"
}

// =============================================================================
// CONTEXTS & PREFERENCES
// =============================================================================

// StoreContext persists a free-form note and indexes it when possible.
func (s *BrainStore) StoreContext(ctx context.Context, content string, tags []string) (Context, error) {
	c := Context{
		ID:        uuid.NewString(),
		Content:   content,
		Tags:      tags,
		Timestamp: time.Now(),
	}

	s.mu.Lock()
	s.data.Contexts = append(s.data.Contexts, c)
	err := s.save()
	s.mu.Unlock()
	if err != nil {
		return Context{}, err
	}

	s.indexText(ctx, strings.TrimSpace(content), map[string]any{
		"type":    "brain_context",
		"brainId": c.ID,
	})
	return c, nil
}

// Contexts returns stored notes, optionally filtered by tag overlap.
func (s *BrainStore) Contexts(tags []string) []Context {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(tags) == 0 {
		out := make([]Context, len(s.data.Contexts))
		copy(out, s.data.Contexts)
		return out
	}

	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}

	var out []Context
	for _, c := range s.data.Contexts {
		for _, tag := range c.Tags {
			if want[tag] {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// SetPreference stores one learned preference with its confidence.
func (s *BrainStore) SetPreference(key string, value any, confidence float64) error {
	if confidence == 0 {
		confidence = 0.5
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Preferences[key] = types.Preference{
		Value:      value,
		Confidence: confidence,
		LearnedAt:  time.Now(),
	}
	return s.save()
}

// Preferences returns the learned preference map.
func (s *BrainStore) Preferences() map[string]types.Preference {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]types.Preference, len(s.data.Preferences))
	for k, v := range s.data.Preferences {
		out[k] = v
	}
	return out
}

// =============================================================================
// QUERY, SWEEP, MATRIX
// =============================================================================

// Query searches the brain. With a similarity index it is semantic; without
// one (or when the index errors) it degrades to substring search over tasks
// and contexts at a flat score.
func (s *BrainStore) Query(ctx context.Context, query string, limit int) []types.ScoredRecord {
	if limit <= 0 {
		limit = 10
	}

	if s.index != nil {
		results, err := s.index.Search(ctx, query, limit)
		if err == nil {
			return results
		}
		s.logger.Warn("vector search failed, falling back to text search", zap.Error(err))
	}
	return s.textSearch(query, limit)
}

func (s *BrainStore) textSearch(query string, limit int) []types.ScoredRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term := strings.ToLower(query)
	var out []types.ScoredRecord

	for _, t := range s.data.Tasks {
		text := strings.ToLower(t.Title + " " + t.Description)
		if strings.Contains(text, term) {
			out = append(out, types.ScoredRecord{
				MemoryRecord: types.MemoryRecord{
					Text:      t.Title + ": " + t.Description,
					Metadata:  map[string]any{"type": "task", "id": t.ID},
					Timestamp: t.Timestamp,
				},
				Score: 0.5,
			})
		}
	}
	for _, c := range s.data.Contexts {
		if strings.Contains(strings.ToLower(c.Content), term) {
			out = append(out, types.ScoredRecord{
				MemoryRecord: types.MemoryRecord{
					Text:      c.Content,
					Metadata:  map[string]any{"type": "context", "id": c.ID},
					Timestamp: c.Timestamp,
				},
				Score: 0.5,
			})
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RefreshUrgency promotes open tasks whose process_at has passed to urgent.
// Returns whether anything changed; the file is only rewritten when it did.
func (s *BrainStore) RefreshUrgency(now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for i := range s.data.Tasks {
		t := &s.data.Tasks[i]
		if t.Status == types.StatusCompleted || t.ProcessAt == nil {
			continue
		}
		if now.Before(*t.ProcessAt) {
			continue
		}
		if t.Priority != types.PriorityUrgent && t.Priority != types.PriorityHigh {
			t.Priority = types.PriorityUrgent
			changed = true
		}
	}

	if !changed {
		return false, nil
	}
	return true, s.save()
}

// EisenhowerMatrix scores every open task and filters to the window.
func (s *BrainStore) EisenhowerMatrix(window types.Window, now time.Time) []types.ScoredTask {
	open := s.Tasks(TaskFilter{Status: string(types.StatusOpen)})
	scored := s.engine.ClassifyAll(open, now)
	return priority.FilterByWindow(scored, window, now)
}

// indexText best-effort indexes a snippet; indexing failures are logged, not
// surfaced, because persistence already succeeded.
func (s *BrainStore) indexText(ctx context.Context, text string, metadata map[string]any) {
	if s.index == nil || text == "" {
		return
	}
	if err := s.index.Index(ctx, text, metadata); err != nil {
		s.logger.Warn("vector indexing failed", zap.Error(err))
	}
}
