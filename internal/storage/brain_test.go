package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thomasbaier2/SecondBrain/internal/config"
	"github.com/thomasbaier2/SecondBrain/internal/priority"
	"github.com/thomasbaier2/SecondBrain/internal/types"
)

type recordingIndex struct {
	indexed []string
	results []types.ScoredRecord
	err     error
}

func (r *recordingIndex) Index(_ context.Context, text string, _ map[string]any) error {
	r.indexed = append(r.indexed, text)
	return nil
}

func (r *recordingIndex) Search(context.Context, string, int) ([]types.ScoredRecord, error) {
	return r.results, r.err
}

func newTestStore(t *testing.T, index MemoryIndex) *BrainStore {
	t.Helper()
	engine := priority.NewEngine(config.DefaultConfig().Triage)
	s, err := Open(filepath.Join(t.TempDir(), "personal_brain.json"), engine, index, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestStoreTask_DefaultsAndTypeDetection(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	stored, err := s.StoreTask(ctx, types.Task{Title: "Write report"})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, types.StatusOpen, stored.Status)
	assert.Equal(t, types.PriorityMedium, stored.Priority)
	assert.Equal(t, "aufgabe", stored.Type)

	termin := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	stored, err = s.StoreTask(ctx, types.Task{Title: "Zahnarzt", TerminAt: &termin})
	require.NoError(t, err)
	assert.Equal(t, "termin", stored.Type)

	stored, err = s.StoreTask(ctx, types.Task{Title: "Quick call", DurationM: 5})
	require.NoError(t, err)
	assert.Equal(t, "todo", stored.Type)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personal_brain.json")
	engine := priority.NewEngine(config.DefaultConfig().Triage)

	s, err := Open(path, engine, nil, zap.NewNop())
	require.NoError(t, err)
	_, err = s.StoreTask(context.Background(), types.Task{Title: "Persist me"})
	require.NoError(t, err)
	require.NoError(t, s.SetPreference("language", "de-DE", 0.9))

	reopened, err := Open(path, engine, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, reopened.Tasks(TaskFilter{}), 1)
	assert.Equal(t, "de-DE", reopened.Preferences()["language"].Value)
}

func TestStore_CorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personal_brain.json")
	require.NoError(t, os.WriteFile(path, []byte("###"), 0644))

	s, err := Open(path, priority.NewEngine(config.DefaultConfig().Triage), nil, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, s.Tasks(TaskFilter{}))
}

func TestUpdateTask_AppliesAndStamps(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	stored, err := s.StoreTask(ctx, types.Task{Title: "Draft"})
	require.NoError(t, err)

	updated, err := s.UpdateTask(ctx, stored.ID, func(task *types.Task) {
		task.Status = types.StatusCompleted
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, updated.Status)
	assert.NotNil(t, updated.UpdatedAt)

	_, err = s.UpdateTask(ctx, "missing", func(*types.Task) {})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTask(t *testing.T) {
	s := newTestStore(t, nil)
	stored, err := s.StoreTask(context.Background(), types.Task{Title: "Ephemeral"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTask(stored.ID))
	assert.Empty(t, s.Tasks(TaskFilter{}))
	assert.ErrorIs(t, s.DeleteTask(stored.ID), ErrNotFound)
}

func TestTasks_Filtering(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	_, err := s.StoreTask(ctx, types.Task{Title: "A", Category: "work"})
	require.NoError(t, err)
	_, err = s.StoreTask(ctx, types.Task{Title: "B", Category: "home", Priority: types.PriorityHigh})
	require.NoError(t, err)

	assert.Len(t, s.Tasks(TaskFilter{Category: "work"}), 1)
	assert.Len(t, s.Tasks(TaskFilter{Category: "all"}), 2)
	assert.Len(t, s.Tasks(TaskFilter{Priority: "high"}), 1)
}

func TestStoreTask_IndexesOnWrite(t *testing.T) {
	idx := &recordingIndex{}
	s := newTestStore(t, idx)

	_, err := s.StoreTask(context.Background(), types.Task{Title: "Review", Description: "budget deck"})
	require.NoError(t, err)
	require.Len(t, idx.indexed, 1)
	assert.Equal(t, "Review budget deck", idx.indexed[0])
}

func TestQuery_FallsBackToTextSearch(t *testing.T) {
	idx := &recordingIndex{err: errors.New("index down")}
	s := newTestStore(t, idx)
	ctx := context.Background()

	_, err := s.StoreTask(ctx, types.Task{Title: "Budget planning", Description: "Q3 numbers"})
	require.NoError(t, err)
	_, err = s.StoreContext(ctx, "Met Anna about the budget", nil)
	require.NoError(t, err)

	results := s.Query(ctx, "budget", 10)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, 0.5, r.Score)
	}
}

func TestRefreshUrgency(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	now := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	due, err := s.StoreTask(ctx, types.Task{Title: "Due", ProcessAt: &past})
	require.NoError(t, err)
	_, err = s.StoreTask(ctx, types.Task{Title: "Later", ProcessAt: &future})
	require.NoError(t, err)
	completed, err := s.StoreTask(ctx, types.Task{Title: "Done", ProcessAt: &past})
	require.NoError(t, err)
	_, err = s.UpdateTask(ctx, completed.ID, func(task *types.Task) {
		task.Status = types.StatusCompleted
		task.Priority = types.PriorityLow
	})
	require.NoError(t, err)

	changed, err := s.RefreshUrgency(now)
	require.NoError(t, err)
	assert.True(t, changed)

	byID := map[string]types.Task{}
	for _, task := range s.Tasks(TaskFilter{}) {
		byID[task.ID] = task
	}
	assert.Equal(t, types.PriorityUrgent, byID[due.ID].Priority)
	assert.Equal(t, types.PriorityLow, byID[completed.ID].Priority)

	// Second sweep is a no-op.
	changed, err = s.RefreshUrgency(now)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestEisenhowerMatrix_TodayWindow(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	now := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)
	soon := now.Add(6 * time.Hour)
	nextMonth := now.Add(25 * 24 * time.Hour)

	_, err := s.StoreTask(ctx, types.Task{Title: "Due soon", UrgencyScr: 3, DeadlineAt: &soon})
	require.NoError(t, err)
	_, err = s.StoreTask(ctx, types.Task{Title: "Far out", UrgencyScr: 2, ImportanceScr: 3, DeadlineAt: &nextMonth})
	require.NoError(t, err)

	today := s.EisenhowerMatrix(types.WindowToday, now)
	require.Len(t, today, 1)
	assert.Equal(t, "Due soon", today[0].Title)
	assert.Equal(t, 7, today[0].CalculatedUrgency)
}
