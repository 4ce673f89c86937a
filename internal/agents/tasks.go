package agents

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/thomasbaier2/SecondBrain/internal/storage"
	"github.com/thomasbaier2/SecondBrain/internal/types"
)

// TasksAgent serves the local task store, including the prioritized
// Eisenhower view.
type TasksAgent struct {
	store  *storage.BrainStore
	logger *zap.Logger
	now    func() time.Time
}

func NewTasksAgent(store *storage.BrainStore, logger *zap.Logger) *TasksAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TasksAgent{store: store, logger: logger, now: time.Now}
}

func (a *TasksAgent) Run(ctx context.Context, task types.AgentTask) types.Result {
	switch task.Action {
	case "list_tasks":
		open := a.store.Tasks(storage.TaskFilter{Status: string(types.StatusOpen)})
		return types.OK(map[string]any{"count": len(open), "tasks": open})
	case "eisenhower_matrix":
		scored := a.store.EisenhowerMatrix(types.WindowAll, a.now())
		return types.OK(map[string]any{"count": len(scored), "matrix": scored})
	default:
		return types.Errf("tasks: unsupported action %q", task.Action)
	}
}
