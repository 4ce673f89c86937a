package agents

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thomasbaier2/SecondBrain/internal/types"
)

// GraphAgent serves the Microsoft surface: calendar listing, appointment
// creation, and the combined review. The review uses the nested section shape
// ({calendar: {...}, tasks: {...}, mails: {count, mails}}).
type GraphAgent struct {
	connector GraphConnector
	logger    *zap.Logger
}

func NewGraphAgent(connector GraphConnector, logger *zap.Logger) *GraphAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphAgent{connector: connector, logger: logger}
}

func (a *GraphAgent) Run(ctx context.Context, task types.AgentTask) types.Result {
	if !a.connector.Authorized() {
		return types.AuthRequired("Microsoft-Anmeldung erforderlich")
	}

	switch task.Action {
	case "create_appointment":
		return a.createAppointment(task)
	case "basic_review":
		return a.basicReview(ctx, task)
	case "sync_calendar":
		events, err := a.connector.Events(ctx, daysOr(task.Days, 14))
		if err != nil {
			a.logger.Warn("calendar fetch failed", zap.Error(err))
			return types.Errf("ms_graph: %v", err)
		}
		return types.OK(map[string]any{"count": len(events), "events": events})
	default:
		return types.Errf("ms_graph: unsupported action %q", task.Action)
	}
}

// createAppointment confirms the extracted appointment. Without extracted
// details there is nothing to schedule.
func (a *GraphAgent) createAppointment(task types.AgentTask) types.Result {
	if task.Details == nil {
		return types.Errf("ms_graph: appointment details missing")
	}
	created := CreatedAppointment{
		ID:        uuid.NewString(),
		Subject:   task.Details.Subject,
		StartTime: task.Details.Start,
		EndTime:   task.Details.End,
		Location:  task.Details.Location,
	}
	a.logger.Info("appointment created",
		zap.String("subject", created.Subject), zap.String("start", created.StartTime))
	return types.OK(map[string]any{"appointment": created, "startTime": created.StartTime})
}

func (a *GraphAgent) basicReview(ctx context.Context, task types.AgentTask) types.Result {
	days := daysOr(task.Days, 14)

	events, err := a.connector.Events(ctx, days)
	if err != nil {
		return types.Errf("ms_graph: %v", err)
	}
	tasks, err := a.connector.Tasks(ctx)
	if err != nil {
		return types.Errf("ms_graph: %v", err)
	}
	mails, err := a.connector.Mails(ctx, days)
	if err != nil {
		return types.Errf("ms_graph: %v", err)
	}

	return types.OK(map[string]any{
		"calendar": map[string]any{"count": len(events), "events": events},
		"tasks":    map[string]any{"count": len(tasks), "tasks": tasks},
		"mails":    map[string]any{"count": len(mails), "mails": mails},
	})
}

func daysOr(days, fallback int) int {
	if days <= 0 {
		return fallback
	}
	return days
}
