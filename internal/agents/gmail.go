package agents

import (
	"context"

	"go.uber.org/zap"

	"github.com/thomasbaier2/SecondBrain/internal/types"
)

// GmailAgent serves mail review and sync actions. Result data uses the flat
// {count, mails} shape.
type GmailAgent struct {
	connector GmailConnector
	logger    *zap.Logger
}

func NewGmailAgent(connector GmailConnector, logger *zap.Logger) *GmailAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GmailAgent{connector: connector, logger: logger}
}

func (a *GmailAgent) Run(ctx context.Context, task types.AgentTask) types.Result {
	if !a.connector.Authorized() {
		return types.AuthRequired("Google-Anmeldung erforderlich")
	}

	switch task.Action {
	case "sync_eisenhauer", "basic_review":
		days := task.Days
		if days <= 0 {
			days = 14
		}
		mails, err := a.connector.Mails(ctx, days)
		if err != nil {
			a.logger.Warn("gmail fetch failed", zap.Error(err))
			return types.Errf("gmail: %v", err)
		}
		return types.OK(map[string]any{"count": len(mails), "mails": mails})
	default:
		return types.Errf("gmail: unsupported action %q", task.Action)
	}
}
