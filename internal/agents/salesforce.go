package agents

import (
	"context"

	"go.uber.org/zap"

	"github.com/thomasbaier2/SecondBrain/internal/types"
)

// SalesforceAgent surfaces the open pipeline.
type SalesforceAgent struct {
	connector SalesforceConnector
	logger    *zap.Logger
}

func NewSalesforceAgent(connector SalesforceConnector, logger *zap.Logger) *SalesforceAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesforceAgent{connector: connector, logger: logger}
}

func (a *SalesforceAgent) Run(ctx context.Context, task types.AgentTask) types.Result {
	if !a.connector.Authorized() {
		return types.AuthRequired("Salesforce-Anmeldung erforderlich")
	}

	switch task.Action {
	case "sync_opportunities":
		opps, err := a.connector.Opportunities(ctx)
		if err != nil {
			a.logger.Warn("opportunity fetch failed", zap.Error(err))
			return types.Errf("salesforce: %v", err)
		}
		return types.OK(map[string]any{"count": len(opps), "opportunities": opps})
	default:
		return types.Errf("salesforce: unsupported action %q", task.Action)
	}
}
