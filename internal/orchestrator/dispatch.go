package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thomasbaier2/SecondBrain/internal/config"
	"github.com/thomasbaier2/SecondBrain/internal/llm"
	"github.com/thomasbaier2/SecondBrain/internal/policy"
	"github.com/thomasbaier2/SecondBrain/internal/session"
	"github.com/thomasbaier2/SecondBrain/internal/types"
)

// Agent handles all requests routed to one domain. Implementations must be
// safe for concurrent use; Run is invoked from dispatch goroutines.
type Agent interface {
	Run(ctx context.Context, task types.AgentTask) types.Result
}

// Response is the synthesized answer to one request: human-readable text
// (with an embedded machine-readable payload block), the structured UI
// payload, the raw per-domain results, and the session trace summary.
type Response struct {
	Text      string                  `json:"text"`
	UIPayload map[string]any          `json:"ui_payload,omitempty"`
	Details   map[string]types.Result `json:"details"`
	Session   session.Summary         `json:"_session"`
}

// Orchestrator routes requests to registered domain agents and synthesizes
// their results into a single response.
type Orchestrator struct {
	mu       sync.RWMutex
	agents   map[types.Domain]Agent
	intents  config.IntentsConfig
	policies *policy.Registry
	llm      llm.Client
	synth    *Synthesizer
	logger   *zap.Logger
}

// New builds an orchestrator with no agents registered. llmClient may be nil;
// generation-dependent features (appointment extraction, mail summaries)
// degrade to their fallbacks.
func New(intents config.IntentsConfig, policies *policy.Registry, llmClient llm.Client, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		agents:   make(map[types.Domain]Agent),
		intents:  intents,
		policies: policies,
		llm:      llmClient,
		synth:    NewSynthesizer(intents, llmClient, logger),
		logger:   logger,
	}
}

// RegisterAgent binds an agent to a domain. Unknown domains are rejected so a
// typo cannot silently create an unreachable handler.
func (o *Orchestrator) RegisterAgent(domain types.Domain, agent Agent) error {
	if !domain.Valid() {
		return fmt.Errorf("register agent: unknown domain %q", domain)
	}
	if agent == nil {
		return fmt.Errorf("register agent: nil agent for domain %q", domain)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.agents[domain] = agent
	return nil
}

// ProcessRequest runs the full pipeline for one user message: classify,
// fan out to every routed domain concurrently, policy-check each result,
// then synthesize a single response. Every stage appends to the session
// trace. The per-domain result map always has one entry per routed domain
// with a registered agent, even when the handler panicked.
func (o *Orchestrator) ProcessRequest(ctx context.Context, message string) Response {
	sess := session.New(o.logger)
	sess.AddStep("Orchestrator", "intent_start", map[string]any{"text": message})

	analysis := o.ClassifyIntent(ctx, message)
	sess.AddStep("Orchestrator", "intent_analyzed", map[string]any{
		"domains": analysis.Domains,
		"intents": analysis.Intents,
		"sync":    analysis.IsSyncRequest,
	})

	results := make(map[string]types.Result)
	var resultsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, domain := range analysis.Domains {
		o.mu.RLock()
		agent, ok := o.agents[domain]
		o.mu.RUnlock()
		if !ok {
			o.logger.Warn("no agent registered", zap.String("domain", string(domain)))
			sess.AddStep("Orchestrator", "warning_agent_missing", map[string]any{"domain": domain})
			continue
		}

		task := o.buildAgentTask(domain, message, analysis)
		sess.AddStep(string(domain), "executing_"+task.Action, map[string]any{"days": task.Days})

		g.Go(func() error {
			result := o.runAgent(gctx, domain, agent, task, sess)
			resultsMu.Lock()
			results[string(domain)] = result
			resultsMu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors, failures live in the result map

	resp := o.synth.Synthesize(ctx, message, analysis, results)
	resp.Details = results

	sess.Complete(resp.Text)
	resp.Session = sess.Summary()
	return resp
}

// runAgent executes one agent and applies the policy gate to its result. A
// panicking handler is converted into an error result for its domain; the
// other domains are unaffected.
func (o *Orchestrator) runAgent(ctx context.Context, domain types.Domain, agent Agent, task types.AgentTask, sess *session.Session) (result types.Result) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("agent panicked",
				zap.String("domain", string(domain)), zap.Any("panic", r))
			result = types.Errf("agent %s panicked: %v", domain, r)
			sess.AddStep(string(domain), "agent_panic", map[string]any{"panic": fmt.Sprint(r)})
		}
	}()

	result = agent.Run(ctx, task)

	if o.policies != nil && result.Success() {
		action := policy.Action{Type: task.Action, StartTime: startTimeOf(task, result)}
		if verdict := o.policies.Validate(action); !verdict.Valid {
			sess.AddStep(string(domain), "policy_violation", map[string]any{"reason": verdict.Reason})
			// Downgrade but keep the original data so the caller can
			// still inspect what the agent produced.
			return types.Result{Kind: types.ResultError, Err: verdict.Reason, Data: result.Data}
		}
	}

	sess.AddStep(string(domain), "result_ready", map[string]any{"ok": result.Success()})
	return result
}

// buildAgentTask derives the per-domain action with a fixed precedence:
// explicit create intent, then sync request, then domain sub-intent, then
// the domain default.
func (o *Orchestrator) buildAgentTask(domain types.Domain, message string, analysis IntentAnalysis) types.AgentTask {
	task := types.AgentTask{Message: message, Days: 14}

	switch domain {
	case types.DomainGmail:
		task.Action = "basic_review"
		if analysis.IsSyncRequest {
			task.Action = "sync_eisenhauer"
		}
	case types.DomainMsGraph:
		switch {
		case analysis.Intents.Create && analysis.AppointmentDetails != nil:
			task.Action = "create_appointment"
			task.Details = analysis.AppointmentDetails
		case analysis.IsSyncRequest:
			task.Action = "basic_review"
		default:
			task.Action = "sync_calendar"
		}
	case types.DomainSalesforce:
		task.Action = "sync_opportunities"
	case types.DomainTasks:
		task.Action = "list_tasks"
	}
	return task
}

// startTimeOf finds the start time a policy rule should judge: explicit
// appointment details win, otherwise the agent result data is probed for the
// usual field names.
func startTimeOf(task types.AgentTask, result types.Result) time.Time {
	raw := ""
	if task.Details != nil {
		raw = task.Details.Start
	}
	if raw == "" && result.Data != nil {
		if encoded, err := jsonMarshal(result.Data); err == nil {
			for _, path := range []string{"startTime", "start"} {
				if v := gjson.GetBytes(encoded, path); v.Exists() {
					raw = v.String()
					break
				}
			}
		}
	}
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
