// Package orchestrator implements the request-routing and result-synthesis
// engine: keyword-driven intent classification, concurrent fan-out to domain
// agents, policy checks, and deterministic synthesis of one response from the
// per-domain result map.
package orchestrator

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/thomasbaier2/SecondBrain/internal/config"
	"github.com/thomasbaier2/SecondBrain/internal/types"
)

// IntentFlags are the coarse sub-intents detected in a request.
type IntentFlags struct {
	Calendar bool `json:"calendar"`
	Tasks    bool `json:"tasks"`
	Mail     bool `json:"mail"`
	Create   bool `json:"create"`
}

// IntentAnalysis is the outcome of classifying one request. Domain keyword
// overlap is intentional broad recall: "sync" fanning out to several domains
// is the desired behavior, not noise.
type IntentAnalysis struct {
	Domains            []types.Domain            `json:"domains"`
	Intents            IntentFlags               `json:"intents"`
	IsSyncRequest      bool                      `json:"isSyncRequest"`
	AppointmentDetails *types.AppointmentDetails `json:"appointmentDetails,omitempty"`
}

// HasDomain reports whether the analysis routed to the given domain.
func (a IntentAnalysis) HasDomain(d types.Domain) bool {
	for _, dom := range a.Domains {
		if dom == d {
			return true
		}
	}
	return false
}

// ClassifyIntent maps free text to target domains and sub-intents by
// case-insensitive substring matching against the configured keyword sets.
// When calendar and create intents coincide, structured appointment details
// are extracted via the generation capability; extraction failure degrades to
// nil details rather than failing classification.
func (o *Orchestrator) ClassifyIntent(ctx context.Context, message string) IntentAnalysis {
	o.mu.RLock()
	intents := o.intents
	o.mu.RUnlock()

	msg := strings.ToLower(message)

	analysis := IntentAnalysis{
		Intents: IntentFlags{
			Calendar: containsAny(msg, intents.Calendar),
			Tasks:    containsAny(msg, intents.Tasks),
			Mail:     containsAny(msg, intents.Mail),
			Create:   containsAny(msg, intents.Create),
		},
		IsSyncRequest: containsAny(msg, intents.Sync),
	}

	// Domain order is fixed so dispatch and traces are deterministic.
	for _, domain := range types.KnownDomains() {
		if containsAny(msg, intents.Domains[string(domain)]) {
			analysis.Domains = append(analysis.Domains, domain)
		}
	}

	if analysis.Intents.Calendar && analysis.Intents.Create {
		analysis.AppointmentDetails = o.extractAppointmentDetails(ctx, message)
	}

	return analysis
}

// extractAppointmentDetails asks the generation capability for the fixed
// appointment shape. Any failure yields nil; downstream handlers report
// missing details instead of crashing.
func (o *Orchestrator) extractAppointmentDetails(ctx context.Context, message string) *types.AppointmentDetails {
	if o.llm == nil {
		return nil
	}

	prompt := `Extract the appointment details from the user message below.
Respond with a single JSON object with these keys:
  "subject": short title of the appointment (required)
  "start": start time as an ISO 8601 timestamp (required)
  "end": end time as an ISO 8601 timestamp, or "" if not given
  "location": location, or "" if not given
  "description": additional notes, or "" if not given
Resolve relative dates ("morgen", "Montag") against the current date.

USER MESSAGE: "` + message + `"`

	var details types.AppointmentDetails
	if err := o.llm.GenerateJSON(ctx, prompt, &details); err != nil {
		o.logger.Warn("appointment extraction failed", zap.Error(err))
		return nil
	}
	if details.Subject == "" || details.Start == "" {
		o.logger.Warn("appointment extraction incomplete",
			zap.String("subject", details.Subject), zap.String("start", details.Start))
		return nil
	}
	return &details
}

// UpdateIntents swaps the intent keyword sets for classification and
// synthesis (config hot-reload).
func (o *Orchestrator) UpdateIntents(cfg config.IntentsConfig) {
	o.mu.Lock()
	o.intents = cfg
	o.mu.Unlock()
	o.synth.UpdateIntents(cfg)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
